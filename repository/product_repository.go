package repository

import (
	"database/sql"
	"fmt"
	"time"

	"partstream/database"
	"partstream/models"

	"github.com/google/uuid"
)

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// GetAllProducts returns every product in the catalog
func (r *ProductRepository) GetAllProducts() ([]models.Product, error) {
	query := `
		SELECT id, code, name, price, cost, stock, category, image, created_at, updated_at
		FROM products
		ORDER BY name
	`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.Price, &p.Cost,
			&p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, p)
	}

	return products, nil
}

// GetProductByID returns a single product
func (r *ProductRepository) GetProductByID(id string) (*models.Product, error) {
	query := `
		SELECT id, code, name, price, cost, stock, category, image, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var p models.Product
	err := database.DB.QueryRow(query, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.Price, &p.Cost,
		&p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	return &p, nil
}

// CreateProduct inserts a new product
func (r *ProductRepository) CreateProduct(req *models.SaveProductRequest) (*models.Product, error) {
	query := `
		INSERT INTO products (id, code, name, price, cost, stock, category, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, code, name, price, cost, stock, category, image, created_at, updated_at
	`

	var p models.Product
	now := time.Now()
	err := database.DB.QueryRow(query,
		uuid.NewString(), req.Code, req.Name, req.Price, req.Cost,
		req.Stock, req.Category, req.Image, now,
	).Scan(
		&p.ID, &p.Code, &p.Name, &p.Price, &p.Cost,
		&p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %v", err)
	}

	return &p, nil
}

// UpdateProduct replaces an existing product's fields
func (r *ProductRepository) UpdateProduct(id string, req *models.SaveProductRequest) (*models.Product, error) {
	query := `
		UPDATE products
		SET code = $2, name = $3, price = $4, cost = $5, stock = $6, category = $7, image = $8, updated_at = $9
		WHERE id = $1
		RETURNING id, code, name, price, cost, stock, category, image, created_at, updated_at
	`

	var p models.Product
	err := database.DB.QueryRow(query,
		id, req.Code, req.Name, req.Price, req.Cost,
		req.Stock, req.Category, req.Image, time.Now(),
	).Scan(
		&p.ID, &p.Code, &p.Name, &p.Price, &p.Cost,
		&p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to update product: %v", err)
	}

	return &p, nil
}

// DeleteProduct removes a product from the catalog
func (r *ProductRepository) DeleteProduct(id string) error {
	result, err := database.DB.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("product not found")
	}

	return nil
}
