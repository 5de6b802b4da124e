package repository

import (
	"database/sql"
	"fmt"
	"time"

	"partstream/database"
	"partstream/models"

	"github.com/google/uuid"
)

type SourceRepository struct{}

func NewSourceRepository() *SourceRepository {
	return &SourceRepository{}
}

const sourceColumns = `id, name, url_template, color, logo_path, price_selector, cookies_config, strategy_key, requires_login, active, created_at, updated_at`

func scanSource(row interface{ Scan(...interface{}) error }) (*models.ExternalSource, error) {
	var s models.ExternalSource
	err := row.Scan(
		&s.ID, &s.Name, &s.URLTemplate, &s.Color, &s.LogoPath,
		&s.PriceSelector, &s.CookiesConfig, &s.StrategyKey,
		&s.RequiresLogin, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetAllSources returns every configured external source
func (r *SourceRepository) GetAllSources() ([]models.ExternalSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM external_sources ORDER BY created_at`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %v", err)
	}
	defer rows.Close()

	var sources []models.ExternalSource
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %v", err)
		}
		sources = append(sources, *s)
	}

	return sources, nil
}

// GetActiveSources returns only sources enabled for scraping
func (r *SourceRepository) GetActiveSources() ([]models.ExternalSource, error) {
	sources, err := r.GetAllSources()
	if err != nil {
		return nil, err
	}

	active := sources[:0]
	for _, s := range sources {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

// GetSourceByID returns a single source
func (r *SourceRepository) GetSourceByID(id string) (*models.ExternalSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM external_sources WHERE id = $1`

	s, err := scanSource(database.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("source not found")
		}
		return nil, fmt.Errorf("failed to get source: %v", err)
	}

	return s, nil
}

// CreateSource inserts a new external source
func (r *SourceRepository) CreateSource(req *models.SaveSourceRequest) (*models.ExternalSource, error) {
	query := `
		INSERT INTO external_sources (` + sourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + sourceColumns

	s, err := scanSource(database.DB.QueryRow(query,
		uuid.NewString(), req.Name, req.URLTemplate, req.Color, req.LogoPath,
		req.PriceSelector, req.CookiesConfig, req.StrategyKey,
		req.RequiresLogin, req.Active, time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %v", err)
	}

	return s, nil
}

// UpdateSource replaces an existing source's configuration
func (r *SourceRepository) UpdateSource(id string, req *models.SaveSourceRequest) (*models.ExternalSource, error) {
	query := `
		UPDATE external_sources
		SET name = $2, url_template = $3, color = $4, logo_path = $5,
		    price_selector = $6, cookies_config = $7, strategy_key = $8,
		    requires_login = $9, active = $10, updated_at = $11
		WHERE id = $1
		RETURNING ` + sourceColumns

	s, err := scanSource(database.DB.QueryRow(query,
		id, req.Name, req.URLTemplate, req.Color, req.LogoPath,
		req.PriceSelector, req.CookiesConfig, req.StrategyKey,
		req.RequiresLogin, req.Active, time.Now(),
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("source not found")
		}
		return nil, fmt.Errorf("failed to update source: %v", err)
	}

	return s, nil
}

// DeleteSource removes an external source
func (r *SourceRepository) DeleteSource(id string) error {
	result, err := database.DB.Exec(`DELETE FROM external_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %v", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("source not found")
	}

	return nil
}
