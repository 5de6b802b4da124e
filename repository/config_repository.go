package repository

import (
	"database/sql"
	"fmt"
	"time"

	"partstream/database"
	"partstream/models"
)

// ConfigRepository stores small key/value configuration rows, such as the
// default search mode selected in the settings screen.
type ConfigRepository struct{}

func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

const searchModeKey = "search_mode"

// GetSearchMode returns the configured search mode, or the given fallback
// when no row exists.
func (r *ConfigRepository) GetSearchMode(fallback models.SearchMode) (models.SearchMode, error) {
	var value string
	err := database.DB.QueryRow(`SELECT value FROM app_config WHERE key = $1`, searchModeKey).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return fallback, nil
		}
		return fallback, fmt.Errorf("failed to get search mode: %v", err)
	}

	mode := models.SearchMode(value)
	if mode != models.SearchModeLocal && mode != models.SearchModeGlobal {
		return fallback, nil
	}
	return mode, nil
}

// SetSearchMode persists the search mode
func (r *ConfigRepository) SetSearchMode(mode models.SearchMode) error {
	query := `
		INSERT INTO app_config (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = $3
	`

	_, err := database.DB.Exec(query, searchModeKey, string(mode), time.Now())
	if err != nil {
		return fmt.Errorf("failed to set search mode: %v", err)
	}

	return nil
}
