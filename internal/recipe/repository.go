package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/database"

	"github.com/google/uuid"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates a recipe. A recipe without ID gets a new one.
func (r *Repository) Save(ctx context.Context, rec *Recipe) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO recipes (id, name, slot, data, prep_time, is_lunchbox, lunchbox_type, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			slot = excluded.slot,
			data = excluded.data,
			prep_time = excluded.prep_time,
			is_lunchbox = excluded.is_lunchbox,
			lunchbox_type = excluded.lunchbox_type,
			source = excluded.source`,
		rec.ID, rec.Name, string(rec.Slot), string(recipeJSON), rec.PrepTime, database.BoolToInt(rec.IsLunchbox),
		string(rec.LunchboxType), rec.Source, rec.CreatedAt.Format(database.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// GetByIDs retrieves the recipes with the given IDs, keyed by ID. Unknown IDs
// are absent from the result.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) (map[string]Recipe, error) {
	recipes := make(map[string]Recipe, len(ids))
	if len(ids) == 0 {
		return recipes, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		var rec Recipe
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			fmt.Printf("Warning: Failed to unmarshal recipe JSON for ID %s: %v\n", id, err)
			continue
		}
		recipes[id] = rec
	}
	return recipes, rows.Err()
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}
