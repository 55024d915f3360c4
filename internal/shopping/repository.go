package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"family-meal-planner/internal/database"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type storedList struct {
	Items   []Item   `json:"items"`
	Missing []string `json:"missing,omitempty"`
}

// Save stores the list, replacing any list of the same child and week.
func (r *Repository) Save(ctx context.Context, list *List) error {
	itemsJSON, err := json.Marshal(storedList{Items: list.Items, Missing: list.Missing})
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list items: %w", err)
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO shopping_lists (child_id, week_start, items, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(child_id, week_start) DO UPDATE SET
			items = excluded.items,
			created_at = excluded.created_at
		RETURNING id`,
		list.ChildID, list.WeekStart, string(itemsJSON), list.CreatedAt.Format(database.TimeLayout),
	).Scan(&list.ID)
	if err != nil {
		return fmt.Errorf("failed to save shopping list: %w", err)
	}
	return nil
}

// GetByChildAndWeek retrieves the shopping list of a child for a week. It
// returns nil when no list was saved.
func (r *Repository) GetByChildAndWeek(ctx context.Context, childID, weekStart string) (*List, error) {
	var (
		list    = List{ChildID: childID, WeekStart: weekStart}
		items   string
		created string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, items, created_at FROM shopping_lists WHERE child_id = ? AND week_start = ?`,
		childID, weekStart,
	).Scan(&list.ID, &items, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list by child and week: %w", err)
	}

	var stored storedList
	if err := json.Unmarshal([]byte(items), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	list.Items = stored.Items
	list.Missing = stored.Missing
	list.CreatedAt = database.ParseTime(created)
	return &list, nil
}
