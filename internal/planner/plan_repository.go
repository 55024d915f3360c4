package planner

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"family-meal-planner/internal/database"
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/plan"

	"github.com/google/uuid"
)

// PlanRepository is a database-backed repository for planned meals.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// ListForRange returns the meals of a child between from and to (inclusive,
// yyyy-MM-dd). Dates are compared on their calendar day, so rows stored with a
// timestamp are matched too. Dates and slots are returned as stored.
func (r *PlanRepository) ListForRange(ctx context.Context, childID, from, to string) ([]plan.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, child_id, date, slot, recipe_id, recipe_name, prep_time
		FROM meal_plans
		WHERE child_id = ? AND substr(date, 1, 10) BETWEEN ? AND ?
		ORDER BY substr(date, 1, 10), created_at`,
		childID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans for child %s: %w", childID, err)
	}
	defer rows.Close()

	var records []plan.Record
	for rows.Next() {
		var rec plan.Record
		if err := rows.Scan(&rec.ID, &rec.ChildID, &rec.Date, &rec.Slot, &rec.RecipeID, &rec.RecipeName, &rec.PrepTime); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Upsert stores the meal of a (date, slot) cell, replacing whatever the cell
// held before, including a legacy lunchbox row.
func (r *PlanRepository) Upsert(ctx context.Context, rec *plan.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slot, ok := meal.ParseSlot(rec.Slot)
	if !ok {
		slot = meal.Slot(rec.Slot)
	}
	if err := deleteCell(ctx, tx, rec.ChildID, rec.Date, slot); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, child_id, date, slot, recipe_id, recipe_name, prep_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ChildID, rec.Date, rec.Slot, rec.RecipeID, rec.RecipeName, rec.PrepTime, database.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meal plan: %w", err)
	}
	return nil
}

// Delete removes the meal of a (date, slot) cell. For lunch it also removes
// the legacy lunchbox row. It reports whether something was deleted.
func (r *PlanRepository) Delete(ctx context.Context, childID, date string, slot meal.Slot) (bool, error) {
	query, args := cellQuery(childID, date, slot)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete meal plan: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func deleteCell(ctx context.Context, tx *sql.Tx, childID, date string, slot meal.Slot) error {
	query, args := cellQuery(childID, date, slot)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear meal plan cell: %w", err)
	}
	return nil
}

// cellQuery builds the DELETE matching every row of a cell: any stored name
// of the slot, on the calendar day of date.
func cellQuery(childID, date string, slot meal.Slot) (string, []any) {
	names := meal.StoredNames(slot)
	args := []any{childID, date}
	for _, n := range names {
		args = append(args, n)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := `DELETE FROM meal_plans WHERE child_id = ? AND substr(date, 1, 10) = substr(?, 1, 10) AND slot IN (` + placeholders + `)`
	return query, args
}
