package child

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"family-meal-planner/internal/database"

	"github.com/google/uuid"
)

// Repository is a database-backed repository for child profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectProfile = `SELECT id, parent_id, name, age, allergies, regime_special, dejeuner_habituel, sortie_scolaire_dates, created_at FROM children`

// Create stores a new profile and returns it with its ID set.
func (r *Repository) Create(ctx context.Context, p Profile) (*Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)

	allergies, trips, err := encodeLists(p)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO children (id, parent_id, name, age, allergies, regime_special, dejeuner_habituel, sortie_scolaire_dates, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ParentID, p.Name, p.Age, allergies, database.BoolToInt(p.RegimeSpecial), p.DejeunerHabituel, trips,
		p.CreatedAt.Format(database.TimeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert child: %w", err)
	}
	return &p, nil
}

// Get retrieves a profile by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, selectProfile+` WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get child by ID: %w", err)
	}
	return p, nil
}

// ListByParent returns the children of a parent ordered by name.
func (r *Repository) ListByParent(ctx context.Context, parentID string) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, selectProfile+` WHERE parent_id = ? ORDER BY name, created_at`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *p)
	}
	return children, rows.Err()
}

// Update overwrites the editable fields of an existing profile.
func (r *Repository) Update(ctx context.Context, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	allergies, trips, err := encodeLists(p)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE children
		SET name = ?, age = ?, allergies = ?, regime_special = ?, dejeuner_habituel = ?, sortie_scolaire_dates = ?
		WHERE id = ?`,
		p.Name, p.Age, allergies, database.BoolToInt(p.RegimeSpecial), p.DejeunerHabituel, trips, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSchoolTrip adds a school trip date to a child. Adding an existing date is a no-op.
func (r *Repository) AddSchoolTrip(ctx context.Context, childID, date string) (*Profile, error) {
	key, err := ValidateDate(date)
	if err != nil {
		return nil, err
	}
	p, err := r.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	if p.HasSchoolTrip(key) {
		return p, nil
	}
	p.SortieScolaireDates = append(p.SortieScolaireDates, key)
	slices.Sort(p.SortieScolaireDates)
	if err := r.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveSchoolTrip removes a school trip date from a child.
func (r *Repository) RemoveSchoolTrip(ctx context.Context, childID, date string) (*Profile, error) {
	key, err := ValidateDate(date)
	if err != nil {
		return nil, err
	}
	p, err := r.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	p.SortieScolaireDates = slices.DeleteFunc(p.SortieScolaireDates, func(d string) bool {
		return d == key
	})
	if err := r.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*Profile, error) {
	var (
		p                         Profile
		allergies, trips, created string
		regime                    int
	)
	if err := s.Scan(&p.ID, &p.ParentID, &p.Name, &p.Age, &allergies, &regime, &p.DejeunerHabituel, &trips, &created); err != nil {
		return nil, err
	}
	p.RegimeSpecial = regime != 0
	p.CreatedAt = database.ParseTime(created)
	if err := json.Unmarshal([]byte(allergies), &p.Allergies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allergies for child %s: %w", p.ID, err)
	}
	// Dates are kept as stored; the schedule trims them when projecting.
	if err := json.Unmarshal([]byte(trips), &p.SortieScolaireDates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal school trips for child %s: %w", p.ID, err)
	}
	return &p, nil
}

func encodeLists(p Profile) (string, string, error) {
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	trips := p.SortieScolaireDates
	if trips == nil {
		trips = []string{}
	}
	a, err := json.Marshal(allergies)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal allergies: %w", err)
	}
	t, err := json.Marshal(trips)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal school trips: %w", err)
	}
	return string(a), string(t), nil
}
