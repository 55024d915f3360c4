package child

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/schedule"
)

// ErrNotFound is returned when a child profile does not exist.
var ErrNotFound = errors.New("child not found")

// Habitual lunch values as stored on the profile.
const (
	LunchMaison  = "maison"
	LunchCantine = "cantine"
)

// Profile is a child of a parent account.
type Profile struct {
	ID                  string    `json:"id"`
	ParentID            string    `json:"parent_id"`
	Name                string    `json:"name"`
	Age                 int       `json:"age"`
	Allergies           []string  `json:"allergies"`
	RegimeSpecial       bool      `json:"regime_special"`
	DejeunerHabituel    string    `json:"dejeuner_habituel"`
	SortieScolaireDates []string  `json:"sortie_scolaire_dates"`
	CreatedAt           time.Time `json:"created_at"`
}

// Settings maps the raw profile fields to the schedule input.
func (p Profile) Settings() schedule.ChildSettings {
	return schedule.ChildSettings{
		SchoolTripDates: p.SortieScolaireDates,
		SpecialDiet:     p.RegimeSpecial,
		HabitualLunch:   schedule.ParseHabitualLunch(p.DejeunerHabituel),
	}
}

// HasSchoolTrip reports whether date is one of the child's school trip days.
func (p Profile) HasSchoolTrip(date string) bool {
	return p.Settings().HasSchoolTrip(schedule.NormalizeDateKey(date))
}

// Validate checks the fields a profile must carry before it is stored.
func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must not be negative")
	}
	if p.DejeunerHabituel == "" {
		p.DejeunerHabituel = LunchMaison
	}
	for i, d := range p.SortieScolaireDates {
		key, err := ValidateDate(d)
		if err != nil {
			return err
		}
		p.SortieScolaireDates[i] = key
	}
	return nil
}

// ValidateDate normalizes a school trip date and checks it is a real calendar day.
func ValidateDate(raw string) (string, error) {
	key := schedule.NormalizeDateKey(raw)
	if _, err := time.Parse(schedule.DateLayout, key); err != nil {
		return "", fmt.Errorf("invalid date %q: expected %s", raw, schedule.DateLayout)
	}
	return key, nil
}
