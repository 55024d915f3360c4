package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"family-meal-planner/internal/meal"
)

var (
	// ErrNotFound is returned when a recipe does not exist.
	ErrNotFound = errors.New("recipe not found")
	// ErrNotGeneratable is returned when the constraints forbid generating a recipe.
	ErrNotGeneratable = errors.New("recipe generation not allowed for these constraints")
)

// SourceGenerated marks recipes written by the recipe generator. Imported
// recipes carry their page URL as source instead.
const SourceGenerated = "generated"

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Recipe is a recipe that can be assigned to a meal slot.
type Recipe struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Slot         meal.Slot      `json:"slot,omitempty"`
	Ingredients  []Ingredient   `json:"ingredients"`
	Instructions []string       `json:"instructions"`
	PrepTime     int            `json:"prep_time"`
	IsLunchbox   bool           `json:"is_lunchbox"`
	LunchboxType meal.LunchType `json:"lunchbox_type,omitempty"`
	Source       string         `json:"source,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks the fields every stored recipe needs.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe name is required")
	}
	if r.PrepTime < 0 {
		return fmt.Errorf("prep time must not be negative")
	}
	return nil
}

// IngredientLine renders an ingredient for display, e.g. "200 g farine".
func (i Ingredient) IngredientLine() string {
	switch {
	case i.Quantity == 0:
		return i.Name
	case i.Unit == "":
		return fmt.Sprintf("%s %s", FormatQuantity(i.Quantity), i.Name)
	default:
		return fmt.Sprintf("%s %s %s", FormatQuantity(i.Quantity), i.Unit, i.Name)
	}
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	s := fmt.Sprintf("%.2f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
