// Package shopping consolidates the ingredients of planned meals into a
// shopping list.
package shopping

import (
	"slices"
	"strings"
	"time"

	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/recipe"
)

// Item is one consolidated line of a shopping list.
type Item struct {
	Name     string   `json:"name"`
	Quantity float64  `json:"quantity"`
	Unit     string   `json:"unit"`
	Recipes  []string `json:"recipes"`
}

// List is the shopping list of a child for a range of days.
type List struct {
	ID        int64     `json:"id,omitempty"`
	ChildID   string    `json:"child_id"`
	WeekStart string    `json:"week_start"`
	Items     []Item    `json:"items"`
	Missing   []string  `json:"missing,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type itemKey struct {
	name string
	unit string
}

// Build consolidates the ingredients of meals. Ingredients with the same name
// and unit (case-insensitive) are summed. Items are sorted by name and keep
// the names of the recipes that need them. Meals whose recipe is unknown are
// listed in Missing.
func Build(meals []plan.Record, recipes map[string]recipe.Recipe) List {
	var (
		list  = List{Items: []Item{}}
		index = map[itemKey]int{}
	)

	for _, m := range meals {
		rec, ok := recipes[m.RecipeID]
		if !ok {
			name := m.RecipeName
			if name == "" {
				name = m.RecipeID
			}
			if name != "" && !slices.Contains(list.Missing, name) {
				list.Missing = append(list.Missing, name)
			}
			continue
		}

		for _, ing := range rec.Ingredients {
			name := strings.TrimSpace(ing.Name)
			if name == "" {
				continue
			}
			key := itemKey{name: strings.ToLower(name), unit: strings.ToLower(strings.TrimSpace(ing.Unit))}
			i, seen := index[key]
			if !seen {
				i = len(list.Items)
				index[key] = i
				list.Items = append(list.Items, Item{Name: name, Unit: strings.TrimSpace(ing.Unit)})
			}
			item := &list.Items[i]
			item.Quantity += ing.Quantity
			if !slices.Contains(item.Recipes, rec.Name) {
				item.Recipes = append(item.Recipes, rec.Name)
			}
		}
	}

	slices.SortStableFunc(list.Items, func(a, b Item) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Unit), strings.ToLower(b.Unit))
	})
	return list
}

// Lines renders the items for display, one per line.
func (l List) Lines() []string {
	lines := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		lines = append(lines, recipe.Ingredient{Name: it.Name, Quantity: it.Quantity, Unit: it.Unit}.IngredientLine())
	}
	return lines
}
