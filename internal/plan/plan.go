// Package plan reconciles a projected schedule with the meals that were
// actually planned. It produces the weekly grid, the planning statistics and
// the list of meals that feed the shopping list.
//
// Stale or legacy rows never make it fail: a record with an unknown slot or a
// date outside the schedule is skipped.
package plan

import (
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/policy"
	"family-meal-planner/internal/schedule"
)

// Record is a persisted meal plan row. Slot is kept as stored, so it may be
// the legacy "lunchbox" alias.
type Record struct {
	ID         string `json:"id"`
	ChildID    string `json:"child_id"`
	Date       string `json:"date"`
	Slot       string `json:"slot"`
	RecipeID   string `json:"recipe_id"`
	RecipeName string `json:"recipe_name"`
	PrepTime   int    `json:"prep_time"`
}

// CellState is what a (date, slot) cell holds.
type CellState string

const (
	StateFilled          CellState = "filled"
	StateCanteenOverride CellState = "canteen_override"
	StateNoAction        CellState = "no_action"
	StateEmpty           CellState = "empty"
	StateBlocked         CellState = "blocked"
)

// Affordance is the action a cell offers.
type Affordance string

const (
	AffordanceGenerate    Affordance = "generate"
	AffordanceAddOverride Affordance = "add_override"
	AffordanceEdit        Affordance = "edit"
	AffordanceLocked      Affordance = "locked"
	AffordanceNone        Affordance = "none"
)

// Cell is one meal slot of one day.
type Cell struct {
	Date       string            `json:"date"`
	Slot       meal.Slot         `json:"slot"`
	State      CellState         `json:"state"`
	Affordance Affordance        `json:"affordance"`
	Policy     policy.SlotPolicy `json:"policy"`
	Record     *Record           `json:"record,omitempty"`
}

// HasMeal reports whether the cell holds a meal that will be cooked.
func (c Cell) HasMeal() bool {
	return c.State == StateFilled || c.State == StateCanteenOverride
}

// Day is a row of the grid.
type Day struct {
	Policy schedule.DayLunchPolicy `json:"policy"`
	Cells  []Cell                  `json:"cells"`
}

// Grid is the render-ready week (or any range) of cells.
type Grid struct {
	Start string `json:"start"`
	Days  []Day  `json:"days"`
}

// Cell returns the cell for date and slot.
func (g Grid) Cell(date string, slot meal.Slot) (Cell, bool) {
	i := slot.Index()
	if i < 0 {
		return Cell{}, false
	}
	for _, d := range g.Days {
		if d.Policy.Date == date {
			return d.Cells[i], true
		}
	}
	return Cell{}, false
}

// CellsIn returns every cell in the given state, in grid order.
func (g Grid) CellsIn(state CellState) []Cell {
	var cells []Cell
	for _, d := range g.Days {
		for _, c := range d.Cells {
			if c.State == state {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

type cellKey struct {
	date string
	slot meal.Slot
}

type indexed struct {
	record Record
	legacy bool
}

// index matches records to cells. The canonical slot name wins over the
// legacy alias; otherwise the first record wins.
func index(table schedule.Table, records []Record) map[cellKey]Record {
	inRange := make(map[string]struct{}, len(table.Days))
	for _, d := range table.Days {
		inRange[d.Date] = struct{}{}
	}

	found := make(map[cellKey]indexed, len(records))
	for _, r := range records {
		slot, ok := meal.ParseSlot(r.Slot)
		if !ok {
			continue
		}
		date := schedule.NormalizeDateKey(r.Date)
		if _, ok := inRange[date]; !ok {
			continue
		}

		key := cellKey{date: date, slot: slot}
		legacy := meal.IsLegacyAlias(r.Slot)
		if prev, seen := found[key]; seen && !(prev.legacy && !legacy) {
			continue
		}

		r.Date = date
		r.Slot = string(slot)
		found[key] = indexed{record: r, legacy: legacy}
	}

	out := make(map[cellKey]Record, len(found))
	for k, v := range found {
		out[k] = v.record
	}
	return out
}

// Reconcile builds the grid for table from the persisted records.
func Reconcile(table schedule.Table, records []Record) Grid {
	idx := index(table, records)

	grid := Grid{Start: table.Start, Days: make([]Day, 0, len(table.Days))}
	for _, day := range table.Days {
		row := Day{Policy: day, Cells: make([]Cell, 0, meal.SlotsPerDay)}
		for _, slot := range meal.Slots() {
			cell := Cell{
				Date:   day.Date,
				Slot:   slot,
				Policy: policy.Evaluate(slot, day.LunchType),
			}
			rec, has := idx[cellKey{date: day.Date, slot: slot}]
			if has {
				cell.Record = &rec
			}
			cell.State = stateOf(cell.Policy, day.LunchType, has)
			cell.Affordance = affordanceOf(cell.State, cell.Policy)
			row.Cells = append(row.Cells, cell)
		}
		grid.Days = append(grid.Days, row)
	}
	return grid
}

func stateOf(p policy.SlotPolicy, lt meal.LunchType, hasRecord bool) CellState {
	canteenLunch := p.Slot == meal.SlotLunch && lt == meal.LunchCanteen
	switch {
	case hasRecord && canteenLunch:
		return StateCanteenOverride
	case hasRecord:
		return StateFilled
	case canteenLunch:
		return StateNoAction
	case p.CanGenerate:
		return StateEmpty
	default:
		return StateBlocked
	}
}

func affordanceOf(state CellState, p policy.SlotPolicy) Affordance {
	switch state {
	case StateFilled, StateCanteenOverride:
		if p.CanModify {
			return AffordanceEdit
		}
		return AffordanceLocked
	case StateNoAction:
		return AffordanceAddOverride
	case StateEmpty:
		return AffordanceGenerate
	}
	return AffordanceNone
}

// WeeklyStats summarises planning progress. Canteen lunches are not part of
// the total and never count as planned, even when overridden.
type WeeklyStats struct {
	PlannedMealsCount int `json:"planned_meals_count"`
	TotalMealsCount   int `json:"total_meals_count"`
	LunchboxCount     int `json:"lunchbox_count"`
	HomeLunchCount    int `json:"home_lunch_count"`
	CanteenCount      int `json:"canteen_count"`
	DaysPlanned       int `json:"days_planned"`
	RecipesReady      int `json:"recipes_ready"`
}

// ComputeWeeklyStats computes the statistics of table against records.
func ComputeWeeklyStats(table schedule.Table, records []Record) WeeklyStats {
	return StatsFor(Reconcile(table, records))
}

// StatsFor computes the statistics of an already reconciled grid.
func StatsFor(grid Grid) WeeklyStats {
	var stats WeeklyStats
	recipes := make(map[string]struct{})

	for _, day := range grid.Days {
		switch day.Policy.LunchType {
		case meal.LunchCanteen:
			stats.CanteenCount++
		case meal.LunchHome:
			stats.HomeLunchCount++
		}
		if day.Policy.IsLunchboxDay {
			stats.LunchboxCount++
		}

		planned := false
		for _, c := range day.Cells {
			if c.State != StateFilled {
				continue
			}
			stats.PlannedMealsCount++
			planned = true
			if c.Record.RecipeID != "" {
				recipes[c.Record.RecipeID] = struct{}{}
			}
		}
		if planned {
			stats.DaysPlanned++
		}
	}

	stats.TotalMealsCount = len(grid.Days)*meal.SlotsPerDay - stats.CanteenCount
	stats.RecipesReady = len(recipes)
	return stats
}

// FilterForShoppingList keeps the records whose ingredients must be bought:
// one per cell, with canonical slot names. A canteen lunch only contributes
// when the parent overrode it with a home meal.
func FilterForShoppingList(records []Record, table schedule.Table) []Record {
	return MealsOf(Reconcile(table, records))
}

// MealsOf returns the records of every cell holding a meal, in grid order.
func MealsOf(grid Grid) []Record {
	var out []Record
	for _, day := range grid.Days {
		for _, c := range day.Cells {
			if c.HasMeal() {
				out = append(out, *c.Record)
			}
		}
	}
	return out
}
