package planner

import (
	"context"
	"log"
	"time"

	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/schedule"

	"golang.org/x/sync/errgroup"
)

// SlotFailure is a slot Express could not fill.
type SlotFailure struct {
	Date  string    `json:"date"`
	Slot  meal.Slot `json:"slot"`
	Error string    `json:"error"`
}

// ExpressResult reports what a planning-express run did.
type ExpressResult struct {
	WeekStart string           `json:"week_start"`
	Generated []Generated      `json:"generated"`
	Failures  []SlotFailure    `json:"failures"`
	Stats     plan.WeeklyStats `json:"stats"`
}

// Express generates a recipe for every empty slot of the week containing
// weekStart. Canteen days without override and blocked slots are left alone.
// A failing slot is reported and does not stop the others.
func (p *Planner) Express(ctx context.Context, childID string, weekStart time.Time) (*ExpressResult, error) {
	profile, err := p.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	grid, err := p.grid(ctx, profile, schedule.ProjectWeek(weekStart, profile.Settings()))
	if err != nil {
		return nil, err
	}

	empty := grid.CellsIn(plan.StateEmpty)
	days := make(map[string]schedule.DayLunchPolicy, len(grid.Days))
	for _, d := range grid.Days {
		days[d.Policy.Date] = d.Policy
	}

	log.Printf("⚡ Planning express for %s: %d empty slots", profile.Name, len(empty))

	generated := make([]*Generated, len(empty))
	failures := make([]error, len(empty))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, cell := range empty {
		sc := &slotContext{profile: profile, day: days[cell.Date], cell: cell}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			gen, err := p.generate(ctx, sc)
			if err != nil {
				failures[i] = err
				return nil
			}
			generated[i] = gen
			return nil
		})
	}
	_ = g.Wait()

	result := &ExpressResult{WeekStart: grid.Start, Generated: []Generated{}, Failures: []SlotFailure{}}
	for i, cell := range empty {
		if failures[i] != nil {
			log.Printf("⚠️ Express failed for %s %s: %v", cell.Date, cell.Slot, failures[i])
			result.Failures = append(result.Failures, SlotFailure{Date: cell.Date, Slot: cell.Slot, Error: failures[i].Error()})
			continue
		}
		result.Generated = append(result.Generated, *generated[i])
	}

	week, err := p.Week(ctx, childID, weekStart)
	if err != nil {
		return nil, err
	}
	result.Stats = week.Stats
	return result, nil
}
