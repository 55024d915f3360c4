package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/policy"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/schedule"
	"family-meal-planner/internal/shared"
	"family-meal-planner/internal/shopping"
)

var (
	// ErrSlotLocked is returned when the meal of a slot may not be changed.
	ErrSlotLocked = errors.New("slot is locked")
	// ErrGenerationBlocked is returned when no recipe may be generated for a slot.
	ErrGenerationBlocked = errors.New("recipe generation is blocked for this slot")
	// ErrInvalidDate is returned for dates that are not yyyy-MM-dd.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidSlot is returned for unknown slot names.
	ErrInvalidSlot = errors.New("invalid slot")
	// ErrNoMeal is returned when removing the meal of an empty slot.
	ErrNoMeal = errors.New("no meal planned for this slot")
)

// DefaultConcurrency is the number of recipes Express generates at once when
// none is configured.
const DefaultConcurrency = 3

// Dependencies are the collaborators of a Planner. Metrics is optional.
type Dependencies struct {
	Children    *child.Repository
	Recipes     *recipe.Repository
	Plans       *PlanRepository
	Lists       *shopping.Repository
	Generator   *recipe.Generator
	Metrics     *metrics.Store
	Concurrency int
}

// Planner plans the meals of children: weekly grid, manual edits, recipe
// generation and shopping lists.
type Planner struct {
	children    *child.Repository
	recipes     *recipe.Repository
	plans       *PlanRepository
	lists       *shopping.Repository
	generator   *recipe.Generator
	metrics     *metrics.Store
	concurrency int
}

// NewPlanner creates a new Planner instance.
func NewPlanner(deps Dependencies) *Planner {
	concurrency := deps.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Planner{
		children:    deps.Children,
		recipes:     deps.Recipes,
		plans:       deps.Plans,
		lists:       deps.Lists,
		generator:   deps.Generator,
		metrics:     deps.Metrics,
		concurrency: concurrency,
	}
}

// DayView is the dashboard view of one day.
type DayView struct {
	ChildName string   `json:"child_name"`
	Day       plan.Day `json:"day"`
}

// WeekView is the weekly grid with its statistics.
type WeekView struct {
	ChildName string           `json:"child_name"`
	Grid      plan.Grid        `json:"grid"`
	Stats     plan.WeeklyStats `json:"stats"`
}

// Today returns the lunch policy and the meals of the day now falls on.
func (p *Planner) Today(ctx context.Context, childID string, now time.Time) (*DayView, error) {
	profile, err := p.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	grid, err := p.grid(ctx, profile, schedule.ProjectRange(now, 1, profile.Settings()))
	if err != nil {
		return nil, err
	}
	return &DayView{ChildName: profile.Name, Day: grid.Days[0]}, nil
}

// Week returns the grid of the Monday-start week containing weekStart.
func (p *Planner) Week(ctx context.Context, childID string, weekStart time.Time) (*WeekView, error) {
	profile, err := p.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	grid, err := p.grid(ctx, profile, schedule.ProjectWeek(weekStart, profile.Settings()))
	if err != nil {
		return nil, err
	}
	return &WeekView{ChildName: profile.Name, Grid: grid, Stats: plan.StatsFor(grid)}, nil
}

func (p *Planner) grid(ctx context.Context, profile *child.Profile, table schedule.Table) (plan.Grid, error) {
	records, err := p.plans.ListForRange(ctx, profile.ID, table.Start, table.End())
	if err != nil {
		return plan.Grid{}, err
	}
	return plan.Reconcile(table, records), nil
}

// slotContext is everything known about one cell of a child's plan.
type slotContext struct {
	profile *child.Profile
	day     schedule.DayLunchPolicy
	cell    plan.Cell
}

func (p *Planner) slotContext(ctx context.Context, childID, date, rawSlot string) (*slotContext, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w %q: expected %s", ErrInvalidDate, date, schedule.DateLayout)
	}
	slot, ok := meal.ParseSlot(rawSlot)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidSlot, rawSlot)
	}

	profile, err := p.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}
	grid, err := p.grid(ctx, profile, schedule.ProjectRange(day, 1, profile.Settings()))
	if err != nil {
		return nil, err
	}
	cell, _ := grid.Cell(grid.Days[0].Policy.Date, slot)
	return &slotContext{profile: profile, day: grid.Days[0].Policy, cell: cell}, nil
}

// locked reports whether the cell's meal may not be changed. An empty
// school-trip lunch can still receive its lunchbox.
func (sc *slotContext) locked() bool {
	if sc.cell.State == plan.StateBlocked {
		return true
	}
	return !sc.cell.Policy.CanModify && sc.cell.Record != nil
}

// Assign puts an existing recipe on a slot. Canteen lunches accept it as a
// home-cooked override.
func (p *Planner) Assign(ctx context.Context, childID, date, slot, recipeID string) (*plan.Record, error) {
	sc, err := p.slotContext(ctx, childID, date, slot)
	if err != nil {
		return nil, err
	}
	if sc.locked() {
		return nil, ErrSlotLocked
	}

	rec, err := p.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return p.save(ctx, sc, rec)
}

// Remove clears the meal of a slot.
func (p *Planner) Remove(ctx context.Context, childID, date, slot string) error {
	sc, err := p.slotContext(ctx, childID, date, slot)
	if err != nil {
		return err
	}
	if sc.locked() {
		return ErrSlotLocked
	}
	removed, err := p.plans.Delete(ctx, sc.profile.ID, sc.day.Date, sc.cell.Slot)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNoMeal
	}
	return nil
}

// Generated is a recipe generated for a slot and the stored meal.
type Generated struct {
	Record plan.Record   `json:"record"`
	Recipe recipe.Recipe `json:"recipe"`
}

// GenerateForSlot generates a recipe for a slot and assigns it.
func (p *Planner) GenerateForSlot(ctx context.Context, childID, date, slot string) (*Generated, error) {
	sc, err := p.slotContext(ctx, childID, date, slot)
	if err != nil {
		return nil, err
	}
	if !sc.cell.Policy.CanGenerate {
		return nil, ErrGenerationBlocked
	}
	if sc.locked() {
		return nil, ErrSlotLocked
	}
	return p.generate(ctx, sc)
}

func (p *Planner) generate(ctx context.Context, sc *slotContext) (*Generated, error) {
	constraints, ok := policy.ConstraintsFor(sc.cell.Slot, sc.day.LunchType)
	if !ok {
		return nil, ErrGenerationBlocked
	}

	res, err := p.generator.Generate(ctx, recipe.Request{
		ChildName:   sc.profile.Name,
		Age:         sc.profile.Age,
		Allergies:   sc.profile.Allergies,
		Slot:        sc.cell.Slot,
		Constraints: constraints,
	})
	p.recordMeta(ctx, res.Meta)
	if err != nil {
		if errors.Is(err, recipe.ErrNotGeneratable) {
			return nil, ErrGenerationBlocked
		}
		return nil, fmt.Errorf("failed to generate recipe: %w", err)
	}

	rec := res.Recipe
	if err := p.recipes.Save(ctx, &rec); err != nil {
		return nil, err
	}
	stored, err := p.save(ctx, sc, &rec)
	if err != nil {
		return nil, err
	}
	return &Generated{Record: *stored, Recipe: rec}, nil
}

func (p *Planner) save(ctx context.Context, sc *slotContext, rec *recipe.Recipe) (*plan.Record, error) {
	record := &plan.Record{
		ChildID:    sc.profile.ID,
		Date:       sc.day.Date,
		Slot:       string(sc.cell.Slot),
		RecipeID:   rec.ID,
		RecipeName: rec.Name,
		PrepTime:   rec.PrepTime,
	}
	if err := p.plans.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (p *Planner) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.RecordMeta(ctx, meta); err != nil {
		log.Printf("⚠️ Failed to record %s metrics: %v", meta.AgentName, err)
	}
}

// ShoppingList builds and stores the shopping list of the meals planned on
// days consecutive days starting at from.
func (p *Planner) ShoppingList(ctx context.Context, childID string, from time.Time, days int) (*shopping.List, error) {
	if days <= 0 {
		days = schedule.DaysPerWeek
	}
	profile, err := p.children.Get(ctx, childID)
	if err != nil {
		return nil, err
	}

	table := schedule.ProjectRange(from, days, profile.Settings())
	records, err := p.plans.ListForRange(ctx, profile.ID, table.Start, table.End())
	if err != nil {
		return nil, err
	}
	meals := plan.FilterForShoppingList(records, table)

	ids := make([]string, 0, len(meals))
	for _, m := range meals {
		ids = append(ids, m.RecipeID)
	}
	recipes, err := p.recipes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	list := shopping.Build(meals, recipes)
	list.ChildID = profile.ID
	list.WeekStart = table.Start
	if err := p.lists.Save(ctx, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
