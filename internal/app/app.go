// Package app implements the commands of the family-meal-planner CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/schedule"
)

// App runs CLI commands against the services and prints to out.
type App struct {
	svc *Services
	out io.Writer
}

// NewApp creates and initializes a new App instance.
func NewApp(svc *Services, out io.Writer) *App {
	return &App{svc: svc, out: out}
}

// ListChildren prints the children of a parent with their ids.
func (a *App) ListChildren(ctx context.Context, parentID string) error {
	children, err := a.svc.Children.ListByParent(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to list children: %w", err)
	}
	if len(children) == 0 {
		fmt.Fprintln(a.out, "No children found.")
		return nil
	}
	for _, c := range children {
		fmt.Fprintf(a.out, "%s  %-12s %d ans, déjeuner: %s\n", c.ID, c.Name, c.Age, c.Settings().HabitualLunch)
	}
	return nil
}

// ShowWeek prints the weekly grid of a child.
func (a *App) ShowWeek(ctx context.Context, childID string, start time.Time) error {
	view, err := a.svc.Planner.Week(ctx, childID, start)
	if err != nil {
		return fmt.Errorf("failed to load week: %w", err)
	}

	fmt.Fprintf(a.out, "\n=== WEEK OF %s (%s) ===\n", view.Grid.Start, view.ChildName)
	for _, d := range view.Grid.Days {
		fmt.Fprintf(a.out, "%s %-9s %s\n", d.Policy.Date, d.Policy.Weekday, d.Policy.LunchType.Label())
		for _, c := range d.Cells {
			fmt.Fprintf(a.out, "    %-15s %s\n", c.Slot.Label(), describeCell(c))
		}
	}

	s := view.Stats
	fmt.Fprintf(a.out, "\nPlanned: %d/%d meals, %d days, %d recipes\n", s.PlannedMealsCount, s.TotalMealsCount, s.DaysPlanned, s.RecipesReady)
	fmt.Fprintf(a.out, "Lunch: %d lunchbox, %d home, %d canteen\n", s.LunchboxCount, s.HomeLunchCount, s.CanteenCount)
	return nil
}

func describeCell(c plan.Cell) string {
	switch c.State {
	case plan.StateFilled:
		return c.Record.RecipeName
	case plan.StateCanteenOverride:
		return c.Record.RecipeName + " (instead of canteen)"
	case plan.StateNoAction:
		return "[canteen]"
	case plan.StateBlocked:
		return "[blocked]"
	}
	return "-"
}

// ShowShopping prints the shopping list of a child's week.
func (a *App) ShowShopping(ctx context.Context, childID string, start time.Time) error {
	list, err := a.svc.Planner.ShoppingList(ctx, childID, schedule.StartOfWeek(start), schedule.DaysPerWeek)
	if err != nil {
		return fmt.Errorf("failed to build shopping list: %w", err)
	}

	fmt.Fprintf(a.out, "\n=== SHOPPING LIST (week of %s) ===\n", list.WeekStart)
	lines := list.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Nothing to buy.")
	}
	for _, line := range lines {
		fmt.Fprintf(a.out, "- %s\n", line)
	}
	if len(list.Missing) > 0 {
		fmt.Fprintf(a.out, "\nMissing recipes: %s\n", strings.Join(list.Missing, ", "))
	}
	return nil
}

// RunExpress fills the empty slots of a child's week and prints the result.
func (a *App) RunExpress(ctx context.Context, childID string, start time.Time) error {
	res, err := a.svc.Planner.Express(ctx, childID, start)
	if err != nil {
		return fmt.Errorf("planning express failed: %w", err)
	}

	fmt.Fprintf(a.out, "Generated %d recipes for the week of %s.\n", len(res.Generated), res.WeekStart)
	for _, g := range res.Generated {
		fmt.Fprintf(a.out, "  %s %-15s %s\n", g.Record.Date, g.Recipe.Slot.Label(), g.Recipe.Name)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(a.out, "  FAILED %s %s: %s\n", f.Date, f.Slot.Label(), f.Error)
	}
	fmt.Fprintf(a.out, "Planned: %d/%d meals\n", res.Stats.PlannedMealsCount, res.Stats.TotalMealsCount)
	return nil
}

// ImportRecipe clips a recipe from url and saves it.
func (a *App) ImportRecipe(ctx context.Context, url string) error {
	fmt.Fprintf(a.out, "Importing recipe from %s...\n", url)

	rec, meta, err := a.svc.Clipper.ClipURL(ctx, url)
	if merr := a.svc.Metrics.RecordMeta(ctx, meta); merr != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, merr)
	}
	if err != nil {
		return fmt.Errorf("failed to import recipe: %w", err)
	}

	fmt.Fprintf(a.out, "Saved '%s' (%s) with %d ingredients.\n", rec.Name, rec.ID, len(rec.Ingredients))
	return nil
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) error {
	affected, err := a.svc.Metrics.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return nil
}
