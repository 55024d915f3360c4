package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/plan"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/schedule"
	"family-meal-planner/internal/shopping"
)

func testWeek(t *testing.T) *planner.WeekView {
	t.Helper()
	settings := schedule.ChildSettings{
		HabitualLunch:   schedule.HabitualCanteen,
		SchoolTripDates: []string{"2025-03-04"},
	}
	table := schedule.ProjectWeek(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), settings)
	records := []plan.Record{
		{ID: "1", Date: "2025-03-03", Slot: "dinner", RecipeID: "r1", RecipeName: "Gratin_dauphinois", PrepTime: 30},
		{ID: "2", Date: "2025-03-03", Slot: "lunch", RecipeID: "r2", RecipeName: "Pâtes"},
	}
	grid := plan.Reconcile(table, records)
	return &planner.WeekView{ChildName: "Léa", Grid: grid, Stats: plan.StatsFor(grid)}
}

func TestFormatWeekMarkdown(t *testing.T) {
	out := formatWeekMarkdown(testWeek(t))

	wants := []string{
		"📅 *Semaine du 2025-03-03 pour Léa*",
		"*Lundi 2025-03-03* - Cantine\n",
		"✅ Dîner: Gratin\\_dauphinois (30 min)",
		"🍱 Déjeuner: Pâtes",
		"*Mardi 2025-03-04* - Sortie scolaire 🧊",
		"⬜ Petit-déjeuner",
		"🏫 Déjeuner: cantine",
		"📊 *1/",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in week output:\n%s", want, out)
		}
	}
}

func TestFormatDayMarkdown(t *testing.T) {
	week := testWeek(t)
	out := formatDayMarkdown(&planner.DayView{ChildName: week.ChildName, Day: week.Grid.Days[1]})

	if !strings.Contains(out, "☀️ *Aujourd'hui pour Léa*") {
		t.Error("Missing day header")
	}
	if !strings.Contains(out, "*Mardi 2025-03-04* - Sortie scolaire 🧊") {
		t.Errorf("Missing day policy line:\n%s", out)
	}
	if got := strings.Count(out, "⬜"); got != meal.SlotsPerDay {
		t.Errorf("Expected %d empty cells, got %d", meal.SlotsPerDay, got)
	}
}

func TestCellMarker(t *testing.T) {
	states := []plan.CellState{plan.StateFilled, plan.StateCanteenOverride, plan.StateNoAction, plan.StateEmpty, plan.StateBlocked}
	seen := make(map[string]plan.CellState)
	for _, s := range states {
		m := cellMarker(s)
		if prev, ok := seen[m]; ok {
			t.Errorf("States %s and %s share marker %s", prev, s, m)
		}
		seen[m] = s
	}
}

func TestFormatShoppingMarkdown(t *testing.T) {
	t.Run("Items", func(t *testing.T) {
		list := &shopping.List{
			WeekStart: "2025-03-03",
			Items: []shopping.Item{
				{Name: "Pâtes", Quantity: 500, Unit: "g"},
				{Name: "Tomates", Quantity: 3},
			},
			Missing: []string{"Soupe"},
		}
		out := formatShoppingMarkdown("Léa", list)
		for _, want := range []string{"🛒 *Liste de courses de Léa*", "• 500 g Pâtes", "• 3 Tomates", "Recettes introuvables: Soupe"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in:\n%s", want, out)
			}
		}
	})

	t.Run("Empty", func(t *testing.T) {
		out := formatShoppingMarkdown("Léa", &shopping.List{WeekStart: "2025-03-03"})
		if !strings.Contains(out, "_Aucun repas planifié_") {
			t.Errorf("Expected empty notice, got:\n%s", out)
		}
	})
}

func TestFormatExpressMarkdown(t *testing.T) {
	res := &planner.ExpressResult{
		WeekStart: "2025-03-10",
		Generated: []planner.Generated{
			{Record: plan.Record{Date: "2025-03-10", Slot: "dinner"}, Recipe: recipe.Recipe{Name: "Soupe", Slot: meal.SlotDinner}},
		},
		Failures: []planner.SlotFailure{{Date: "2025-03-11", Slot: meal.SlotSnack, Error: "model unavailable"}},
		Stats:    plan.WeeklyStats{PlannedMealsCount: 5, TotalMealsCount: 23},
	}
	out := formatExpressMarkdown("Léa", res)
	for _, want := range []string{"✅ 2025-03-10 Dîner: Soupe", "❌ 2025-03-11 Goûter: model unavailable", "*5/23 repas planifiés*"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func TestFormatMetricsMarkdown(t *testing.T) {
	usage := []metrics.DailyUsage{{Date: "2025-03-03", TotalPrompt: 100, TotalCompletion: 50, TotalExecution: 2}}
	out := formatMetricsMarkdown(usage, metrics.SysHealth{AllocMB: 3, SysMB: 10, Goroutines: 7, DataDiskSize: "1.0 KB"})

	for _, want := range []string{"• *2025-03-03*: 150 tokens (2 execs)", "RAM: 3MB (Alloc) / 10MB (Sys)", "Disk Data: 1.0 KB"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
	if !strings.Contains(formatMetricsMarkdown(nil, metrics.SysHealth{}), "_No data yet_") {
		t.Error("Expected empty usage notice")
	}
}

func TestPickChild(t *testing.T) {
	children := []child.Profile{{ID: "a", Name: "Léa"}, {ID: "b", Name: "Tom"}}

	t.Run("ByName", func(t *testing.T) {
		p, err := pickChild(children, "tom")
		if err != nil || p.ID != "b" {
			t.Fatalf("Expected Tom, got %+v, %v", p, err)
		}
	})

	t.Run("AmbiguousWithoutName", func(t *testing.T) {
		_, err := pickChild(children, "")
		if err == nil || !strings.Contains(err.Error(), "Léa, Tom") {
			t.Fatalf("Expected ambiguity error listing names, got %v", err)
		}
	})

	t.Run("SingleChildWithoutName", func(t *testing.T) {
		p, err := pickChild(children[:1], "")
		if err != nil || p.ID != "a" {
			t.Fatalf("Expected Léa, got %+v, %v", p, err)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := pickChild(children, "Zoé"); err == nil {
			t.Fatal("Expected error for unknown child")
		}
	})

	t.Run("NoChildren", func(t *testing.T) {
		if _, err := pickChild(nil, "Léa"); !errors.Is(err, errNoChildren) {
			t.Fatalf("Expected errNoChildren, got %v", err)
		}
	})
}

func TestIsAllowed(t *testing.T) {
	if !isAllowed([]int64{1, 2}, 2) {
		t.Error("Expected user 2 to be allowed")
	}
	if isAllowed([]int64{1, 2}, 3) || isAllowed(nil, 1) {
		t.Error("Expected unknown users to be rejected")
	}
}

func TestFormatError(t *testing.T) {
	out := formatError(errors.New("bad `thing`"))
	if strings.Contains(out, "`thing`") || !strings.Contains(out, "'thing'") {
		t.Errorf("Expected backticks to be replaced, got %q", out)
	}
}

func TestMetricsReport(t *testing.T) {
	ctx := context.Background()

	t.Run("WithoutStore", func(t *testing.T) {
		b := &Bot{cfg: &config.Config{}}
		if got := b.metricsReport(ctx); got != "❌ Metrics are not enabled." {
			t.Errorf("Unexpected report %q", got)
		}
	})

	t.Run("WithStore", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "bot.db")
		db, err := database.NewDB(dbPath)
		if err != nil {
			t.Fatalf("Failed to create database: %v", err)
		}
		defer db.Close()

		store := metrics.NewStore(db.SQL)
		if err := store.Record(ctx, metrics.ExecutionMetric{AgentName: "RecipeGenerator", Model: "mock", PromptTokens: 10, CompletionTokens: 5}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		b := &Bot{cfg: &config.Config{DatabasePath: dbPath}, metricsStore: store}
		got := b.metricsReport(ctx)
		if !strings.Contains(got, "15 tokens (1 execs)") || !strings.Contains(got, "🧠 *System Health*") {
			t.Errorf("Unexpected report:\n%s", got)
		}
	})
}
