package recipe

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"family-meal-planner/internal/database"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/policy"
	"family-meal-planner/internal/shared"
)

// mockTextGenerator records the last prompt and returns a canned response.
type mockTextGenerator struct {
	response    string
	shouldError bool
	lastPrompt  string
	calls       int
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.shouldError {
		return llm.ContentResponse{}, errors.New("LLM error")
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 120, CompletionTokens: 60, Model: "mock"},
	}, nil
}

const soupJSON = `{
	"name": "Soupe de légumes",
	"ingredients": [{"name": "carotte", "quantity": 2, "unit": ""}, {"name": "lait", "quantity": 100, "unit": "ml"}],
	"instructions": ["Éplucher", "Cuire"],
	"prep_time": 25
}`

func TestGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock := &mockTextGenerator{response: soupJSON}
		constraints, _ := policy.ConstraintsFor(meal.SlotDinner, meal.LunchHome)

		res, err := NewGenerator(mock).Generate(ctx, Request{
			ChildName:   "Léa",
			Age:         8,
			Allergies:   []string{"arachide", "kiwi"},
			Slot:        meal.SlotDinner,
			Constraints: constraints,
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.Recipe.Name != "Soupe de légumes" || len(res.Recipe.Ingredients) != 2 || res.Recipe.PrepTime != 25 {
			t.Errorf("Unexpected recipe %+v", res.Recipe)
		}
		if res.Recipe.Slot != meal.SlotDinner || res.Recipe.IsLunchbox || res.Recipe.Source != SourceGenerated {
			t.Errorf("Unexpected recipe flags %+v", res.Recipe)
		}
		if res.Meta.AgentName != "RecipeGenerator" || res.Meta.Usage.PromptTokens != 120 {
			t.Errorf("Unexpected meta %+v", res.Meta)
		}
		if !strings.Contains(mock.lastPrompt, "arachide, kiwi") {
			t.Error("Expected allergies in the prompt")
		}
		if strings.Contains(mock.lastPrompt, "LUNCHBOX") {
			t.Error("Did not expect lunchbox instructions for dinner")
		}
	})

	t.Run("SchoolTripLunchbox", func(t *testing.T) {
		mock := &mockTextGenerator{response: soupJSON}
		constraints, ok := policy.ConstraintsFor(meal.SlotLunch, meal.LunchSchoolTrip)
		if !ok {
			t.Fatal("Expected school trip lunch to be generatable")
		}

		res, err := NewGenerator(mock).Generate(ctx, Request{ChildName: "Léa", Slot: meal.SlotLunch, Constraints: constraints})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !res.Recipe.IsLunchbox || res.Recipe.LunchboxType != meal.LunchSchoolTrip {
			t.Errorf("Expected school trip lunchbox, got %+v", res.Recipe)
		}
		if !strings.Contains(mock.lastPrompt, "no reheating") {
			t.Error("Expected cold lunchbox constraint in the prompt")
		}
	})

	t.Run("SpecialDietLunchbox", func(t *testing.T) {
		mock := &mockTextGenerator{response: soupJSON}
		constraints, _ := policy.ConstraintsFor(meal.SlotLunch, meal.LunchSpecialDiet)

		if _, err := NewGenerator(mock).Generate(ctx, Request{Slot: meal.SlotLunch, Constraints: constraints}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !strings.Contains(mock.lastPrompt, "special diet") {
			t.Error("Expected special diet constraint in the prompt")
		}
	})

	t.Run("NotGeneratable", func(t *testing.T) {
		tests := map[string]Request{
			"UnknownSlot":      {Slot: meal.Slot("brunch"), Constraints: policy.GenerationConstraints{Slot: meal.Slot("brunch")}},
			"SlotMismatch":     {Slot: meal.SlotLunch, Constraints: policy.GenerationConstraints{Slot: meal.SlotDinner}},
			"CanteenLunchbox":  {Slot: meal.SlotLunch, Constraints: policy.GenerationConstraints{Slot: meal.SlotLunch, IsLunchbox: true, LunchboxType: meal.LunchCanteen}},
			"DinnerLunchbox":   {Slot: meal.SlotDinner, Constraints: policy.GenerationConstraints{Slot: meal.SlotDinner, IsLunchbox: true, LunchboxType: meal.LunchSchoolTrip}},
			"EmptyConstraints": {Slot: meal.SlotSnack},
		}
		for name, req := range tests {
			t.Run(name, func(t *testing.T) {
				mock := &mockTextGenerator{response: soupJSON}
				if _, err := NewGenerator(mock).Generate(ctx, req); !errors.Is(err, ErrNotGeneratable) {
					t.Errorf("Expected ErrNotGeneratable, got %v", err)
				}
				if mock.calls != 0 {
					t.Error("Text generator must not be called")
				}
			})
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		mock := &mockTextGenerator{response: "not json"}
		constraints, _ := policy.ConstraintsFor(meal.SlotSnack, meal.LunchHome)
		res, err := NewGenerator(mock).Generate(ctx, Request{Slot: meal.SlotSnack, Constraints: constraints})
		if err == nil {
			t.Fatal("Expected error for invalid JSON")
		}
		if res.Meta.Usage.PromptTokens != 120 {
			t.Error("Expected usage to be reported on parse failure")
		}
	})

	t.Run("LLMError", func(t *testing.T) {
		mock := &mockTextGenerator{shouldError: true}
		constraints, _ := policy.ConstraintsFor(meal.SlotSnack, meal.LunchHome)
		if _, err := NewGenerator(mock).Generate(ctx, Request{Slot: meal.SlotSnack, Constraints: constraints}); err == nil {
			t.Fatal("Expected error")
		}
	})
}

func TestExtract(t *testing.T) {
	mock := &mockTextGenerator{response: "```json\n" + soupJSON + "\n```"}
	res, err := Extract(context.Background(), mock, PageData{URL: "https://example.com/soupe", Title: "Soupe", Content: "Une soupe"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Recipe.Source != "https://example.com/soupe" || res.Recipe.Name != "Soupe de légumes" {
		t.Errorf("Unexpected recipe %+v", res.Recipe)
	}
	if !strings.Contains(mock.lastPrompt, "Une soupe") {
		t.Error("Expected page content in the prompt")
	}

	mock = &mockTextGenerator{response: `{"name": ""}`}
	if _, err := Extract(context.Background(), mock, PageData{URL: "u"}); err == nil {
		t.Error("Expected error for a recipe without name")
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "recipes.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()
	repo := NewRepository(db.SQL)

	rec := &Recipe{
		Name:         "Wrap poulet",
		Slot:         meal.SlotLunch,
		Ingredients:  []Ingredient{{Name: "tortilla", Quantity: 1}},
		PrepTime:     10,
		IsLunchbox:   true,
		LunchboxType: meal.LunchSchoolTrip,
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Expected ID to be assigned")
	}

	got, err := repo.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Wrap poulet" || !got.IsLunchbox || got.LunchboxType != meal.LunchSchoolTrip {
		t.Errorf("Unexpected recipe %+v", got)
	}

	rec.Name = "Wrap dinde"
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}
	if count, _ := repo.Count(ctx); count != 1 {
		t.Errorf("Expected 1 recipe after update, got %d", count)
	}

	byID, err := repo.GetByIDs(ctx, []string{rec.ID, "missing"})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(byID) != 1 || byID[rec.ID].Name != "Wrap dinde" {
		t.Errorf("Unexpected recipes %+v", byID)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := repo.Save(ctx, &Recipe{}); err == nil {
		t.Error("Expected validation error for empty recipe")
	}
}

func TestIngredientLine(t *testing.T) {
	tests := []struct {
		in   Ingredient
		want string
	}{
		{Ingredient{Name: "farine", Quantity: 200, Unit: "g"}, "200 g farine"},
		{Ingredient{Name: "oeufs", Quantity: 2}, "2 oeufs"},
		{Ingredient{Name: "sel"}, "sel"},
		{Ingredient{Name: "lait", Quantity: 0.25, Unit: "l"}, "0.25 l lait"},
		{Ingredient{Name: "beurre", Quantity: 12.5, Unit: "g"}, "12.5 g beurre"},
	}
	for _, tt := range tests {
		if got := tt.in.IngredientLine(); got != tt.want {
			t.Errorf("IngredientLine() = %q, want %q", got, tt.want)
		}
	}
}
