package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/meal"
	"family-meal-planner/internal/policy"
	"family-meal-planner/internal/shared"
)

//go:embed generator_prompt.md
var generatorPrompt string

var generatorTmpl = template.Must(template.New("Generator").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(generatorPrompt))

// Request describes the meal a recipe must be generated for.
type Request struct {
	ChildName   string
	Age         int
	Allergies   []string
	Slot        meal.Slot
	Constraints policy.GenerationConstraints
}

// GeneratorResult holds the generated recipe and the agent usage.
type GeneratorResult struct {
	Recipe Recipe
	Meta   shared.AgentMeta
}

// Generator writes new recipes with a text generator.
type Generator struct {
	textGen llm.TextGenerator
}

// NewGenerator creates a new Generator.
func NewGenerator(textGen llm.TextGenerator) *Generator {
	return &Generator{textGen: textGen}
}

// Generate asks the model for a recipe matching req. The returned recipe has
// no ID yet.
func (g *Generator) Generate(ctx context.Context, req Request) (GeneratorResult, error) {
	if err := checkConstraints(req); err != nil {
		return GeneratorResult{}, err
	}

	start := time.Now()
	prompt, err := buildGeneratorPrompt(req)
	if err != nil {
		return GeneratorResult{}, fmt.Errorf("failed to build generator prompt: %w", err)
	}

	resp, err := g.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return GeneratorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "RecipeGenerator",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Content)), &rec); err != nil {
		return GeneratorResult{Meta: meta}, fmt.Errorf("failed to parse generated recipe: %w, :%s", err, resp.Content)
	}
	if err := rec.Validate(); err != nil {
		return GeneratorResult{Meta: meta}, fmt.Errorf("generated recipe is invalid: %w", err)
	}

	rec.ID = ""
	rec.Slot = req.Slot
	rec.IsLunchbox = req.Constraints.IsLunchbox
	rec.LunchboxType = req.Constraints.LunchboxType
	rec.Source = SourceGenerated

	return GeneratorResult{Recipe: rec, Meta: meta}, nil
}

func checkConstraints(req Request) error {
	c := req.Constraints
	if !req.Slot.Valid() || c.Slot != req.Slot {
		return ErrNotGeneratable
	}
	if c.IsLunchbox && (c.Slot != meal.SlotLunch || !c.LunchboxType.Info().IsLunchbox) {
		return ErrNotGeneratable
	}
	return nil
}

type promptData struct {
	ChildName   string
	Age         int
	Allergies   []string
	SlotLabel   string
	SlotHint    string
	SchoolTrip  bool
	SpecialDiet bool
}

func buildGeneratorPrompt(req Request) (string, error) {
	data := promptData{
		ChildName:   req.ChildName,
		Age:         req.Age,
		Allergies:   req.Allergies,
		SlotLabel:   req.Slot.Label(),
		SchoolTrip:  req.Constraints.IsLunchbox && req.Constraints.LunchboxType == meal.LunchSchoolTrip,
		SpecialDiet: req.Constraints.IsLunchbox && req.Constraints.LunchboxType == meal.LunchSpecialDiet,
	}
	switch req.Slot {
	case meal.SlotBreakfast:
		data.SlotHint = "A quick breakfast that can be ready before school."
	case meal.SlotSnack:
		data.SlotHint = "An after-school snack (goûter), light and ready in a few minutes."
	case meal.SlotDinner:
		data.SlotHint = "A family dinner the child will enjoy."
	}

	var buf bytes.Buffer
	if err := generatorTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
