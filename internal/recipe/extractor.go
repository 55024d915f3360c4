package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/shared"
)

//go:embed extractor_prompt.md
var extractorPrompt string

// PageData is the cleaned text of a recipe web page.
type PageData struct {
	URL     string
	Title   string
	Content string
}

// ExtractorResult holds the extracted recipe and the agent usage.
type ExtractorResult struct {
	Recipe Recipe
	Meta   shared.AgentMeta
}

// Extract turns the text of a web page into a structured recipe. The recipe
// source is the page URL.
func Extract(ctx context.Context, textGen llm.TextGenerator, data PageData) (ExtractorResult, error) {
	start := time.Now()

	prompt, err := buildExtractorPrompt(data)
	if err != nil {
		return ExtractorResult{}, err
	}

	llmResp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ExtractorResult{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	meta := shared.AgentMeta{
		AgentName: "Extractor",
		Usage:     llmResp.Usage,
		Latency:   time.Since(start),
	}

	rec := Recipe{}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(llmResp.Content)), &rec); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return ExtractorResult{Meta: meta}, fmt.Errorf("extracted recipe is invalid: %w", err)
	}

	rec.ID = ""
	rec.Source = data.URL
	return ExtractorResult{Recipe: rec, Meta: meta}, nil
}

func buildExtractorPrompt(data PageData) (string, error) {
	tmpl, err := template.New("Extractor").Parse(extractorPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
