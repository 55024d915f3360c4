package clipper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// maxContentLength caps the page text sent to the model.
const maxContentLength = 20000

// RecipeSaver stores imported recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec *recipe.Recipe) error
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	recipes    RecipeSaver
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// NewClipper creates a new Clipper instance.
func NewClipper(recipes RecipeSaver, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		recipes:    recipes,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and saves it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*recipe.Recipe, shared.AgentMeta, error) {
	// 1. Fetch and Clean HTML
	page, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	// 2. Extract Data
	res, err := recipe.Extract(ctx, c.textGen, page)
	if err != nil {
		return nil, res.Meta, fmt.Errorf("ai extraction failed: %w", err)
	}

	// 3. Save
	rec := res.Recipe
	if err := c.recipes.Save(ctx, &rec); err != nil {
		return nil, res.Meta, fmt.Errorf("failed to save recipe: %w", err)
	}

	return &rec, res.Meta, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (recipe.PageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return recipe.PageData{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recipe.PageData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recipe.PageData{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return recipe.PageData{}, err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	content := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	return recipe.PageData{
		URL:     url,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: content,
	}, nil
}
