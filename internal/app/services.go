package app

import (
	"context"
	"fmt"
	"log"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/clipper"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shopping"
)

// Services holds the components every entry point needs.
type Services struct {
	DB       *database.DB
	Children *child.Repository
	Recipes  *recipe.Repository
	Metrics  *metrics.Store
	Planner  *planner.Planner
	Clipper  *clipper.Clipper

	closeLLM func() error
}

// NewServices wires the services around an open database and text generator.
func NewServices(db *database.DB, textGen llm.TextGenerator, concurrency int) *Services {
	s := &Services{
		DB:       db,
		Children: child.NewRepository(db.SQL),
		Recipes:  recipe.NewRepository(db.SQL),
		Metrics:  metrics.NewStore(db.SQL),
	}
	s.Planner = planner.NewPlanner(planner.Dependencies{
		Children:    s.Children,
		Recipes:     s.Recipes,
		Plans:       planner.NewPlanRepository(db.SQL),
		Lists:       shopping.NewRepository(db.SQL),
		Generator:   recipe.NewGenerator(textGen),
		Metrics:     s.Metrics,
		Concurrency: concurrency,
	})
	s.Clipper = clipper.NewClipper(s.Recipes, textGen)
	return s
}

// Open opens the database and the configured LLM provider and wires the
// services. Close releases both.
func Open(ctx context.Context, cfg *config.Config) (*Services, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	textGen, closeLLM, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}

	s := NewServices(db, textGen, cfg.ExpressConcurrency)
	s.closeLLM = closeLLM
	return s, nil
}

// Close releases the LLM client and the database.
func (s *Services) Close() {
	if s.closeLLM != nil {
		if err := s.closeLLM(); err != nil {
			log.Printf("Warning: failed to close llm client: %v", err)
		}
	}
	if err := s.DB.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}
