// Package api exposes the planner over HTTP.
package api

import (
	"context"
	"time"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shared"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RecipeImporter imports a recipe from a web page.
type RecipeImporter interface {
	ClipURL(ctx context.Context, url string) (*recipe.Recipe, shared.AgentMeta, error)
}

// Dependencies are the collaborators of the HTTP handlers. Metrics is optional.
type Dependencies struct {
	Planner        *planner.Planner
	Children       *child.Repository
	Recipes        *recipe.Repository
	Importer       RecipeImporter
	Metrics        *metrics.Store
	DataDir        string
	JWTSecret      string
	AllowedOrigins []string
}

// Handler serves the HTTP API.
type Handler struct {
	planner  *planner.Planner
	children *child.Repository
	recipes  *recipe.Repository
	importer RecipeImporter
	metrics  *metrics.Store
	dataDir  string
	now      func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	h := &Handler{
		planner:  deps.Planner,
		children: deps.Children,
		recipes:  deps.Recipes,
		importer: deps.Importer,
		metrics:  deps.Metrics,
		dataDir:  deps.DataDir,
		now:      time.Now,
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)

	apiGroup := r.Group("/api")
	apiGroup.Use(AuthMiddleware(deps.JWTSecret))
	{
		children := apiGroup.Group("/children")
		{
			children.GET("", h.ListChildren)
			children.POST("", h.CreateChild)
			children.GET("/:id", h.GetChild)
			children.PUT("/:id", h.UpdateChild)
			children.POST("/:id/school-trips", h.AddSchoolTrip)
			children.DELETE("/:id/school-trips/:date", h.RemoveSchoolTrip)

			children.GET("/:id/today", h.Today)
			children.GET("/:id/week", h.Week)
			children.GET("/:id/shopping-list", h.ShoppingList)
			children.PUT("/:id/plan/:date/:slot", h.AssignMeal)
			children.DELETE("/:id/plan/:date/:slot", h.RemoveMeal)
			children.POST("/:id/plan/:date/:slot/generate", h.GenerateMeal)
			children.POST("/:id/express", h.Express)
		}

		recipes := apiGroup.Group("/recipes")
		{
			recipes.POST("/import", h.ImportRecipe)
			recipes.GET("/:id", h.GetRecipe)
		}
	}

	return r
}
