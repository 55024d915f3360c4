package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"family-meal-planner/internal/child"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/schedule"

	"github.com/gin-gonic/gin"
)

// maxShoppingDays bounds the shopping list range.
const maxShoppingDays = 31

// Health reports liveness and runtime usage.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"system": metrics.GetSysHealth(h.dataDir),
	})
}

// writeError maps domain errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, child.ErrNotFound),
		errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, planner.ErrNoMeal):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrInvalidDate),
		errors.Is(err, planner.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrSlotLocked),
		errors.Is(err, planner.ErrGenerationBlocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ownedChild loads the child of the URL and checks it belongs to the caller.
// Another parent's child is reported as not found.
func (h *Handler) ownedChild(c *gin.Context) (*child.Profile, bool) {
	p, err := h.children.Get(c.Request.Context(), c.Param("id"))
	if err == nil && p.ParentID != parentID(c) {
		err = child.ErrNotFound
	}
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return p, true
}

// dateQuery parses an optional yyyy-MM-dd query parameter.
func (h *Handler) dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return h.now(), true
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", use " + schedule.DateLayout})
		return time.Time{}, false
	}
	return d, true
}

type childRequest struct {
	Name                string   `json:"name"`
	Age                 int      `json:"age"`
	Allergies           []string `json:"allergies"`
	RegimeSpecial       bool     `json:"regime_special"`
	DejeunerHabituel    string   `json:"dejeuner_habituel"`
	SortieScolaireDates []string `json:"sortie_scolaire_dates"`
}

func (r childRequest) apply(p *child.Profile) {
	p.Name = r.Name
	p.Age = r.Age
	p.Allergies = r.Allergies
	p.RegimeSpecial = r.RegimeSpecial
	p.DejeunerHabituel = r.DejeunerHabituel
	p.SortieScolaireDates = r.SortieScolaireDates
}

// ListChildren lists the caller's children.
func (h *Handler) ListChildren(c *gin.Context) {
	children, err := h.children.ListByParent(c.Request.Context(), parentID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if children == nil {
		children = []child.Profile{}
	}
	c.JSON(http.StatusOK, children)
}

// CreateChild adds a child to the caller's account.
func (h *Handler) CreateChild(c *gin.Context) {
	var req childRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p := child.Profile{ParentID: parentID(c)}
	req.apply(&p)
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.children.Create(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetChild returns one of the caller's children.
func (h *Handler) GetChild(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateChild replaces the editable fields of a child.
func (h *Handler) UpdateChild(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	var req childRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.apply(p)
	if err := p.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.children.Update(c.Request.Context(), *p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// AddSchoolTrip adds a school trip day to a child.
func (h *Handler) AddSchoolTrip(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, err := child.ValidateDate(req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.children.AddSchoolTrip(c.Request.Context(), p.ID, req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// RemoveSchoolTrip removes a school trip day from a child.
func (h *Handler) RemoveSchoolTrip(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	if _, err := child.ValidateDate(c.Param("date")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.children.RemoveSchoolTrip(c.Request.Context(), p.ID, c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Today returns the dashboard of the current day.
func (h *Handler) Today(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	view, err := h.planner.Today(c.Request.Context(), p.ID, h.now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Week returns the weekly grid and statistics.
func (h *Handler) Week(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	start, ok := h.dateQuery(c, "start")
	if !ok {
		return
	}
	view, err := h.planner.Week(c.Request.Context(), p.ID, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ShoppingList builds the shopping list of a range of days. It defaults to
// the current week.
func (h *Handler) ShoppingList(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}

	var start time.Time
	if c.Query("start") == "" {
		start = schedule.StartOfWeek(h.now())
	} else if start, ok = h.dateQuery(c, "start"); !ok {
		return
	}

	days := schedule.DaysPerWeek
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxShoppingDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 31"})
			return
		}
		days = n
	}

	list, err := h.planner.ShoppingList(c.Request.Context(), p.ID, start, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AssignMeal puts an existing recipe on a slot.
func (h *Handler) AssignMeal(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	var req struct {
		RecipeID string `json:"recipe_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.planner.Assign(c.Request.Context(), p.ID, c.Param("date"), c.Param("slot"), req.RecipeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// RemoveMeal clears a slot.
func (h *Handler) RemoveMeal(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	if err := h.planner.Remove(c.Request.Context(), p.ID, c.Param("date"), c.Param("slot")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateMeal generates a recipe for a slot.
func (h *Handler) GenerateMeal(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	gen, err := h.planner.GenerateForSlot(c.Request.Context(), p.ID, c.Param("date"), c.Param("slot"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gen)
}

// Express fills every empty slot of a week.
func (h *Handler) Express(c *gin.Context) {
	p, ok := h.ownedChild(c)
	if !ok {
		return
	}
	start, ok := h.dateQuery(c, "start")
	if !ok {
		return
	}
	res, err := h.planner.Express(c.Request.Context(), p.ID, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ImportRecipe imports a recipe from a web page.
func (h *Handler) ImportRecipe(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid url is required"})
		return
	}

	rec, meta, err := h.importer.ClipURL(c.Request.Context(), req.URL)
	if h.metrics != nil {
		if merr := h.metrics.RecordMeta(c.Request.Context(), meta); merr != nil {
			log.Printf("⚠️ Failed to record %s metrics: %v", meta.AgentName, merr)
		}
	}
	if err != nil {
		log.Printf("❌ Recipe import from %s failed: %v", req.URL, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to import recipe"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GetRecipe returns a recipe.
func (h *Handler) GetRecipe(c *gin.Context) {
	rec, err := h.recipes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
