package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// GenerateFromQuery handles POST /api/v1/recipes/query
func (h *Handler) GenerateFromQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	recipe, err := h.generateFromQuery(c, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(recipe))
}

// GenerateFromIngredients handles POST /api/v1/recipes/ingredients
func (h *Handler) GenerateFromIngredients(c *gin.Context) {
	var req IngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	recipe, err := h.generateFromIngredients(c, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeResponse(recipe))
}

// CurrentRecipe handles GET /api/v1/recipes/current
func (h *Handler) CurrentRecipe(c *gin.Context) {
	recipe, err := h.currentRecipe(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRecipeResponse(recipe))
}

// CurrentRecipeText handles GET /api/v1/recipes/current/text
func (h *Handler) CurrentRecipeText(c *gin.Context) {
	recipe, err := h.currentRecipe(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.String(http.StatusOK, recipe.Text())
}

// CurrentRecipeHTML handles GET /api/v1/recipes/current/html
func (h *Handler) CurrentRecipeHTML(c *gin.Context) {
	recipe, err := h.currentRecipe(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	fragment, err := renderRecipeHTML(recipe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fragment))
}

func (h *Handler) generateFromQuery(c *gin.Context, req QueryRequest) (*model.Recipe, error) {
	recipe, err := h.generator.Generate(c.Request.Context(), generationRequest(req.GenerateOptions, service.GenerationRequest{Query: req.Query}))
	if err != nil {
		return nil, err
	}
	h.remember(c, recipe, session.Request{
		Query:       strings.TrimSpace(req.Query),
		Servings:    req.Servings,
		Diet:        req.Diet,
		NoCook:      req.NoCook,
		Temperature: h.temperatureOf(req.Temperature),
		Model:       strings.TrimSpace(req.Model),
	})
	return recipe, nil
}

func (h *Handler) generateFromIngredients(c *gin.Context, req IngredientsRequest) (*model.Recipe, error) {
	ingredients := append([]string{}, service.CleanIngredients(req.Ingredients)...)
	ingredients = append(ingredients, service.ParseIngredientLines(req.IngredientsText)...)

	recipe, err := h.generator.Generate(c.Request.Context(), generationRequest(req.GenerateOptions, service.GenerationRequest{Ingredients: ingredients}))
	if err != nil {
		return nil, err
	}
	h.remember(c, recipe, session.Request{
		Ingredients: ingredients,
		Servings:    req.Servings,
		Diet:        req.Diet,
		NoCook:      req.NoCook,
		Temperature: h.temperatureOf(req.Temperature),
		Model:       strings.TrimSpace(req.Model),
	})
	return recipe, nil
}

// generationRequest copies the shared options onto a query or ingredients request.
func generationRequest(opts GenerateOptions, req service.GenerationRequest) service.GenerationRequest {
	req.Servings = opts.Servings
	req.Diet = opts.Diet
	req.NoCook = opts.NoCook
	req.Temperature = opts.Temperature
	req.Model = opts.Model
	return req
}

// remember stores a fresh recipe in the caller's session.
func (h *Handler) remember(c *gin.Context, recipe *model.Recipe, req session.Request) {
	sess := h.ensureSession(c)
	if err := h.sessions.SetRecipe(sess.ID, recipe, req); err != nil {
		// the session expired between lookup and write; the recipe is still returned
		h.log.WithError(err).WithField("session", sess.ID).Warn("could not store recipe in session")
	}
}

func (h *Handler) currentRecipe(c *gin.Context) (*model.Recipe, error) {
	sess, ok := h.existingSession(c)
	if !ok || sess.Recipe == nil {
		return nil, errNoRecipe
	}
	return sess.Recipe, nil
}

func (h *Handler) temperatureOf(t *float64) float64 {
	if t != nil {
		return *t
	}
	return h.generator.Temperature()
}
