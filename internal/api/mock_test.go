package api

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/mocks"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

func setupMockRouter(t *testing.T, gen *mocks.MockRecipeGenerator) *testClient {
	gin.SetMode(gin.TestMode)
	log := quietLogger()
	router := gin.New()
	NewHandler(gen, session.NewStore(time.Hour, log), nil, log).RegisterRoutes(router)
	return &testClient{t: t, router: router}
}

func TestHandlerPassesOptionsThrough(t *testing.T) {
	gen := new(mocks.MockRecipeGenerator)
	servings := 4
	temperature := 0.2
	recipe := &model.Recipe{Title: "Gazpacho", Ingredients: []string{"tomato"}, Steps: []string{"blend"}}

	gen.On("Generate", mock.Anything, service.GenerationRequest{
		Query:       "cold soup",
		Servings:    &servings,
		Diet:        "vegan",
		Temperature: &temperature,
		NoCook:      true,
		Model:       "large",
	}).Return(recipe, nil).Once()

	tc := setupMockRouter(t, gen)
	w := tc.postJSON("/api/v1/recipes/query", map[string]any{
		"query":       "cold soup",
		"servings":    4,
		"diet":        "vegan",
		"temperature": 0.2,
		"no_cook":     true,
		"model":       "large",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Gazpacho", decode[RecipeResponse](t, w).Recipe.Title)
	gen.AssertExpectations(t)
}

func TestHandlerUsesDefaultTemperatureForSession(t *testing.T) {
	gen := new(mocks.MockRecipeGenerator)
	recipe := &model.Recipe{Title: "Salad"}
	gen.On("Generate", mock.Anything, service.GenerationRequest{Ingredients: []string{"lettuce", "oil"}}).Return(recipe, nil).Once()
	gen.On("Temperature").Return(0.6)
	gen.On("Available").Return(true)
	gen.On("ModelName").Return("mock")
	gen.On("Models").Return([]string{"mock"})

	tc := setupMockRouter(t, gen)
	w := tc.postJSON("/api/v1/recipes/ingredients", map[string]any{"ingredients_text": "lettuce\r\noil"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = tc.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="0.60"`)
	assert.Contains(t, w.Body.String(), "lettuce\noil")
	assert.NotContains(t, w.Body.String(), `<select id="model"`)
	gen.AssertExpectations(t)
}

func TestModelPickerKeepsLastChoice(t *testing.T) {
	gen := new(mocks.MockRecipeGenerator)
	recipe := &model.Recipe{Title: "Soup", Ingredients: []string{"water"}, Steps: []string{"boil"}}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req service.GenerationRequest) bool {
		return req.Query == "soup" && req.Model == "large"
	})).Return(recipe, nil).Once()
	gen.On("Temperature").Return(0.6)
	gen.On("Available").Return(true)
	gen.On("ModelName").Return("small")
	gen.On("Models").Return([]string{"small", "large"})

	tc := setupMockRouter(t, gen)
	w := tc.postForm("/ui/generate", url.Values{"mode": {"query"}, "query": {"soup"}, "model": {"large"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = tc.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Settings (small)")
	assert.NotContains(t, body, `<option value="small" selected>`)
	assert.Contains(t, body, `<option value="large" selected>large</option>`)

	w = tc.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, []string{"small", "large"}, decode[HealthResponse](t, w).Models)
	gen.AssertExpectations(t)
}
