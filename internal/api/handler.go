package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/middleware"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// Handler serves the recipe JSON API and the browser page.
type Handler struct {
	generator service.IRecipeGenerator
	sessions  *session.Store
	limiter   *middleware.RateLimiter
	log       *logrus.Entry
	page      *template.Template
}

// NewHandler creates a new Handler. limiter may be nil.
func NewHandler(generator service.IRecipeGenerator, sessions *session.Store, limiter *middleware.RateLimiter, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.WithField("component", "api")
	}
	if limiter == nil {
		limiter = middleware.NewGenerationRateLimiter(nil, 0, log)
	}
	limiter.WithSessionLookup(func(id uuid.UUID) bool {
		_, err := sessions.Get(id)
		return err == nil
	})
	return &Handler{
		generator: generator,
		sessions:  sessions,
		limiter:   limiter,
		log:       log,
		page:      pageTemplate,
	}
}

// RegisterRoutes registers every route on the engine.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	limited := h.limiter.RateLimitMiddleware()

	router.SetHTMLTemplate(h.page)
	router.GET("/", h.Index)
	router.GET("/healthz", h.Health)

	ui := router.Group("/ui")
	{
		ui.POST("/generate", limited, h.UIGenerate)
		ui.POST("/ask", limited, h.UIAsk)
	}

	recipes := router.Group("/api/v1/recipes")
	{
		recipes.POST("/query", limited, h.GenerateFromQuery)
		recipes.POST("/ingredients", limited, h.GenerateFromIngredients)
		recipes.GET("/current", h.CurrentRecipe)
		recipes.GET("/current/text", h.CurrentRecipeText)
		recipes.GET("/current/html", h.CurrentRecipeHTML)
		recipes.POST("/current/questions", limited, h.AskQuestion)
		recipes.GET("/current/questions", h.QuestionHistory)
	}
}

// Health reports liveness and whether a model is configured.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		ModelAvailable: h.generator.Available(),
		Model:          h.generator.ModelName(),
		Models:         h.generator.Models(),
	})
}

// existingSession returns the caller's session if the cookie names a live one.
func (h *Handler) existingSession(c *gin.Context) (session.Session, bool) {
	raw, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return session.Session{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return session.Session{}, false
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		return session.Session{}, false
	}
	return sess, true
}

// ensureSession returns the caller's session, starting a new one and setting
// the cookie when there is none.
func (h *Handler) ensureSession(c *gin.Context) session.Session {
	if sess, ok := h.existingSession(c); ok {
		return sess
	}
	sess := h.sessions.Create()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sess.ID.String(), 0, "/", "", c.Request.TLS != nil, true)
	return sess
}
