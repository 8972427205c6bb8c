package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/api"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/middleware"
)

// SetupRouter configures the middleware chain and the application routes
func SetupRouter(handler *api.Handler, allowedOrigins []string, log *logrus.Entry) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	if len(allowedOrigins) > 0 {
		router.Use(middleware.CORS(allowedOrigins))
	}

	handler.RegisterRoutes(router)
	return router
}
