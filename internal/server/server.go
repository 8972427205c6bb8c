package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/config"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/api"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/middleware"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/router"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/service"
	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/session"
)

// sweepInterval is how often expired sessions are dropped.
const sweepInterval = 5 * time.Minute

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Store
	log      *logrus.Entry
	ctx      context.Context
	stop     context.CancelFunc
}

// New creates a new server instance. limiter may be nil.
func New(cfg *config.Config, generator service.IRecipeGenerator, sessions *session.Store, limiter *middleware.RateLimiter, log *logrus.Entry) *Server {
	handler := api.NewHandler(generator, sessions, limiter, log.WithField("component", "api"))
	engine := router.SetupRouter(handler, cfg.CORSAllowedOrigins, log.WithField("component", "http"))
	ctx, stop := context.WithCancel(context.Background())

	return &Server{
		router:   engine,
		sessions: sessions,
		log:      log,
		ctx:      ctx,
		stop:     stop,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			// generation waits on the model, so allow for the LLM timeout
			WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		},
	}
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the session sweeper and serves until Shutdown is called.
func (s *Server) Start() error {
	go s.sessions.RunSweeper(s.ctx, sweepInterval)

	s.log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.stop()
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and the sweeper
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	return s.http.Shutdown(ctx)
}
