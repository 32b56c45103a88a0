// Package api wires the HTTP surface: routing, middleware and the
// request/response types for every endpoint.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/auth"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/search"
	"github.com/forkfeed/forkfeed/pkg/services"
)

// ServerConfig holds the HTTP server settings the router needs
type ServerConfig struct {
	ListenAddress  string
	RateLimitRPS   float64
	RateLimitBurst int
	Production     bool
}

// Dependencies carries everything the router mounts
type Dependencies struct {
	Tokens   *auth.TokenManager
	Auth     *services.AuthService
	Recipes  *services.RecipeService
	Feeds    *services.FeedService
	Saved    *services.SavedRecipeService
	Calories *services.CalorieService
	Forms    *services.InterestFormService
	Engine   *search.Engine
	Logger   observability.Logger
}

// Server is the HTTP front of the application
type Server struct {
	config ServerConfig
	router *gin.Engine
	server *http.Server
}

// NewServer builds the router and mounts all endpoints under /api/v1
func NewServer(config ServerConfig, deps Dependencies) *Server {
	if config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware(logger))
	if config.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(config.RateLimitRPS, config.RateLimitBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")

	authAPI := NewAuthAPI(deps.Auth)
	authAPI.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(deps.Tokens))
	authAPI.RegisterProtectedRoutes(protected)
	NewRecipeAPI(deps.Recipes).RegisterRoutes(protected)
	NewSearchAPI(deps.Engine).RegisterRoutes(protected)
	NewFeedAPI(deps.Feeds).RegisterRoutes(protected)
	NewSavedAPI(deps.Saved).RegisterRoutes(protected)
	NewCalorieAPI(deps.Calories).RegisterRoutes(protected)
	NewInterestFormAPI(deps.Forms).RegisterRoutes(protected)

	return &Server{
		config: config,
		router: router,
	}
}

// Router exposes the underlying handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until it fails or is shut down
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.ListenAddress,
		Handler: s.router,
	}
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
