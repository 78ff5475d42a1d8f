// Package api provides the HTTP REST API server for userapi
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/memtensor/userapi/api/docs"
	"github.com/memtensor/userapi/pkg/interfaces"
	"github.com/memtensor/userapi/pkg/users"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Options holds the HTTP-facing settings of the server
type Options struct {
	Addr              string
	Production        bool
	ProtectUserRoutes bool
	CookieMaxAge      time.Duration
	CORSOrigins       []string
	// AccessLog receives one line per request; nil disables it
	AccessLog io.Writer
}

// Server represents the API server instance
type Server struct {
	manager   *users.Manager
	sessions  *users.SessionManager
	health    interfaces.HealthChecker
	logger    interfaces.Logger
	metrics   interfaces.Metrics
	opts      Options
	router    *gin.Engine
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new API server instance
func NewServer(
	manager *users.Manager,
	sessions *users.SessionManager,
	health interfaces.HealthChecker,
	logger interfaces.Logger,
	metrics interfaces.Metrics,
	opts Options,
) *Server {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = time.Hour
	}

	s := &Server{
		manager:   manager,
		sessions:  sessions,
		health:    health,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		router:    gin.New(),
		startTime: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())

	if s.opts.AccessLog != nil {
		s.router.Use(accessLogMiddleware(s.opts.AccessLog))
	}
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(s.opts.CORSOrigins) == 0 || (len(s.opts.CORSOrigins) == 1 && s.opts.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.opts.CORSOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	s.router.Use(cors.New(corsConfig))
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.welcome)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", s.getMetrics)
	s.router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	guard := s.authMiddleware()

	// Per-user routes are open unless explicitly protected
	byID := []gin.HandlerFunc{}
	if s.opts.ProtectUserRoutes {
		byID = append(byID, guard)
	}

	userRoutes := s.router.Group("/api/users")
	{
		userRoutes.POST("/login", s.login)
		userRoutes.POST("/logout", guard, s.logout)
		userRoutes.POST("", s.createUser)
		userRoutes.GET("", guard, s.listUsers)
		userRoutes.GET("/filter", s.listUsers)
		userRoutes.GET("/:id", append(byID, s.getUser)...)
		userRoutes.PUT("/:id", append(byID, s.updateUser)...)
		userRoutes.DELETE("/:id", append(byID, s.deleteUser)...)
	}
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", map[string]interface{}{
		"addr": s.opts.Addr,
		"mode": gin.Mode(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
