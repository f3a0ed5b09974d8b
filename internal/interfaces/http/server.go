// Package http provides the portal gateway the browser UI talks to.
// It forwards the caller's credentials to the REST backend through the application services.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/garyjia/firm-portal/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	AllowedOrigin string
	LoginPath     string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		AllowedOrigin: "*",
		LoginPath:     "/login",
	}
}

// Services groups the application services the gateway exposes
type Services struct {
	Leave     service.LeaveService
	Directory service.DirectoryService
	Blogs     service.BlogService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handler    http.Handler
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	server.handler = server.corsHandler(router)

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(forwardCredentials())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) corsHandler(next http.Handler) http.Handler {
	origin := s.config.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: origin != "*",
	}).Handler(next)
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.config.LoginPath, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	portal := s.router.Group("/api/portal")
	{
		portal.GET("/status/:status", handlers.DescribeStatus)

		leave := portal.Group("/leave")
		leave.GET("/mine", handlers.MyLeaves)
		leave.GET("/pending", handlers.PendingApprovals)
		leave.GET("/balance", handlers.MyBalance)
		leave.GET("/types", handlers.LeaveTypes)
		leave.POST("", handlers.ApplyLeave)
		leave.POST("/:id/approve", handlers.ApproveLeave)
		leave.POST("/:id/reject", handlers.RejectLeave)

		portal.GET("/directory", handlers.Directory)

		portal.GET("/blogs", handlers.PublicBlogs)
		portal.POST("/blogs/:id/like", handlers.LikeBlog)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the server fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the full handler chain including CORS (for testing)
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
