// Package httpserver assembles the gateway's HTTP surface.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"glot-server/internal/config"
	"glot-server/internal/domain/model"
	"glot-server/internal/interfaces/httpserver/handlers/modelhandler"
	"glot-server/internal/interfaces/httpserver/handlers/proxyhandler"
	middleware "glot-server/internal/interfaces/httpserver/middlewares"
	"glot-server/internal/utils/httpclients"
)

type HTTPServer struct {
	engine       *gin.Engine
	config       *config.Config
	logger       zerolog.Logger
	authGate     *middleware.AuthGate
	modelHandler *modelhandler.ModelHandler
	proxyHandler *proxyhandler.ProxyHandler
}

// NewHTTPServer wires the gin engine, middleware stack and routes. All
// dependencies are constructor injected so tests can swap the catalog,
// clock and upstream targets.
func NewHTTPServer(cfg *config.Config, logger zerolog.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	catalog := model.DefaultCatalog()
	policy := model.NewAccessPolicy(catalog)
	proxyClient := proxyhandler.NewProxyClient(httpclients.NewClient("gateway-proxy"))

	server := &HTTPServer{
		engine:       gin.New(),
		config:       cfg,
		logger:       logger,
		authGate:     middleware.NewAuthGate([]byte(cfg.GatewaySecret), cfg.AuthMaxSkew, logger),
		modelHandler: modelhandler.NewModelHandler(catalog),
		proxyHandler: proxyhandler.NewProxyHandler(cfg, proxyClient, policy, logger),
	}

	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(logger))
	server.engine.Use(middleware.CORSMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.registerRoutes()
	return server
}

func (s *HTTPServer) registerRoutes() {
	// Public catalog listing bypasses the auth gate entirely.
	s.engine.GET("/models", s.modelHandler.GetModels)

	authed := s.engine.Group("/")
	authed.Use(
		s.authGate.Middleware(),
		middleware.RateLimitMiddleware(s.config.RateLimitPerMinute),
	)
	authed.POST("/tts", s.proxyHandler.TTS)
	authed.POST("/:model/chat/completions", s.proxyHandler.ChatCompletions)
}

// Engine exposes the gin engine for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

func (s *HTTPServer) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
