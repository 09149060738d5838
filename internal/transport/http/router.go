package http

import (
	"github.com/gin-gonic/gin"

	"github.com/fourinarow/engine/internal/service/game"
	"github.com/fourinarow/engine/internal/transport/http/middleware"
	"github.com/fourinarow/engine/pkg/auth"
)

type RouterConfig struct {
	AllowedOrigins []string
	IsProduction   bool
	// Connections, when set, lets DELETE close the live socket and /healthz
	// report the socket count.
	Connections Connections
	// WebSocket is mounted at /ws when set.
	WebSocket gin.HandlerFunc
}

func NewRouter(sessions *game.SessionManager, tokens *auth.TokenManager, cfg RouterConfig) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewSessionHandler(sessions, tokens, cfg.Connections, cfg.IsProduction)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/healthz", handler.Health)
	router.POST("/api/sessions", handler.CreateSession)

	// Protected Routes
	protected := router.Group("/api/sessions")
	protected.Use(middleware.SessionAuth(tokens, sessions))
	{
		protected.GET("/current", handler.GetCurrent)
		protected.DELETE("/current", handler.DeleteCurrent)
	}

	// WebSocket Route (auth handled inside the WS handler itself)
	if cfg.WebSocket != nil {
		router.GET("/ws", cfg.WebSocket)
	}

	return router
}
