package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/service/game"
	"github.com/fourinarow/engine/internal/transport/http/middleware"
	"github.com/fourinarow/engine/pkg/auth"
	"github.com/fourinarow/engine/pkg/httputil"
	"github.com/fourinarow/engine/pkg/logger"
)

// Connections is the live socket registry the handlers report on and close.
type Connections interface {
	IsConnected(sessionID string) bool
	RemoveConnection(sessionID string)
	Count() int
}

type SessionHandler struct {
	Sessions     *game.SessionManager
	Tokens       *auth.TokenManager
	Connections  Connections // optional
	IsProduction bool
}

func NewSessionHandler(sessions *game.SessionManager, tokens *auth.TokenManager, conns Connections, isProduction bool) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Tokens: tokens, Connections: conns, IsProduction: isProduction}
}

type createSessionRequest struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

type createSessionResponse struct {
	SessionID string        `json:"sessionId"`
	Token     string        `json:"token"`
	State     game.Snapshot `json:"state"`
}

// CreateSession starts a game. The body is optional; missing fields use the
// server defaults.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_request", "message": "Invalid JSON body"})
		return
	}

	var mode domain.Mode
	if req.Mode != "" {
		parsed, ok := domain.ParseMode(req.Mode)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_mode", "message": "Mode must be ai or 2player"})
			return
		}
		mode = parsed
	}

	var difficulty domain.Difficulty
	if req.Difficulty != "" {
		parsed, ok := domain.ParseDifficulty(req.Difficulty)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_difficulty", "message": "Difficulty must be easy, medium or hard"})
			return
		}
		difficulty = parsed
	}

	session, err := h.Sessions.CreateSession(mode, difficulty)
	if err != nil {
		logger.Error("http", "failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": "Failed to create session"})
		return
	}

	token, err := h.Tokens.GenerateSessionToken(session.ID)
	if err != nil {
		h.Sessions.RemoveSession(session.ID)
		logger.Error("http", "failed to sign session token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": "Failed to create session"})
		return
	}

	httputil.SetSessionCookie(c.Writer, token, h.Tokens.TTL(), h.IsProduction)
	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID: session.ID,
		Token:     token,
		State:     session.Snapshot(),
	})
}

func (h *SessionHandler) GetCurrent(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "No session"})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (h *SessionHandler) DeleteCurrent(c *gin.Context) {
	session, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "unauthorized", "message": "No session"})
		return
	}
	if err := h.Sessions.RemoveSession(session.ID); err != nil {
		logger.Warn("http", "remove session %s: %v", session.ID, err)
	}
	if h.Connections != nil && h.Connections.IsConnected(session.ID) {
		h.Connections.RemoveConnection(session.ID)
		logger.Info("http", "closed socket of deleted session %s", session.ID)
	}
	httputil.ClearSessionCookie(c.Writer)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "sessions": h.Sessions.Count()}
	if h.Connections != nil {
		body["connections"] = h.Connections.Count()
	}
	c.JSON(http.StatusOK, body)
}
