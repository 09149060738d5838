package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/service/game"
	"github.com/fourinarow/engine/pkg/auth"
	"github.com/fourinarow/engine/pkg/httputil"
	"github.com/fourinarow/engine/pkg/logger"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type Options struct {
	// BotMoveDelay is the pause before the computer answers a human move.
	BotMoveDelay      time.Duration
	MessagesPerSecond int
	Burst             int
	AllowedOrigins    []string
}

// Handler translates client messages into GameSession operations and pushes
// the resulting events back to the client.
type Handler struct {
	ConnManager *ConnectionManager
	Sessions    *game.SessionManager
	Tokens      *auth.TokenManager
	Options     Options
	Upgrader    websocket.Upgrader
}

func NewHandler(cm *ConnectionManager, sm *game.SessionManager, tokens *auth.TokenManager, opts Options) *Handler {
	if opts.MessagesPerSecond <= 0 {
		opts.MessagesPerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}

	h := &Handler{
		ConnManager: cm,
		Sessions:    sm,
		Tokens:      tokens,
		Options:     opts,
	}
	h.Upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.Options.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.Options.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	logger.Warn("ws", "rejected origin %s", origin)
	return false
}

// HandleWebSocket upgrades the connection
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws", "upgrade error: %v", err)
		return
	}

	// A cookie sent with the upgrade request may stand in for the init token.
	cookieToken, _ := httputil.GetTokenFromCookie(c.Request)
	h.handleConnection(conn, cookieToken)
}

// handleConnection manages the lifecycle of a single WebSocket connection
func (h *Handler) handleConnection(conn *websocket.Conn, cookieToken string) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 1. Wait for initialization
	session, err := h.initialize(conn, cookieToken)
	if err != nil {
		logger.Warn("ws", "init failed: %v", err)
		conn.WriteJSON(errorMessage("unauthorized", err.Error()))
		conn.Close()
		return
	}
	sessionID := session.ID
	h.ConnManager.AddConnection(sessionID, conn)
	logger.Info("ws", "connection initialized for session %s", sessionID)

	done := make(chan struct{})
	defer func() {
		close(done)
		h.ConnManager.RemoveConnectionIfMatching(sessionID, conn)
		logger.Info("ws", "connection closed for session %s", sessionID)
	}()

	// Keep-alive pinger
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := h.ConnManager.Ping(sessionID); err != nil {
					return
				}
			}
		}
	}()

	h.send(sessionID, stateMessage(session))

	// 2. Main message loop
	limiter := rate.NewLimiter(rate.Limit(h.Options.MessagesPerSecond), h.Options.Burst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws", "session %s disconnected unexpectedly: %v", sessionID, err)
			}
			return
		}

		if !limiter.Allow() {
			h.send(sessionID, errorMessage("rate_limited", "Too many messages"))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.send(sessionID, errorMessage("invalid_message", "Invalid message format"))
			continue
		}

		// The session may have been reaped or deleted while connected.
		if _, ok := h.Sessions.GetSession(sessionID); !ok {
			h.send(sessionID, errorMessage("session_not_found", "Session expired or removed"))
			return
		}

		h.processMessage(session, msg)
	}
}

func (h *Handler) initialize(conn *websocket.Conn, cookieToken string) (*game.GameSession, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgInit {
		return nil, errors.New("first message must be init")
	}

	token := msg.Token
	if token == "" {
		token = cookieToken
	}
	if token == "" {
		return nil, errors.New("missing session token")
	}

	claims, err := h.Tokens.ValidateSessionToken(token)
	if err != nil {
		return nil, errors.New("invalid token or session expired")
	}

	session, ok := h.Sessions.GetSession(claims.SessionID)
	if !ok {
		return nil, errors.New("session not found")
	}
	return session, nil
}

// processMessage routes specific actions
func (h *Handler) processMessage(s *game.GameSession, msg ClientMessage) {
	switch msg.Type {
	case MsgMakeMove:
		if msg.Column == nil {
			h.send(s.ID, errorMessage("invalid_message", "column is required"))
			return
		}
		res, err := s.ApplyHumanMove(*msg.Column)
		if err != nil {
			h.sendError(s.ID, err)
			return
		}
		h.announceMove(s, res)
		if res.Status == domain.StatusActive && s.IsComputerTurn() {
			h.scheduleComputerMove(s)
		}

	case MsgRequestComputerMove:
		if err := h.startComputerMove(s); err != nil {
			h.sendError(s.ID, err)
		}

	case MsgUndo:
		if _, err := s.Undo(); err != nil {
			h.sendError(s.ID, err)
			return
		}
		h.send(s.ID, stateMessage(s))
		if s.IsComputerTurn() {
			h.scheduleComputerMove(s)
		}

	case MsgReset:
		s.Reset()
		h.send(s.ID, stateMessage(s))

	case MsgTogglePause:
		paused, err := s.TogglePause()
		if err != nil {
			h.sendError(s.ID, err)
			return
		}
		h.send(s.ID, stateMessage(s))
		if !paused && s.IsComputerTurn() {
			h.scheduleComputerMove(s)
		}

	case MsgSetMode:
		mode, ok := domain.ParseMode(msg.Mode)
		if !ok {
			h.send(s.ID, errorMessage("invalid_mode", "mode must be ai or 2player"))
			return
		}
		s.SetMode(mode)
		h.send(s.ID, stateMessage(s))

	case MsgSetDifficulty:
		difficulty, ok := domain.ParseDifficulty(msg.Difficulty)
		if !ok {
			h.send(s.ID, errorMessage("invalid_difficulty", "difficulty must be easy, medium or hard"))
			return
		}
		s.SetDifficulty(difficulty)
		h.send(s.ID, stateMessage(s))

	case MsgSnapshot:
		h.send(s.ID, stateMessage(s))

	default:
		h.send(s.ID, errorMessage("invalid_message", "unknown message type "+msg.Type))
	}
}

// scheduleComputerMove answers after BotMoveDelay. If the session changed in
// the meantime the request is refused by the session and dropped here.
func (h *Handler) scheduleComputerMove(s *game.GameSession) {
	time.AfterFunc(h.Options.BotMoveDelay, func() {
		if err := h.startComputerMove(s); err != nil && !errors.Is(err, domain.ErrInvalidState) {
			logger.Error("bot", "session %s: %v", s.ID, err)
		}
	})
}

func (h *Handler) startComputerMove(s *game.GameSession) error {
	return s.RequestComputerMove(
		func(name string) { h.send(s.ID, ServerMessage{Type: MsgComputerThinking, ComputerName: name}) },
		func(r game.ComputerMoveResult) { h.onComputerMove(s, r) },
	)
}

func (h *Handler) onComputerMove(s *game.GameSession, r game.ComputerMoveResult) {
	switch {
	case r.Applied:
		h.announceMove(s, r.Result)
	case errors.Is(r.Err, game.ErrDiscarded):
		logger.Debug("bot", "session %s: discarded stale search result", s.ID)
	default:
		h.sendError(s.ID, r.Err)
		h.send(s.ID, stateMessage(s))
	}
}

func (h *Handler) announceMove(s *game.GameSession, res game.MoveResult) {
	snap := s.Snapshot()
	move := res.Move
	h.send(s.ID, ServerMessage{Type: MsgMoveMade, Move: &move, Status: res.Status, State: &snap})
	if res.Status != domain.StatusActive {
		h.send(s.ID, ServerMessage{Type: MsgGameOver, Status: res.Status, Winner: res.Winner, State: &snap})
	}
}

func (h *Handler) sendError(sessionID string, err error) {
	h.send(sessionID, errorMessage(domain.ErrorCode(err), err.Error()))
}

func (h *Handler) send(sessionID string, msg ServerMessage) {
	if err := h.ConnManager.SendMessage(sessionID, msg); err != nil {
		logger.Debug("ws", "send to %s failed: %v", sessionID, err)
	}
}
