package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ConnectionManager holds at most one connection per game session.
type ConnectionManager struct {
	connections map[string]*websocket.Conn

	// conn.WriteJSON is not safe for concurrent use, and the search goroutine
	// writes alongside the read loop.
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex // Protects the maps themselves
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

// AddConnection registers conn for sessionID, closing any previous one.
func (cm *ConnectionManager) AddConnection(sessionID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[sessionID]; exists {
		oldConn.Close()
	}

	cm.connections[sessionID] = conn
	cm.writeMu[sessionID] = &sync.Mutex{}
}

// RemoveConnection closes and forgets the session's connection, if any.
func (cm *ConnectionManager) RemoveConnection(sessionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[sessionID]; exists {
		conn.Close()
		delete(cm.connections, sessionID)
		delete(cm.writeMu, sessionID)
	}
}

// RemoveConnectionIfMatching avoids closing a NEW connection when cleaning up
// an OLD one for the same session.
func (cm *ConnectionManager) RemoveConnectionIfMatching(sessionID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if currentConn, exists := cm.connections[sessionID]; exists && currentConn == conn {
		currentConn.Close()
		delete(cm.connections, sessionID)
		delete(cm.writeMu, sessionID)
	}
}

func (cm *ConnectionManager) IsConnected(sessionID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.connections[sessionID]
	return exists
}

// SendMessage writes message to the session's connection. A session with no
// connection is not an error.
func (cm *ConnectionManager) SendMessage(sessionID string, message ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[sessionID]
	mu, muExists := cm.writeMu[sessionID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(message)
}

// Ping sends a control ping under the same write lock as messages.
func (cm *ConnectionManager) Ping(sessionID string) error {
	cm.mu.RLock()
	conn, exists := cm.connections[sessionID]
	mu, muExists := cm.writeMu[sessionID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return websocket.ErrCloseSent
	}

	mu.Lock()
	defer mu.Unlock()
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}
