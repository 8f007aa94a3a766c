package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/connection"
)

// repo maps live websocket connections to connection ids. It does not own
// the connections: closing them is the transport's job.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[connId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = connId
	r.idList[connId] = conn

	r.logger.Debug("connection added", "connection_id", connId)
	return nil
}

func (r *repo) RemoveByConnId(connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[connId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connId)

	r.logger.Debug("connection removed", "connection_id", connId)
	return nil
}

func (r *repo) GetConnId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return connId, nil
}

func (r *repo) GetConn(connId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}
