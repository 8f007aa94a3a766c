package wsrouter

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage)

type WSRouter struct {
	routes       map[string]HandlerFunc
	unknownTypes HandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// HandleUnknownType sets the handler invoked for message types without a
// registered handler.
func (r *WSRouter) HandleUnknownType(handler HandlerFunc) {
	r.unknownTypes = handler
}

// ServeConn reads messages from the connection until it fails and routes
// each one to the handler registered for its type. A malformed envelope is
// not fatal to the connection.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if _, ok := err.(*json.SyntaxError); ok {
				continue
			}
			if _, ok := err.(*json.UnmarshalTypeError); ok {
				continue
			}
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			if r.unknownTypes != nil {
				r.unknownTypes(ctx, conn, msg.Payload)
			}
			continue
		}

		handler(ctx, conn, msg.Payload)
	}
}
