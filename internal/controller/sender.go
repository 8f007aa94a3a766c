package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) {
	if conn == nil {
		return
	}

	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn",
			"type", output.Type,
			"error", err,
		)
	}
}

// broadcast fans an event out to every connection except the excluded one.
// Delivery is best effort: writes to dead connections are dropped.
func (c *controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output, exclude *websocket.Conn) {
	for _, conn := range conns {
		if conn == exclude {
			continue
		}

		c.writeToConn(ctx, conn, output)
	}
}

var userFacingErrors = []error{
	room.ErrInvalidRoomId,
	room.ErrRoomNotFound,
	room.ErrNotAuthorized,
	room.ErrNotFound,
	room.ErrInvalidVideoId,
	room.ErrNoVideoLoaded,
	room.ErrNotAMember,
	room.ErrRoomFull,
}

// writeError surfaces a recoverable failure to the offending client only.
func (c *controller) writeError(ctx context.Context, conn *websocket.Conn, err error) {
	message := "internal error"
	for _, userErr := range userFacingErrors {
		if errors.Is(err, userErr) {
			message = userErr.Error()
			break
		}
	}

	c.writeToConn(ctx, conn, &Output{
		Type:    "error",
		Payload: map[string]any{"message": message},
	})
}

func (c *controller) writeErrorMessage(ctx context.Context, conn *websocket.Conn, message string) {
	c.writeToConn(ctx, conn, &Output{
		Type:    "error",
		Payload: map[string]any{"message": message},
	})
}
