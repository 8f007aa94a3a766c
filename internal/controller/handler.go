package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/service/room"
	"github.com/Vissu0901/Youtube-Watch-Party/pkg/ctxlogger"
)

func (c *controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	connId := uuid.NewString()
	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", connId))

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: connId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to register connection", "error", err)
		return
	}
	defer c.disconnect(ctx, connId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

// disconnect treats the dropped connection as an implicit leave: viewer
// count updates, host failover, and closing the room when it empties.
func (c *controller) disconnect(ctx context.Context, connId string) {
	resp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: connId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if resp.IsRoomDeleted {
		for _, pendingConn := range resp.PendingConns {
			c.writeErrorMessage(ctx, pendingConn, "The host has left. This room is now closed.")
		}
		return
	}

	if resp.NewHostConn != nil {
		c.writeToConn(ctx, resp.NewHostConn, &Output{
			Type:    "host_status",
			Payload: HostStatusOutput{IsHost: true},
		})
	}

	if len(resp.Conns) > 0 {
		c.broadcast(ctx, resp.Conns, &Output{
			Type:    "viewer_count",
			Payload: ViewerCountOutput{Count: resp.ViewerCount},
		}, nil)
	}
}
