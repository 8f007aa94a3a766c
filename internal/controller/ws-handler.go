package controller

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/service/room"
	"github.com/Vissu0901/Youtube-Watch-Party/pkg/validator"
)

type HostStatusOutput struct {
	IsHost bool `json:"isHost"`
}

type ViewerCountOutput struct {
	Count int `json:"count"`
}

// unmarshalAndValidate decodes a payload and checks its validate tags,
// surfacing the first problem to the client. Malformed messages are
// dropped after the error is sent, never fatal.
func (c *controller) unmarshalAndValidate(ctx context.Context, conn *websocket.Conn, payload json.RawMessage, input any) bool {
	if err := json.Unmarshal(payload, input); err != nil {
		c.writeErrorMessage(ctx, conn, "malformed payload")
		return false
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.writeErrorMessage(ctx, conn, validator.FirstMessage(validationErrors))
		return false
	}

	return true
}

func (c *controller) handleUnknownType(ctx context.Context, conn *websocket.Conn, _ json.RawMessage) {
	c.writeErrorMessage(ctx, conn, "unknown message type")
}

type JoinInput struct {
	Room   string `json:"room" validate:"required,max=64"`
	Name   string `json:"name" validate:"max=32"`
	UserId string `json:"userId" validate:"max=64"`
	Token  string `json:"token"`
}

func (c *controller) handleJoin(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input JoinInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	if input.Name == "" {
		input.Name = "Anonymous"
	}

	resp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		MemberId:     c.getConnIdFromCtx(ctx),
		RoomId:       input.Room,
		UserId:       input.UserId,
		Username:     input.Name,
		SessionToken: input.Token,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to join room", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	if !resp.Admitted {
		c.writeToConn(ctx, conn, &Output{
			Type:    "waiting_approval",
			Payload: map[string]any{"message": "Waiting for host approval..."},
		})
		c.writeToConn(ctx, resp.HostConn, &Output{
			Type: "join_request",
			Payload: map[string]any{
				"sid":  c.getConnIdFromCtx(ctx),
				"name": input.Name,
			},
		})
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type:    "host_status",
		Payload: HostStatusOutput{IsHost: resp.IsHost},
	})
	if resp.SessionToken != "" {
		c.writeToConn(ctx, conn, &Output{
			Type:    "session",
			Payload: map[string]any{"token": resp.SessionToken},
		})
	}
	if resp.Player != nil {
		c.writeToConn(ctx, conn, &Output{
			Type:    "current_state",
			Payload: resp.Player,
		})
	}
	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "viewer_count",
		Payload: ViewerCountOutput{Count: resp.ViewerCount},
	}, nil)
}

type ApproveJoinInput struct {
	Room      string `json:"room" validate:"required,max=64"`
	ViewerSid string `json:"viewer_sid" validate:"required"`
}

func (c *controller) handleApproveJoin(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input ApproveJoinInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.ApproveJoin(ctx, &room.ApproveJoinParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
		TargetId: input.ViewerSid,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to approve join", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	c.writeToConn(ctx, resp.TargetConn, &Output{
		Type: "join_approved",
		Payload: map[string]any{
			"room":          input.Room,
			"session_token": resp.SessionToken,
		},
	})
	c.writeToConn(ctx, resp.TargetConn, &Output{
		Type:    "host_status",
		Payload: HostStatusOutput{IsHost: false},
	})
	if resp.Player != nil {
		c.writeToConn(ctx, resp.TargetConn, &Output{
			Type:    "current_state",
			Payload: resp.Player,
		})
	}
	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "viewer_count",
		Payload: ViewerCountOutput{Count: resp.ViewerCount},
	}, nil)
}

type DenyJoinInput struct {
	Room      string `json:"room" validate:"required,max=64"`
	ViewerSid string `json:"viewer_sid" validate:"required"`
}

func (c *controller) handleDenyJoin(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input DenyJoinInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.DenyJoin(ctx, &room.DenyJoinParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
		TargetId: input.ViewerSid,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to deny join", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	c.writeToConn(ctx, resp.TargetConn, &Output{
		Type:    "join_denied",
		Payload: map[string]any{"message": resp.Message},
	})
}

type ChangeVideoInput struct {
	Room    string `json:"room" validate:"required,max=64"`
	VideoId string `json:"videoId" validate:"required"`
}

func (c *controller) handleChangeVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input ChangeVideoInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.ChangeVideo(ctx, &room.ChangeVideoParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
		VideoId:  input.VideoId,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to change video", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	// everyone reloads the player, the host included
	c.broadcast(ctx, resp.Conns, &Output{
		Type:    "change_video",
		Payload: map[string]any{"videoId": resp.VideoId},
	}, nil)
}

type SyncActionInput struct {
	Room   string  `json:"room" validate:"required,max=64"`
	Action string  `json:"action" validate:"required,oneof=play pause"`
	Time   float64 `json:"time"`
}

func (c *controller) handleSyncAction(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input SyncActionInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.SyncAction(ctx, &room.SyncActionParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
		Action:   input.Action,
		Time:     input.Time,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to sync action", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	// excluding the originator keeps the initiating player from reacting
	// to its own action
	c.broadcast(ctx, resp.Conns, &Output{
		Type: "sync_action",
		Payload: map[string]any{
			"action": resp.Action,
			"time":   resp.Time,
		},
	}, conn)
}

type RequestSyncInput struct {
	Room string `json:"room" validate:"required,max=64"`
}

func (c *controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input RequestSyncInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.GetPlayerState(ctx, &room.GetPlayerStateParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to get player state", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	player := resp.Player
	if player == nil {
		player = &room.Player{}
	}

	c.writeToConn(ctx, conn, &Output{
		Type:    "current_state",
		Payload: player,
	})
}

type GetViewersInput struct {
	Room string `json:"room" validate:"required,max=64"`
}

func (c *controller) handleGetViewers(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) {
	var input GetViewersInput
	if !c.unmarshalAndValidate(ctx, conn, payload, &input) {
		return
	}

	resp, err := c.roomService.GetViewers(ctx, &room.GetViewersParams{
		SenderId: c.getConnIdFromCtx(ctx),
		RoomId:   input.Room,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to get viewers", "error", err)
		c.writeError(ctx, conn, err)
		return
	}

	c.writeToConn(ctx, conn, &Output{
		Type:    "viewers_list",
		Payload: map[string]any{"viewers": resp.Viewers},
	})
}
