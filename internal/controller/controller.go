package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/service/room"
	"github.com/Vissu0901/Youtube-Watch-Party/pkg/validator"
	"github.com/Vissu0901/Youtube-Watch-Party/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	ApproveJoin(context.Context, *room.ApproveJoinParams) (room.ApproveJoinResponse, error)
	DenyJoin(context.Context, *room.DenyJoinParams) (room.DenyJoinResponse, error)
	ChangeVideo(context.Context, *room.ChangeVideoParams) (room.ChangeVideoResponse, error)
	SyncAction(context.Context, *room.SyncActionParams) (room.SyncActionResponse, error)
	GetPlayerState(context.Context, *room.GetPlayerStateParams) (room.GetPlayerStateResponse, error)
	GetViewers(context.Context, *room.GetViewersParams) (room.GetViewersResponse, error)
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}

	c.wsmux = wsrouter.New()
	c.wsmux.Handle("join", c.handleJoin)
	c.wsmux.Handle("approve_join", c.handleApproveJoin)
	c.wsmux.Handle("deny_join", c.handleDenyJoin)
	c.wsmux.Handle("change_video", c.handleChangeVideo)
	c.wsmux.Handle("sync_action", c.handleSyncAction)
	c.wsmux.Handle("request_sync", c.handleRequestSync)
	c.wsmux.Handle("get_viewers", c.handleGetViewers)
	c.wsmux.HandleUnknownType(c.handleUnknownType)

	return c
}
