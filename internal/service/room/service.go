package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

var (
	ErrInvalidRoomId  = errors.New("invalid room id")
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotAuthorized  = errors.New("only the host can perform this action")
	ErrNotFound       = errors.New("join request not found")
	ErrInvalidVideoId = errors.New("invalid video id")
	ErrNoVideoLoaded  = errors.New("no video loaded")
	ErrNotAMember     = errors.New("not a member of this room")
	ErrRoomFull       = errors.New("room is full")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	UpdateRoomHost(context.Context, *room.UpdateRoomHostParams) error
	RemoveRoom(ctx context.Context, roomId string) error
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	RemoveMember(context.Context, *room.RemoveMemberParams) error
	GetMember(context.Context, *room.GetMemberParams) (room.Member, error)
	GetMemberIds(ctx context.Context, roomId string) ([]string, error)
	GetMemberRoomId(ctx context.Context, memberId string) (string, error)
	// pending
	AddPending(context.Context, *room.AddPendingParams) error
	GetPending(context.Context, *room.GetPendingParams) (room.PendingRequest, error)
	GetPendingIds(ctx context.Context, roomId string) ([]string, error)
	GetPendingRoomId(ctx context.Context, memberId string) (string, error)
	RemovePending(context.Context, *room.RemovePendingParams) error
	SwapPendingId(context.Context, *room.SwapPendingIdParams) error
	// player
	SetPlayer(context.Context, *room.SetPlayerParams) error
	GetPlayer(ctx context.Context, roomId string) (room.Player, error)
	UpdatePlayerState(context.Context, *room.UpdatePlayerStateParams) error
}

type iConnRepo interface {
	Add(conn *websocket.Conn, connId string) error
	RemoveByConnId(connId string) error
	GetConn(connId string) (*websocket.Conn, error)
	GetConnId(conn *websocket.Conn) (string, error)
}

type Config struct {
	MembersLimit int
	Secret       string
}

type service struct {
	roomRepo     iRoomRepo
	connRepo     iConnRepo
	roomLocks    *keyedMutex
	membersLimit int
	secret       string
	logger       *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:     roomRepo,
		connRepo:     connRepo,
		roomLocks:    newKeyedMutex(),
		membersLimit: cfg.MembersLimit,
		secret:       cfg.Secret,
		logger:       logger,
	}
}
