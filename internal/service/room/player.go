package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
	"github.com/Vissu0901/Youtube-Watch-Party/pkg/ytvideoid"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

type ChangeVideoParams struct {
	SenderId string
	RoomId   string
	VideoId  string
}

type ChangeVideoResponse struct {
	VideoId string
	Conns   []*websocket.Conn
}

// ChangeVideo loads a new video, paused at position zero. Host-only.
func (s service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ChangeVideoResponse, error) {
	if params.RoomId == "" {
		return ChangeVideoResponse{}, ErrInvalidRoomId
	}

	unlock := s.roomLocks.Lock(params.RoomId)
	defer unlock()

	if _, err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return ChangeVideoResponse{}, err
	}

	videoId, err := ytvideoid.Parse(params.VideoId)
	if err != nil {
		return ChangeVideoResponse{}, ErrInvalidVideoId
	}

	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		VideoId:     videoId,
		IsPlaying:   false,
		CurrentTime: 0,
		UpdatedAt:   time.Now().UnixMilli(),
		RoomId:      params.RoomId,
	}); err != nil {
		return ChangeVideoResponse{}, fmt.Errorf("failed to set player: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return ChangeVideoResponse{}, err
	}

	s.logger.InfoContext(ctx, "video changed",
		"room_id", params.RoomId,
		"video_id", videoId,
	)

	return ChangeVideoResponse{
		VideoId: videoId,
		Conns:   conns,
	}, nil
}

type SyncActionParams struct {
	SenderId string
	RoomId   string
	Action   string
	Time     float64
}

type SyncActionResponse struct {
	Action string
	Time   float64
	Conns  []*websocket.Conn
}

// SyncAction applies a play or pause at a position. Host-only, requires a
// loaded video. The position is clamped to zero on receipt.
func (s service) SyncAction(ctx context.Context, params *SyncActionParams) (SyncActionResponse, error) {
	if params.RoomId == "" {
		return SyncActionResponse{}, ErrInvalidRoomId
	}

	unlock := s.roomLocks.Lock(params.RoomId)
	defer unlock()

	if _, err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return SyncActionResponse{}, err
	}

	seconds := params.Time
	if seconds < 0 {
		seconds = 0
	}

	if err := s.roomRepo.UpdatePlayerState(ctx, &room.UpdatePlayerStateParams{
		IsPlaying:   params.Action == ActionPlay,
		CurrentTime: seconds,
		UpdatedAt:   time.Now().UnixMilli(),
		RoomId:      params.RoomId,
	}); err != nil {
		if errors.Is(err, room.ErrPlayerNotFound) {
			return SyncActionResponse{}, ErrNoVideoLoaded
		}
		return SyncActionResponse{}, fmt.Errorf("failed to update player state: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SyncActionResponse{}, err
	}

	return SyncActionResponse{
		Action: params.Action,
		Time:   seconds,
		Conns:  conns,
	}, nil
}

type GetPlayerStateParams struct {
	SenderId string
	RoomId   string
}

type GetPlayerStateResponse struct {
	Player *Player
}

// GetPlayerState returns the playback snapshot for late joiners. Any
// member may call it; it never mutates state.
func (s service) GetPlayerState(ctx context.Context, params *GetPlayerStateParams) (GetPlayerStateResponse, error) {
	if params.RoomId == "" {
		return GetPlayerStateResponse{}, ErrInvalidRoomId
	}

	memberRoomId, err := s.roomRepo.GetMemberRoomId(ctx, params.SenderId)
	if err != nil || memberRoomId != params.RoomId {
		return GetPlayerStateResponse{}, ErrNotAMember
	}

	player, err := s.getPlayerSnapshot(ctx, params.RoomId, time.Now())
	if err != nil {
		return GetPlayerStateResponse{}, err
	}

	return GetPlayerStateResponse{Player: player}, nil
}
