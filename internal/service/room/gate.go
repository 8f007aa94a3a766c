package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/connection"
	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

type ApproveJoinParams struct {
	SenderId string
	RoomId   string
	TargetId string
}

type ApproveJoinResponse struct {
	TargetConn   *websocket.Conn
	SessionToken string
	Player       *Player
	ViewerCount  int
	Conns        []*websocket.Conn
}

// ApproveJoin admits a pending request. Host-only. A second resolution of
// the same target fails with ErrNotFound and changes nothing.
func (s service) ApproveJoin(ctx context.Context, params *ApproveJoinParams) (ApproveJoinResponse, error) {
	if params.RoomId == "" {
		return ApproveJoinResponse{}, ErrInvalidRoomId
	}

	unlock := s.roomLocks.Lock(params.RoomId)
	defer unlock()

	rm, err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId)
	if err != nil {
		return ApproveJoinResponse{}, err
	}

	pending, err := s.roomRepo.GetPending(ctx, &room.GetPendingParams{
		MemberId: params.TargetId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrPendingNotFound) {
			return ApproveJoinResponse{}, ErrNotFound
		}
		return ApproveJoinResponse{}, err
	}
	if pending.RoomId != params.RoomId {
		return ApproveJoinResponse{}, ErrNotFound
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return ApproveJoinResponse{}, err
	}
	if len(memberIds) >= s.membersLimit {
		return ApproveJoinResponse{}, ErrRoomFull
	}

	if err := s.roomRepo.RemovePending(ctx, &room.RemovePendingParams{
		MemberId: params.TargetId,
		RoomId:   params.RoomId,
	}); err != nil {
		return ApproveJoinResponse{}, err
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: params.TargetId,
		UserId:   pending.UserId,
		Username: pending.Username,
		RoomId:   params.RoomId,
	}); err != nil {
		return ApproveJoinResponse{}, err
	}

	token, err := s.generateSessionToken(pending.UserId, params.RoomId, rm.CreatedAt)
	if err != nil {
		return ApproveJoinResponse{}, err
	}

	targetConn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil && !errors.Is(err, connection.ErrNotFound) {
		return ApproveJoinResponse{}, err
	}

	player, err := s.getPlayerSnapshot(ctx, params.RoomId, time.Now())
	if err != nil {
		return ApproveJoinResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return ApproveJoinResponse{}, err
	}

	viewerCount, err := s.getViewerCount(ctx, params.RoomId)
	if err != nil {
		return ApproveJoinResponse{}, err
	}

	s.logger.InfoContext(ctx, "join request approved",
		"room_id", params.RoomId,
		"member_id", params.TargetId,
	)

	return ApproveJoinResponse{
		TargetConn:   targetConn,
		SessionToken: token,
		Player:       player,
		ViewerCount:  viewerCount,
		Conns:        conns,
	}, nil
}

type DenyJoinParams struct {
	SenderId string
	RoomId   string
	TargetId string
}

type DenyJoinResponse struct {
	TargetConn *websocket.Conn
	Message    string
}

// DenyJoin rejects a pending request. Host-only, idempotency as in
// ApproveJoin.
func (s service) DenyJoin(ctx context.Context, params *DenyJoinParams) (DenyJoinResponse, error) {
	if params.RoomId == "" {
		return DenyJoinResponse{}, ErrInvalidRoomId
	}

	unlock := s.roomLocks.Lock(params.RoomId)
	defer unlock()

	if _, err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return DenyJoinResponse{}, err
	}

	pending, err := s.roomRepo.GetPending(ctx, &room.GetPendingParams{
		MemberId: params.TargetId,
		RoomId:   params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrPendingNotFound) {
			return DenyJoinResponse{}, ErrNotFound
		}
		return DenyJoinResponse{}, err
	}
	if pending.RoomId != params.RoomId {
		return DenyJoinResponse{}, ErrNotFound
	}

	if err := s.roomRepo.RemovePending(ctx, &room.RemovePendingParams{
		MemberId: params.TargetId,
		RoomId:   params.RoomId,
	}); err != nil {
		return DenyJoinResponse{}, err
	}

	targetConn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil && !errors.Is(err, connection.ErrNotFound) {
		return DenyJoinResponse{}, err
	}

	s.logger.InfoContext(ctx, "join request denied",
		"room_id", params.RoomId,
		"member_id", params.TargetId,
	)

	return DenyJoinResponse{
		TargetConn: targetConn,
		Message:    fmt.Sprintf("Sorry %s, the host denied your request to join this room.", pending.Username),
	}, nil
}
