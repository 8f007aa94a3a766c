package room

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/connection"
	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     *websocket.Conn
	MemberId string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect member", "error", err)
		return err
	}

	return nil
}

type JoinRoomParams struct {
	MemberId     string
	RoomId       string
	UserId       string
	Username     string
	SessionToken string
}

type JoinRoomResponse struct {
	// Admitted is true when the joiner holds membership immediately: the
	// room was created for them, or a valid session token readmitted them.
	Admitted     bool
	IsHost       bool
	SessionToken string
	Player       *Player
	ViewerCount  int
	Conns        []*websocket.Conn
	// HostConn is set on the pending path so the host can be asked to
	// review the request.
	HostConn *websocket.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.RoomId == "" {
		return JoinRoomResponse{}, ErrInvalidRoomId
	}

	unlock := s.roomLocks.Lock(params.RoomId)
	defer unlock()

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return s.createRoom(ctx, params)
		}
		return JoinRoomResponse{}, err
	}

	// a repeat join from a connection that is already admitted is answered
	// with its current state, never queued
	if memberRoomId, err := s.roomRepo.GetMemberRoomId(ctx, params.MemberId); err == nil && memberRoomId == params.RoomId {
		return s.admittedResponse(ctx, params.RoomId, rm.HostId == params.MemberId)
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}
	if len(memberIds) >= s.membersLimit {
		return JoinRoomResponse{}, ErrRoomFull
	}

	if params.SessionToken != "" {
		// the token must name this room incarnation: one issued for an
		// earlier, since-closed room under the same id carries no authority
		if claims, err := s.parseSessionToken(params.SessionToken); err == nil &&
			claims.RoomId == params.RoomId && claims.RoomCreatedAt == rm.CreatedAt {
			return s.readmitMember(ctx, params, rm, claims)
		}
		s.logger.InfoContext(ctx, "join with unusable session token", "room_id", params.RoomId)
	}

	return s.queuePending(ctx, params, rm)
}

// createRoom makes the first joiner the host, approved immediately.
func (s service) createRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	createdAt := time.Now().UnixMicro()
	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:     params.RoomId,
		HostId:     params.MemberId,
		HostUserId: params.UserId,
		CreatedAt:  createdAt,
	}); err != nil {
		return JoinRoomResponse{}, err
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: params.MemberId,
		UserId:   params.UserId,
		Username: params.Username,
		RoomId:   params.RoomId,
	}); err != nil {
		return JoinRoomResponse{}, err
	}

	token, err := s.generateSessionToken(params.UserId, params.RoomId, createdAt)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "room created",
		"room_id", params.RoomId,
		"host_id", params.MemberId,
	)

	return JoinRoomResponse{
		Admitted:     true,
		IsHost:       true,
		SessionToken: token,
		ViewerCount:  1,
		Conns:        conns,
	}, nil
}

// readmitMember lets a previously admitted session back in without host
// review. A host rejoining reclaims host authority.
func (s service) readmitMember(ctx context.Context, params *JoinRoomParams, rm room.Room, claims *sessionClaims) (JoinRoomResponse, error) {
	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberId: params.MemberId,
		UserId:   claims.UserId,
		Username: params.Username,
		RoomId:   params.RoomId,
	}); err != nil {
		return JoinRoomResponse{}, err
	}

	isHost := rm.HostUserId != "" && rm.HostUserId == claims.UserId
	if isHost && rm.HostId != params.MemberId {
		if err := s.roomRepo.UpdateRoomHost(ctx, &room.UpdateRoomHostParams{
			RoomId:     params.RoomId,
			HostId:     params.MemberId,
			HostUserId: claims.UserId,
		}); err != nil {
			return JoinRoomResponse{}, err
		}
	}

	s.logger.InfoContext(ctx, "member readmitted",
		"room_id", params.RoomId,
		"member_id", params.MemberId,
		"is_host", isHost,
	)

	return s.admittedResponse(ctx, params.RoomId, isHost)
}

// admittedResponse builds the response for a member that already holds
// membership: the playback snapshot and the room's current audience.
func (s service) admittedResponse(ctx context.Context, roomId string, isHost bool) (JoinRoomResponse, error) {
	player, err := s.getPlayerSnapshot(ctx, roomId, time.Now())
	if err != nil {
		return JoinRoomResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	viewerCount, err := s.getViewerCount(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		Admitted:    true,
		IsHost:      isHost,
		Player:      player,
		ViewerCount: viewerCount,
		Conns:       conns,
	}, nil
}

// queuePending adds the joiner to the host review queue. A repeat request
// from the same userId replaces the stale entry, keeping queue position.
func (s service) queuePending(ctx context.Context, params *JoinRoomParams, rm room.Room) (JoinRoomResponse, error) {
	deduped := false
	if params.UserId != "" {
		pendingIds, err := s.roomRepo.GetPendingIds(ctx, params.RoomId)
		if err != nil {
			return JoinRoomResponse{}, err
		}

		for _, pendingId := range pendingIds {
			pending, err := s.roomRepo.GetPending(ctx, &room.GetPendingParams{
				MemberId: pendingId,
				RoomId:   params.RoomId,
			})
			if err != nil {
				return JoinRoomResponse{}, err
			}

			if pending.UserId == params.UserId {
				if err := s.roomRepo.SwapPendingId(ctx, &room.SwapPendingIdParams{
					OldMemberId: pendingId,
					NewMemberId: params.MemberId,
					RoomId:      params.RoomId,
				}); err != nil {
					return JoinRoomResponse{}, err
				}
				deduped = true
				break
			}
		}
	}

	if !deduped {
		if err := s.roomRepo.AddPending(ctx, &room.AddPendingParams{
			MemberId: params.MemberId,
			UserId:   params.UserId,
			Username: params.Username,
			RoomId:   params.RoomId,
		}); err != nil {
			return JoinRoomResponse{}, err
		}
	}

	hostConn, err := s.connRepo.GetConn(rm.HostId)
	if err != nil && !errors.Is(err, connection.ErrNotFound) {
		return JoinRoomResponse{}, err
	}

	s.logger.InfoContext(ctx, "join request queued",
		"room_id", params.RoomId,
		"member_id", params.MemberId,
	)

	return JoinRoomResponse{
		Admitted: false,
		HostConn: hostConn,
	}, nil
}

type DisconnectMemberParams struct {
	MemberId string
}

type DisconnectMemberResponse struct {
	IsRoomDeleted bool
	ViewerCount   int
	Conns         []*websocket.Conn
	// NewHostConn is set when host authority was transferred.
	NewHostConn *websocket.Conn
	// PendingConns are connections still awaiting approval in a room that
	// was closed by this disconnect.
	PendingConns []*websocket.Conn
}

// DisconnectMember treats a dropped connection as an implicit leave. Host
// reassignment happens under the same room lock as the membership removal.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	defer s.connRepo.RemoveByConnId(params.MemberId)

	roomId, err := s.roomRepo.GetMemberRoomId(ctx, params.MemberId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return s.disconnectPending(ctx, params.MemberId)
		}
		return DisconnectMemberResponse{}, err
	}

	unlock := s.roomLocks.Lock(roomId)
	defer unlock()

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	if err := s.roomRepo.RemoveMember(ctx, &room.RemoveMemberParams{
		MemberId: params.MemberId,
		RoomId:   roomId,
	}); err != nil {
		return DisconnectMemberResponse{}, err
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	if len(memberIds) == 0 {
		return s.closeRoom(ctx, roomId)
	}

	var newHostConn *websocket.Conn
	if rm.HostId == params.MemberId {
		newHostId := memberIds[0]
		newHost, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: newHostId,
			RoomId:   roomId,
		})
		if err != nil {
			return DisconnectMemberResponse{}, err
		}

		if err := s.roomRepo.UpdateRoomHost(ctx, &room.UpdateRoomHostParams{
			RoomId:     roomId,
			HostId:     newHostId,
			HostUserId: newHost.UserId,
		}); err != nil {
			return DisconnectMemberResponse{}, err
		}

		newHostConn, err = s.connRepo.GetConn(newHostId)
		if err != nil && !errors.Is(err, connection.ErrNotFound) {
			return DisconnectMemberResponse{}, err
		}

		s.logger.InfoContext(ctx, "host reassigned",
			"room_id", roomId,
			"new_host_id", newHostId,
		)
	}

	conns, err := s.getConnsByRoomId(ctx, roomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{
		Conns:       conns,
		ViewerCount: len(memberIds),
		NewHostConn: newHostConn,
	}, nil
}

func (s service) disconnectPending(ctx context.Context, memberId string) (DisconnectMemberResponse, error) {
	roomId, err := s.roomRepo.GetPendingRoomId(ctx, memberId)
	if err != nil {
		if errors.Is(err, room.ErrPendingNotFound) {
			return DisconnectMemberResponse{}, nil
		}
		return DisconnectMemberResponse{}, err
	}

	unlock := s.roomLocks.Lock(roomId)
	defer unlock()

	if err := s.roomRepo.RemovePending(ctx, &room.RemovePendingParams{
		MemberId: memberId,
		RoomId:   roomId,
	}); err != nil && !errors.Is(err, room.ErrPendingNotFound) {
		return DisconnectMemberResponse{}, err
	}

	return DisconnectMemberResponse{}, nil
}

// closeRoom deletes a room whose last approved member left. Anyone still
// waiting for approval is reported so they can be told the room is gone.
func (s service) closeRoom(ctx context.Context, roomId string) (DisconnectMemberResponse, error) {
	pendingIds, err := s.roomRepo.GetPendingIds(ctx, roomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	pendingConns := make([]*websocket.Conn, 0, len(pendingIds))
	for _, pendingId := range pendingIds {
		conn, err := s.connRepo.GetConn(pendingId)
		if err != nil {
			continue
		}
		pendingConns = append(pendingConns, conn)
	}

	if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
		return DisconnectMemberResponse{}, err
	}

	s.logger.InfoContext(ctx, "room closed", "room_id", roomId)

	return DisconnectMemberResponse{
		IsRoomDeleted: true,
		PendingConns:  pendingConns,
	}, nil
}

type GetViewersParams struct {
	SenderId string
	RoomId   string
}

type GetViewersResponse struct {
	Viewers []Viewer
}

// GetViewers lists approved members other than the host. Host-only.
func (s service) GetViewers(ctx context.Context, params *GetViewersParams) (GetViewersResponse, error) {
	if _, err := s.checkIfMemberHost(ctx, params.RoomId, params.SenderId); err != nil {
		return GetViewersResponse{}, err
	}

	memberIds, err := s.roomRepo.GetMemberIds(ctx, params.RoomId)
	if err != nil {
		return GetViewersResponse{}, err
	}

	viewers := make([]Viewer, 0, len(memberIds))
	for _, memberId := range memberIds {
		if memberId == params.SenderId {
			continue
		}

		member, err := s.roomRepo.GetMember(ctx, &room.GetMemberParams{
			MemberId: memberId,
			RoomId:   params.RoomId,
		})
		if err != nil {
			return GetViewersResponse{}, err
		}

		viewers = append(viewers, Viewer{Name: member.Username})
	}

	return GetViewersResponse{Viewers: viewers}, nil
}
