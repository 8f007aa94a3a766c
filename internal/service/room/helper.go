package room

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/connection"
	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

// getConnsByRoomId collects the live connections of every approved member.
// Members whose connection is already gone are skipped: delivery to them is
// a no-op, the read loop surfaces the disconnect.
func (s service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get member ids", "error", err)
		return nil, err
	}

	conns := make([]*websocket.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			if errors.Is(err, connection.ErrNotFound) {
				continue
			}
			return nil, err
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

// getViewerCount counts approved members, host included.
func (s service) getViewerCount(ctx context.Context, roomId string) (int, error) {
	memberIds, err := s.roomRepo.GetMemberIds(ctx, roomId)
	if err != nil {
		return 0, err
	}

	return len(memberIds), nil
}

func (s service) checkIfMemberHost(ctx context.Context, roomId, memberId string) (room.Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return room.Room{}, ErrRoomNotFound
		}
		return room.Room{}, err
	}

	if rm.HostId != memberId {
		return room.Room{}, ErrNotAuthorized
	}

	return rm, nil
}

// getPlayerSnapshot reads the playback state and extrapolates the position
// by elapsed wall time while playing. Returns nil when no video is loaded.
func (s service) getPlayerSnapshot(ctx context.Context, roomId string, now time.Time) (*Player, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrPlayerNotFound) {
			return nil, nil
		}
		return nil, err
	}

	currentTime := player.CurrentTime
	if player.IsPlaying {
		elapsed := float64(now.UnixMilli()-player.UpdatedAt) / 1000
		if elapsed > 0 {
			currentTime += elapsed
		}
	}

	return &Player{
		VideoId:     player.VideoId,
		IsPlaying:   player.IsPlaying,
		CurrentTime: currentTime,
	}, nil
}
