package redis

import (
	"context"
	"fmt"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(params.RoomId)
	pipe.HSet(ctx, roomKey, room.Room{
		HostId:     params.HostId,
		HostUserId: params.HostUserId,
		CreatedAt:  params.CreatedAt,
	})
	pipe.Expire(ctx, roomKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	roomKey := r.getRoomKey(roomId)
	var rm room.Room
	if err := r.rc.HGetAll(ctx, roomKey).Scan(&rm); err != nil {
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	if rm.HostId == "" {
		return room.Room{}, room.ErrRoomNotFound
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return rm, nil
}

func (r repo) UpdateRoomHost(ctx context.Context, params *room.UpdateRoomHostParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	roomKey := r.getRoomKey(params.RoomId)
	cmd := r.rc.Exists(ctx, roomKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, roomKey,
		"host_id", params.HostId,
		"host_user_id", params.HostUserId,
	).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}

// RemoveRoom deletes the room hash together with its member list, player
// and any pending requests still queued.
func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	pendingIds, err := r.GetPendingIds(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to get pending ids: %w", err)
	}

	memberIds, err := r.GetMemberIds(ctx, roomId)
	if err != nil {
		return fmt.Errorf("failed to get member ids: %w", err)
	}

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getRoomKey(roomId))
	pipe.Del(ctx, r.getMemberListKey(roomId))
	pipe.Del(ctx, r.getPlayerKey(roomId))
	pipe.Del(ctx, r.getPendingListKey(roomId))
	for _, pendingId := range pendingIds {
		pipe.Del(ctx, r.getPendingKey(pendingId))
	}
	for _, memberId := range memberIds {
		pipe.Del(ctx, r.getMemberKey(memberId))
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	return nil
}
