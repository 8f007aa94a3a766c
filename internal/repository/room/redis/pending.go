package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

func (r repo) getPendingKey(memberId string) string {
	return "pending:" + memberId
}

func (r repo) getPendingListKey(roomId string) string {
	return "room:" + roomId + ":pending"
}

func (r repo) AddPending(ctx context.Context, params *room.AddPendingParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	pending := room.PendingRequest{
		UserId:   params.UserId,
		Username: params.Username,
		RoomId:   params.RoomId,
	}

	pendingKey := r.getPendingKey(params.MemberId)
	pipe.HSet(ctx, pendingKey, pending)
	pipe.Expire(ctx, pendingKey, r.expireDuration)

	pendingListKey := r.getPendingListKey(params.RoomId)
	r.addWithIncrement(ctx, pipe, pendingListKey, params.MemberId)
	pipe.Expire(ctx, pendingListKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetPending(ctx context.Context, params *room.GetPendingParams) (room.PendingRequest, error) {
	var pending room.PendingRequest
	if err := r.rc.HGetAll(ctx, r.getPendingKey(params.MemberId)).Scan(&pending); err != nil {
		return room.PendingRequest{}, err
	}

	if pending.RoomId == "" {
		return room.PendingRequest{}, room.ErrPendingNotFound
	}

	return pending, nil
}

// GetPendingIds returns pending connection ids in request order.
func (r repo) GetPendingIds(ctx context.Context, roomId string) ([]string, error) {
	pendingIds, err := r.rc.ZRange(ctx, r.getPendingListKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	return pendingIds, nil
}

func (r repo) GetPendingRoomId(ctx context.Context, memberId string) (string, error) {
	roomId, err := r.rc.HGet(ctx, r.getPendingKey(memberId), "room_id").Result()
	if err != nil {
		if err == redis.Nil {
			return "", room.ErrPendingNotFound
		}
		return "", err
	}

	return roomId, nil
}

func (r repo) RemovePending(ctx context.Context, params *room.RemovePendingParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	removed, err := r.rc.ZRem(ctx, r.getPendingListKey(params.RoomId), params.MemberId).Result()
	if err != nil {
		return err
	}

	if removed == 0 {
		return room.ErrPendingNotFound
	}

	return r.rc.Del(ctx, r.getPendingKey(params.MemberId)).Err()
}

// SwapPendingId moves a pending request to a new connection id, keeping the
// original position in the review queue.
func (r repo) SwapPendingId(ctx context.Context, params *room.SwapPendingIdParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pendingListKey := r.getPendingListKey(params.RoomId)

	score, err := r.rc.ZScore(ctx, pendingListKey, params.OldMemberId).Result()
	if err != nil {
		if err == redis.Nil {
			return room.ErrPendingNotFound
		}
		return err
	}

	pipe := r.rc.TxPipeline()
	pipe.ZRem(ctx, pendingListKey, params.OldMemberId)
	pipe.ZAdd(ctx, pendingListKey, redis.Z{Score: score, Member: params.NewMemberId})
	pipe.Rename(ctx, r.getPendingKey(params.OldMemberId), r.getPendingKey(params.NewMemberId))

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
