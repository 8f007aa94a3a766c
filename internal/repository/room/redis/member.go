package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

func (r repo) getMemberKey(memberId string) string {
	return "member:" + memberId
}

func (r repo) getMemberListKey(roomId string) string {
	return "room:" + roomId + ":memberlist"
}

func (r repo) addMemberToList(ctx context.Context, pipe redis.Pipeliner, roomId, memberId string) {
	memberListKey := r.getMemberListKey(roomId)

	r.addWithIncrement(ctx, pipe, memberListKey, memberId)
	pipe.Expire(ctx, memberListKey, r.expireDuration)
}

func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	member := room.Member{
		UserId:   params.UserId,
		Username: params.Username,
		RoomId:   params.RoomId,
	}

	memberKey := r.getMemberKey(params.MemberId)
	pipe.HSet(ctx, memberKey, member)
	pipe.Expire(ctx, memberKey, r.expireDuration)

	r.addMemberToList(ctx, pipe, params.RoomId, params.MemberId)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) RemoveMember(ctx context.Context, params *room.RemoveMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()
	pipe.ZRem(ctx, r.getMemberListKey(params.RoomId), params.MemberId)
	pipe.Del(ctx, r.getMemberKey(params.MemberId))

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, params *room.GetMemberParams) (room.Member, error) {
	var member room.Member
	if err := r.rc.HGetAll(ctx, r.getMemberKey(params.MemberId)).Scan(&member); err != nil {
		return room.Member{}, err
	}

	if member.RoomId == "" {
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

// GetMemberIds returns approved member connection ids in join order.
func (r repo) GetMemberIds(ctx context.Context, roomId string) ([]string, error) {
	memberIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	return memberIds, nil
}

func (r repo) GetMemberRoomId(ctx context.Context, memberId string) (string, error) {
	roomId, err := r.rc.HGet(ctx, r.getMemberKey(memberId), "room_id").Result()
	if err != nil {
		if err == redis.Nil {
			return "", room.ErrMemberNotFound
		}
		return "", err
	}

	return roomId, nil
}
