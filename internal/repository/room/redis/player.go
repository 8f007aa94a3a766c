package redis

import (
	"context"
	"fmt"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
)

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	player := room.Player{
		VideoId:     params.VideoId,
		IsPlaying:   params.IsPlaying,
		CurrentTime: params.CurrentTime,
		UpdatedAt:   params.UpdatedAt,
	}
	playerKey := r.getPlayerKey(params.RoomId)
	pipe.HSet(ctx, playerKey, player)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	playerKey := r.getPlayerKey(roomId)
	var player room.Player
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if player.VideoId == "" {
		return room.Player{}, room.ErrPlayerNotFound
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return player, nil
}

func (r repo) UpdatePlayerState(ctx context.Context, params *room.UpdatePlayerStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	playerKey := r.getPlayerKey(params.RoomId)
	cmd := r.rc.Exists(ctx, playerKey)
	if err := cmd.Err(); err != nil {
		return err
	}

	if cmd.Val() == 0 {
		return room.ErrPlayerNotFound
	}

	if err := r.rc.HSet(ctx, playerKey,
		"is_playing", params.IsPlaying,
		"current_time", params.CurrentTime,
		"updated_at", params.UpdatedAt,
	).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return nil
}
