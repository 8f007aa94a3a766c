package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vissu0901/Youtube-Watch-Party/internal/repository/connection/inmemory"
	roomrepo "github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room"
	redisrepo "github.com/Vissu0901/Youtube-Watch-Party/internal/repository/room/redis"
)

func newTestService(t *testing.T) (*service, iRoomRepo) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	repo := redisrepo.NewRepo(rc, time.Hour, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())

	return NewService(repo, connRepo, &Config{
		MembersLimit: 5,
		Secret:       "test-secret",
	}, slog.Default()), repo
}

func connect(t *testing.T, s *service, memberId string) *websocket.Conn {
	t.Helper()
	conn := &websocket.Conn{}
	require.NoError(t, s.ConnectMember(context.Background(), &ConnectMemberParams{
		Conn:     conn,
		MemberId: memberId,
	}))

	return conn
}

func join(t *testing.T, s *service, memberId, roomId, userId, username string) JoinRoomResponse {
	t.Helper()
	resp, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		MemberId: memberId,
		RoomId:   roomId,
		UserId:   userId,
		Username: username,
	})
	require.NoError(t, err)

	return resp
}

func approve(t *testing.T, s *service, hostId, roomId, targetId string) ApproveJoinResponse {
	t.Helper()
	resp, err := s.ApproveJoin(context.Background(), &ApproveJoinParams{
		SenderId: hostId,
		RoomId:   roomId,
		TargetId: targetId,
	})
	require.NoError(t, err)

	return resp
}

func TestFirstJoinerBecomesHost(t *testing.T) {
	s, _ := newTestService(t)

	connect(t, s, "conn-a")
	resp := join(t, s, "conn-a", "movie-night", "user-a", "alice")

	assert.True(t, resp.Admitted)
	assert.True(t, resp.IsHost)
	assert.NotEmpty(t, resp.SessionToken)
	assert.Equal(t, 1, resp.ViewerCount)
	assert.Nil(t, resp.Player)
}

func TestJoinRequiresHostApproval(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	hostConn := connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	viewerConn := connect(t, s, "conn-b")
	resp := join(t, s, "conn-b", "movie-night", "user-b", "bob")

	assert.False(t, resp.Admitted)
	assert.Same(t, hostConn, resp.HostConn)

	// not a member until approved
	_, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-b", RoomId: "movie-night"})
	assert.ErrorIs(t, err, ErrNotAMember)

	approveResp := approve(t, s, "conn-a", "movie-night", "conn-b")
	assert.Same(t, viewerConn, approveResp.TargetConn)
	assert.NotEmpty(t, approveResp.SessionToken)
	assert.Equal(t, 2, approveResp.ViewerCount)
	assert.Len(t, approveResp.Conns, 2)

	// resolving the same request twice is a no-op failure
	_, err = s.ApproveJoin(ctx, &ApproveJoinParams{SenderId: "conn-a", RoomId: "movie-night", TargetId: "conn-b"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveIsHostOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	connect(t, s, "conn-c")
	join(t, s, "conn-c", "movie-night", "user-c", "carol")

	_, err := s.ApproveJoin(ctx, &ApproveJoinParams{SenderId: "conn-b", RoomId: "movie-night", TargetId: "conn-c"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = s.DenyJoin(ctx, &DenyJoinParams{SenderId: "conn-b", RoomId: "movie-night", TargetId: "conn-c"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestDenyJoin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	viewerConn := connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")

	resp, err := s.DenyJoin(ctx, &DenyJoinParams{SenderId: "conn-a", RoomId: "movie-night", TargetId: "conn-b"})
	require.NoError(t, err)
	assert.Same(t, viewerConn, resp.TargetConn)
	assert.Equal(t, "Sorry bob, the host denied your request to join this room.", resp.Message)

	// denied viewer never became a member
	_, err = s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-b", RoomId: "movie-night"})
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = s.DenyJoin(ctx, &DenyJoinParams{SenderId: "conn-a", RoomId: "movie-night", TargetId: "conn-b"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeVideo(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	resp, err := s.ChangeVideo(ctx, &ChangeVideoParams{
		SenderId: "conn-a",
		RoomId:   "movie-night",
		VideoId:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", resp.VideoId)
	assert.Len(t, resp.Conns, 1)

	state, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-a", RoomId: "movie-night"})
	require.NoError(t, err)
	require.NotNil(t, state.Player)
	assert.Equal(t, "dQw4w9WgXcQ", state.Player.VideoId)
	assert.False(t, state.Player.IsPlaying)
	assert.Equal(t, float64(0), state.Player.CurrentTime)

	_, err = s.ChangeVideo(ctx, &ChangeVideoParams{
		SenderId: "conn-a",
		RoomId:   "movie-night",
		VideoId:  "https://youtu.be/abc",
	})
	assert.ErrorIs(t, err, ErrInvalidVideoId)
}

func TestChangeVideoIsHostOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")
	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	_, err := s.ChangeVideo(ctx, &ChangeVideoParams{
		SenderId: "conn-b",
		RoomId:   "movie-night",
		VideoId:  "dQw4w9WgXcQ",
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// state untouched
	state, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-b", RoomId: "movie-night"})
	require.NoError(t, err)
	assert.Nil(t, state.Player)
}

func TestSyncAction(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	_, err := s.SyncAction(ctx, &SyncActionParams{
		SenderId: "conn-a",
		RoomId:   "movie-night",
		Action:   ActionPlay,
		Time:     10,
	})
	assert.ErrorIs(t, err, ErrNoVideoLoaded)

	_, err = s.ChangeVideo(ctx, &ChangeVideoParams{SenderId: "conn-a", RoomId: "movie-night", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)

	resp, err := s.SyncAction(ctx, &SyncActionParams{
		SenderId: "conn-a",
		RoomId:   "movie-night",
		Action:   ActionPause,
		Time:     42.5,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionPause, resp.Action)
	assert.Equal(t, 42.5, resp.Time)
	assert.Len(t, resp.Conns, 1)

	state, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-a", RoomId: "movie-night"})
	require.NoError(t, err)
	assert.Equal(t, 42.5, state.Player.CurrentTime)
	assert.False(t, state.Player.IsPlaying)

	// negative positions are clamped
	resp, err = s.SyncAction(ctx, &SyncActionParams{
		SenderId: "conn-a",
		RoomId:   "movie-night",
		Action:   ActionPause,
		Time:     -3,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.Time)
}

func TestSyncActionIsHostOnly(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")
	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	_, err := s.ChangeVideo(ctx, &ChangeVideoParams{SenderId: "conn-a", RoomId: "movie-night", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)

	_, err = s.SyncAction(ctx, &SyncActionParams{
		SenderId: "conn-b",
		RoomId:   "movie-night",
		Action:   ActionPlay,
		Time:     5,
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	state, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-b", RoomId: "movie-night"})
	require.NoError(t, err)
	assert.False(t, state.Player.IsPlaying)
	assert.Equal(t, float64(0), state.Player.CurrentTime)
}

func TestRequestSyncExtrapolatesWhilePlaying(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	// playing for five seconds of wall time at position ten
	require.NoError(t, repo.SetPlayer(ctx, &roomrepo.SetPlayerParams{
		VideoId:     "dQw4w9WgXcQ",
		IsPlaying:   true,
		CurrentTime: 10,
		UpdatedAt:   time.Now().Add(-5 * time.Second).UnixMilli(),
		RoomId:      "movie-night",
	}))

	state, err := s.GetPlayerState(ctx, &GetPlayerStateParams{SenderId: "conn-a", RoomId: "movie-night"})
	require.NoError(t, err)
	assert.InDelta(t, 15, state.Player.CurrentTime, 1)
	assert.True(t, state.Player.IsPlaying)

	// reading is idempotent: the stored position does not advance on read
	player, err := repo.GetPlayer(ctx, "movie-night")
	require.NoError(t, err)
	assert.Equal(t, float64(10), player.CurrentTime)
}

func TestHostFailoverPromotesEarliestMember(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	bobConn := connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	connect(t, s, "conn-c")
	join(t, s, "conn-c", "movie-night", "user-c", "carol")
	approve(t, s, "conn-a", "movie-night", "conn-c")

	resp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-a"})
	require.NoError(t, err)
	assert.False(t, resp.IsRoomDeleted)
	assert.Equal(t, 2, resp.ViewerCount)
	assert.Same(t, bobConn, resp.NewHostConn)

	// bob holds host authority now
	_, err = s.ChangeVideo(ctx, &ChangeVideoParams{SenderId: "conn-b", RoomId: "movie-night", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)

	_, err = s.ChangeVideo(ctx, &ChangeVideoParams{SenderId: "conn-c", RoomId: "movie-night", VideoId: "dQw4w9WgXcQ"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRoomClosesWhenLastMemberLeaves(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	pendingConn := connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")

	resp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-a"})
	require.NoError(t, err)
	assert.True(t, resp.IsRoomDeleted)
	require.Len(t, resp.PendingConns, 1)
	assert.Same(t, pendingConn, resp.PendingConns[0])

	// the id is free again, the next joiner starts a fresh room
	connect(t, s, "conn-c")
	fresh := join(t, s, "conn-c", "movie-night", "user-c", "carol")
	assert.True(t, fresh.Admitted)
	assert.True(t, fresh.IsHost)
	assert.Equal(t, 1, fresh.ViewerCount)
}

func TestRepeatJoinRequestKeepsQueuePosition(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")

	// bob retries from a new connection before the host reacts
	retryConn := connect(t, s, "conn-b2")
	retry := join(t, s, "conn-b2", "movie-night", "user-b", "bob")
	assert.False(t, retry.Admitted)

	// the stale entry is gone, the retry is the one the host resolves
	_, err := s.ApproveJoin(ctx, &ApproveJoinParams{SenderId: "conn-a", RoomId: "movie-night", TargetId: "conn-b"})
	assert.ErrorIs(t, err, ErrNotFound)

	resp := approve(t, s, "conn-a", "movie-night", "conn-b2")
	assert.Same(t, retryConn, resp.TargetConn)
}

func TestSessionTokenReadmitsWithoutApproval(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	token := approve(t, s, "conn-a", "movie-night", "conn-b").SessionToken

	_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-b"})
	require.NoError(t, err)

	connect(t, s, "conn-b2")
	resp, err := s.JoinRoom(ctx, &JoinRoomParams{
		MemberId:     "conn-b2",
		RoomId:       "movie-night",
		UserId:       "user-b",
		Username:     "bob",
		SessionToken: token,
	})
	require.NoError(t, err)
	assert.True(t, resp.Admitted)
	assert.False(t, resp.IsHost)
	assert.Equal(t, 2, resp.ViewerCount)
}

func TestStaleTokenDoesNotCrossRoomIncarnations(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	staleToken := approve(t, s, "conn-a", "movie-night", "conn-b").SessionToken

	// everyone leaves, the room is gone
	_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-a"})
	require.NoError(t, err)
	resp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-b"})
	require.NoError(t, err)
	require.True(t, resp.IsRoomDeleted)

	// carol opens a fresh room under the same id
	carolConn := connect(t, s, "conn-c")
	join(t, s, "conn-c", "movie-night", "user-c", "carol")

	// bob's token names the dead incarnation and carries no authority here
	connect(t, s, "conn-b2")
	rejoin, err := s.JoinRoom(ctx, &JoinRoomParams{
		MemberId:     "conn-b2",
		RoomId:       "movie-night",
		UserId:       "user-b",
		Username:     "bob",
		SessionToken: staleToken,
	})
	require.NoError(t, err)
	assert.False(t, rejoin.Admitted, "token from a closed room must not bypass the gate of a new room")
	assert.Same(t, carolConn, rejoin.HostConn)

	// carol's approval is what admits him
	approve(t, s, "conn-c", "movie-night", "conn-b2")
}

func TestRepeatJoinByMemberIsNotQueued(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	// the host repeating its join is answered, never queued
	hostRepeat := join(t, s, "conn-a", "movie-night", "user-a", "alice")
	assert.True(t, hostRepeat.Admitted)
	assert.True(t, hostRepeat.IsHost)

	// same for an approved viewer
	viewerRepeat := join(t, s, "conn-b", "movie-night", "user-b", "bob")
	assert.True(t, viewerRepeat.Admitted)
	assert.False(t, viewerRepeat.IsHost)
	assert.Equal(t, 2, viewerRepeat.ViewerCount)

	pendingIds, err := repo.GetPendingIds(ctx, "movie-night")
	require.NoError(t, err)
	assert.Empty(t, pendingIds)
}

func TestFormerHostRejoinsAsViewer(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	hostToken := join(t, s, "conn-a", "movie-night", "user-a", "alice").SessionToken

	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	// host drops, bob is promoted
	_, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "conn-a"})
	require.NoError(t, err)

	// the token readmits the original host, but authority stays with bob
	connect(t, s, "conn-a2")
	resp, err := s.JoinRoom(ctx, &JoinRoomParams{
		MemberId:     "conn-a2",
		RoomId:       "movie-night",
		UserId:       "user-a",
		Username:     "alice",
		SessionToken: hostToken,
	})
	require.NoError(t, err)
	assert.True(t, resp.Admitted)
	assert.False(t, resp.IsHost)

	_, err = s.ChangeVideo(ctx, &ChangeVideoParams{SenderId: "conn-b", RoomId: "movie-night", VideoId: "dQw4w9WgXcQ"})
	require.NoError(t, err)
}

func TestRoomFull(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-host")
	join(t, s, "conn-host", "movie-night", "user-host", "host")

	for _, id := range []string{"conn-1", "conn-2", "conn-3", "conn-4"} {
		connect(t, s, id)
		join(t, s, id, "movie-night", "user-"+id, id)
		approve(t, s, "conn-host", "movie-night", id)
	}

	connect(t, s, "conn-5")
	_, err := s.JoinRoom(ctx, &JoinRoomParams{
		MemberId: "conn-5",
		RoomId:   "movie-night",
		UserId:   "user-5",
		Username: "late",
	})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestGetViewersExcludesHost(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	connect(t, s, "conn-a")
	join(t, s, "conn-a", "movie-night", "user-a", "alice")
	connect(t, s, "conn-b")
	join(t, s, "conn-b", "movie-night", "user-b", "bob")
	approve(t, s, "conn-a", "movie-night", "conn-b")

	resp, err := s.GetViewers(ctx, &GetViewersParams{SenderId: "conn-a", RoomId: "movie-night"})
	require.NoError(t, err)
	assert.Equal(t, []Viewer{{Name: "bob"}}, resp.Viewers)

	_, err = s.GetViewers(ctx, &GetViewersParams{SenderId: "conn-b", RoomId: "movie-night"})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}
