package room

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrPendingNotFound = errors.New("pending request not found")
	ErrPlayerNotFound  = errors.New("player not found")
)
