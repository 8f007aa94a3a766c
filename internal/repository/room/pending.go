package room

type PendingRequest struct {
	UserId   string `redis:"user_id" json:"user_id"`
	Username string `redis:"username" json:"username"`
	RoomId   string `redis:"room_id" json:"room_id"`
}

type AddPendingParams struct {
	MemberId string `json:"member_id"`
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	RoomId   string `json:"room_id"`
}

type GetPendingParams struct {
	MemberId string `json:"member_id"`
	RoomId   string `json:"room_id"`
}

type RemovePendingParams struct {
	MemberId string `json:"member_id"`
	RoomId   string `json:"room_id"`
}

// SwapPendingIdParams rebinds a pending request to a new connection id
// while keeping its position in the review queue.
type SwapPendingIdParams struct {
	OldMemberId string `json:"old_member_id"`
	NewMemberId string `json:"new_member_id"`
	RoomId      string `json:"room_id"`
}
