package room

type Member struct {
	UserId   string `redis:"user_id" json:"user_id"`
	Username string `redis:"username" json:"username"`
	RoomId   string `redis:"room_id" json:"room_id"`
}

type SetMemberParams struct {
	MemberId string `json:"member_id"`
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	RoomId   string `json:"room_id"`
}

type GetMemberParams struct {
	MemberId string `json:"member_id"`
	RoomId   string `json:"room_id"`
}

type RemoveMemberParams struct {
	MemberId string `json:"member_id"`
	RoomId   string `json:"room_id"`
}
