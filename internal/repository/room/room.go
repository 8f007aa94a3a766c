package room

type Room struct {
	HostId     string `redis:"host_id"`
	HostUserId string `redis:"host_user_id"`
	CreatedAt  int64  `redis:"created_at"`
}

type SetRoomParams struct {
	RoomId     string `json:"room_id"`
	HostId     string `json:"host_id"`
	HostUserId string `json:"host_user_id"`
	CreatedAt  int64  `json:"created_at"`
}

type UpdateRoomHostParams struct {
	RoomId     string `json:"room_id"`
	HostId     string `json:"host_id"`
	HostUserId string `json:"host_user_id"`
}
