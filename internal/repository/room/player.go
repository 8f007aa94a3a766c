package room

type Player struct {
	VideoId     string  `redis:"video_id" json:"video_id"`
	IsPlaying   bool    `redis:"is_playing" json:"is_playing"`
	CurrentTime float64 `redis:"current_time" json:"current_time"`
	UpdatedAt   int64   `redis:"updated_at" json:"updated_at"`
}

type SetPlayerParams struct {
	VideoId     string  `json:"video_id"`
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	UpdatedAt   int64   `json:"updated_at"`
	RoomId      string  `json:"room_id"`
}

type UpdatePlayerStateParams struct {
	IsPlaying   bool    `json:"is_playing"`
	CurrentTime float64 `json:"current_time"`
	UpdatedAt   int64   `json:"updated_at"`
	RoomId      string  `json:"room_id"`
}
