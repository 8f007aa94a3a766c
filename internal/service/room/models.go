package room

// Player is the playback snapshot handed to clients. Time is seconds.
type Player struct {
	VideoId     string  `json:"videoId"`
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"time"`
}

type Viewer struct {
	Name string `json:"name"`
}
