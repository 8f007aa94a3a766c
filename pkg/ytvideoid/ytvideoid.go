package ytvideoid

import (
	"errors"
	"regexp"
)

var ErrInvalidVideoId = errors.New("invalid video id")

// Mirrors the extraction rule used by the web client, so both sides accept
// the same set of URLs: watch?v=, youtu.be/, /v/, /embed/ and /u/<char>/
// forms, with the id segment required to be exactly 11 characters.
var (
	urlRe = regexp.MustCompile(`^.*(youtu.be/|v/|/u/\w/|embed/|watch\?)\??v?=?([^#&?]*)`)
	idRe  = regexp.MustCompile(`^[\w-]{11}$`)
)

const videoIdLength = 11

// Extract pulls an 11-character video id out of a youtube URL.
func Extract(url string) (string, error) {
	match := urlRe.FindStringSubmatch(url)
	if match == nil {
		return "", ErrInvalidVideoId
	}

	id := match[2]
	if len(id) != videoIdLength {
		return "", ErrInvalidVideoId
	}

	return id, nil
}

// Parse accepts either a bare 11-character video id or any URL form
// accepted by Extract.
func Parse(s string) (string, error) {
	if idRe.MatchString(s) {
		return s, nil
	}

	return Extract(s)
}
