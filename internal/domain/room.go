package domain

import "errors"

var ErrRoomIDEmpty = errors.New("room id empty")

// RoomID is a caller-supplied opaque token. Beyond non-emptiness it is
// not validated or checked for collisions; two ids match only when they
// are byte-for-byte equal.
type RoomID string

func NewRoomID(raw string) (RoomID, error) {
	if len(raw) == 0 {
		return "", ErrRoomIDEmpty
	}
	return RoomID(raw), nil
}

func (id RoomID) String() string { return string(id) }
