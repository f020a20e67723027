// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxDisplayNameLen = 36

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// DisplayName is the free-text name a user presents to a room.
// It is not an identity; two users may share one.
type DisplayName string

func NewDisplayName(raw string) (DisplayName, error) {
	if len(raw) == 0 {
		return "", ErrNameEmpty
	}
	if len(raw) > MaxDisplayNameLen {
		return "", ErrNameTooLong
	}
	return DisplayName(raw), nil
}

func (n DisplayName) String() string { return string(n) }
