package remote

import (
	"errors"
	"fmt"
)

var (
	ErrDisabled         = errors.New("remote backend not configured")
	ErrNotAuthenticated = errors.New("user not authenticated")
	ErrInvalidLogin     = errors.New("invalid login credentials")
	ErrAccountExists    = errors.New("account already exists")
)

// Error is a failure reported by the backend itself.
type Error struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%d %s)", e.Op, e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Status)
}
