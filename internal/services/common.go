package services

import (
	"time"

	"shuttle/internal/domain"
)

// Clock returns the current time. Services default to time.Now when nil.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return domain.UnauthorizedError{Msg: "admin only"}
	}
	return nil
}

func requireDriver(p domain.Principal) (int64, error) {
	id, ok := p.Driver()
	if !ok {
		return 0, domain.UnauthorizedError{Msg: "driver only"}
	}
	return int64(id), nil
}

func requireStudent(p domain.Principal) (int64, error) {
	id, ok := p.Student()
	if !ok {
		return 0, domain.UnauthorizedError{Msg: "student only"}
	}
	return int64(id), nil
}
