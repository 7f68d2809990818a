package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session: not found")

const DefaultTTL = 24 * time.Hour

// Session ties a logged-in user to the address the login came from. A
// session only resolves from the same address it was created for.
type Session struct {
	ID        string
	UserID    string
	IP        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

type Store interface {
	Create(ip, userID string) (Session, error)
	Get(id, ip string) (Session, error)
	Delete(id string) error
	// Sweep drops expired sessions and returns how many were removed.
	Sweep() int
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}
