package model

import "time"

type AuthEventKind string

const (
	AuthEventSignedUp    = AuthEventKind("SIGNED_UP")
	AuthEventSignedIn    = AuthEventKind("SIGNED_IN")
	AuthEventSignedOut   = AuthEventKind("SIGNED_OUT")
	AuthEventUserUpdated = AuthEventKind("USER_UPDATED")
)

// AuthEvent is the audit record of one auth state change.
type AuthEvent struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;index" json:"user_id"`
	Email     string        `gorm:"size:128;not null" json:"email"`
	Kind      AuthEventKind `gorm:"size:32;not null;index" json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
}

func (k AuthEventKind) Valid() bool {
	switch k {
	case AuthEventSignedUp, AuthEventSignedIn, AuthEventSignedOut, AuthEventUserUpdated:
		return true
	}
	return false
}
