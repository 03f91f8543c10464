package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// LoginAttempt is keyed by the e-mail as typed, so unknown accounts are throttled like real ones.
type LoginAttempt struct {
	ID        uuid.UUID
	Email     string
	Succeeded bool
	CreatedAt time.Time
}

func NewLoginAttempt(email string, succeeded bool, at time.Time) LoginAttempt {
	return LoginAttempt{
		ID:        uuid.Must(uuid.NewV7()),
		Email:     email,
		Succeeded: succeeded,
		CreatedAt: at.UTC(),
	}
}
