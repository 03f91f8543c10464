package service

import (
	"context"
	"io"
	"time"

	"github.com/samandr77/crm/internal/entity"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=capabilities.go -destination=../mocks/capabilities.go -package=mocks -typed

type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
}

// Calendar creates an event and returns a link to it.
type Calendar interface {
	CreateEvent(ctx context.Context, e entity.CalendarEvent) (string, error)
}

// Storage keeps document files by key.
type Storage interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	URL(ctx context.Context, key string) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}
