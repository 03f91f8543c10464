package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) SaveLoginAttempt(ctx context.Context, a entity.LoginAttempt) error {
	_, err := exec(ctx, r.db, r.sb.Insert("login_attempts").
		Columns("id", "email", "succeeded", "created_at").
		Values(a.ID, a.Email, a.Succeeded, a.CreatedAt.UTC()))

	return err
}

func (r *Repository) FailedLogins(ctx context.Context, email string, since time.Time) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("login_attempts").Where(sq.And{
		sq.Eq{"email": email},
		sq.Eq{"succeeded": false},
		sq.Gt{"created_at": since.UTC()},
	}))
}

// CleanLoginAttempts drops attempts older than before.
func (r *Repository) CleanLoginAttempts(ctx context.Context, before time.Time) (int64, error) {
	return exec(ctx, r.db, r.sb.Delete("login_attempts").Where(sq.Lt{"created_at": before.UTC()}))
}
