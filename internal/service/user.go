package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

// Authenticate never tells an unknown e-mail apart from a wrong secret. Once an e-mail collects
// MaxFailedLogins failures within LoginWindow every further attempt fails until the window moves on.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (entity.User, error) {
	email = strings.TrimSpace(email)

	if s.opts.MaxFailedLogins > 0 {
		failed, err := s.repo.FailedLogins(ctx, email, s.now().Add(-s.opts.LoginWindow))
		if err != nil {
			return entity.User{}, fmt.Errorf("count failed logins: %w", err)
		}

		if failed >= s.opts.MaxFailedLogins {
			slog.WarnContext(ctx, "login throttled", "email", email, "failed", failed)
			return entity.User{}, entity.ErrTooManyAttempts
		}
	}

	u, err := s.repo.UserByEmail(ctx, email)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return entity.User{}, fmt.Errorf("get user by email: %w", err)
	}

	var ok bool

	if err == nil {
		ok = s.hasher.Verify(secret, u.PasswordHash)
	} else {
		// unknown emails pay the same hashing cost as wrong passwords
		s.hasher.Verify(secret, s.dummyHash(ctx))
	}

	s.recordLogin(ctx, email, ok)

	if !ok {
		return entity.User{}, entity.ErrUnauthorized
	}

	return u, nil
}

func (s *Service) recordLogin(ctx context.Context, email string, succeeded bool) {
	if s.opts.MaxFailedLogins <= 0 {
		return
	}

	err := s.repo.SaveLoginAttempt(ctx, entity.NewLoginAttempt(email, succeeded, s.now()))
	if err != nil {
		slog.ErrorContext(ctx, "save login attempt", "email", email, "error", err)
	}
}

// CleanLoginAttempts forgets attempts that can no longer count towards a lockout.
func (s *Service) CleanLoginAttempts(ctx context.Context) error {
	if s.opts.MaxFailedLogins <= 0 {
		return nil
	}

	n, err := s.repo.CleanLoginAttempts(ctx, s.now().Add(-s.opts.LoginWindow))
	if err != nil {
		return fmt.Errorf("clean login attempts: %w", err)
	}

	slog.DebugContext(ctx, "login attempts cleaned", "deleted", n)

	return nil
}

func (s *Service) createUser(ctx context.Context, nu entity.NewUser) (entity.User, error) {
	nu.Email = strings.TrimSpace(nu.Email)
	nu.Name = strings.TrimSpace(nu.Name)

	err := validateNewUser(nu)
	if err != nil {
		return entity.User{}, err
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return entity.User{}, fmt.Errorf("%w: %w", entity.ErrStorage, err)
	}

	u := entity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        nu.Email,
		PasswordHash: hash,
		Role:         nu.Role,
		Name:         nu.Name,
		CreatedAt:    s.now(),
	}

	err = s.repo.CreateUser(ctx, u)
	if err != nil {
		return entity.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// CreateUser registers a user on behalf of an admin and sends a welcome e-mail.
// Duplicate e-mails are caught by the unique constraint, not by a lookup.
func (s *Service) CreateUser(ctx context.Context, caller entity.Caller, nu entity.NewUser) (entity.User, entity.Delivery, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.User{}, entity.Delivery{}, err
	}

	u, err := s.createUser(ctx, nu)
	if err != nil {
		return entity.User{}, entity.Delivery{}, err
	}

	slog.InfoContext(ctx, fmt.Sprintf("user %s (%s) created by %s", u.Email, u.Role, caller.Name))

	delivery := s.sendMail(ctx, u.Email, "Welcome to the CRM",
		fmt.Sprintf("Hello %s,\n\nan account with the role %q has been created for you.\nSign in with %s.\n",
			u.Name, u.Role, u.Email), false)

	return u, delivery, nil
}

func (s *Service) Users(ctx context.Context, caller entity.Caller) ([]entity.UserSummary, error) {
	err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	return s.repo.Users(ctx)
}

func (s *Service) User(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return s.repo.UserByID(ctx, id)
}

// DeleteUser removes a user and detaches its assignments. The last admin and the caller itself
// cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.UserDeletion, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.UserDeletion{}, err
	}

	if caller.ID == id {
		return entity.UserDeletion{}, entity.ErrDeleteSelf
	}

	res, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return entity.UserDeletion{}, fmt.Errorf("delete user %s: %w", id, err)
	}

	slog.InfoContext(ctx, fmt.Sprintf("user %s deleted by %s: %d customers unassigned", id, caller.Name, res.UnassignedCustomers))

	return res, nil
}

// Bootstrap seeds the default admin when no admin exists and the default customer groups when
// there are none. It reports whether the admin was created.
func (s *Service) Bootstrap(ctx context.Context, admin entity.NewUser) (bool, error) {
	admins, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}

	created := false

	if admins == 0 {
		admin.Role = entity.RoleAdmin

		u, err := s.createUser(ctx, admin)
		if err != nil {
			return false, fmt.Errorf("create default admin: %w", err)
		}

		created = true

		slog.WarnContext(ctx, fmt.Sprintf("default admin %s created, change its password", u.Email))
	}

	groups := make([]entity.CustomerGroup, 0, len(s.ref.Groups))
	for _, g := range s.ref.Groups {
		groups = append(groups, entity.CustomerGroup{ID: g.ID, Name: g.Name, Description: g.Description})
	}

	n, err := s.repo.SeedGroups(ctx, groups)
	if err != nil {
		return created, fmt.Errorf("seed customer groups: %w", err)
	}

	if n > 0 {
		slog.InfoContext(ctx, fmt.Sprintf("%d default customer groups created", n))
	}

	return created, nil
}

// dummyHash is hashed once with the configured hasher, so its cost matches real credentials.
func (s *Service) dummyHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.Must(uuid.NewV4()).String())
		if err != nil {
			slog.ErrorContext(ctx, "hash dummy credential", "error", err)
			return
		}

		s.dummy = h
	})

	return s.dummy
}
