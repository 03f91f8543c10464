package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) CreateUser(ctx context.Context, u entity.User) error {
	_, err := exec(ctx, r.db, r.sb.Insert("users").
		Columns("id", "email", "password_hash", "role", "name", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.Role, u.Name, u.CreatedAt))
	if err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return entity.ErrDuplicateEmail
		}

		return err
	}

	return nil
}

func (r *Repository) selectUsers() sq.SelectBuilder {
	return r.sb.Select("id", "email", "password_hash", "role", "name", "created_at").From("users")
}

func scanUser(s scanner) (entity.User, error) {
	var u entity.User

	err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt)
	if err != nil {
		return entity.User{}, err
	}

	return u, nil
}

func (r *Repository) userBy(ctx context.Context, q querier, where sq.Sqlizer) (entity.User, error) {
	query, args, err := r.selectUsers().Where(where).ToSql()
	if err != nil {
		return entity.User{}, fmt.Errorf("%w: build query: %w", entity.ErrStorage, err)
	}

	u, err := scanUser(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.User{}, fmt.Errorf("%w: user", entity.ErrNotFound)
		}

		return entity.User{}, mapErr(err)
	}

	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.userBy(ctx, r.db, sq.Eq{"email": email})
}

func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return r.userBy(ctx, r.db, sq.Eq{"id": id})
}

func (r *Repository) Users(ctx context.Context) ([]entity.UserSummary, error) {
	b := r.sb.Select("u.id", "u.email", "u.password_hash", "u.role", "u.name", "u.created_at", "COUNT(c.id)").
		From("users u").
		LeftJoin("customers c ON c.assigned_to = u.id").
		GroupBy("u.id", "u.email", "u.password_hash", "u.role", "u.name", "u.created_at").
		OrderBy("u.created_at", "u.email")

	return queryAll(ctx, r.db, b, func(s scanner) (entity.UserSummary, error) {
		var v entity.UserSummary

		err := s.Scan(&v.ID, &v.Email, &v.PasswordHash, &v.Role, &v.Name, &v.CreatedAt, &v.AssignedCustomers)

		return v, err
	})
}

func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	return count(ctx, r.db, r.sb.Select("COUNT(*)").From("users").Where(sq.Eq{"role": entity.RoleAdmin}))
}

// DeleteUser detaches every reference to the user and removes it in one transaction.
// Customers are never deleted, they only lose their assignee.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) (entity.UserDeletion, error) {
	var res entity.UserDeletion

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		target, err := r.userBy(ctx, tx, sq.Eq{"id": id})
		if err != nil {
			return err
		}

		if target.Role == entity.RoleAdmin {
			admins, err := queryAll(ctx, tx,
				r.forUpdate(r.sb.Select("id").From("users").Where(sq.Eq{"role": entity.RoleAdmin})),
				func(s scanner) (uuid.UUID, error) {
					var adminID uuid.UUID
					err := s.Scan(&adminID)

					return adminID, err
				})
			if err != nil {
				return err
			}

			if len(admins) <= 1 {
				return entity.ErrLastAdmin
			}
		}

		res.UnassignedCustomers, err = exec(ctx, tx, r.sb.Update("customers").
			Set("assigned_to", nil).Where(sq.Eq{"assigned_to": id}))
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Update("customers").
			Set("created_by", nil).Where(sq.Eq{"created_by": id}))
		if err != nil {
			return err
		}

		res.UnassignedTasks, err = exec(ctx, tx, r.sb.Update("work_tasks").
			Set("updated_by", nil).Where(sq.Eq{"updated_by": id}))
		if err != nil {
			return err
		}

		res.UnassignedDocuments, err = exec(ctx, tx, r.sb.Update("documents").
			Set("responsible_id", nil).Where(sq.Eq{"responsible_id": id}))
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Update("meetings").
			Set("created_by", nil).Where(sq.Eq{"created_by": id}))
		if err != nil {
			return err
		}

		res.DeletedNotifications, err = exec(ctx, tx, r.sb.Delete("notifications").Where(sq.Eq{"user_id": id}))
		if err != nil {
			return err
		}

		n, err := exec(ctx, tx, r.sb.Delete("users").Where(sq.Eq{"id": id}))
		if err != nil {
			return err
		}

		if n == 0 {
			return fmt.Errorf("%w: user", entity.ErrNotFound)
		}

		return nil
	})
	if err != nil {
		return entity.UserDeletion{}, err
	}

	return res, nil
}
