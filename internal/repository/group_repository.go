package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) Groups(ctx context.Context) ([]entity.CustomerGroup, error) {
	b := r.sb.Select("id", "name", "description").From("customer_groups").OrderBy("id")

	return queryAll(ctx, r.db, b, func(s scanner) (entity.CustomerGroup, error) {
		var g entity.CustomerGroup
		err := s.Scan(&g.ID, &g.Name, &g.Description)

		return g, err
	})
}

func (r *Repository) CreateGroup(ctx context.Context, g entity.CustomerGroup) error {
	return r.insertGroup(ctx, r.db, g)
}

func (r *Repository) insertGroup(ctx context.Context, q querier, g entity.CustomerGroup) error {
	_, err := exec(ctx, q, r.sb.Insert("customer_groups").
		Columns("id", "name", "description").
		Values(g.ID, g.Name, g.Description))
	if err != nil {
		if errors.Is(err, entity.ErrAlreadyExists) {
			return entity.ErrDuplicateGroup
		}

		return err
	}

	return nil
}

// SeedGroups inserts groups only when the table is empty and reports how many were added.
func (r *Repository) SeedGroups(ctx context.Context, groups []entity.CustomerGroup) (int, error) {
	var inserted int

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("customer_groups"))
		if err != nil {
			return err
		}

		if n > 0 {
			return nil
		}

		for _, g := range groups {
			err = r.insertGroup(ctx, tx, g)
			if err != nil {
				return err
			}

			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}
