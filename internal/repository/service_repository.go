package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) CreateService(ctx context.Context, caller entity.Caller, s entity.Service) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleCustomer(ctx, tx, caller, s.CustomerID)
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Insert("services").
			Columns("id", "customer_id", "type", "description", "start_date", "expected_end_date",
				"package_code", "partner", "status", "created_at").
			Values(s.ID, s.CustomerID, s.Type, s.Description, s.StartDate, s.ExpectedEndDate,
				s.PackageCode, s.Partner, s.Status, s.CreatedAt))

		return err
	})
}

// Services lists the services of visible customers, optionally of one customer only.
func (r *Repository) Services(ctx context.Context, caller entity.Caller, customerID string) ([]entity.ServiceView, error) {
	b := r.sb.Select(
		"s.id", "s.customer_id", "s.type", "s.description", "s.start_date", "s.expected_end_date",
		"s.package_code", "s.partner", "s.status", "s.created_at", "c.company_name",
	).
		From("services s").
		Join("customers c ON c.id = s.customer_id").
		Where(visibleTo(caller)).
		OrderBy("s.created_at DESC", "s.id")

	if customerID != "" {
		b = b.Where(sq.Eq{"s.customer_id": customerID})
	}

	return queryAll(ctx, r.db, b, func(sc scanner) (entity.ServiceView, error) {
		var v entity.ServiceView

		err := sc.Scan(&v.ID, &v.CustomerID, &v.Type, &v.Description, &v.StartDate, &v.ExpectedEndDate,
			&v.PackageCode, &v.Partner, &v.Status, &v.CreatedAt, &v.CompanyName)

		return v, err
	})
}

func (r *Repository) requireVisibleService(ctx context.Context, q querier, caller entity.Caller, id uuid.UUID) error {
	n, err := count(ctx, q, r.sb.Select("COUNT(*)").From("services s").
		Join("customers c ON c.id = s.customer_id").
		Where(sq.Eq{"s.id": id}).Where(visibleTo(caller)))
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: service %s", entity.ErrNotFound, id)
	}

	return nil
}
