package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

const (
	customerIDAttempts = 3
	customerIDMax      = 999999
)

func customerColumns() []string {
	return []string{
		"c.id", "c.company_name", "c.tax_code", "c.group_id", "c.address", "c.country", "c.category",
		"c.company_type", "c.contact_person1", "c.contact_email1", "c.contact_phone1",
		"c.contact_person2", "c.contact_email2", "c.contact_phone2", "c.industry", "c.source",
		"c.assigned_to", "c.status", "c.approved", "c.created_by", "c.created_at",
	}
}

func customerDest(c *entity.Customer) []any {
	return []any{
		&c.ID, &c.CompanyName, &c.TaxCode, &c.GroupID, &c.Address, &c.Country, &c.Category,
		&c.CompanyType, &c.ContactPerson1, &c.ContactEmail1, &c.ContactPhone1,
		&c.ContactPerson2, &c.ContactEmail2, &c.ContactPhone2, &c.Industry, &c.Source,
		&c.AssignedTo, &c.Status, &c.Approved, &c.CreatedBy, &c.CreatedAt,
	}
}

func (r *Repository) selectCustomerViews() sq.SelectBuilder {
	cols := append(customerColumns(), "COALESCE(u.name, '')", "COALESCE(g.name, '')", "COALESCE(cb.name, '')")

	return r.sb.Select(cols...).
		From("customers c").
		LeftJoin("users u ON u.id = c.assigned_to").
		LeftJoin("customer_groups g ON g.id = c.group_id").
		LeftJoin("users cb ON cb.id = c.created_by")
}

func scanCustomerView(s scanner) (entity.CustomerView, error) {
	var v entity.CustomerView

	dest := append(customerDest(&v.Customer), &v.AssignedName, &v.GroupName, &v.CreatedByName)

	err := s.Scan(dest...)

	return v, err
}

// CreateCustomer allocates the next id for prefix and stores c in one transaction.
// notice, when set, builds the notification written together with the customer.
func (r *Repository) CreateCustomer(
	ctx context.Context, prefix string, c *entity.Customer, notice func(entity.Customer) entity.Notification,
) error {
	for attempt := 1; ; attempt++ {
		err := r.inTx(ctx, func(tx *sql.Tx) error {
			id, err := r.nextCustomerID(ctx, tx, prefix)
			if err != nil {
				return err
			}

			c.ID = id

			err = r.insertCustomer(ctx, tx, *c)
			if err != nil {
				return err
			}

			if notice != nil {
				return r.insertNotification(ctx, tx, notice(*c))
			}

			return nil
		})
		if err == nil {
			return nil
		}

		c.ID = ""

		if !errors.Is(err, entity.ErrAlreadyExists) {
			return err
		}

		if attempt == customerIDAttempts {
			return fmt.Errorf("%w: customer id allocation for prefix %s: %w", entity.ErrConflict, prefix, err)
		}
	}
}

// nextCustomerID increments the per-prefix sequence row. The upsert holds the row lock until commit,
// which serializes concurrent allocations for the same prefix. The sequence never falls behind
// ids that already exist.
func (r *Repository) nextCustomerID(ctx context.Context, q querier, prefix string) (string, error) {
	var maxID string

	err := queryRow(ctx, q, r.sb.Select("COALESCE(MAX(id), '')").From("customers").
		Where(sq.Like{"id": prefix + "%"}), &maxID)
	if err != nil {
		return "", err
	}

	var floor int64

	if len(maxID) > entity.CustomerIDPrefixLen {
		floor, err = strconv.ParseInt(maxID[entity.CustomerIDPrefixLen:], 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: parse customer id %q: %w", entity.ErrStorage, maxID, err)
		}
	}

	var next int64

	err = queryRow(ctx, q, r.sb.Insert("customer_sequences").
		Columns("prefix", "last_value").
		Values(prefix, floor+1).
		Suffix("ON CONFLICT (prefix) DO UPDATE SET last_value = customer_sequences.last_value + 1 RETURNING last_value"),
		&next)
	if err != nil {
		return "", err
	}

	if next <= floor {
		next = floor + 1

		_, err = exec(ctx, q, r.sb.Update("customer_sequences").
			Set("last_value", next).Where(sq.Eq{"prefix": prefix}))
		if err != nil {
			return "", err
		}
	}

	if next > customerIDMax {
		return "", fmt.Errorf("%w: customer ids for prefix %s are exhausted", entity.ErrConflict, prefix)
	}

	return entity.FormatCustomerID(prefix, next), nil
}

func (r *Repository) insertCustomer(ctx context.Context, q querier, c entity.Customer) error {
	_, err := exec(ctx, q, r.sb.Insert("customers").
		Columns(
			"id", "company_name", "tax_code", "group_id", "address", "country", "category",
			"company_type", "contact_person1", "contact_email1", "contact_phone1",
			"contact_person2", "contact_email2", "contact_phone2", "industry", "source",
			"assigned_to", "status", "approved", "created_by", "created_at",
		).
		Values(
			c.ID, c.CompanyName, c.TaxCode, c.GroupID, c.Address, c.Country, c.Category,
			c.CompanyType, c.ContactPerson1, c.ContactEmail1, c.ContactPhone1,
			c.ContactPerson2, c.ContactEmail2, c.ContactPhone2, c.Industry, c.Source,
			c.AssignedTo, c.Status, c.Approved, c.CreatedBy, c.CreatedAt,
		))

	return err
}

func (r *Repository) Customer(ctx context.Context, caller entity.Caller, id string) (entity.CustomerView, error) {
	views, err := queryAll(ctx, r.db,
		r.selectCustomerViews().Where(sq.Eq{"c.id": id}).Where(visibleTo(caller)),
		scanCustomerView)
	if err != nil {
		return entity.CustomerView{}, err
	}

	if len(views) == 0 {
		return entity.CustomerView{}, fmt.Errorf("%w: customer %s", entity.ErrNotFound, id)
	}

	return views[0], nil
}

func (r *Repository) Customers(ctx context.Context, caller entity.Caller, filter entity.CustomerFilter) ([]entity.CustomerView, error) {
	b := applyCustomerFilter(r.selectCustomerViews().Where(visibleTo(caller)), filter).
		OrderBy("c.created_at DESC", "c.id DESC")

	return queryAll(ctx, r.db, b, scanCustomerView)
}

func applyCustomerFilter(b sq.SelectBuilder, filter entity.CustomerFilter) sq.SelectBuilder {
	if filter.Category != "" {
		b = b.Where(sq.Eq{"c.category": filter.Category})
	}

	if filter.Country != "" {
		b = b.Where(sq.Eq{"c.country": filter.Country})
	}

	if filter.Status != "" {
		b = b.Where(sq.Eq{"c.status": filter.Status})
	}

	if filter.GroupID != "" {
		b = b.Where(sq.Eq{"c.group_id": filter.GroupID})
	}

	return b
}

func (r *Repository) PendingCustomers(ctx context.Context) ([]entity.CustomerView, error) {
	b := r.selectCustomerViews().Where(sq.Eq{"c.approved": false}).OrderBy("c.created_at", "c.id")

	return queryAll(ctx, r.db, b, scanCustomerView)
}

// customerByID reads a customer regardless of its approval state and locks it on postgres.
func (r *Repository) customerByID(ctx context.Context, q querier, id string) (entity.Customer, error) {
	var c entity.Customer

	err := queryRow(ctx, q,
		r.forUpdate(r.sb.Select(customerColumns()...).From("customers c").Where(sq.Eq{"c.id": id})),
		customerDest(&c)...)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Customer{}, fmt.Errorf("%w: customer %s", entity.ErrNotFound, id)
		}

		return entity.Customer{}, err
	}

	return c, nil
}

func (r *Repository) requireVisibleCustomer(ctx context.Context, q querier, caller entity.Caller, id string) error {
	n, err := count(ctx, q, r.sb.Select("COUNT(*)").From("customers c").
		Where(sq.Eq{"c.id": id}).Where(visibleTo(caller)))
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: customer %s", entity.ErrNotFound, id)
	}

	return nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, caller entity.Caller, id string, upd entity.CustomerUpdate) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleCustomer(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		b := r.sb.Update("customers").Where(sq.Eq{"id": id})

		if upd.CompanyName != nil {
			b = b.Set("company_name", *upd.CompanyName)
		}

		if upd.Address != nil {
			b = b.Set("address", *upd.Address)
		}

		if upd.ContactEmail1 != nil {
			b = b.Set("contact_email1", *upd.ContactEmail1)
		}

		if upd.AssignedTo != nil {
			b = b.Set("assigned_to", *upd.AssignedTo)
		}

		_, err = exec(ctx, tx, b)

		return err
	})
}

func (r *Repository) UpdateCustomerStatus(ctx context.Context, caller entity.Caller, id, status string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleCustomer(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Update("customers").Set("status", status).Where(sq.Eq{"id": id}))

		return err
	})
}

// ApproveCustomer flips a pending customer to approved, closes its approval notifications
// and notifies the creator. Approval is one-way: an approved customer yields ErrAlreadyApproved.
func (r *Repository) ApproveCustomer(ctx context.Context, id string, approverID uuid.UUID, at time.Time) (entity.Customer, error) {
	var c entity.Customer

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error

		c, err = r.customerByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if c.Approved {
			return entity.ErrAlreadyApproved
		}

		n, err := exec(ctx, tx, r.sb.Update("customers").Set("approved", true).
			Where(sq.Eq{"id": id, "approved": false}))
		if err != nil {
			return err
		}

		if n == 0 {
			return entity.ErrAlreadyApproved
		}

		c.Approved = true

		_, err = exec(ctx, tx, r.sb.Update("notifications").Set("read", true).
			Where(sq.Eq{"related_id": id, "type": entity.NotificationCustomerApproval}))
		if err != nil {
			return err
		}

		if c.CreatedBy != nil && *c.CreatedBy != approverID {
			return r.insertNotification(ctx, tx, entity.CustomerApprovedNotification(c, at))
		}

		return nil
	})
	if err != nil {
		return entity.Customer{}, err
	}

	return c, nil
}

// RejectCustomer hard deletes a pending customer together with everything that references it.
func (r *Repository) RejectCustomer(ctx context.Context, id string) (entity.CascadeResult, error) {
	var res entity.CascadeResult

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		c, err := r.customerByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if c.Approved {
			return entity.ErrNotPending
		}

		res, err = r.deleteCustomerTx(ctx, tx, id)

		return err
	})
	if err != nil {
		return entity.CascadeResult{}, err
	}

	return res, nil
}
