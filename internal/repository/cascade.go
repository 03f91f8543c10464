package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/samandr77/crm/internal/entity"
)

// DeleteCustomer removes a customer and every dependent row in one transaction.
func (r *Repository) DeleteCustomer(ctx context.Context, id string) (entity.CascadeResult, error) {
	var res entity.CascadeResult

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.customerByID(ctx, tx, id)
		if err != nil {
			return err
		}

		res, err = r.deleteCustomerTx(ctx, tx, id)

		return err
	})
	if err != nil {
		return entity.CascadeResult{}, err
	}

	return res, nil
}

// deleteCustomerTx deletes children before parents so that foreign keys hold after every statement:
// tasks and payments of the customer's services, documents, meeting notifications, meetings,
// services, the customer's own notifications, and finally the customer. The file keys of the
// removed documents are collected first.
func (r *Repository) deleteCustomerTx(ctx context.Context, tx *sql.Tx, id string) (entity.CascadeResult, error) {
	var res entity.CascadeResult

	keys, err := queryAll(ctx, tx, r.sb.Select("file_key").From("documents").
		Where(sq.And{sq.Eq{"customer_id": id}, sq.NotEq{"file_key": ""}}), func(s scanner) (string, error) {
		var key string
		err := s.Scan(&key)

		return key, err
	})
	if err != nil {
		return entity.CascadeResult{}, err
	}

	res.FileKeys = keys

	customerServices := sq.Expr("service_id IN (SELECT id FROM services WHERE customer_id = ?)", id)

	steps := []struct {
		stmt sq.Sqlizer
		dst  *int64
	}{
		{r.sb.Delete("work_tasks").Where(customerServices), &res.Tasks},
		{r.sb.Delete("payments").Where(customerServices), &res.Payments},
		{r.sb.Delete("documents").Where(sq.Eq{"customer_id": id}), &res.Documents},
		{r.sb.Delete("notifications").
			Where(sq.Expr("related_id IN (SELECT CAST(id AS TEXT) FROM meetings WHERE customer_id = ?)", id)),
			&res.Notifications},
		{r.sb.Delete("meetings").Where(sq.Eq{"customer_id": id}), &res.Meetings},
		{r.sb.Delete("services").Where(sq.Eq{"customer_id": id}), &res.Services},
		{r.sb.Delete("notifications").Where(sq.Eq{"related_id": id}), &res.Notifications},
		{r.sb.Delete("customers").Where(sq.Eq{"id": id}), &res.Customers},
	}

	for _, step := range steps {
		n, err := exec(ctx, tx, step.stmt)
		if err != nil {
			return entity.CascadeResult{}, err
		}

		*step.dst += n
	}

	return res, nil
}
