package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) CreatePayment(ctx context.Context, caller entity.Caller, p entity.Payment) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleService(ctx, tx, caller, p.ServiceID)
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Insert("payments").
			Columns("id", "service_id", "currency", "original_amount", "exchange_rate", "converted_amount",
				"deposit", "deposit_date", "first_payment", "first_payment_date",
				"second_payment", "second_payment_date", "notes", "created_at").
			Values(p.ID, p.ServiceID, p.Currency, p.OriginalAmount, p.ExchangeRate, p.ConvertedAmount,
				p.Deposit, p.DepositDate, p.FirstPayment, p.FirstPaymentDate,
				p.SecondPayment, p.SecondPaymentDate, p.Notes, p.CreatedAt))

		return err
	})
}

func (r *Repository) selectPaymentViews() sq.SelectBuilder {
	return r.sb.Select(
		"p.id", "p.service_id", "p.currency", "p.original_amount", "p.exchange_rate", "p.converted_amount",
		"p.deposit", "p.deposit_date", "p.first_payment", "p.first_payment_date",
		"p.second_payment", "p.second_payment_date", "p.notes", "p.created_at",
		"c.id", "c.company_name", "s.type",
	).
		From("payments p").
		Join("services s ON s.id = p.service_id").
		Join("customers c ON c.id = s.customer_id")
}

func scanPaymentView(s scanner) (entity.PaymentView, error) {
	var (
		p                                     entity.Payment
		customerID, companyName, serviceType string
	)

	err := s.Scan(&p.ID, &p.ServiceID, &p.Currency, &p.OriginalAmount, &p.ExchangeRate, &p.ConvertedAmount,
		&p.Deposit, &p.DepositDate, &p.FirstPayment, &p.FirstPaymentDate,
		&p.SecondPayment, &p.SecondPaymentDate, &p.Notes, &p.CreatedAt,
		&customerID, &companyName, &serviceType)
	if err != nil {
		return entity.PaymentView{}, err
	}

	return entity.NewPaymentView(p, customerID, companyName, serviceType), nil
}

func (r *Repository) Payments(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.PaymentView, error) {
	b := r.selectPaymentViews().Where(visibleTo(caller)).OrderBy("p.created_at DESC", "p.id")

	if serviceID != nil {
		b = b.Where(sq.Eq{"p.service_id": *serviceID})
	}

	return queryAll(ctx, r.db, b, scanPaymentView)
}

func (r *Repository) Payment(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.PaymentView, error) {
	return r.payment(ctx, r.db, caller, id)
}

func (r *Repository) payment(ctx context.Context, q querier, caller entity.Caller, id uuid.UUID) (entity.PaymentView, error) {
	views, err := queryAll(ctx, q, r.selectPaymentViews().Where(sq.Eq{"p.id": id}).Where(visibleTo(caller)), scanPaymentView)
	if err != nil {
		return entity.PaymentView{}, err
	}

	if len(views) == 0 {
		return entity.PaymentView{}, fmt.Errorf("%w: payment %s", entity.ErrNotFound, id)
	}

	return views[0], nil
}

// UpdatePayment records the first and second instalments. Totals are not capped by the converted amount.
func (r *Repository) UpdatePayment(
	ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.PaymentUpdate,
) (entity.PaymentView, error) {
	var view entity.PaymentView

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.payment(ctx, tx, caller, id)
		if err != nil {
			return err
		}

		b := r.sb.Update("payments").Where(sq.Eq{"id": id})
		changed := false

		if upd.FirstPayment != nil {
			b, changed = b.Set("first_payment", *upd.FirstPayment), true
		}

		if upd.FirstPaymentDate != nil {
			b, changed = b.Set("first_payment_date", *upd.FirstPaymentDate), true
		}

		if upd.SecondPayment != nil {
			b, changed = b.Set("second_payment", *upd.SecondPayment), true
		}

		if upd.SecondPaymentDate != nil {
			b, changed = b.Set("second_payment_date", *upd.SecondPaymentDate), true
		}

		if upd.Notes != nil {
			b, changed = b.Set("notes", *upd.Notes), true
		}

		if changed {
			_, err = exec(ctx, tx, b)
			if err != nil {
				return err
			}
		}

		view, err = r.payment(ctx, tx, caller, id)

		return err
	})
	if err != nil {
		return entity.PaymentView{}, err
	}

	return view, nil
}
