package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/samandr77/crm/internal/entity"
)

type counter struct {
	dst *int
	b   sq.SelectBuilder
}

// Dashboard counts what the caller can see. Pending counters are filled for admins only.
func (r *Repository) Dashboard(ctx context.Context, caller entity.Caller, now time.Time) (entity.Dashboard, error) {
	d := entity.Dashboard{
		TasksByStatus:       make(map[entity.TaskStatus]int),
		CustomersByCountry:  make(map[string]int),
		CustomersByCategory: make(map[entity.Category]int),
	}

	visible := visibleTo(caller)

	tasks := r.sb.Select("COUNT(*)").From("work_tasks t").
		Join("services s ON s.id = t.service_id").
		Join("customers c ON c.id = s.customer_id").
		Where(visible)

	counters := []counter{
		{&d.Customers, r.sb.Select("COUNT(*)").From("customers c").Where(visible)},
		{&d.Services, r.sb.Select("COUNT(*)").From("services s").
			Join("customers c ON c.id = s.customer_id").Where(visible)},
		{&d.Tasks, tasks},
		{&d.OverdueTasks, tasks.Where(sq.Lt{"t.end_date": now.UTC()}).Where(sq.NotEq{"t.status": entity.TaskDone})},
		{&d.Payments, r.sb.Select("COUNT(*)").From("payments p").
			Join("services s ON s.id = p.service_id").
			Join("customers c ON c.id = s.customer_id").Where(visible)},
		{&d.Documents, r.sb.Select("COUNT(*)").From("documents d").
			Join("customers c ON c.id = d.customer_id").Where(visible)},
		{&d.Meetings, r.sb.Select("COUNT(*)").From("meetings m").
			Join("customers c ON c.id = m.customer_id").Where(visible).Where(sq.Eq{"m.approved": true})},
		{&d.UnreadNotifications, r.sb.Select("COUNT(*)").From("notifications").
			Where(sq.Eq{"read": false}).Where(notificationsOf(caller))},
	}

	if caller.IsAdmin() {
		counters = append(counters,
			counter{&d.PendingCustomers, r.sb.Select("COUNT(*)").From("customers").Where(sq.Eq{"approved": false})},
			counter{&d.PendingMeetings, r.sb.Select("COUNT(*)").From("meetings").Where(sq.Eq{"approved": false})},
		)
	}

	for _, c := range counters {
		n, err := count(ctx, r.db, c.b)
		if err != nil {
			return entity.Dashboard{}, err
		}

		*c.dst = n
	}

	customers := r.sb.Select().From("customers c").Where(visible)

	err := groupCount(ctx, r.db, tasks.RemoveColumns().Columns("t.status", "COUNT(*)").GroupBy("t.status"),
		d.TasksByStatus)
	if err != nil {
		return entity.Dashboard{}, err
	}

	err = groupCount(ctx, r.db, customers.Columns("c.country", "COUNT(*)").GroupBy("c.country"),
		d.CustomersByCountry)
	if err != nil {
		return entity.Dashboard{}, err
	}

	err = groupCount(ctx, r.db, customers.Columns("c.category", "COUNT(*)").GroupBy("c.category"),
		d.CustomersByCategory)
	if err != nil {
		return entity.Dashboard{}, err
	}

	err = queryRow(ctx, r.db,
		tasks.RemoveColumns().Columns("CAST(COALESCE(AVG(t.progress), 0) AS DOUBLE PRECISION)"),
		&d.AverageTaskProgress)
	if err != nil {
		return entity.Dashboard{}, err
	}

	return d, nil
}

// groupCount fills dst from a "key, COUNT(*)" query.
func groupCount[K ~string](ctx context.Context, q querier, b sq.SelectBuilder, dst map[K]int) error {
	type row struct {
		key K
		n   int
	}

	rows, err := queryAll(ctx, q, b, func(s scanner) (row, error) {
		var r row
		err := s.Scan(&r.key, &r.n)

		return r, err
	})
	if err != nil {
		return err
	}

	for _, r := range rows {
		dst[r.key] = r.n
	}

	return nil
}
