package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

func (r *Repository) CreateTask(ctx context.Context, caller entity.Caller, t entity.WorkTask) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleService(ctx, tx, caller, t.ServiceID)
		if err != nil {
			return err
		}

		_, err = exec(ctx, tx, r.sb.Insert("work_tasks").
			Columns("id", "service_id", "name", "description", "start_date", "end_date",
				"status", "progress", "notes", "last_updated", "updated_by").
			Values(t.ID, t.ServiceID, t.Name, t.Description, t.StartDate, t.EndDate,
				t.Status, t.Progress, t.Notes, t.LastUpdated, t.UpdatedBy))

		return err
	})
}

func (r *Repository) selectTaskViews() sq.SelectBuilder {
	return r.sb.Select(
		"t.id", "t.service_id", "t.name", "t.description", "t.start_date", "t.end_date",
		"t.status", "t.progress", "t.notes", "t.last_updated", "t.updated_by",
		"s.type", "c.id", "c.company_name", "COALESCE(u.name, '')",
	).
		From("work_tasks t").
		Join("services s ON s.id = t.service_id").
		Join("customers c ON c.id = s.customer_id").
		LeftJoin("users u ON u.id = t.updated_by")
}

func scanTaskView(s scanner) (entity.TaskView, error) {
	var v entity.TaskView

	err := s.Scan(&v.ID, &v.ServiceID, &v.Name, &v.Description, &v.StartDate, &v.EndDate,
		&v.Status, &v.Progress, &v.Notes, &v.LastUpdated, &v.UpdatedBy,
		&v.ServiceType, &v.CustomerID, &v.CompanyName, &v.UpdatedByName)

	return v, err
}

func (r *Repository) Tasks(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.TaskView, error) {
	b := r.selectTaskViews().Where(visibleTo(caller)).OrderBy("t.end_date", "t.name", "t.id")

	if serviceID != nil {
		b = b.Where(sq.Eq{"t.service_id": *serviceID})
	}

	return queryAll(ctx, r.db, b, scanTaskView)
}

func (r *Repository) Task(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.TaskView, error) {
	views, err := queryAll(ctx, r.db, r.selectTaskViews().Where(sq.Eq{"t.id": id}).Where(visibleTo(caller)), scanTaskView)
	if err != nil {
		return entity.TaskView{}, err
	}

	if len(views) == 0 {
		return entity.TaskView{}, fmt.Errorf("%w: task %s", entity.ErrNotFound, id)
	}

	return views[0], nil
}

// UpdateTask applies the set fields and stamps the task with the editor and time.
func (r *Repository) UpdateTask(
	ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.TaskUpdate, at time.Time,
) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("work_tasks t").
			Join("services s ON s.id = t.service_id").
			Join("customers c ON c.id = s.customer_id").
			Where(sq.Eq{"t.id": id}).Where(visibleTo(caller)))
		if err != nil {
			return err
		}

		if n == 0 {
			return fmt.Errorf("%w: task %s", entity.ErrNotFound, id)
		}

		b := r.sb.Update("work_tasks").
			Set("last_updated", at).
			Set("updated_by", caller.UserRef()).
			Where(sq.Eq{"id": id})

		if upd.Status != nil {
			b = b.Set("status", *upd.Status)
		}

		if upd.Progress != nil {
			b = b.Set("progress", *upd.Progress)
		}

		if upd.Notes != nil {
			b = b.Set("notes", *upd.Notes)
		}

		_, err = exec(ctx, tx, b)

		return err
	})
}
