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

func (r *Repository) CreateDocument(ctx context.Context, caller entity.Caller, d entity.Document) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.requireVisibleCustomer(ctx, tx, caller, d.CustomerID)
		if err != nil {
			return err
		}

		if d.ServiceID != nil {
			n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("services").
				Where(sq.Eq{"id": *d.ServiceID, "customer_id": d.CustomerID}))
			if err != nil {
				return err
			}

			if n == 0 {
				return fmt.Errorf("%w: service %s of customer %s", entity.ErrNotFound, d.ServiceID, d.CustomerID)
			}
		}

		_, err = exec(ctx, tx, r.sb.Insert("documents").
			Columns("id", "customer_id", "service_id", "type", "name", "responsible_id", "status", "notes", "created_at").
			Values(d.ID, d.CustomerID, d.ServiceID, d.Type, d.Name, d.ResponsibleID, d.Status, d.Notes, d.CreatedAt))

		return err
	})
}

func (r *Repository) documentsQuery(caller entity.Caller) sq.SelectBuilder {
	return r.sb.Select(
		"d.id", "d.customer_id", "d.service_id", "d.type", "d.name", "d.responsible_id", "d.status", "d.notes", "d.created_at",
		"d.file_key", "d.file_name", "d.file_content_type", "d.file_size", "d.file_uploaded_at",
		"c.company_name", "COALESCE(s.type, '')", "COALESCE(u.name, '')",
	).
		From("documents d").
		Join("customers c ON c.id = d.customer_id").
		LeftJoin("services s ON s.id = d.service_id").
		LeftJoin("users u ON u.id = d.responsible_id").
		Where(visibleTo(caller))
}

func scanDocument(s scanner) (entity.DocumentView, error) {
	var (
		v          entity.DocumentView
		f          entity.DocumentFile
		uploadedAt sql.NullTime
	)

	err := s.Scan(&v.ID, &v.CustomerID, &v.ServiceID, &v.Type, &v.Name, &v.ResponsibleID, &v.Status, &v.Notes,
		&v.CreatedAt, &f.Key, &f.Name, &f.ContentType, &f.Size, &uploadedAt,
		&v.CompanyName, &v.ServiceType, &v.ResponsibleName)
	if err != nil {
		return entity.DocumentView{}, err
	}

	if f.Key != "" {
		f.UploadedAt = uploadedAt.Time
		v.File = &f
	}

	return v, nil
}

func (r *Repository) Documents(ctx context.Context, caller entity.Caller, customerID string) ([]entity.DocumentView, error) {
	b := r.documentsQuery(caller).OrderBy("d.created_at DESC", "d.id")

	if customerID != "" {
		b = b.Where(sq.Eq{"d.customer_id": customerID})
	}

	return queryAll(ctx, r.db, b, scanDocument)
}

func (r *Repository) Document(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.DocumentView, error) {
	list, err := queryAll(ctx, r.db, r.documentsQuery(caller).Where(sq.Eq{"d.id": id}), scanDocument)
	if err != nil {
		return entity.DocumentView{}, err
	}

	if len(list) == 0 {
		return entity.DocumentView{}, fmt.Errorf("%w: document %s", entity.ErrNotFound, id)
	}

	return list[0], nil
}

// SetDocumentFile records the uploaded file of a visible document and returns the key it replaced.
func (r *Repository) SetDocumentFile(ctx context.Context, caller entity.Caller, id uuid.UUID, f entity.DocumentFile) (string, error) {
	var prev string

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := queryRow(ctx, tx, r.forUpdate(r.sb.Select("d.file_key").From("documents d").
			Join("customers c ON c.id = d.customer_id").
			Where(sq.Eq{"d.id": id}).Where(visibleTo(caller))), &prev)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return fmt.Errorf("%w: document %s", entity.ErrNotFound, id)
			}

			return err
		}

		_, err = exec(ctx, tx, r.sb.Update("documents").SetMap(map[string]any{
			"file_key":          f.Key,
			"file_name":         f.Name,
			"file_content_type": f.ContentType,
			"file_size":         f.Size,
			"file_uploaded_at":  f.UploadedAt.UTC(),
		}).Where(sq.Eq{"id": id}))

		return err
	})
	if err != nil {
		return "", err
	}

	return prev, nil
}

func (r *Repository) UpdateDocumentStatus(ctx context.Context, caller entity.Caller, id uuid.UUID, status string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		n, err := count(ctx, tx, r.sb.Select("COUNT(*)").From("documents d").
			Join("customers c ON c.id = d.customer_id").
			Where(sq.Eq{"d.id": id}).Where(visibleTo(caller)))
		if err != nil {
			return err
		}

		if n == 0 {
			return fmt.Errorf("%w: document %s", entity.ErrNotFound, id)
		}

		_, err = exec(ctx, tx, r.sb.Update("documents").Set("status", status).Where(sq.Eq{"id": id}))

		return err
	})
}
