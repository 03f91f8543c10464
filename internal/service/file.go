package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

// MaxFileSize is the largest document file accepted by AttachDocumentFile.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// AttachDocumentFile uploads the file of a visible document, replacing any earlier one.
// The object is written before the row; a failed row update removes the new object again.
func (s *Service) AttachDocumentFile(
	ctx context.Context,
	caller entity.Caller,
	id uuid.UUID,
	name, contentType string,
	size int64,
	body io.ReadSeeker,
) (entity.DocumentFile, error) {
	if s.storage == nil {
		return entity.DocumentFile{}, entity.ErrFilesDisabled
	}

	name = path.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return entity.DocumentFile{}, entity.ValidationError("file name is required")
	}

	if size <= 0 {
		return entity.DocumentFile{}, entity.ValidationError("file is empty")
	}

	if size > s.opts.MaxFileSize {
		return entity.DocumentFile{}, entity.ValidationError("file exceeds %d bytes", s.opts.MaxFileSize)
	}

	doc, err := s.repo.Document(ctx, caller, id)
	if err != nil {
		return entity.DocumentFile{}, fmt.Errorf("get document %s: %w", id, err)
	}

	f := entity.DocumentFile{
		Key:         fmt.Sprintf("documents/%s/%s/%s", doc.CustomerID, id, uuid.Must(uuid.NewV7())),
		Name:        name,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  s.now(),
	}

	err = s.storage.Put(ctx, f.Key, body, size, contentType)
	if err != nil {
		return entity.DocumentFile{}, fmt.Errorf("%w: upload file: %w", entity.ErrStorage, err)
	}

	prev, err := s.repo.SetDocumentFile(ctx, caller, id, f)
	if err != nil {
		s.removeFiles(ctx, []string{f.Key})
		return entity.DocumentFile{}, fmt.Errorf("set document %s file: %w", id, err)
	}

	if prev != "" {
		s.removeFiles(ctx, []string{prev})
	}

	slog.InfoContext(ctx, fmt.Sprintf("file %q attached to document %s by %s", name, id, caller.Name), "size", size)

	return f, nil
}

// DocumentFileURL returns a temporary download link for the file of a visible document.
func (s *Service) DocumentFileURL(ctx context.Context, caller entity.Caller, id uuid.UUID) (string, time.Time, error) {
	if s.storage == nil {
		return "", time.Time{}, entity.ErrFilesDisabled
	}

	doc, err := s.repo.Document(ctx, caller, id)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("get document %s: %w", id, err)
	}

	if doc.File == nil {
		return "", time.Time{}, entity.ErrNoFile
	}

	link, expiresAt, err := s.storage.URL(ctx, doc.File.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: sign file url: %w", entity.ErrStorage, err)
	}

	return link, expiresAt, nil
}

// removeFiles is best effort. Objects it fails to delete are only logged.
func (s *Service) removeFiles(ctx context.Context, keys []string) {
	if s.storage == nil || len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.DeliveryTimeout)
	defer cancel()

	for _, key := range keys {
		err := s.storage.Delete(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, fmt.Sprintf("delete file %s: %s", key, err))
		}
	}
}
