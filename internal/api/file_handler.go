package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/samandr77/crm/internal/entity"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

// UploadDocumentFile stores the file of a visible document, replacing the previous one
// @Summary Upload document file
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document id"
// @Param file formData file true "Document file"
// @Success 201 {object} entity.DocumentFile
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Document not found"
// @Failure 409 {object} ErrorResponse "File storage is not configured"
// @Failure 500 {object} ErrorResponse "Failed to upload file"
// @Router /documents/{id}/file [post]
// @Security BearerAuth
func (h *Handler) UploadDocumentFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to upload file")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		SendErr(ctx, w, err, "Failed to upload file")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.s.MaxFileSize()+multipartOverhead)

	err = r.ParseMultipartForm(multipartMemory)
	if err != nil {
		SendErr(ctx, w, fmt.Errorf("%w: invalid multipart form: %w", entity.ErrValidation, err), "Failed to upload file")
		return
	}

	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		SendErr(ctx, w, fmt.Errorf("%w: file field is required", entity.ErrValidation), "Failed to upload file")
		return
	}
	defer file.Close()

	f, err := h.s.AttachDocumentFile(ctx, caller, id, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		SendErr(ctx, w, err, "Failed to upload file")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, f)
}

type DocumentFileResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentFile returns a temporary download link for the file of a visible document
// @Summary Document file link
// @Tags documents
// @Produce json
// @Param id path string true "Document id"
// @Success 200 {object} DocumentFileResponse
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 404 {object} ErrorResponse "Document or file not found"
// @Failure 409 {object} ErrorResponse "File storage is not configured"
// @Failure 500 {object} ErrorResponse "Failed to get file"
// @Router /documents/{id}/file [get]
// @Security BearerAuth
func (h *Handler) DocumentFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to get file")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		SendErr(ctx, w, err, "Failed to get file")
		return
	}

	link, expiresAt, err := h.s.DocumentFileURL(ctx, caller, id)
	if err != nil {
		SendErr(ctx, w, err, "Failed to get file")
		return
	}

	SendJSON(ctx, w, http.StatusOK, DocumentFileResponse{URL: link, ExpiresAt: expiresAt})
}
