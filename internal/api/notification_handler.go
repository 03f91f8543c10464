package api

import (
	"net/http"

	"github.com/gofrs/uuid/v5"
)

// Notifications lists the caller's notifications, newest first
// @Summary List notifications
// @Description Admins also see broadcasts
// @Tags notifications
// @Produce json
// @Success 200 {array} entity.Notification
// @Failure 500 {object} ErrorResponse "Failed to list notifications"
// @Router /notifications [get]
// @Security BearerAuth
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list notifications")
		return
	}

	list, err := h.s.Notifications(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list notifications")
		return
	}

	SendJSON(ctx, w, http.StatusOK, list)
}

type NotifyRequest struct {
	UserID    *uuid.UUID `json:"userId"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	RelatedID *string    `json:"relatedId"`
}

// Notify posts a notification to a user, or to every admin when userId is empty
// @Summary Send notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param NotifyRequest body NotifyRequest true "Notification"
// @Success 201 {object} entity.Notification
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Failed to send notification"
// @Router /notifications [post]
// @Security BearerAuth
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req NotifyRequest

	err := decodeJSON(r, &req)
	if err != nil {
		SendErr(ctx, w, err, "Failed to send notification")
		return
	}

	n, err := h.s.Notify(ctx, req.UserID, req.Message, req.Type, req.RelatedID)
	if err != nil {
		SendErr(ctx, w, err, "Failed to send notification")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, n)
}

// MarkNotificationRead marks one of the caller's notifications read
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification id"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 404 {object} ErrorResponse "Notification not found"
// @Failure 500 {object} ErrorResponse "Failed to mark notification"
// @Router /notifications/{id}/read [post]
// @Security BearerAuth
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to mark notification")
		return
	}

	id, err := uuidParam(r, "id")
	if err == nil {
		err = h.s.MarkNotificationRead(ctx, caller, id)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to mark notification")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// MarkAllNotificationsRead marks every unread notification of the caller read
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} MarkAllReadResponse
// @Failure 500 {object} ErrorResponse "Failed to mark notifications"
// @Router /notifications/read-all [post]
// @Security BearerAuth
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to mark notifications")
		return
	}

	n, err := h.s.MarkAllNotificationsRead(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to mark notifications")
		return
	}

	SendJSON(ctx, w, http.StatusOK, MarkAllReadResponse{Updated: n})
}

type UnreadResponse struct {
	Unread int `json:"unread"`
}

// UnreadNotifications counts the caller's unread notifications
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} UnreadResponse
// @Failure 500 {object} ErrorResponse "Failed to count notifications"
// @Router /notifications/unread [get]
// @Security BearerAuth
func (h *Handler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to count notifications")
		return
	}

	n, err := h.s.UnreadNotifications(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to count notifications")
		return
	}

	SendJSON(ctx, w, http.StatusOK, UnreadResponse{Unread: n})
}
