package api

import (
	"net/http"
	"time"

	"github.com/samandr77/crm/internal/entity"
)

type CreateMeetingRequest struct {
	CustomerID  string    `json:"customerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Attendees   []string  `json:"attendees"`
}

// CreateMeeting schedules a meeting with a visible customer
// @Summary Create meeting
// @Description Meetings created by an employee stay pending until an admin approves them
// @Tags meetings
// @Accept json
// @Produce json
// @Param CreateMeetingRequest body CreateMeetingRequest true "Meeting"
// @Success 201 {object} entity.Meeting
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to create meeting"
// @Router /meetings [post]
// @Security BearerAuth
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateMeetingRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create meeting")
		return
	}

	m, err := h.s.CreateMeeting(ctx, caller, entity.Meeting{
		CustomerID:  req.CustomerID,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Attendees:   req.Attendees,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create meeting")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, m)
}

// Meetings lists approved meetings of visible customers
// @Summary List meetings
// @Tags meetings
// @Produce json
// @Param customerId query string false "Customer id"
// @Success 200 {array} entity.MeetingView
// @Failure 500 {object} ErrorResponse "Failed to list meetings"
// @Router /meetings [get]
// @Security BearerAuth
func (h *Handler) Meetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list meetings")
		return
	}

	meetings, err := h.s.Meetings(ctx, caller, r.URL.Query().Get("customerId"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to list meetings")
		return
	}

	SendJSON(ctx, w, http.StatusOK, meetings)
}

// PendingMeetings lists meetings waiting for approval
// @Summary List pending meetings
// @Tags meetings
// @Produce json
// @Success 200 {array} entity.MeetingView
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 500 {object} ErrorResponse "Failed to list pending meetings"
// @Router /meetings/pending [get]
// @Security BearerAuth
func (h *Handler) PendingMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list pending meetings")
		return
	}

	meetings, err := h.s.PendingMeetings(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list pending meetings")
		return
	}

	SendJSON(ctx, w, http.StatusOK, meetings)
}

type ApproveMeetingResponse struct {
	Meeting  entity.Meeting  `json:"meeting"`
	Delivery entity.Delivery `json:"creatorMail"`
}

// ApproveMeeting makes a pending meeting visible and books it in the calendar
// @Summary Approve meeting
// @Description Admin only. The calendar event and the creator e-mail are best effort
// @Tags meetings
// @Produce json
// @Param id path string true "Meeting id"
// @Success 200 {object} ApproveMeetingResponse
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Meeting not found"
// @Failure 409 {object} ErrorResponse "Already approved"
// @Failure 500 {object} ErrorResponse "Failed to approve meeting"
// @Router /meetings/{id}/approve [post]
// @Security BearerAuth
func (h *Handler) ApproveMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to approve meeting")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		SendErr(ctx, w, err, "Failed to approve meeting")
		return
	}

	m, delivery, err := h.s.ApproveMeeting(ctx, caller, id)
	if err != nil {
		SendErr(ctx, w, err, "Failed to approve meeting")
		return
	}

	SendJSON(ctx, w, http.StatusOK, ApproveMeetingResponse{Meeting: m, Delivery: delivery})
}

// RejectMeeting deletes a pending meeting
// @Summary Reject meeting
// @Tags meetings
// @Param id path string true "Meeting id"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Meeting not found"
// @Failure 409 {object} ErrorResponse "Meeting is not pending"
// @Failure 500 {object} ErrorResponse "Failed to reject meeting"
// @Router /meetings/{id}/reject [post]
// @Security BearerAuth
func (h *Handler) RejectMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to reject meeting")
		return
	}

	id, err := uuidParam(r, "id")
	if err == nil {
		err = h.s.RejectMeeting(ctx, caller, id)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to reject meeting")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
