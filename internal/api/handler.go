package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

// @title CRM API
// @version 1.0
// @description Approval-gated CRM: customers, services, tasks, payments, documents, meetings and notifications
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type Service interface {
	Authenticate(ctx context.Context, email, secret string) (entity.User, error)
	CreateUser(ctx context.Context, caller entity.Caller, nu entity.NewUser) (entity.User, entity.Delivery, error)
	Users(ctx context.Context, caller entity.Caller) ([]entity.UserSummary, error)
	User(ctx context.Context, id uuid.UUID) (entity.User, error)
	DeleteUser(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.UserDeletion, error)

	Groups(ctx context.Context) ([]entity.CustomerGroup, error)
	CreateGroup(ctx context.Context, caller entity.Caller, g entity.CustomerGroup) (entity.CustomerGroup, error)

	CreateCustomer(ctx context.Context, caller entity.Caller, c entity.Customer) (entity.Customer, error)
	Customer(ctx context.Context, caller entity.Caller, id string) (entity.CustomerView, error)
	Customers(ctx context.Context, caller entity.Caller, filter entity.CustomerFilter) ([]entity.CustomerView, error)
	PendingCustomers(ctx context.Context, caller entity.Caller) ([]entity.CustomerView, error)
	UpdateCustomer(ctx context.Context, caller entity.Caller, id string, upd entity.CustomerUpdate) error
	UpdateCustomerStatus(ctx context.Context, caller entity.Caller, id, status string) error
	ApproveCustomer(ctx context.Context, caller entity.Caller, id string) (entity.Customer, entity.Delivery, error)
	RejectCustomer(ctx context.Context, caller entity.Caller, id string) (entity.CascadeResult, error)
	DeleteCustomer(ctx context.Context, caller entity.Caller, id string) (entity.CascadeResult, error)

	CreateService(ctx context.Context, caller entity.Caller, svc entity.Service) (entity.Service, error)
	Services(ctx context.Context, caller entity.Caller, customerID string) ([]entity.ServiceView, error)
	CreateTask(ctx context.Context, caller entity.Caller, t entity.WorkTask) (entity.WorkTask, error)
	Tasks(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.TaskView, error)
	UpdateTask(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.TaskUpdate) (entity.TaskView, error)
	CreatePayment(ctx context.Context, caller entity.Caller, p entity.Payment) (entity.PaymentView, error)
	Payments(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.PaymentView, error)
	UpdatePayment(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.PaymentUpdate) (entity.PaymentView, error)
	CreateDocument(ctx context.Context, caller entity.Caller, d entity.Document) (entity.Document, error)
	Documents(ctx context.Context, caller entity.Caller, customerID string) ([]entity.DocumentView, error)
	UpdateDocumentStatus(ctx context.Context, caller entity.Caller, id uuid.UUID, status string) error
	AttachDocumentFile(
		ctx context.Context, caller entity.Caller, id uuid.UUID, name, contentType string, size int64, body io.ReadSeeker,
	) (entity.DocumentFile, error)
	DocumentFileURL(ctx context.Context, caller entity.Caller, id uuid.UUID) (string, time.Time, error)
	MaxFileSize() int64

	CreateMeeting(ctx context.Context, caller entity.Caller, m entity.Meeting) (entity.Meeting, error)
	Meetings(ctx context.Context, caller entity.Caller, customerID string) ([]entity.MeetingView, error)
	PendingMeetings(ctx context.Context, caller entity.Caller) ([]entity.MeetingView, error)
	ApproveMeeting(ctx context.Context, caller entity.Caller, id uuid.UUID) (entity.Meeting, entity.Delivery, error)
	RejectMeeting(ctx context.Context, caller entity.Caller, id uuid.UUID) error

	Notify(ctx context.Context, target *uuid.UUID, message, typ string, relatedID *string) (entity.Notification, error)
	Notifications(ctx context.Context, caller entity.Caller) ([]entity.Notification, error)
	MarkNotificationRead(ctx context.Context, caller entity.Caller, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, caller entity.Caller) (int64, error)
	UnreadNotifications(ctx context.Context, caller entity.Caller) (int, error)
	Dashboard(ctx context.Context, caller entity.Caller) (entity.Dashboard, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID, role string) (string, time.Time, error)
}

type Handler struct {
	s      Service
	tokens TokenIssuer
}

func NewHandler(s Service, tokens TokenIssuer) *Handler {
	return &Handler{
		s:      s,
		tokens: tokens,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports that the server is up
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	SendJSON(r.Context(), w, http.StatusOK, HealthResponse{Status: "ok"})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      entity.User `json:"user"`
}

// Login exchanges credentials for a session token
// @Summary Log in
// @Description Unknown e-mail and wrong password produce the same answer
// @Tags auth
// @Accept json
// @Produce json
// @Param LoginRequest body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Invalid JSON"
// @Failure 401 {object} ErrorResponse "Authentication failed"
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Failure 500 {object} ErrorResponse "Failed to log in"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest

	err := decodeJSON(r, &req)
	if err != nil {
		SendErr(ctx, w, err, "Failed to log in")
		return
	}

	user, err := h.s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		SendErr(ctx, w, err, "Failed to log in")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Failed to log in")
		return
	}

	SendJSON(ctx, w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} entity.User
// @Failure 401 {object} ErrorResponse "Authentication failed"
// @Router /auth/me [get]
// @Security BearerAuth
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to load user")
		return
	}

	user, err := h.s.User(ctx, caller.ID)
	if err != nil {
		SendErr(ctx, w, err, "Failed to load user")
		return
	}

	SendJSON(ctx, w, http.StatusOK, user)
}

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     entity.Role `json:"role"`
	Name     string      `json:"name"`
}

type CreateUserResponse struct {
	User     entity.User     `json:"user"`
	Delivery entity.Delivery `json:"welcomeMail"`
}

// CreateUser registers an account
// @Summary Create user
// @Description Admin only. A welcome e-mail is sent best effort, its outcome is reported in welcomeMail
// @Tags users
// @Accept json
// @Produce json
// @Param CreateUserRequest body CreateUserRequest true "New user"
// @Success 201 {object} CreateUserResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 409 {object} ErrorResponse "E-mail already registered"
// @Failure 500 {object} ErrorResponse "Failed to create user"
// @Router /users [post]
// @Security BearerAuth
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create user")
		return
	}

	user, delivery, err := h.s.CreateUser(ctx, caller, entity.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Name:     req.Name,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create user")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, CreateUserResponse{User: user, Delivery: delivery})
}

// Users lists accounts with their assigned customer counts
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} entity.UserSummary
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 500 {object} ErrorResponse "Failed to list users"
// @Router /users [get]
// @Security BearerAuth
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list users")
		return
	}

	users, err := h.s.Users(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list users")
		return
	}

	SendJSON(ctx, w, http.StatusOK, users)
}

// DeleteUser removes an account and detaches its records
// @Summary Delete user
// @Description Admin only. Customers, tasks and documents are unassigned, never deleted
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} entity.UserDeletion
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 409 {object} ErrorResponse "Last admin or self deletion"
// @Failure 500 {object} ErrorResponse "Failed to delete user"
// @Router /users/{id} [delete]
// @Security BearerAuth
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to delete user")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		SendErr(ctx, w, err, "Failed to delete user")
		return
	}

	res, err := h.s.DeleteUser(ctx, caller, id)
	if err != nil {
		SendErr(ctx, w, err, "Failed to delete user")
		return
	}

	SendJSON(ctx, w, http.StatusOK, res)
}

// Groups lists customer groups
// @Summary List customer groups
// @Tags groups
// @Produce json
// @Success 200 {array} entity.CustomerGroup
// @Failure 500 {object} ErrorResponse "Failed to list groups"
// @Router /groups [get]
// @Security BearerAuth
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.s.Groups(ctx)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list groups")
		return
	}

	SendJSON(ctx, w, http.StatusOK, groups)
}

// CreateGroup adds a customer group
// @Summary Create customer group
// @Tags groups
// @Accept json
// @Produce json
// @Param CustomerGroup body entity.CustomerGroup true "Group"
// @Success 201 {object} entity.CustomerGroup
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 409 {object} ErrorResponse "Group id taken"
// @Failure 500 {object} ErrorResponse "Failed to create group"
// @Router /groups [post]
// @Security BearerAuth
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req entity.CustomerGroup

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create group")
		return
	}

	g, err := h.s.CreateGroup(ctx, caller, req)
	if err != nil {
		SendErr(ctx, w, err, "Failed to create group")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, g)
}

// Dashboard returns visibility-filtered counters
// @Summary Dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} entity.Dashboard
// @Failure 500 {object} ErrorResponse "Failed to build dashboard"
// @Router /dashboard [get]
// @Security BearerAuth
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to build dashboard")
		return
	}

	d, err := h.s.Dashboard(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to build dashboard")
		return
	}

	SendJSON(ctx, w, http.StatusOK, d)
}
