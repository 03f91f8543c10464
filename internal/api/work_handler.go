package api

import (
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/samandr77/crm/internal/entity"
)

type CreateServiceRequest struct {
	CustomerID      string     `json:"customerId"`
	Type            string     `json:"type"`
	Description     string     `json:"description"`
	StartDate       *time.Time `json:"startDate"`
	ExpectedEndDate *time.Time `json:"expectedEndDate"`
	PackageCode     string     `json:"packageCode"`
	Partner         string     `json:"partner"`
	Status          string     `json:"status"`
}

// CreateService attaches a service to a visible customer
// @Summary Create service
// @Tags services
// @Accept json
// @Produce json
// @Param CreateServiceRequest body CreateServiceRequest true "Service"
// @Success 201 {object} entity.Service
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to create service"
// @Router /services [post]
// @Security BearerAuth
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateServiceRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create service")
		return
	}

	svc, err := h.s.CreateService(ctx, caller, entity.Service{
		CustomerID:      req.CustomerID,
		Type:            req.Type,
		Description:     req.Description,
		StartDate:       req.StartDate,
		ExpectedEndDate: req.ExpectedEndDate,
		PackageCode:     req.PackageCode,
		Partner:         req.Partner,
		Status:          req.Status,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create service")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, svc)
}

// Services lists services of visible customers
// @Summary List services
// @Tags services
// @Produce json
// @Param customerId query string false "Customer id"
// @Success 200 {array} entity.ServiceView
// @Failure 500 {object} ErrorResponse "Failed to list services"
// @Router /services [get]
// @Security BearerAuth
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list services")
		return
	}

	services, err := h.s.Services(ctx, caller, r.URL.Query().Get("customerId"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to list services")
		return
	}

	SendJSON(ctx, w, http.StatusOK, services)
}

type CreateTaskRequest struct {
	ServiceID   uuid.UUID         `json:"serviceId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartDate   *time.Time        `json:"startDate"`
	EndDate     *time.Time        `json:"endDate"`
	Status      entity.TaskStatus `json:"status"`
	Progress    int               `json:"progress"`
	Notes       string            `json:"notes"`
}

// CreateTask adds a work task to a visible service
// @Summary Create task
// @Tags tasks
// @Accept json
// @Produce json
// @Param CreateTaskRequest body CreateTaskRequest true "Task"
// @Success 201 {object} entity.WorkTask
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Service not found"
// @Failure 500 {object} ErrorResponse "Failed to create task"
// @Router /tasks [post]
// @Security BearerAuth
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateTaskRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create task")
		return
	}

	t, err := h.s.CreateTask(ctx, caller, entity.WorkTask{
		ServiceID:   req.ServiceID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		Progress:    req.Progress,
		Notes:       req.Notes,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create task")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, t)
}

// Tasks lists tasks of visible customers
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param serviceId query string false "Service id"
// @Success 200 {array} entity.TaskView
// @Failure 400 {object} ErrorResponse "Invalid service id"
// @Failure 500 {object} ErrorResponse "Failed to list tasks"
// @Router /tasks [get]
// @Security BearerAuth
func (h *Handler) Tasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list tasks")
		return
	}

	serviceID, err := optionalUUIDQuery(r, "serviceId")
	if err != nil {
		SendErr(ctx, w, err, "Failed to list tasks")
		return
	}

	tasks, err := h.s.Tasks(ctx, caller, serviceID)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list tasks")
		return
	}

	SendJSON(ctx, w, http.StatusOK, tasks)
}

type UpdateTaskRequest struct {
	Status   *entity.TaskStatus `json:"status"`
	Progress *int               `json:"progress"`
	Notes    *string            `json:"notes"`
}

// UpdateTask changes status, progress or notes of a visible task
// @Summary Update task
// @Description Status and progress are independent: a done task may report progress below 100
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param UpdateTaskRequest body UpdateTaskRequest true "Changed fields"
// @Success 200 {object} entity.TaskView
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Task not found"
// @Failure 500 {object} ErrorResponse "Failed to update task"
// @Router /tasks/{id} [patch]
// @Security BearerAuth
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateTaskRequest

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to update task")
		return
	}

	id, err := uuidParam(r, "id")
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to update task")
		return
	}

	t, err := h.s.UpdateTask(ctx, caller, id, entity.TaskUpdate{
		Status:   req.Status,
		Progress: req.Progress,
		Notes:    req.Notes,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to update task")
		return
	}

	SendJSON(ctx, w, http.StatusOK, t)
}

type CreatePaymentRequest struct {
	ServiceID        uuid.UUID       `json:"serviceId"`
	Currency         string          `json:"currency"`
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
	Deposit          decimal.Decimal `json:"deposit"`
	DepositDate      *time.Time      `json:"depositDate"`
	FirstPayment     decimal.Decimal `json:"firstPayment"`
	FirstPaymentDate *time.Time      `json:"firstPaymentDate"`
	Notes            string          `json:"notes"`
}

// CreatePayment records a payment plan for a visible service
// @Summary Create payment
// @Description The converted amount is computed once from the given rate and never re-derived
// @Tags payments
// @Accept json
// @Produce json
// @Param CreatePaymentRequest body CreatePaymentRequest true "Payment"
// @Success 201 {object} entity.PaymentView
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Service not found"
// @Failure 500 {object} ErrorResponse "Failed to create payment"
// @Router /payments [post]
// @Security BearerAuth
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePaymentRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create payment")
		return
	}

	p, err := h.s.CreatePayment(ctx, caller, entity.Payment{
		ServiceID:        req.ServiceID,
		Currency:         req.Currency,
		OriginalAmount:   req.OriginalAmount,
		ExchangeRate:     req.ExchangeRate,
		Deposit:          req.Deposit,
		DepositDate:      req.DepositDate,
		FirstPayment:     req.FirstPayment,
		FirstPaymentDate: req.FirstPaymentDate,
		Notes:            req.Notes,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create payment")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, p)
}

// Payments lists payments of visible customers
// @Summary List payments
// @Tags payments
// @Produce json
// @Param serviceId query string false "Service id"
// @Success 200 {array} entity.PaymentView
// @Failure 400 {object} ErrorResponse "Invalid service id"
// @Failure 500 {object} ErrorResponse "Failed to list payments"
// @Router /payments [get]
// @Security BearerAuth
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list payments")
		return
	}

	serviceID, err := optionalUUIDQuery(r, "serviceId")
	if err != nil {
		SendErr(ctx, w, err, "Failed to list payments")
		return
	}

	payments, err := h.s.Payments(ctx, caller, serviceID)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list payments")
		return
	}

	SendJSON(ctx, w, http.StatusOK, payments)
}

type UpdatePaymentRequest struct {
	FirstPayment      *decimal.Decimal `json:"firstPayment"`
	FirstPaymentDate  *time.Time       `json:"firstPaymentDate"`
	SecondPayment     *decimal.Decimal `json:"secondPayment"`
	SecondPaymentDate *time.Time       `json:"secondPaymentDate"`
	Notes             *string          `json:"notes"`
}

// UpdatePayment records installments of a visible payment
// @Summary Update payment
// @Description Overpayment is accepted and shows up as a negative outstanding amount
// @Tags payments
// @Accept json
// @Produce json
// @Param id path string true "Payment id"
// @Param UpdatePaymentRequest body UpdatePaymentRequest true "Changed fields"
// @Success 200 {object} entity.PaymentView
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Payment not found"
// @Failure 500 {object} ErrorResponse "Failed to update payment"
// @Router /payments/{id} [patch]
// @Security BearerAuth
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdatePaymentRequest

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to update payment")
		return
	}

	id, err := uuidParam(r, "id")
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to update payment")
		return
	}

	p, err := h.s.UpdatePayment(ctx, caller, id, entity.PaymentUpdate{
		FirstPayment:      req.FirstPayment,
		FirstPaymentDate:  req.FirstPaymentDate,
		SecondPayment:     req.SecondPayment,
		SecondPaymentDate: req.SecondPaymentDate,
		Notes:             req.Notes,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to update payment")
		return
	}

	SendJSON(ctx, w, http.StatusOK, p)
}

type CreateDocumentRequest struct {
	CustomerID    string     `json:"customerId"`
	ServiceID     *uuid.UUID `json:"serviceId"`
	Type          string     `json:"type"`
	Name          string     `json:"name"`
	ResponsibleID *uuid.UUID `json:"responsibleId"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
}

// CreateDocument registers a document of a visible customer
// @Summary Create document
// @Tags documents
// @Accept json
// @Produce json
// @Param CreateDocumentRequest body CreateDocumentRequest true "Document"
// @Success 201 {object} entity.Document
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Customer or service not found"
// @Failure 500 {object} ErrorResponse "Failed to create document"
// @Router /documents [post]
// @Security BearerAuth
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateDocumentRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create document")
		return
	}

	d, err := h.s.CreateDocument(ctx, caller, entity.Document{
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		Type:          req.Type,
		Name:          req.Name,
		ResponsibleID: req.ResponsibleID,
		Status:        req.Status,
		Notes:         req.Notes,
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to create document")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, d)
}

// Documents lists documents of visible customers
// @Summary List documents
// @Tags documents
// @Produce json
// @Param customerId query string false "Customer id"
// @Success 200 {array} entity.DocumentView
// @Failure 500 {object} ErrorResponse "Failed to list documents"
// @Router /documents [get]
// @Security BearerAuth
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list documents")
		return
	}

	docs, err := h.s.Documents(ctx, caller, r.URL.Query().Get("customerId"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to list documents")
		return
	}

	SendJSON(ctx, w, http.StatusOK, docs)
}

// UpdateDocumentStatus sets the processing status of a visible document
// @Summary Update document status
// @Tags documents
// @Accept json
// @Param id path string true "Document id"
// @Param StatusRequest body StatusRequest true "Status"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Document not found"
// @Failure 500 {object} ErrorResponse "Failed to update document"
// @Router /documents/{id}/status [put]
// @Security BearerAuth
func (h *Handler) UpdateDocumentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StatusRequest

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to update document")
		return
	}

	id, err := uuidParam(r, "id")
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err == nil {
		err = h.s.UpdateDocumentStatus(ctx, caller, id, req.Status)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to update document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
