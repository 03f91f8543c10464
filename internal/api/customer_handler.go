package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

type CreateCustomerRequest struct {
	CompanyName    string          `json:"companyName"`
	TaxCode        string          `json:"taxCode"`
	GroupID        *string         `json:"groupId"`
	Address        string          `json:"address"`
	Country        string          `json:"country"`
	Category       entity.Category `json:"category"`
	CompanyType    string          `json:"companyType"`
	ContactPerson1 string          `json:"contactPerson1"`
	ContactEmail1  string          `json:"contactEmail1"`
	ContactPhone1  string          `json:"contactPhone1"`
	ContactPerson2 string          `json:"contactPerson2"`
	ContactEmail2  string          `json:"contactEmail2"`
	ContactPhone2  string          `json:"contactPhone2"`
	Industry       string          `json:"industry"`
	Source         string          `json:"source"`
	AssignedTo     *uuid.UUID      `json:"assignedTo"`
}

func (req CreateCustomerRequest) toEntity() entity.Customer {
	return entity.Customer{
		CompanyName:    req.CompanyName,
		TaxCode:        req.TaxCode,
		GroupID:        req.GroupID,
		Address:        req.Address,
		Country:        req.Country,
		Category:       req.Category,
		CompanyType:    req.CompanyType,
		ContactPerson1: req.ContactPerson1,
		ContactEmail1:  req.ContactEmail1,
		ContactPhone1:  req.ContactPhone1,
		ContactPerson2: req.ContactPerson2,
		ContactEmail2:  req.ContactEmail2,
		ContactPhone2:  req.ContactPhone2,
		Industry:       req.Industry,
		Source:         req.Source,
		AssignedTo:     req.AssignedTo,
	}
}

// CreateCustomer records a customer
// @Summary Create customer
// @Description Customers created by an employee stay pending until an admin approves them
// @Tags customers
// @Accept json
// @Produce json
// @Param CreateCustomerRequest body CreateCustomerRequest true "Customer"
// @Success 201 {object} entity.Customer
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 500 {object} ErrorResponse "Failed to create customer"
// @Router /customers [post]
// @Security BearerAuth
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCustomerRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to create customer")
		return
	}

	c, err := h.s.CreateCustomer(ctx, caller, req.toEntity())
	if err != nil {
		SendErr(ctx, w, err, "Failed to create customer")
		return
	}

	SendJSON(ctx, w, http.StatusCreated, c)
}

// Customers lists the customers visible to the caller
// @Summary List customers
// @Tags customers
// @Produce json
// @Param category query string false "Category"
// @Param country query string false "Country"
// @Param status query string false "Status"
// @Param groupId query string false "Group id"
// @Success 200 {array} entity.CustomerView
// @Failure 500 {object} ErrorResponse "Failed to list customers"
// @Router /customers [get]
// @Security BearerAuth
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list customers")
		return
	}

	q := r.URL.Query()

	customers, err := h.s.Customers(ctx, caller, entity.CustomerFilter{
		Category: entity.Category(q.Get("category")),
		Country:  q.Get("country"),
		Status:   q.Get("status"),
		GroupID:  q.Get("groupId"),
	})
	if err != nil {
		SendErr(ctx, w, err, "Failed to list customers")
		return
	}

	SendJSON(ctx, w, http.StatusOK, customers)
}

// Customer returns one visible customer
// @Summary Get customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer id"
// @Success 200 {object} entity.CustomerView
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to load customer"
// @Router /customers/{id} [get]
// @Security BearerAuth
func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to load customer")
		return
	}

	c, err := h.s.Customer(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to load customer")
		return
	}

	SendJSON(ctx, w, http.StatusOK, c)
}

// PendingCustomers lists customers waiting for approval
// @Summary List pending customers
// @Tags customers
// @Produce json
// @Success 200 {array} entity.CustomerView
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 500 {object} ErrorResponse "Failed to list pending customers"
// @Router /customers/pending [get]
// @Security BearerAuth
func (h *Handler) PendingCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list pending customers")
		return
	}

	customers, err := h.s.PendingCustomers(ctx, caller)
	if err != nil {
		SendErr(ctx, w, err, "Failed to list pending customers")
		return
	}

	SendJSON(ctx, w, http.StatusOK, customers)
}

type UpdateCustomerRequest struct {
	CompanyName   *string    `json:"companyName"`
	Address       *string    `json:"address"`
	ContactEmail1 *string    `json:"contactEmail1"`
	AssignedTo    *uuid.UUID `json:"assignedTo"`
}

// UpdateCustomer edits a visible customer
// @Summary Update customer
// @Description Only admins may reassign a customer
// @Tags customers
// @Accept json
// @Param id path string true "Customer id"
// @Param UpdateCustomerRequest body UpdateCustomerRequest true "Changed fields"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to update customer"
// @Router /customers/{id} [patch]
// @Security BearerAuth
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateCustomerRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err == nil {
		err = h.s.UpdateCustomer(ctx, caller, chi.URLParam(r, "id"), entity.CustomerUpdate{
			CompanyName:   req.CompanyName,
			Address:       req.Address,
			ContactEmail1: req.ContactEmail1,
			AssignedTo:    req.AssignedTo,
		})
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to update customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type StatusRequest struct {
	Status string `json:"status"`
}

// UpdateCustomerStatus sets the workflow status of a visible customer
// @Summary Update customer status
// @Tags customers
// @Accept json
// @Param id path string true "Customer id"
// @Param StatusRequest body StatusRequest true "Status"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to update status"
// @Router /customers/{id}/status [put]
// @Security BearerAuth
func (h *Handler) UpdateCustomerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StatusRequest

	caller, err := callerFromRequest(r)
	if err == nil {
		err = decodeJSON(r, &req)
	}

	if err == nil {
		err = h.s.UpdateCustomerStatus(ctx, caller, chi.URLParam(r, "id"), req.Status)
	}

	if err != nil {
		SendErr(ctx, w, err, "Failed to update status")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ApproveCustomerResponse struct {
	Customer entity.Customer `json:"customer"`
	Delivery entity.Delivery `json:"creatorMail"`
}

// ApproveCustomer makes a pending customer visible
// @Summary Approve customer
// @Description Admin only. The creator is notified, by e-mail best effort
// @Tags customers
// @Produce json
// @Param id path string true "Customer id"
// @Success 200 {object} ApproveCustomerResponse
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 409 {object} ErrorResponse "Already approved"
// @Failure 500 {object} ErrorResponse "Failed to approve customer"
// @Router /customers/{id}/approve [post]
// @Security BearerAuth
func (h *Handler) ApproveCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to approve customer")
		return
	}

	c, delivery, err := h.s.ApproveCustomer(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to approve customer")
		return
	}

	SendJSON(ctx, w, http.StatusOK, ApproveCustomerResponse{Customer: c, Delivery: delivery})
}

// RejectCustomer deletes a pending customer
// @Summary Reject customer
// @Description Admin only. Rejection removes the record and everything attached to it
// @Tags customers
// @Produce json
// @Param id path string true "Customer id"
// @Success 200 {object} entity.CascadeResult
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 409 {object} ErrorResponse "Customer is not pending"
// @Failure 500 {object} ErrorResponse "Failed to reject customer"
// @Router /customers/{id}/reject [post]
// @Security BearerAuth
func (h *Handler) RejectCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to reject customer")
		return
	}

	res, err := h.s.RejectCustomer(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to reject customer")
		return
	}

	SendJSON(ctx, w, http.StatusOK, res)
}

// DeleteCustomer removes a customer with all dependent records
// @Summary Delete customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer id"
// @Success 200 {object} entity.CascadeResult
// @Failure 403 {object} ErrorResponse "Not enough permissions"
// @Failure 404 {object} ErrorResponse "Customer not found"
// @Failure 500 {object} ErrorResponse "Failed to delete customer"
// @Router /customers/{id} [delete]
// @Security BearerAuth
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		SendErr(ctx, w, err, "Failed to delete customer")
		return
	}

	res, err := h.s.DeleteCustomer(ctx, caller, chi.URLParam(r, "id"))
	if err != nil {
		SendErr(ctx, w, err, "Failed to delete customer")
		return
	}

	SendJSON(ctx, w, http.StatusOK, res)
}
