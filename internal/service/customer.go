package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/pkg/metrics"
	"github.com/samandr77/crm/pkg/reference"
)

const (
	approvalAuto     = "auto"
	approvalPending  = "pending"
	approvalApproved = "approved"
	approvalRejected = "rejected"
)

func (s *Service) Groups(ctx context.Context) ([]entity.CustomerGroup, error) {
	return s.repo.Groups(ctx)
}

func (s *Service) CreateGroup(ctx context.Context, caller entity.Caller, g entity.CustomerGroup) (entity.CustomerGroup, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.CustomerGroup{}, err
	}

	g.ID = strings.TrimSpace(g.ID)
	g.Name = strings.TrimSpace(g.Name)

	err = validateGroup(g)
	if err != nil {
		return entity.CustomerGroup{}, err
	}

	err = s.repo.CreateGroup(ctx, g)
	if err != nil {
		return entity.CustomerGroup{}, fmt.Errorf("create group: %w", err)
	}

	return g, nil
}

// CreateCustomer passes the customer through the approval gate: admins create approved customers,
// everyone else creates a pending one and raises a broadcast approval notification.
// An employee's customer is assigned to the employee unless an assignee is given.
func (s *Service) CreateCustomer(ctx context.Context, caller entity.Caller, c entity.Customer) (entity.Customer, error) {
	c.CompanyName = strings.TrimSpace(c.CompanyName)
	c.ContactEmail1 = strings.TrimSpace(c.ContactEmail1)

	err := validateCustomer(c)
	if err != nil {
		return entity.Customer{}, err
	}

	prefix, err := s.ref.CustomerPrefix(c.Country, string(c.Category))
	if err != nil {
		if errors.Is(err, reference.ErrUnknownCategory) {
			return entity.Customer{}, entity.ValidationError("%s", err)
		}

		return entity.Customer{}, err
	}

	if c.AssignedTo == nil && !caller.IsAdmin() {
		c.AssignedTo = caller.UserRef()
	}

	if c.Status == "" {
		c.Status = entity.CustomerStatusDefault
	}

	c.Approved = caller.IsAdmin()
	c.CreatedBy = caller.UserRef()
	c.CreatedAt = s.now()

	var notice func(entity.Customer) entity.Notification

	decision := approvalAuto

	if !c.Approved {
		decision = approvalPending
		notice = func(c entity.Customer) entity.Notification {
			return entity.CustomerApprovalNotification(c, caller.Name, s.now())
		}
	}

	err = s.repo.CreateCustomer(ctx, prefix, &c, notice)
	if err != nil {
		return entity.Customer{}, fmt.Errorf("create customer: %w", err)
	}

	metrics.ApprovalEvents.WithLabelValues("customer", decision).Inc()
	slog.InfoContext(ctx, fmt.Sprintf("customer %s created by %s, approved: %t", c.ID, caller.Name, c.Approved))

	return c, nil
}

func (s *Service) Customer(ctx context.Context, caller entity.Caller, id string) (entity.CustomerView, error) {
	return s.repo.Customer(ctx, caller, id)
}

func (s *Service) Customers(ctx context.Context, caller entity.Caller, filter entity.CustomerFilter) ([]entity.CustomerView, error) {
	return s.repo.Customers(ctx, caller, filter)
}

func (s *Service) PendingCustomers(ctx context.Context, caller entity.Caller) ([]entity.CustomerView, error) {
	err := requireAdmin(caller)
	if err != nil {
		return nil, err
	}

	return s.repo.PendingCustomers(ctx)
}

// UpdateCustomer edits a visible customer. Only admins may reassign it.
func (s *Service) UpdateCustomer(ctx context.Context, caller entity.Caller, id string, upd entity.CustomerUpdate) error {
	err := validateCustomerUpdate(upd)
	if err != nil {
		return err
	}

	if upd.AssignedTo != nil {
		err = requireAdmin(caller)
		if err != nil {
			return err
		}
	}

	err = s.repo.UpdateCustomer(ctx, caller, id, upd)
	if err != nil {
		return fmt.Errorf("update customer %s: %w", id, err)
	}

	return nil
}

func (s *Service) UpdateCustomerStatus(ctx context.Context, caller entity.Caller, id, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return entity.ValidationError("status is required")
	}

	err := s.repo.UpdateCustomerStatus(ctx, caller, id, status)
	if err != nil {
		return fmt.Errorf("update customer %s status: %w", id, err)
	}

	return nil
}

// ApproveCustomer approves a pending customer and mails its creator. The e-mail is sent after the
// approval has been committed and its failure only shows up in the returned Delivery.
func (s *Service) ApproveCustomer(ctx context.Context, caller entity.Caller, id string) (entity.Customer, entity.Delivery, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.Customer{}, entity.Delivery{}, err
	}

	c, err := s.repo.ApproveCustomer(ctx, id, caller.ID, s.now())
	if err != nil {
		return entity.Customer{}, entity.Delivery{}, fmt.Errorf("approve customer %s: %w", id, err)
	}

	metrics.ApprovalEvents.WithLabelValues("customer", approvalApproved).Inc()
	slog.InfoContext(ctx, fmt.Sprintf("customer %s approved by %s", c.ID, caller.Name))

	delivery := entity.Delivery{Detail: "creator is the approver"}
	if c.CreatedBy != nil && *c.CreatedBy != caller.ID {
		delivery = s.notifyByMail(ctx, c.CreatedBy, "Customer approved",
			fmt.Sprintf("Customer %q (%s) has been approved by %s.", c.CompanyName, c.ID, caller.Name))
	}

	return c, delivery, nil
}

// RejectCustomer permanently deletes a pending customer. Nothing about it is kept.
func (s *Service) RejectCustomer(ctx context.Context, caller entity.Caller, id string) (entity.CascadeResult, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.CascadeResult{}, err
	}

	res, err := s.repo.RejectCustomer(ctx, id)
	if err != nil {
		return entity.CascadeResult{}, fmt.Errorf("reject customer %s: %w", id, err)
	}

	metrics.ApprovalEvents.WithLabelValues("customer", approvalRejected).Inc()
	observeCascade(res)
	s.removeFiles(ctx, res.FileKeys)
	slog.InfoContext(ctx, fmt.Sprintf("customer %s rejected by %s", id, caller.Name))

	return res, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, caller entity.Caller, id string) (entity.CascadeResult, error) {
	err := requireAdmin(caller)
	if err != nil {
		return entity.CascadeResult{}, err
	}

	res, err := s.repo.DeleteCustomer(ctx, id)
	if err != nil {
		return entity.CascadeResult{}, fmt.Errorf("delete customer %s: %w", id, err)
	}

	observeCascade(res)
	s.removeFiles(ctx, res.FileKeys)
	slog.InfoContext(ctx, fmt.Sprintf("customer %s deleted by %s: %+v", id, caller.Name, res))

	return res, nil
}

func observeCascade(res entity.CascadeResult) {
	metrics.CascadeDeletes.WithLabelValues("customer").Inc()

	for table, n := range map[string]int64{
		"work_tasks":    res.Tasks,
		"payments":      res.Payments,
		"documents":     res.Documents,
		"meetings":      res.Meetings,
		"services":      res.Services,
		"notifications": res.Notifications,
		"customers":     res.Customers,
	} {
		metrics.CascadeRows.WithLabelValues(table).Add(float64(n))
	}
}
