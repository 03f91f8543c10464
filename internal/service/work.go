package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/samandr77/crm/internal/entity"
)

func (s *Service) CreateService(ctx context.Context, caller entity.Caller, svc entity.Service) (entity.Service, error) {
	svc.Type = strings.TrimSpace(svc.Type)

	err := validateService(svc)
	if err != nil {
		return entity.Service{}, err
	}

	svc.ID = uuid.Must(uuid.NewV4())
	svc.CreatedAt = s.now()

	if svc.Status == "" {
		svc.Status = entity.ServiceStatusDefault
	}

	err = s.repo.CreateService(ctx, caller, svc)
	if err != nil {
		return entity.Service{}, fmt.Errorf("create service for customer %s: %w", svc.CustomerID, err)
	}

	return svc, nil
}

func (s *Service) Services(ctx context.Context, caller entity.Caller, customerID string) ([]entity.ServiceView, error) {
	return s.repo.Services(ctx, caller, customerID)
}

func (s *Service) CreateTask(ctx context.Context, caller entity.Caller, t entity.WorkTask) (entity.WorkTask, error) {
	t.Name = strings.TrimSpace(t.Name)

	if t.Status == "" {
		t.Status = entity.TaskNotStarted
	}

	err := validateTask(t)
	if err != nil {
		return entity.WorkTask{}, err
	}

	t.ID = uuid.Must(uuid.NewV4())
	t.LastUpdated = s.now()
	t.UpdatedBy = caller.UserRef()

	err = s.repo.CreateTask(ctx, caller, t)
	if err != nil {
		return entity.WorkTask{}, fmt.Errorf("create task for service %s: %w", t.ServiceID, err)
	}

	return t, nil
}

func (s *Service) Tasks(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.TaskView, error) {
	return s.repo.Tasks(ctx, caller, serviceID)
}

// UpdateTask sets status, progress and notes independently of each other.
func (s *Service) UpdateTask(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.TaskUpdate) (entity.TaskView, error) {
	err := validateTaskUpdate(upd)
	if err != nil {
		return entity.TaskView{}, err
	}

	err = s.repo.UpdateTask(ctx, caller, id, upd, s.now())
	if err != nil {
		return entity.TaskView{}, fmt.Errorf("update task %s: %w", id, err)
	}

	return s.repo.Task(ctx, caller, id)
}

// CreatePayment fixes the converted amount at write time. Payments above the converted amount are accepted.
func (s *Service) CreatePayment(ctx context.Context, caller entity.Caller, p entity.Payment) (entity.PaymentView, error) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}

	if p.ExchangeRate.IsZero() {
		p.ExchangeRate = decimal.NewFromInt(1)
	}

	err := validatePayment(p)
	if err != nil {
		return entity.PaymentView{}, err
	}

	p.OriginalAmount = p.OriginalAmount.Round(entity.AmountPlaces)
	p.ExchangeRate = p.ExchangeRate.Round(entity.RatePlaces)
	p.Deposit = p.Deposit.Round(entity.AmountPlaces)
	p.FirstPayment = p.FirstPayment.Round(entity.AmountPlaces)
	p.SecondPayment = p.SecondPayment.Round(entity.AmountPlaces)

	p.ID = uuid.Must(uuid.NewV4())
	p.ConvertedAmount = p.OriginalAmount.Mul(p.ExchangeRate).Round(entity.AmountPlaces)
	p.CreatedAt = s.now()

	err = s.repo.CreatePayment(ctx, caller, p)
	if err != nil {
		return entity.PaymentView{}, fmt.Errorf("create payment for service %s: %w", p.ServiceID, err)
	}

	return s.repo.Payment(ctx, caller, p.ID)
}

func (s *Service) Payments(ctx context.Context, caller entity.Caller, serviceID *uuid.UUID) ([]entity.PaymentView, error) {
	return s.repo.Payments(ctx, caller, serviceID)
}

func (s *Service) UpdatePayment(ctx context.Context, caller entity.Caller, id uuid.UUID, upd entity.PaymentUpdate) (entity.PaymentView, error) {
	err := validatePaymentUpdate(upd)
	if err != nil {
		return entity.PaymentView{}, err
	}

	if upd.FirstPayment != nil {
		v := upd.FirstPayment.Round(entity.AmountPlaces)
		upd.FirstPayment = &v
	}

	if upd.SecondPayment != nil {
		v := upd.SecondPayment.Round(entity.AmountPlaces)
		upd.SecondPayment = &v
	}

	p, err := s.repo.UpdatePayment(ctx, caller, id, upd)
	if err != nil {
		return entity.PaymentView{}, fmt.Errorf("update payment %s: %w", id, err)
	}

	return p, nil
}

func (s *Service) CreateDocument(ctx context.Context, caller entity.Caller, d entity.Document) (entity.Document, error) {
	d.Name = strings.TrimSpace(d.Name)

	if d.Name == "" {
		return entity.Document{}, entity.ValidationError("document name is required")
	}

	if !s.ref.IsDocumentType(d.Type) {
		return entity.Document{}, entity.ValidationError("unknown document type %q", d.Type)
	}

	if d.Status == "" {
		d.Status = entity.DocumentStatusDefault
	}

	if d.ResponsibleID == nil {
		d.ResponsibleID = caller.UserRef()
	}

	d.ID = uuid.Must(uuid.NewV4())
	d.CreatedAt = s.now()

	err := s.repo.CreateDocument(ctx, caller, d)
	if err != nil {
		return entity.Document{}, fmt.Errorf("create document for customer %s: %w", d.CustomerID, err)
	}

	return d, nil
}

func (s *Service) Documents(ctx context.Context, caller entity.Caller, customerID string) ([]entity.DocumentView, error) {
	return s.repo.Documents(ctx, caller, customerID)
}

func (s *Service) UpdateDocumentStatus(ctx context.Context, caller entity.Caller, id uuid.UUID, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return entity.ValidationError("status is required")
	}

	err := s.repo.UpdateDocumentStatus(ctx, caller, id, status)
	if err != nil {
		return fmt.Errorf("update document %s status: %w", id, err)
	}

	return nil
}
