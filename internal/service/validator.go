package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/samandr77/crm/internal/entity"
)

const (
	EmailMaxLen       = 255
	PasswordMinLen    = 6
	NameMaxLen        = 255
	ProgressMax       = 100
	CurrencyMaxLen    = 8
	DefaultCurrency   = "VND"
	groupIDMaxLen     = 16
	attendeesMaxCount = 50
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if len(email) > EmailMaxLen {
		return entity.ErrEmailInvalidLen
	}

	if !emailRegexp.MatchString(email) {
		return entity.ErrEmailInvalidFormat
	}

	return nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLen {
		return entity.ErrPasswordTooShort
	}

	return nil
}

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.ErrNameRequired
	}

	if utf8.RuneCountInString(name) > NameMaxLen {
		return entity.ValidationError("name exceeds %d characters", NameMaxLen)
	}

	return nil
}

func validateNewUser(u entity.NewUser) error {
	err := ValidateEmail(u.Email)
	if err != nil {
		return err
	}

	err = ValidatePassword(u.Password)
	if err != nil {
		return err
	}

	if !u.Role.Valid() {
		return entity.ErrInvalidRole
	}

	return ValidateName(u.Name)
}

func validateCustomer(c entity.Customer) error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return entity.ValidationError("company name is required")
	}

	if strings.TrimSpace(c.ContactPerson1) == "" && strings.TrimSpace(c.ContactEmail1) == "" {
		return entity.ValidationError("primary contact person or e-mail is required")
	}

	if !c.Category.Valid() {
		return entity.ValidationError("unknown category %q", c.Category)
	}

	for _, email := range []string{c.ContactEmail1, c.ContactEmail2} {
		if email == "" {
			continue
		}

		err := ValidateEmail(email)
		if err != nil {
			return err
		}
	}

	return nil
}

func validateCustomerUpdate(upd entity.CustomerUpdate) error {
	if upd.Empty() {
		return entity.ValidationError("nothing to update")
	}

	if upd.CompanyName != nil && strings.TrimSpace(*upd.CompanyName) == "" {
		return entity.ValidationError("company name is required")
	}

	if upd.ContactEmail1 != nil && *upd.ContactEmail1 != "" {
		return ValidateEmail(*upd.ContactEmail1)
	}

	return nil
}

func validateGroup(g entity.CustomerGroup) error {
	if g.ID == "" || len(g.ID) > groupIDMaxLen {
		return entity.ValidationError("group id must have 1 to %d characters", groupIDMaxLen)
	}

	if strings.TrimSpace(g.Name) == "" {
		return entity.ValidationError("group name is required")
	}

	return nil
}

func validateService(s entity.Service) error {
	if strings.TrimSpace(s.Type) == "" {
		return entity.ValidationError("service type is required")
	}

	if s.StartDate != nil && s.ExpectedEndDate != nil && s.ExpectedEndDate.Before(*s.StartDate) {
		return entity.ValidationError("expected end date is before start date")
	}

	return nil
}

func validateProgress(p int) error {
	if p < 0 || p > ProgressMax {
		return entity.ValidationError("progress must be between 0 and %d", ProgressMax)
	}

	return nil
}

func validateTask(t entity.WorkTask) error {
	if strings.TrimSpace(t.Name) == "" {
		return entity.ValidationError("task name is required")
	}

	if !t.Status.Valid() {
		return entity.ValidationError("unknown task status %q", t.Status)
	}

	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
		return entity.ValidationError("end date is before start date")
	}

	return validateProgress(t.Progress)
}

func validateTaskUpdate(upd entity.TaskUpdate) error {
	if upd.Status == nil && upd.Progress == nil && upd.Notes == nil {
		return entity.ValidationError("nothing to update")
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return entity.ValidationError("unknown task status %q", *upd.Status)
	}

	if upd.Progress != nil {
		return validateProgress(*upd.Progress)
	}

	return nil
}

func validateAmount(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return entity.ValidationError("%s must not be negative", name)
	}

	return nil
}

func validatePayment(p entity.Payment) error {
	if p.Currency == "" || len(p.Currency) > CurrencyMaxLen {
		return entity.ValidationError("currency must have 1 to %d characters", CurrencyMaxLen)
	}

	if !p.ExchangeRate.IsPositive() {
		return entity.ValidationError("exchange rate must be positive")
	}

	amounts := []struct {
		name string
		d    decimal.Decimal
	}{
		{"original amount", p.OriginalAmount},
		{"deposit", p.Deposit},
		{"first payment", p.FirstPayment},
		{"second payment", p.SecondPayment},
	}

	for _, a := range amounts {
		err := validateAmount(a.name, a.d)
		if err != nil {
			return err
		}
	}

	return nil
}

func validatePaymentUpdate(upd entity.PaymentUpdate) error {
	if upd.FirstPayment == nil && upd.FirstPaymentDate == nil && upd.SecondPayment == nil &&
		upd.SecondPaymentDate == nil && upd.Notes == nil {
		return entity.ValidationError("nothing to update")
	}

	if upd.FirstPayment != nil {
		err := validateAmount("first payment", *upd.FirstPayment)
		if err != nil {
			return err
		}
	}

	if upd.SecondPayment != nil {
		return validateAmount("second payment", *upd.SecondPayment)
	}

	return nil
}

func validateMeeting(m entity.Meeting) error {
	if strings.TrimSpace(m.Title) == "" {
		return entity.ValidationError("meeting title is required")
	}

	if m.StartsAt.IsZero() || !m.EndsAt.After(m.StartsAt) {
		return entity.ValidationError("meeting must end after it starts")
	}

	if len(m.Attendees) > attendeesMaxCount {
		return entity.ValidationError("at most %d attendees are allowed", attendeesMaxCount)
	}

	for _, a := range m.Attendees {
		err := ValidateEmail(a)
		if err != nil {
			return err
		}
	}

	return nil
}
