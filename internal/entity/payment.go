package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Decimal places stored for money and exchange rates.
const (
	AmountPlaces = 4
	RatePlaces   = 8
)

// Payment keeps the converted amount computed when it was recorded; a later rate change does not touch it.
type Payment struct {
	ID                uuid.UUID       `json:"id"`
	ServiceID         uuid.UUID       `json:"serviceId"`
	Currency          string          `json:"currency"`
	OriginalAmount    decimal.Decimal `json:"originalAmount"`
	ExchangeRate      decimal.Decimal `json:"exchangeRate"`
	ConvertedAmount   decimal.Decimal `json:"convertedAmount"`
	Deposit           decimal.Decimal `json:"deposit"`
	DepositDate       *time.Time      `json:"depositDate"`
	FirstPayment      decimal.Decimal `json:"firstPayment"`
	FirstPaymentDate  *time.Time      `json:"firstPaymentDate"`
	SecondPayment     decimal.Decimal `json:"secondPayment"`
	SecondPaymentDate *time.Time      `json:"secondPaymentDate"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func (p Payment) TotalPaid() decimal.Decimal {
	return p.Deposit.Add(p.FirstPayment).Add(p.SecondPayment)
}

// Outstanding is negative when the customer paid more than the converted amount.
func (p Payment) Outstanding() decimal.Decimal {
	return p.ConvertedAmount.Sub(p.TotalPaid())
}

func (p Payment) PaidInFull() bool {
	return p.TotalPaid().GreaterThanOrEqual(p.ConvertedAmount)
}

type PaymentView struct {
	Payment
	CustomerID  string          `json:"customerId"`
	CompanyName string          `json:"companyName"`
	ServiceType string          `json:"serviceType"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	PaidInFull  bool            `json:"paidInFull"`
}

func NewPaymentView(p Payment, customerID, companyName, serviceType string) PaymentView {
	return PaymentView{
		Payment:     p,
		CustomerID:  customerID,
		CompanyName: companyName,
		ServiceType: serviceType,
		TotalPaid:   p.TotalPaid(),
		Outstanding: p.Outstanding(),
		PaidInFull:  p.PaidInFull(),
	}
}

type PaymentUpdate struct {
	FirstPayment      *decimal.Decimal
	FirstPaymentDate  *time.Time
	SecondPayment     *decimal.Decimal
	SecondPaymentDate *time.Time
	Notes             *string
}
