package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

const ServiceStatusDefault = "Active"

type Service struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      string     `json:"customerId"`
	Type            string     `json:"type"`
	Description     string     `json:"description"`
	StartDate       *time.Time `json:"startDate"`
	ExpectedEndDate *time.Time `json:"expectedEndDate"`
	PackageCode     string     `json:"packageCode"`
	Partner         string     `json:"partner"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type ServiceView struct {
	Service
	CompanyName string `json:"companyName"`
}
