package entity

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

type Category string

const (
	CategoryIndividual Category = "Individual"
	CategoryHousehold  Category = "Household"
	CategoryCompany    Category = "Company"
)

func (c Category) Valid() bool {
	return c == CategoryIndividual || c == CategoryHousehold || c == CategoryCompany
}

const (
	CustomerStatusDefault = "not started"
	CustomerIDSuffixLen   = 6
	CustomerIDPrefixLen   = 4
)

type CustomerGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Customer struct {
	ID             string     `json:"id"`
	CompanyName    string     `json:"companyName"`
	TaxCode        string     `json:"taxCode"`
	GroupID        *string    `json:"groupId"`
	Address        string     `json:"address"`
	Country        string     `json:"country"`
	Category       Category   `json:"category"`
	CompanyType    string     `json:"companyType"`
	ContactPerson1 string     `json:"contactPerson1"`
	ContactEmail1  string     `json:"contactEmail1"`
	ContactPhone1  string     `json:"contactPhone1"`
	ContactPerson2 string     `json:"contactPerson2"`
	ContactEmail2  string     `json:"contactEmail2"`
	ContactPhone2  string     `json:"contactPhone2"`
	Industry       string     `json:"industry"`
	Source         string     `json:"source"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	Status         string     `json:"status"`
	Approved       bool       `json:"approved"`
	CreatedBy      *uuid.UUID `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// CustomerView adds the display names the rendering layer needs.
type CustomerView struct {
	Customer
	AssignedName  string `json:"assignedName"`
	GroupName     string `json:"groupName"`
	CreatedByName string `json:"createdByName"`
}

type CustomerFilter struct {
	Category Category
	Country  string
	Status   string
	GroupID  string
}

type CustomerUpdate struct {
	CompanyName   *string
	Address       *string
	ContactEmail1 *string
	AssignedTo    *uuid.UUID
}

func (u CustomerUpdate) Empty() bool {
	return u.CompanyName == nil && u.Address == nil && u.ContactEmail1 == nil && u.AssignedTo == nil
}

func FormatCustomerID(prefix string, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, CustomerIDSuffixLen, n)
}

// CascadeResult counts the rows removed by a customer deletion.
type CascadeResult struct {
	Tasks         int64 `json:"tasks"`
	Payments      int64 `json:"payments"`
	Documents     int64 `json:"documents"`
	Meetings      int64 `json:"meetings"`
	Services      int64 `json:"services"`
	Notifications int64 `json:"notifications"`
	Customers     int64 `json:"customers"`
	// FileKeys of the deleted documents, left for the caller to remove from the file store.
	FileKeys []string `json:"-"`
}
