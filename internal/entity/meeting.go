package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Meeting goes through the same approval gate as a customer and is visible only
// when both the meeting and its customer are.
type Meeting struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   string     `json:"customerId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	StartsAt     time.Time  `json:"startsAt"`
	EndsAt       time.Time  `json:"endsAt"`
	Attendees    []string   `json:"attendees"`
	Approved     bool       `json:"approved"`
	CreatedBy    *uuid.UUID `json:"createdBy"`
	CalendarLink string     `json:"calendarLink"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type MeetingView struct {
	Meeting
	CompanyName   string `json:"companyName"`
	CreatedByName string `json:"createdByName"`
}

type CalendarEvent struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}
