package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type TaskStatus string

const (
	TaskNotStarted    TaskStatus = "not_started"
	TaskInProgress    TaskStatus = "in_progress"
	TaskPendingReview TaskStatus = "pending_review"
	TaskDone          TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskPendingReview, TaskDone:
		return true
	default:
		return false
	}
}

// WorkTask progress and status are set independently: a done task may report less than 100.
type WorkTask struct {
	ID          uuid.UUID  `json:"id"`
	ServiceID   uuid.UUID  `json:"serviceId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	Notes       string     `json:"notes"`
	LastUpdated time.Time  `json:"lastUpdated"`
	UpdatedBy   *uuid.UUID `json:"updatedBy"`
}

type TaskView struct {
	WorkTask
	ServiceType   string `json:"serviceType"`
	CustomerID    string `json:"customerId"`
	CompanyName   string `json:"companyName"`
	UpdatedByName string `json:"updatedByName"`
}

type TaskUpdate struct {
	Status   *TaskStatus
	Progress *int
	Notes    *string
}
