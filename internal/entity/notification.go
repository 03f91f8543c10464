package entity

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

const (
	NotificationCustomerApproval = "customer_approval"
	NotificationCustomerApproved = "customer_approved"
	NotificationMeetingApproval  = "meeting_approval"
	NotificationMeetingApproved  = "meeting_approved"
)

// Notification with a nil UserID is a broadcast to every admin.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"userId"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	RelatedID *string    `json:"relatedId"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
}

func NewNotification(target *uuid.UUID, message, typ string, relatedID *string, at time.Time) Notification {
	return Notification{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    target,
		Message:   message,
		Type:      typ,
		RelatedID: relatedID,
		CreatedAt: at.UTC(),
	}
}

func CustomerApprovalNotification(c Customer, creatorName string, at time.Time) Notification {
	id := c.ID

	return NewNotification(nil,
		fmt.Sprintf("New customer %q (%s) by %s is waiting for approval", c.CompanyName, c.ID, creatorName),
		NotificationCustomerApproval, &id, at)
}

func CustomerApprovedNotification(c Customer, at time.Time) Notification {
	id := c.ID

	return NewNotification(c.CreatedBy,
		fmt.Sprintf("Customer %q (%s) has been approved", c.CompanyName, c.ID),
		NotificationCustomerApproved, &id, at)
}

func MeetingApprovalNotification(m Meeting, creatorName string, at time.Time) Notification {
	id := m.ID.String()

	return NewNotification(nil,
		fmt.Sprintf("New meeting %q on %s by %s is waiting for approval", m.Title, m.StartsAt.Format(time.DateTime), creatorName),
		NotificationMeetingApproval, &id, at)
}

func MeetingApprovedNotification(m Meeting, at time.Time) Notification {
	id := m.ID.String()

	return NewNotification(m.CreatedBy,
		fmt.Sprintf("Meeting %q on %s has been approved", m.Title, m.StartsAt.Format(time.DateTime)),
		NotificationMeetingApproved, &id, at)
}
