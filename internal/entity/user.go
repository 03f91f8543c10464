package entity

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewUser struct {
	Email    string
	Password string
	Role     Role
	Name     string
}

type UserSummary struct {
	User
	AssignedCustomers int `json:"assignedCustomers"`
}

// UserDeletion reports what a user deletion detached or removed.
type UserDeletion struct {
	UnassignedCustomers  int64 `json:"unassignedCustomers"`
	UnassignedTasks      int64 `json:"unassignedTasks"`
	UnassignedDocuments  int64 `json:"unassignedDocuments"`
	DeletedNotifications int64 `json:"deletedNotifications"`
}

// Delivery is the outcome of a best-effort e-mail.
type Delivery struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail"`
}
