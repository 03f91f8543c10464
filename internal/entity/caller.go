package entity

import "github.com/gofrs/uuid/v5"

// Caller is the authenticated principal every operation acts on behalf of.
type Caller struct {
	ID    uuid.UUID
	Role  Role
	Email string
	Name  string
}

func CallerFromUser(u User) Caller {
	return Caller{
		ID:    u.ID,
		Role:  u.Role,
		Email: u.Email,
		Name:  u.Name,
	}
}

// SystemCaller acts with admin rights but has no user row, used by operator tooling.
func SystemCaller() Caller {
	return Caller{Role: RoleAdmin, Name: "system"}
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// UserRef is the id stored in created_by style columns, nil for the system caller.
func (c Caller) UserRef() *uuid.UUID {
	if c.ID.IsNil() {
		return nil
	}

	id := c.ID

	return &id
}
