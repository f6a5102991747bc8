package entity

import "time"

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOperator  Role = "operator"
	RoleResponder Role = "responder"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleResponder:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	AssignedZone string    `json:"assigned_zone,omitempty" db:"assigned_zone"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Recipient is the addressable projection of a user used by the
// routing core. Identity key is ID, falling back to Email.
type Recipient struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (r Recipient) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Email
}

func RecipientFromUser(u *User) Recipient {
	return Recipient{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}
