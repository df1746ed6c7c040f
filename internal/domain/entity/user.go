package entity

import (
	"time"
)

// User is the account record as seen by everything outside the login path.
// It carries no password hash, so serializing it can never leak credentials.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        int64     `json:"phone"`
	ProfileImage string    `json:"profileImage"`
	Role         Role      `json:"role"`
	IsBlocked    bool      `json:"isBlocked"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credential is the projection returned only by the credential lookup used
// for login. Keeping the hash off User means forgetting to strip it at a
// call site is a compile error, not a data leak.
type Credential struct {
	User
	PasswordHash string
}
