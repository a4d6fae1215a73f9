package roles

import (
	"errors"
	"time"
)

// ErrNotFound indicates that the requested role does not exist.
var ErrNotFound = errors.New("roles: not found")

// Role represents a named group of customers that capabilities are granted to.
type Role struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SystemName   string    `json:"system_name"`
	IsSystemRole bool      `json:"is_system_role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
