package models

import "time"

type Employee struct {
	EmployeeID   string    `json:"employee_id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleAdmin       = "admin"
	RoleStorekeeper = "storekeeper"
	RoleDispatcher  = "dispatcher"
	RolePerformer   = "performer"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStorekeeper, RoleDispatcher, RolePerformer:
		return true
	}
	return false
}
