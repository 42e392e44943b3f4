package store

import (
	"context"
	"time"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
)

type CreateEmployeeInput struct {
	Login        string
	PasswordHash string
	Role         string
	Name         string
}

type CreateRequestInput struct {
	CreatorID     string
	ClientID      string
	Description   string
	Address       string
	RequestedDate *time.Time
	Type          string
}

// RequestDetails is a request together with its assignment history, the shape
// returned by list and fetch reads.
type RequestDetails struct {
	Request     models.ServiceRequest      `json:"request"`
	Assignments []models.RequestAssignment `json:"assignments"`
}

type EmployeeStore interface {
	FindEmployeeByID(ctx context.Context, employeeID string) (models.Employee, error)
	FindEmployeeByLogin(ctx context.Context, login string) (models.Employee, error)
	CreateEmployee(ctx context.Context, input CreateEmployeeInput) (models.Employee, error)
	UpdateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error)
}

type RequestStore interface {
	FindRequest(ctx context.Context, requestID string) (models.ServiceRequest, error)
	GetRequestDetails(ctx context.Context, requestID string) (RequestDetails, error)
	ListRequests(ctx context.Context) ([]RequestDetails, error)
	CreateRequest(ctx context.Context, input CreateRequestInput) (models.ServiceRequest, error)
	// UpdateStatus applies the transition only if the stored status still
	// equals fromStatus; ErrStatusConflict otherwise.
	UpdateStatus(ctx context.Context, requestID, fromStatus, toStatus string) (models.ServiceRequest, error)
	UpdateComment(ctx context.Context, requestID, comment string) (models.ServiceRequest, error)
}

type AssignmentStore interface {
	CreateAssignment(ctx context.Context, requestID, executorID, performerID string) (models.RequestAssignment, error)
	ListAssignments(ctx context.Context, requestID string) ([]models.RequestAssignment, error)
}

// AuditStore is fire-and-forget: callers log failures and move on.
type AuditStore interface {
	LogAction(ctx context.Context, entry models.AuditEntry) error
}
