// Package lifecycle owns the service-request state machine: creation,
// performer assignment, status transitions, comments, and closure. Every
// successful mutation is audited and published; nothing is published when a
// mutation fails.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/event"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store"
)

var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidStatus     = errors.New("unknown request status")
	ErrInvalidType       = errors.New("unknown request type")
)

// Notifier receives events after the underlying mutation has committed.
type Notifier interface {
	Publish(ev event.Event)
}

type Manager struct {
	employees   store.EmployeeStore
	requests    store.RequestStore
	assignments store.AssignmentStore
	audit       store.AuditStore
	notifier    Notifier
}

func NewManager(employees store.EmployeeStore, requests store.RequestStore, assignments store.AssignmentStore, audit store.AuditStore, notifier Notifier) *Manager {
	return &Manager{
		employees:   employees,
		requests:    requests,
		assignments: assignments,
		audit:       audit,
		notifier:    notifier,
	}
}

// Create opens a new request with status=new on behalf of the acting
// dispatcher.
func (m *Manager) Create(ctx context.Context, actor models.Employee, input store.CreateRequestInput) (models.ServiceRequest, error) {
	if input.Type == "" {
		input.Type = models.TypeDefault
	}
	if !models.ValidRequestType(input.Type) {
		return models.ServiceRequest{}, ErrInvalidType
	}
	input.CreatorID = actor.EmployeeID

	request, err := m.requests.CreateRequest(ctx, input)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	m.logAction(ctx, actor, "create", request.RequestID, "")
	m.notifier.Publish(event.RequestCreated{Request: request, Initiator: event.Actor(actor)})
	return request, nil
}

// Assign records a new assignment of performer to request. Assignments are
// additive: reassignment appends a record, earlier rows stay as history.
// The status is not touched; moving to in_progress is a separate call.
func (m *Manager) Assign(ctx context.Context, actor models.Employee, requestID, performerID string) (models.RequestAssignment, error) {
	request, err := m.requests.FindRequest(ctx, requestID)
	if err != nil {
		return models.RequestAssignment{}, err
	}
	if IsTerminal(request.Status) {
		return models.RequestAssignment{}, ErrInvalidTransition
	}
	performer, err := m.employees.FindEmployeeByID(ctx, performerID)
	if err != nil {
		return models.RequestAssignment{}, err
	}

	assignment, err := m.assignments.CreateAssignment(ctx, requestID, actor.EmployeeID, performer.EmployeeID)
	if err != nil {
		return models.RequestAssignment{}, err
	}

	m.logAction(ctx, actor, "assign", requestID, fmt.Sprintf("performer=%s", performer.EmployeeID))
	m.notifier.Publish(event.PerformerAssigned{Request: request, Assignment: assignment, Initiator: event.Actor(actor)})
	return assignment, nil
}

// ChangeStatus moves the request along the state machine. The storage update
// is conditional on the status the transition was validated against, so two
// overlapping transitions cannot both win.
func (m *Manager) ChangeStatus(ctx context.Context, actor models.Employee, requestID, newStatus string) (models.ServiceRequest, error) {
	return m.changeStatus(ctx, actor, requestID, newStatus, "change_status")
}

func (m *Manager) changeStatus(ctx context.Context, actor models.Employee, requestID, newStatus, action string) (models.ServiceRequest, error) {
	if !models.ValidStatus(newStatus) {
		return models.ServiceRequest{}, ErrInvalidStatus
	}
	request, err := m.requests.FindRequest(ctx, requestID)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	if !ValidTransition(request.Status, newStatus) {
		return models.ServiceRequest{}, ErrInvalidTransition
	}

	updated, err := m.requests.UpdateStatus(ctx, requestID, request.Status, newStatus)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	m.logAction(ctx, actor, action, requestID, fmt.Sprintf("%s->%s", request.Status, newStatus))
	m.notifier.Publish(m.statusEvent(actor, updated, request.Status, newStatus))
	return updated, nil
}

// AddComment overwrites the request comment; repeating the same text is a
// no-op in effect (last write wins, no accumulation).
func (m *Manager) AddComment(ctx context.Context, actor models.Employee, requestID, text string) (models.ServiceRequest, error) {
	request, err := m.requests.FindRequest(ctx, requestID)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	if IsTerminal(request.Status) {
		return models.ServiceRequest{}, ErrInvalidTransition
	}

	updated, err := m.requests.UpdateComment(ctx, requestID, text)
	if err != nil {
		return models.ServiceRequest{}, err
	}

	m.logAction(ctx, actor, "comment", requestID, "")
	m.notifier.Publish(event.CommentAdded{Request: updated, Comment: text, Initiator: event.Actor(actor)})
	return updated, nil
}

// Close is a status change to closed; kept as its own operation because it
// emits a distinct terminal event and its own audit action.
func (m *Manager) Close(ctx context.Context, actor models.Employee, requestID string) (models.ServiceRequest, error) {
	return m.changeStatus(ctx, actor, requestID, models.StatusClosed, "close")
}

// Cancel aborts the request from any non-terminal status.
func (m *Manager) Cancel(ctx context.Context, actor models.Employee, requestID string) (models.ServiceRequest, error) {
	return m.changeStatus(ctx, actor, requestID, models.StatusCancelled, "cancel")
}

func (m *Manager) Get(ctx context.Context, requestID string) (store.RequestDetails, error) {
	return m.requests.GetRequestDetails(ctx, requestID)
}

func (m *Manager) List(ctx context.Context) ([]store.RequestDetails, error) {
	return m.requests.ListRequests(ctx)
}

func (m *Manager) statusEvent(actor models.Employee, request models.ServiceRequest, fromStatus, toStatus string) event.Event {
	initiator := event.Actor(actor)
	switch toStatus {
	case models.StatusClosed:
		return event.RequestClosed{Request: request, Initiator: initiator}
	case models.StatusCancelled:
		return event.RequestCancelled{Request: request, Initiator: initiator}
	default:
		return event.StatusChanged{Request: request, FromStatus: fromStatus, ToStatus: toStatus, Initiator: initiator}
	}
}

// logAction feeds the audit sink; audit failures never fail the mutation.
func (m *Manager) logAction(ctx context.Context, actor models.Employee, action, recordID, details string) {
	entry := models.AuditEntry{
		EmployeeID: actor.EmployeeID,
		Action:     action,
		TableName:  "service_requests",
		RecordID:   recordID,
		Details:    details,
	}
	if err := m.audit.LogAction(ctx, entry); err != nil {
		logrus.Errorf("audit log action=%s record=%s: %v", action, recordID, err)
	}
}
