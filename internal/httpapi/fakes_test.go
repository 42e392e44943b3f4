package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/auth"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/hub"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/lifecycle"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/notify"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/token"
)

// memStore is an in-memory implementation of every store interface, enough
// to drive the handlers end to end without postgres.
type memStore struct {
	mu          sync.Mutex
	employees   map[string]models.Employee
	requests    map[string]models.ServiceRequest
	assignments []models.RequestAssignment
	audit       []models.AuditEntry
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[string]models.Employee),
		requests:  make(map[string]models.ServiceRequest),
	}
}

func (m *memStore) addEmployee(employee models.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[employee.EmployeeID] = employee
}

func (m *memStore) FindEmployeeByID(ctx context.Context, employeeID string) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	employee, ok := m.employees[employeeID]
	if !ok {
		return models.Employee{}, store.ErrNotFound
	}
	return employee, nil
}

func (m *memStore) FindEmployeeByLogin(ctx context.Context, login string) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, employee := range m.employees {
		if employee.Login == login {
			return employee, nil
		}
	}
	return models.Employee{}, store.ErrNotFound
}

func (m *memStore) CreateEmployee(ctx context.Context, input store.CreateEmployeeInput) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, employee := range m.employees {
		if employee.Login == input.Login {
			return models.Employee{}, store.ErrDuplicateLogin
		}
	}
	m.seq++
	employee := models.Employee{
		EmployeeID:   fmt.Sprintf("emp-%d", m.seq),
		Login:        input.Login,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		IsActive:     true,
		Name:         input.Name,
		CreatedAt:    time.Now().UTC(),
	}
	m.employees[employee.EmployeeID] = employee
	return employee, nil
}

func (m *memStore) UpdateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[employee.EmployeeID]; !ok {
		return models.Employee{}, store.ErrNotFound
	}
	m.employees[employee.EmployeeID] = employee
	return employee, nil
}

func (m *memStore) FindRequest(ctx context.Context, requestID string) (models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[requestID]
	if !ok {
		return models.ServiceRequest{}, store.ErrNotFound
	}
	return request, nil
}

func (m *memStore) GetRequestDetails(ctx context.Context, requestID string) (store.RequestDetails, error) {
	request, err := m.FindRequest(ctx, requestID)
	if err != nil {
		return store.RequestDetails{}, err
	}
	assignments, _ := m.ListAssignments(ctx, requestID)
	return store.RequestDetails{Request: request, Assignments: assignments}, nil
}

func (m *memStore) ListRequests(ctx context.Context) ([]store.RequestDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var details []store.RequestDetails
	for _, request := range m.requests {
		details = append(details, store.RequestDetails{Request: request})
	}
	return details, nil
}

func (m *memStore) CreateRequest(ctx context.Context, input store.CreateRequestInput) (models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := time.Now().UTC()
	request := models.ServiceRequest{
		RequestID:   fmt.Sprintf("req-%d", m.seq),
		CreatorID:   input.CreatorID,
		ClientID:    input.ClientID,
		Description: input.Description,
		Address:     input.Address,
		Type:        input.Type,
		Status:      models.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.requests[request.RequestID] = request
	return request, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, requestID, fromStatus, toStatus string) (models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[requestID]
	if !ok {
		return models.ServiceRequest{}, store.ErrNotFound
	}
	if request.Status != fromStatus {
		return models.ServiceRequest{}, store.ErrStatusConflict
	}
	request.Status = toStatus
	request.UpdatedAt = time.Now().UTC()
	m.requests[requestID] = request
	return request, nil
}

func (m *memStore) UpdateComment(ctx context.Context, requestID, comment string) (models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[requestID]
	if !ok {
		return models.ServiceRequest{}, store.ErrNotFound
	}
	request.Comment = comment
	m.requests[requestID] = request
	return request, nil
}

func (m *memStore) CreateAssignment(ctx context.Context, requestID, executorID, performerID string) (models.RequestAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	assignment := models.RequestAssignment{
		AssignmentID: fmt.Sprintf("asg-%d", m.seq),
		RequestID:    requestID,
		ExecutorID:   executorID,
		PerformerID:  performerID,
		CreatedAt:    time.Now().UTC(),
	}
	m.assignments = append(m.assignments, assignment)
	return assignment, nil
}

func (m *memStore) ListAssignments(ctx context.Context, requestID string) ([]models.RequestAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RequestAssignment
	for _, assignment := range m.assignments {
		if assignment.RequestID == requestID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

func (m *memStore) LogAction(ctx context.Context, entry models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

type testEnv struct {
	store   *memStore
	tokens  *token.Service
	hub     *hub.Hub
	handler *Handler
}

func newTestEnv() *testEnv {
	st := newMemStore()
	tokens := token.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	guard := auth.NewGuard(tokens, st)
	connections := hub.New(time.Hour, time.Second)
	notifier := notify.NewNotifier(connections)
	manager := lifecycle.NewManager(st, st, st, st, notifier)
	handler := NewHandler(st, tokens, guard, manager, connections, st, Options{})
	return &testEnv{store: st, tokens: tokens, hub: connections, handler: handler}
}
