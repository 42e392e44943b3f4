package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindEmployeeByID(ctx context.Context, employeeID string) (models.Employee, error) {
	return s.findEmployee(ctx, `
		SELECT employee_id, login, password_hash, role, is_active, name, created_at
		FROM employees
		WHERE employee_id = $1
	`, employeeID)
}

func (s *Store) FindEmployeeByLogin(ctx context.Context, login string) (models.Employee, error) {
	return s.findEmployee(ctx, `
		SELECT employee_id, login, password_hash, role, is_active, name, created_at
		FROM employees
		WHERE lower(login) = lower($1)
	`, login)
}

func (s *Store) findEmployee(ctx context.Context, query, arg string) (models.Employee, error) {
	var employee models.Employee
	row := s.pool.QueryRow(ctx, query, arg)
	err := row.Scan(&employee.EmployeeID, &employee.Login, &employee.PasswordHash, &employee.Role, &employee.IsActive, &employee.Name, &employee.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, store.ErrNotFound
		}
		return models.Employee{}, pkgerrors.Wrap(err, "find employee")
	}
	return employee, nil
}

func (s *Store) CreateEmployee(ctx context.Context, input store.CreateEmployeeInput) (models.Employee, error) {
	employee := models.Employee{
		EmployeeID:   uuid.NewString(),
		Login:        input.Login,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		IsActive:     true,
		Name:         input.Name,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (employee_id, login, password_hash, role, is_active, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, employee.EmployeeID, employee.Login, employee.PasswordHash, employee.Role, employee.IsActive, employee.Name, employee.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Employee{}, store.ErrDuplicateLogin
		}
		return models.Employee{}, pkgerrors.Wrap(err, "create employee")
	}
	return employee, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employee models.Employee) (models.Employee, error) {
	var updated models.Employee
	row := s.pool.QueryRow(ctx, `
		UPDATE employees
		SET role = $2, is_active = $3, name = $4
		WHERE employee_id = $1
		RETURNING employee_id, login, password_hash, role, is_active, name, created_at
	`, employee.EmployeeID, employee.Role, employee.IsActive, employee.Name)
	err := row.Scan(&updated.EmployeeID, &updated.Login, &updated.PasswordHash, &updated.Role, &updated.IsActive, &updated.Name, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, store.ErrNotFound
		}
		return models.Employee{}, pkgerrors.Wrap(err, "update employee")
	}
	return updated, nil
}

func (s *Store) FindRequest(ctx context.Context, requestID string) (models.ServiceRequest, error) {
	var request models.ServiceRequest
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, creator_id, client_id, description, address, requested_date, type, COALESCE(comment, ''), status, created_at, updated_at
		FROM service_requests
		WHERE request_id = $1
	`, requestID)
	if err := scanRequest(row, &request); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ServiceRequest{}, store.ErrNotFound
		}
		return models.ServiceRequest{}, pkgerrors.Wrap(err, "find request")
	}
	return request, nil
}

func (s *Store) GetRequestDetails(ctx context.Context, requestID string) (store.RequestDetails, error) {
	request, err := s.FindRequest(ctx, requestID)
	if err != nil {
		return store.RequestDetails{}, err
	}
	assignments, err := s.ListAssignments(ctx, requestID)
	if err != nil {
		return store.RequestDetails{}, err
	}
	return store.RequestDetails{Request: request, Assignments: assignments}, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]store.RequestDetails, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, creator_id, client_id, description, address, requested_date, type, COALESCE(comment, ''), status, created_at, updated_at
		FROM service_requests
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list requests")
	}
	defer rows.Close()

	var details []store.RequestDetails
	var ids []string
	for rows.Next() {
		var request models.ServiceRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, pkgerrors.Wrap(err, "scan request")
		}
		details = append(details, store.RequestDetails{Request: request})
		ids = append(ids, request.RequestID)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "list requests")
	}

	if len(ids) == 0 {
		return details, nil
	}
	byRequest, err := s.assignmentsByRequest(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i].Assignments = byRequest[details[i].Request.RequestID]
	}
	return details, nil
}

func (s *Store) CreateRequest(ctx context.Context, input store.CreateRequestInput) (models.ServiceRequest, error) {
	now := time.Now().UTC()
	request := models.ServiceRequest{
		RequestID:     uuid.NewString(),
		CreatorID:     input.CreatorID,
		ClientID:      input.ClientID,
		Description:   input.Description,
		Address:       input.Address,
		RequestedDate: input.RequestedDate,
		Type:          input.Type,
		Status:        models.StatusNew,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO service_requests (request_id, creator_id, client_id, description, address, requested_date, type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, request.RequestID, request.CreatorID, request.ClientID, request.Description, request.Address, request.RequestedDate, request.Type, request.Status, request.CreatedAt, request.UpdatedAt)
	if err != nil {
		return models.ServiceRequest{}, pkgerrors.Wrap(err, "create request")
	}
	return request, nil
}

// UpdateStatus is compare-and-set on the current status so two overlapping
// transitions validated against the same snapshot cannot both apply.
func (s *Store) UpdateStatus(ctx context.Context, requestID, fromStatus, toStatus string) (models.ServiceRequest, error) {
	var request models.ServiceRequest
	row := s.pool.QueryRow(ctx, `
		UPDATE service_requests
		SET status = $3, updated_at = NOW()
		WHERE request_id = $1 AND status = $2
		RETURNING request_id, creator_id, client_id, description, address, requested_date, type, COALESCE(comment, ''), status, created_at, updated_at
	`, requestID, fromStatus, toStatus)
	if err := scanRequest(row, &request); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, findErr := s.FindRequest(ctx, requestID); errors.Is(findErr, store.ErrNotFound) {
				return models.ServiceRequest{}, store.ErrNotFound
			}
			return models.ServiceRequest{}, store.ErrStatusConflict
		}
		return models.ServiceRequest{}, pkgerrors.Wrap(err, "update status")
	}
	return request, nil
}

func (s *Store) UpdateComment(ctx context.Context, requestID, comment string) (models.ServiceRequest, error) {
	var request models.ServiceRequest
	row := s.pool.QueryRow(ctx, `
		UPDATE service_requests
		SET comment = $2, updated_at = NOW()
		WHERE request_id = $1
		RETURNING request_id, creator_id, client_id, description, address, requested_date, type, COALESCE(comment, ''), status, created_at, updated_at
	`, requestID, comment)
	if err := scanRequest(row, &request); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ServiceRequest{}, store.ErrNotFound
		}
		return models.ServiceRequest{}, pkgerrors.Wrap(err, "update comment")
	}
	return request, nil
}

func (s *Store) CreateAssignment(ctx context.Context, requestID, executorID, performerID string) (models.RequestAssignment, error) {
	assignment := models.RequestAssignment{
		AssignmentID: uuid.NewString(),
		RequestID:    requestID,
		ExecutorID:   executorID,
		PerformerID:  performerID,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO request_assignments (assignment_id, request_id, executor_id, performer_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, assignment.AssignmentID, assignment.RequestID, assignment.ExecutorID, assignment.PerformerID, assignment.CreatedAt)
	if err != nil {
		return models.RequestAssignment{}, pkgerrors.Wrap(err, "create assignment")
	}
	return assignment, nil
}

func (s *Store) ListAssignments(ctx context.Context, requestID string) ([]models.RequestAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT assignment_id, request_id, executor_id, performer_id, created_at
		FROM request_assignments
		WHERE request_id = $1
		ORDER BY created_at
	`, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list assignments")
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *Store) LogAction(ctx context.Context, entry models.AuditEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (employee_id, action, table_name, record_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, entry.EmployeeID, entry.Action, entry.TableName, entry.RecordID, entry.Details)
	if err != nil {
		return pkgerrors.Wrap(err, "log action")
	}
	return nil
}

func (s *Store) assignmentsByRequest(ctx context.Context, requestIDs []string) (map[string][]models.RequestAssignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT assignment_id, request_id, executor_id, performer_id, created_at
		FROM request_assignments
		WHERE request_id = ANY($1)
		ORDER BY created_at
	`, requestIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list assignments")
	}
	defer rows.Close()

	assignments, err := scanAssignments(rows)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[string][]models.RequestAssignment, len(requestIDs))
	for _, assignment := range assignments {
		byRequest[assignment.RequestID] = append(byRequest[assignment.RequestID], assignment)
	}
	return byRequest, nil
}

func scanAssignments(rows pgx.Rows) ([]models.RequestAssignment, error) {
	var assignments []models.RequestAssignment
	for rows.Next() {
		var assignment models.RequestAssignment
		if err := rows.Scan(&assignment.AssignmentID, &assignment.RequestID, &assignment.ExecutorID, &assignment.PerformerID, &assignment.CreatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan assignment")
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "scan assignments")
	}
	return assignments, nil
}

func scanRequest(row pgx.Row, request *models.ServiceRequest) error {
	return row.Scan(
		&request.RequestID,
		&request.CreatorID,
		&request.ClientID,
		&request.Description,
		&request.Address,
		&request.RequestedDate,
		&request.Type,
		&request.Comment,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}
