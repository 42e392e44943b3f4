package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/auth"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/hub"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/lifecycle"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/token"
)

type Handler struct {
	employees     store.EmployeeStore
	tokens        *token.Service
	guard         *auth.Guard
	lifecycle     *lifecycle.Manager
	hub           *hub.Hub
	audit         store.AuditStore
	cookieSecure  bool
	allowedOrigin string
}

type Options struct {
	CookieSecure  bool
	AllowedOrigin string
}

func NewHandler(employees store.EmployeeStore, tokens *token.Service, guard *auth.Guard, manager *lifecycle.Manager, h *hub.Hub, audit store.AuditStore, options Options) *Handler {
	return &Handler{
		employees:     employees,
		tokens:        tokens,
		guard:         guard,
		lifecycle:     manager,
		hub:           h,
		audit:         audit,
		cookieSecure:  options.CookieSecure,
		allowedOrigin: options.AllowedOrigin,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
	mux.HandleFunc("/api/requests", h.handleRequests)
	mux.HandleFunc("/api/requests/", h.handleRequestActions)
	mux.HandleFunc("/api/employees/", h.handleEmployeeUpdate)
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	Employee     models.Employee `json:"employee"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "login and password are required")
		return
	}

	employee, err := h.employees.FindEmployeeByLogin(r.Context(), req.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeInternal(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !employee.IsActive {
		writeError(w, r, http.StatusUnauthorized, "account disabled")
		return
	}

	access, err := h.tokens.IssueAccess(employee)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	refresh, err := h.tokens.IssueRefresh(employee)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	h.setAccessCookie(w, access)
	h.setRefreshCookie(w, refresh)
	h.logAction(r, employee.EmployeeID, "login", "employees", employee.EmployeeID)
	writeJSON(w, http.StatusOK, tokenPairResponse{AccessToken: access, RefreshToken: refresh, Employee: employee})
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	req.Name = strings.TrimSpace(req.Name)
	if req.Login == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "login and password are required")
		return
	}
	if req.Role == "" {
		req.Role = models.RolePerformer
	}
	if !models.ValidRole(req.Role) {
		writeError(w, r, http.StatusBadRequest, "unknown role")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	employee, err := h.employees.CreateEmployee(r.Context(), store.CreateEmployeeInput{
		Login:        req.Login,
		PasswordHash: string(hash),
		Role:         req.Role,
		Name:         req.Name,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateLogin) {
			writeError(w, r, http.StatusConflict, "login already registered")
			return
		}
		writeInternal(w, r, err)
		return
	}

	if actor, ok := identityFromContext(r.Context()); ok {
		h.logAction(r, actor.Employee.EmployeeID, "register", "employees", employee.EmployeeID)
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	refresh := cookieValue(r, refreshCookieName)
	if refresh == "" {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}
	identity, err := h.guard.Authenticate(r.Context(), "", refresh)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, r, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		writeInternal(w, r, err)
		return
	}

	h.setAccessCookie(w, identity.RotatedAccessToken)
	writeJSON(w, http.StatusOK, map[string]string{"access_token": identity.RotatedAccessToken})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}
	writeJSON(w, http.StatusOK, identity.Employee)
}

type createRequestRequest struct {
	ClientID      string     `json:"client_id"`
	Description   string     `json:"description"`
	Address       string     `json:"address"`
	RequestedDate *time.Time `json:"requested_date"`
	Type          string     `json:"type"`
}

func (h *Handler) handleRequests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		details, err := h.lifecycle.List(r.Context())
		if err != nil {
			writeInternal(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	case http.MethodPost:
		h.handleCreateRequest(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}

	var req createRequestRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.Description = strings.TrimSpace(req.Description)
	if req.ClientID == "" || req.Description == "" {
		writeError(w, r, http.StatusBadRequest, "client_id and description are required")
		return
	}

	request, err := h.lifecycle.Create(r.Context(), identity.Employee, store.CreateRequestInput{
		ClientID:      req.ClientID,
		Description:   req.Description,
		Address:       strings.TrimSpace(req.Address),
		RequestedDate: req.RequestedDate,
		Type:          strings.TrimSpace(req.Type),
	})
	if err != nil {
		h.writeMapped(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// handleRequestActions dispatches /api/requests/{id} and
// /api/requests/{id}/{action}.
func (h *Handler) handleRequestActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		details, err := h.lifecycle.Get(r.Context(), parts[0])
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	case len(parts) == 2:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleRequestAction(w, r, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleRequestAction(w http.ResponseWriter, r *http.Request, requestID, action string) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}
	actor := identity.Employee

	switch action {
	case "assign":
		var req struct {
			PerformerID string `json:"performer_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PerformerID) == "" {
			writeError(w, r, http.StatusBadRequest, "performer_id is required")
			return
		}
		assignment, err := h.lifecycle.Assign(r.Context(), actor, requestID, strings.TrimSpace(req.PerformerID))
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, assignment)
	case "status":
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Status) == "" {
			writeError(w, r, http.StatusBadRequest, "status is required")
			return
		}
		request, err := h.lifecycle.ChangeStatus(r.Context(), actor, requestID, strings.TrimSpace(req.Status))
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	case "comment":
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			writeError(w, r, http.StatusBadRequest, "text is required")
			return
		}
		request, err := h.lifecycle.AddComment(r.Context(), actor, requestID, strings.TrimSpace(req.Text))
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	case "close":
		request, err := h.lifecycle.Close(r.Context(), actor, requestID)
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	case "cancel":
		request, err := h.lifecycle.Cancel(r.Context(), actor, requestID)
		if err != nil {
			h.writeMapped(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	default:
		http.NotFound(w, r)
	}
}

type updateEmployeeRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Name     *string `json:"name"`
}

// handleEmployeeUpdate lets an admin change role, activity flag, or name.
// Deactivation takes effect at the employee's next token verification.
func (h *Handler) handleEmployeeUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "token not provided")
		return
	}
	employeeID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/employees/"), "/")
	if employeeID == "" || strings.Contains(employeeID, "/") {
		http.NotFound(w, r)
		return
	}

	var req updateEmployeeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	employee, err := h.employees.FindEmployeeByID(r.Context(), employeeID)
	if err != nil {
		h.writeMapped(w, r, err)
		return
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		employee.Role = *req.Role
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}
	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}

	updated, err := h.employees.UpdateEmployee(r.Context(), employee)
	if err != nil {
		h.writeMapped(w, r, err)
		return
	}
	h.logAction(r, identity.Employee.EmployeeID, "update_employee", "employees", updated.EmployeeID)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeMapped(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrDuplicateLogin):
		writeError(w, r, http.StatusConflict, "login already registered")
	case errors.Is(err, store.ErrStatusConflict), errors.Is(err, lifecycle.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, "status transition not allowed")
	case errors.Is(err, lifecycle.ErrInvalidStatus), errors.Is(err, lifecycle.ErrInvalidType):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	default:
		writeInternal(w, r, err)
	}
}

func (h *Handler) logAction(r *http.Request, employeeID, action, tableName, recordID string) {
	entry := models.AuditEntry{EmployeeID: employeeID, Action: action, TableName: tableName, RecordID: recordID}
	if err := h.audit.LogAction(r.Context(), entry); err != nil {
		logrus.Errorf("audit log action=%s record=%s: %v", action, recordID, err)
	}
}
