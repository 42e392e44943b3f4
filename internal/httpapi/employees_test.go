package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
)

func patchJSON(t *testing.T, handler http.Handler, path string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestEmployeeUpdateRequiresAdmin(t *testing.T) {
	env := newTestEnv()
	disp := seedEmployee(env, "disp-1", "dispatcher01", "secret", models.RoleDispatcher, true)
	seedEmployee(env, "perf-1", "performer01", "secret", models.RolePerformer, true)
	protected := env.handler.AuthMiddleware(env.handler.Routes())

	access, _ := env.tokens.IssueAccess(disp)
	cookies := []*http.Cookie{{Name: accessCookieName, Value: access}}

	resp := patchJSON(t, protected, "/api/employees/perf-1", map[string]interface{}{"is_active": false}, cookies)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestEmployeeUpdateChangesRoleAndName(t *testing.T) {
	env := newTestEnv()
	admin := seedEmployee(env, "adm-1", "admin01", "secret", models.RoleAdmin, true)
	seedEmployee(env, "perf-1", "performer01", "secret", models.RolePerformer, true)
	protected := env.handler.AuthMiddleware(env.handler.Routes())

	access, _ := env.tokens.IssueAccess(admin)
	cookies := []*http.Cookie{{Name: accessCookieName, Value: access}}

	resp := patchJSON(t, protected, "/api/employees/perf-1", map[string]interface{}{
		"role": models.RoleDispatcher,
		"name": "Pavel Ivanov",
	}, cookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body.String())
	}
	var updated models.Employee
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal employee: %v", err)
	}
	if updated.Role != models.RoleDispatcher || updated.Name != "Pavel Ivanov" {
		t.Fatalf("employee = %+v", updated)
	}
	if !updated.IsActive {
		t.Fatal("activity flag changed without being requested")
	}
}

func TestEmployeeUpdateRejectsUnknownRole(t *testing.T) {
	env := newTestEnv()
	admin := seedEmployee(env, "adm-1", "admin01", "secret", models.RoleAdmin, true)
	seedEmployee(env, "perf-1", "performer01", "secret", models.RolePerformer, true)
	protected := env.handler.AuthMiddleware(env.handler.Routes())

	access, _ := env.tokens.IssueAccess(admin)
	cookies := []*http.Cookie{{Name: accessCookieName, Value: access}}

	resp := patchJSON(t, protected, "/api/employees/perf-1", map[string]interface{}{"role": "wizard"}, cookies)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestEmployeeUpdateUnknownID(t *testing.T) {
	env := newTestEnv()
	admin := seedEmployee(env, "adm-1", "admin01", "secret", models.RoleAdmin, true)
	protected := env.handler.AuthMiddleware(env.handler.Routes())

	access, _ := env.tokens.IssueAccess(admin)
	cookies := []*http.Cookie{{Name: accessCookieName, Value: access}}

	resp := patchJSON(t, protected, "/api/employees/ghost", map[string]interface{}{"is_active": false}, cookies)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

// Deactivation must cut off an employee even while their access token is
// still unexpired: the middleware re-reads the activity flag on every call.
func TestDeactivationInvalidatesLiveSession(t *testing.T) {
	env := newTestEnv()
	admin := seedEmployee(env, "adm-1", "admin01", "secret", models.RoleAdmin, true)
	disp := seedEmployee(env, "disp-1", "dispatcher01", "secret", models.RoleDispatcher, true)
	protected := env.handler.AuthMiddleware(env.handler.Routes())

	dispAccess, _ := env.tokens.IssueAccess(disp)
	dispCookies := []*http.Cookie{{Name: accessCookieName, Value: dispAccess}}

	resp := postJSON(t, protected, "/api/requests", map[string]string{"client_id": "c", "description": "d"}, dispCookies)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create before deactivation: status = %d, want 201", resp.Code)
	}

	adminAccess, _ := env.tokens.IssueAccess(admin)
	adminCookies := []*http.Cookie{{Name: accessCookieName, Value: adminAccess}}
	resp = patchJSON(t, protected, "/api/employees/disp-1", map[string]interface{}{"is_active": false}, adminCookies)
	if resp.Code != http.StatusOK {
		t.Fatalf("deactivate: status = %d, want 200: %s", resp.Code, resp.Body.String())
	}

	resp = postJSON(t, protected, "/api/requests", map[string]string{"client_id": "c", "description": "d"}, dispCookies)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("create after deactivation: status = %d, want 401", resp.Code)
	}
}
