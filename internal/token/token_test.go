package token

import (
	"errors"
	"testing"
	"time"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
)

var testEmployee = models.Employee{
	EmployeeID: "emp-1",
	Login:      "dispatcher01",
	Role:       models.RoleDispatcher,
	IsActive:   true,
	Name:       "Dispatcher One",
}

func TestAccessRoundTrip(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	raw, err := svc.IssueAccess(testEmployee)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	claims, err := svc.VerifyAccess(raw)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.EmployeeID != testEmployee.EmployeeID {
		t.Fatalf("employee_id = %q, want %q", claims.EmployeeID, testEmployee.EmployeeID)
	}
	if claims.Role != models.RoleDispatcher || !claims.IsActive || claims.Login != testEmployee.Login {
		t.Fatalf("claims do not match payload: %+v", claims)
	}
}

func TestSecretsAreIndependent(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	access, err := svc.IssueAccess(testEmployee)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := svc.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token verified as refresh, err = %v", err)
	}

	refresh, err := svc.IssueRefresh(testEmployee)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token verified as access, err = %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	raw, err := svc.IssueAccess(testEmployee)
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := svc.VerifyAccess(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted, err = %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.VerifyAccess(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("malformed token %q accepted, err = %v", raw, err)
		}
	}
}
