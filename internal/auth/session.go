// Package auth turns raw transport credentials into a verified employee
// identity and answers role checks for mutating endpoints.
package auth

import (
	"context"
	"errors"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/store"
	"github.com/prot-alx/megaportal-backend-api-sub000/internal/token"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the result of a successful authentication. RotatedAccessToken
// is non-empty when the access token was minted from the refresh token; the
// caller must persist it as the new access cookie.
type Identity struct {
	Employee           models.Employee
	RotatedAccessToken string
}

type Guard struct {
	tokens    *token.Service
	employees store.EmployeeStore
}

func NewGuard(tokens *token.Service, employees store.EmployeeStore) *Guard {
	return &Guard{tokens: tokens, employees: employees}
}

// Authenticate resolves the acting employee from an access token, falling
// back to the refresh token when the access token is missing or no longer
// verifies (expiry included). An inactive or missing employee is always
// ErrUnauthorized, whatever the tokens say.
func (g *Guard) Authenticate(ctx context.Context, accessToken, refreshToken string) (Identity, error) {
	if accessToken == "" && refreshToken == "" {
		return Identity{}, ErrUnauthorized
	}
	if accessToken == "" {
		return g.refresh(ctx, refreshToken)
	}

	claims, err := g.tokens.VerifyAccess(accessToken)
	if err != nil {
		if refreshToken != "" {
			return g.refresh(ctx, refreshToken)
		}
		return Identity{}, ErrUnauthorized
	}
	employee, err := g.lookupActive(ctx, claims.EmployeeID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Employee: employee}, nil
}

func (g *Guard) refresh(ctx context.Context, refreshToken string) (Identity, error) {
	claims, err := g.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	employee, err := g.lookupActive(ctx, claims.EmployeeID)
	if err != nil {
		return Identity{}, err
	}
	rotated, err := g.tokens.IssueAccess(employee)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Employee: employee, RotatedAccessToken: rotated}, nil
}

func (g *Guard) lookupActive(ctx context.Context, employeeID string) (models.Employee, error) {
	employee, err := g.employees.FindEmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Employee{}, ErrUnauthorized
		}
		return models.Employee{}, err
	}
	if !employee.IsActive {
		return models.Employee{}, ErrUnauthorized
	}
	return employee, nil
}
