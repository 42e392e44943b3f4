// Package token issues and verifies the signed credentials that carry an
// employee identity between requests. Validity is signature plus expiry only;
// nothing is stored server-side.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prot-alx/megaportal-backend-api-sub000/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	EmployeeID string `json:"employee_id"`
	Login      string `json:"login"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// Service signs access and refresh tokens with independent secrets so a leak
// of one cannot mint the other kind.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) IssueAccess(employee models.Employee) (string, error) {
	return issue(employee, s.accessSecret, s.accessTTL)
}

func (s *Service) IssueRefresh(employee models.Employee) (string, error) {
	return issue(employee, s.refreshSecret, s.refreshTTL)
}

func (s *Service) VerifyAccess(raw string) (Claims, error) {
	return verify(raw, s.accessSecret)
}

func (s *Service) VerifyRefresh(raw string) (Claims, error) {
	return verify(raw, s.refreshSecret)
}

func issue(employee models.Employee, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		EmployeeID: employee.EmployeeID,
		Login:      employee.Login,
		Role:       employee.Role,
		IsActive:   employee.IsActive,
		Name:       employee.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verify fails on bad signature, wrong algorithm, malformed input, or expiry.
// Business checks (inactive employee) are the caller's concern.
func verify(raw string, secret []byte) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
