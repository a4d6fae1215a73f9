package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service wraps customer sign-in rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// dummyHash is compared against when no usable account exists, so unknown
// and known emails take the same time to reject.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-missing-account"), bcrypt.DefaultCost)

// Authenticate validates email/password credentials. Every failure, including
// lookup errors, surfaces as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Customer, error) {
	customer, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil || !customer.CanSignIn() {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

// HashPassword returns the bcrypt hash stored for a customer password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, customerID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, customerID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
