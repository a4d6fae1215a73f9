package customers

import (
	"context"
	"errors"
	"strconv"

	"github.com/odyssey-commerce/storefront/internal/roles"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	CountCustomers(ctx context.Context) (int, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]Customer, error)
	CustomerExists(ctx context.Context, id int64) (bool, error)
	AssignRole(ctx context.Context, customerID, roleID int64) (bool, error)
	UnassignRole(ctx context.Context, customerID, roleID int64) (bool, error)
}

// RoleDirectory is the subset of the role directory used here.
type RoleDirectory interface {
	GetRole(ctx context.Context, id int64) (roles.Role, error)
	InvalidateCustomer(ctx context.Context, customerID int64) error
}

// Auditor records membership changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Page is one page of customers.
type Page struct {
	Customers  []Customer        `json:"customers"`
	Pagination shared.Pagination `json:"pagination"`
}

// Service handles customer role membership.
type Service struct {
	repo    RepositoryPort
	roles   RoleDirectory
	auditor Auditor
}

// NewService builds Service instance. auditor may be nil.
func NewService(repo RepositoryPort, directory RoleDirectory, auditor Auditor) *Service {
	return &Service{repo: repo, roles: directory, auditor: auditor}
}

// ListCustomers returns a page of customers.
func (s *Service) ListCustomers(ctx context.Context, page, perPage int) (Page, error) {
	total, err := s.repo.CountCustomers(ctx)
	if err != nil {
		return Page{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListCustomers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return Page{}, err
	}
	if list == nil {
		list = []Customer{}
	}
	return Page{Customers: list, Pagination: p}, nil
}

// AssignRole makes the customer a member of the role. Cached role lookups
// for the customer are dropped so the next decision sees the change.
func (s *Service) AssignRole(ctx context.Context, customerID, roleID int64) error {
	if err := s.check(ctx, customerID, roleID); err != nil {
		return err
	}
	inserted, err := s.repo.AssignRole(ctx, customerID, roleID)
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	return s.changed(ctx, "customer.role_assign", customerID, roleID)
}

// UnassignRole removes the customer from the role.
func (s *Service) UnassignRole(ctx context.Context, customerID, roleID int64) error {
	if err := s.check(ctx, customerID, roleID); err != nil {
		return err
	}
	removed, err := s.repo.UnassignRole(ctx, customerID, roleID)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	return s.changed(ctx, "customer.role_unassign", customerID, roleID)
}

func (s *Service) check(ctx context.Context, customerID, roleID int64) error {
	exists, err := s.repo.CustomerExists(ctx, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return err
	}
	return nil
}

func (s *Service) changed(ctx context.Context, action string, customerID, roleID int64) error {
	if err := s.roles.InvalidateCustomer(ctx, customerID); err != nil {
		return err
	}
	if s.auditor == nil {
		return nil
	}
	actor, _ := shared.ActorFromContext(ctx)
	return s.auditor.Record(ctx, shared.AuditLog{
		ActorID:  int64(actor),
		Action:   action,
		Entity:   "customer",
		EntityID: strconv.FormatInt(customerID, 10),
		Meta:     map[string]any{"role_id": roleID},
	})
}

// IsNotFound reports whether err means the customer or role is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, roles.ErrNotFound)
}
