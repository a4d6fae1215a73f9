package rbac

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-commerce/storefront/internal/localization"
	"github.com/odyssey-commerce/storefront/internal/platform/cache"
	"github.com/odyssey-commerce/storefront/internal/roles"
	"github.com/odyssey-commerce/storefront/internal/shared"
)

type fakeStore struct {
	mu           sync.Mutex
	capabilities []Capability
	grants       []Grant
	nextID       int64
	roleReads    int
	failInsert   string
	conflicts    int
	inserts      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1000}
}

func (f *fakeStore) ListCapabilities(ctx context.Context) ([]Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]Capability(nil), f.capabilities...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) ListCapabilitySystemNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.capabilities))
	for _, c := range f.capabilities {
		names = append(names, c.SystemName)
	}
	return names, nil
}

func (f *fakeStore) GetCapabilityByID(ctx context.Context, id int64) (Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.capabilities {
		if c.ID == id {
			return c, nil
		}
	}
	return Capability{}, ErrNotFound
}

func (f *fakeStore) GetCapabilityBySystemName(ctx context.Context, systemName string) (Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.capabilities {
		if c.SystemName == systemName {
			return c, nil
		}
	}
	return Capability{}, ErrNotFound
}

func (f *fakeStore) InsertCapability(ctx context.Context, c Capability) (Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.failInsert != "" && f.failInsert == c.SystemName {
		return Capability{}, errors.New("insert failed")
	}
	if f.conflicts > 0 {
		f.conflicts--
		return Capability{}, &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	}
	for _, existing := range f.capabilities {
		if existing.SystemName == c.SystemName {
			return existing, nil
		}
	}
	f.nextID++
	c.ID = f.nextID
	f.capabilities = append(f.capabilities, c)
	return c, nil
}

func (f *fakeStore) UpdateCapability(ctx context.Context, c Capability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.capabilities {
		if f.capabilities[i].ID == c.ID {
			f.capabilities[i].Name = c.Name
			f.capabilities[i].Category = c.Category
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeStore) DeleteCapability(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.capabilities[:0]
	for _, c := range f.capabilities {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.capabilities = kept
	return nil
}

func (f *fakeStore) CapabilitiesForRole(ctx context.Context, roleID int64) ([]Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleReads++
	var out []Capability
	for _, g := range f.grants {
		if g.RoleID != roleID {
			continue
		}
		for _, c := range f.capabilities {
			if c.ID == g.CapabilityID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GrantsForCapability(ctx context.Context, capabilityID int64) ([]Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Grant
	for _, g := range f.grants {
		if g.CapabilityID == capabilityID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) FindGrant(ctx context.Context, capabilityID, roleID int64) (*Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants {
		if g.CapabilityID == capabilityID && g.RoleID == roleID {
			found := g
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertGrant(ctx context.Context, g Grant) (Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = f.nextID
	f.grants = append(f.grants, g)
	return g, nil
}

func (f *fakeStore) DeleteGrant(ctx context.Context, capabilityID, roleID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := false
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.CapabilityID == capabilityID && g.RoleID == roleID {
			removed = true
			continue
		}
		kept = append(kept, g)
	}
	f.grants = kept
	return removed, nil
}

func (f *fakeStore) DeleteGrantsForCapability(ctx context.Context, capabilityID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.grants[:0]
	for _, g := range f.grants {
		if g.CapabilityID != capabilityID {
			kept = append(kept, g)
		}
	}
	f.grants = kept
	return nil
}

func (f *fakeStore) grantCount(capabilityID, roleID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.grants {
		if g.CapabilityID == capabilityID && g.RoleID == roleID {
			n++
		}
	}
	return n
}

func (f *fakeStore) grantsSnapshot() []Grant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Grant(nil), f.grants...)
}

type storeState struct {
	capabilities []Capability
	grants       []Grant
	roles        []roles.Role
}

// fakeTx rolls the fake store and role repository back when fn fails.
type fakeTx struct {
	store *fakeStore
	roles *fakeRoleRepo
}

func (t fakeTx) InTx(ctx context.Context, fn func(context.Context) error) error {
	t.store.mu.Lock()
	t.roles.mu.Lock()
	saved := storeState{
		capabilities: append([]Capability(nil), t.store.capabilities...),
		grants:       append([]Grant(nil), t.store.grants...),
		roles:        append([]roles.Role(nil), t.roles.roles...),
	}
	t.roles.mu.Unlock()
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.capabilities = saved.capabilities
		t.store.grants = saved.grants
		t.store.mu.Unlock()
		t.roles.mu.Lock()
		t.roles.roles = saved.roles
		t.roles.mu.Unlock()
		return err
	}
	return nil
}

type fakeRoleRepo struct {
	mu          sync.Mutex
	roles       []roles.Role
	memberships map[int64][]int64
	nextID      int64
}

func newFakeRoleRepo(existing ...roles.Role) *fakeRoleRepo {
	return &fakeRoleRepo{roles: existing, memberships: map[int64][]int64{}, nextID: 10}
}

func (f *fakeRoleRepo) ListRoles(ctx context.Context, showHidden bool) ([]roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []roles.Role
	for _, r := range f.roles {
		if r.Active || showHidden {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) GetRoleByID(ctx context.Context, id int64) (roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return roles.Role{}, roles.ErrNotFound
}

func (f *fakeRoleRepo) GetRoleBySystemName(ctx context.Context, systemName string) (roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.SystemName == systemName {
			return r, nil
		}
	}
	return roles.Role{}, roles.ErrNotFound
}

func (f *fakeRoleRepo) InsertRole(ctx context.Context, role roles.Role) (roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	role.ID = f.nextID
	f.roles = append(f.roles, role)
	return role, nil
}

func (f *fakeRoleRepo) ListActiveRolesForCustomer(ctx context.Context, customerID int64) ([]roles.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []roles.Role
	for _, id := range f.memberships[customerID] {
		for _, r := range f.roles {
			if r.ID == id && r.Active {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) assign(customerID int64, roleIDs ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships[customerID] = append(f.memberships[customerID], roleIDs...)
}

func (f *fakeRoleRepo) bySystemName(systemName string) (roles.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.roles {
		if r.SystemName == systemName {
			return r, true
		}
	}
	return roles.Role{}, false
}

type fakeLocalizer struct {
	mu        sync.Mutex
	languages []localization.Language
	names     map[string]string
	deleted   []string
}

func newFakeLocalizer() *fakeLocalizer {
	return &fakeLocalizer{
		languages: []localization.Language{{ID: 1, Name: "English", Published: true}},
		names:     map[string]string{},
	}
}

func (f *fakeLocalizer) Languages(ctx context.Context) ([]localization.Language, error) {
	return f.languages, nil
}

func (f *fakeLocalizer) SaveLocalizedDisplayName(ctx context.Context, systemName, displayName string, languages []localization.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(languages) > 0 {
		f.names[systemName] = displayName
	}
	return nil
}

func (f *fakeLocalizer) DeleteLocalizedDisplayName(ctx context.Context, systemName string, languages []localization.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.names, systemName)
	f.deleted = append(f.deleted, systemName)
	return nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (f *fakeAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, log)
	return nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	decisions map[bool]int
}

func (f *fakeRecorder) RecordDecision(capability string, granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decisions == nil {
		f.decisions = map[bool]int{}
	}
	f.decisions[granted]++
}

type fixture struct {
	svc       *Service
	store     *fakeStore
	roleRepo  *fakeRoleRepo
	roles     *roles.Service
	localizer *fakeLocalizer
	auditor   *fakeAuditor
	recorder  *fakeRecorder
	registry  *Registry
}

func newFixture(t *testing.T, existing ...roles.Role) *fixture {
	t.Helper()
	c := cache.NewCache(cache.NewMemoryStore(1000, time.Minute), nil)
	f := &fixture{
		store:     newFakeStore(),
		roleRepo:  newFakeRoleRepo(existing...),
		localizer: newFakeLocalizer(),
		auditor:   &fakeAuditor{},
		recorder:  &fakeRecorder{},
		registry:  NewRegistry(),
	}
	f.roles = roles.NewService(f.roleRepo, c)
	f.svc = NewService(ServiceParams{
		Store:     f.store,
		Roles:     f.roles,
		Localizer: f.localizer,
		Tx:        fakeTx{store: f.store, roles: f.roleRepo},
		Cache:     c,
		Registry:  f.registry,
		Auditor:   f.auditor,
		Recorder:  f.recorder,
	})
	return f
}

// install reconciles a single capability granted to the given roles and returns it.
func (f *fixture) install(t *testing.T, systemName string, roleNames ...string) Capability {
	t.Helper()
	created, err := f.svc.Reconcile(context.Background(), []CapabilityDeclaration{{
		Name: systemName, SystemName: systemName, Category: "Test", DefaultRoles: roleNames,
	}})
	if err != nil {
		t.Fatalf("install %s: %v", systemName, err)
	}
	if len(created) != 1 {
		t.Fatalf("install %s: expected 1 capability, got %d", systemName, len(created))
	}
	return created[0]
}

func (f *fixture) role(t *testing.T, systemName string) roles.Role {
	t.Helper()
	r, ok := f.roleRepo.bySystemName(systemName)
	if !ok {
		t.Fatalf("role %s missing", systemName)
	}
	return r
}
