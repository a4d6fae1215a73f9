package rbac

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Registry collects capability declarations from the core and from plugins.
// Declarations are kept in registration order.
type Registry struct {
	mu       sync.Mutex
	validate *validator.Validate
	decls    []CapabilityDeclaration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{validate: validator.New()}
}

// DefaultRegistry receives the declarations registered from package init functions.
var DefaultRegistry = NewRegistry()

// Register validates and appends declarations. Either all of them are added or none.
func (r *Registry) Register(decls ...CapabilityDeclaration) error {
	for i := range decls {
		if err := r.validate.Struct(decls[i]); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidDeclaration, decls[i].SystemName, err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range decls {
		r.decls = append(r.decls, d.clone())
	}
	return nil
}

// Declarations returns a deep copy of the registered declarations.
func (r *Registry) Declarations() []CapabilityDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CapabilityDeclaration, 0, len(r.decls))
	for _, d := range r.decls {
		out = append(out, d.clone())
	}
	return out
}

// RegisterCapabilityProvider adds declarations to DefaultRegistry. It is meant
// for package init functions and panics on invalid declarations.
func RegisterCapabilityProvider(decls ...CapabilityDeclaration) {
	if err := DefaultRegistry.Register(decls...); err != nil {
		panic(err)
	}
}
