package runtime

import (
	"fmt"
	"sort"
	"sync"
)

// Kind names a contract implementation.
type Kind string

// Contract executes calls against its own state.
type Contract interface {
	Execute(cc *CallContext, call Call) (*Response, error)
}

// Constructor builds a contract instance for one call.
type Constructor func() Contract

// Registry maps contract kinds to constructors.
type Registry struct {
	mu    sync.RWMutex
	kinds map[Kind]Constructor
}

// NewRegistry creates a new contract registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]Constructor)}
}

// Register adds a constructor for a kind.
// Returns an error if the kind is already registered.
func (r *Registry) Register(kind Kind, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind]; exists {
		return fmt.Errorf("contract kind already registered: %s", kind)
	}
	r.kinds[kind] = ctor
	return nil
}

// MustRegister adds a constructor and panics if registration fails.
// Useful for init() functions.
func (r *Registry) MustRegister(kind Kind, ctor Constructor) {
	if err := r.Register(kind, ctor); err != nil {
		panic(err)
	}
}

// New returns a fresh contract of the given kind.
func (r *Registry) New(kind Kind) (Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.kinds[kind]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// DefaultRegistry is the global contract registry.
var DefaultRegistry = NewRegistry()

// Register adds a constructor to the default registry.
func Register(kind Kind, ctor Constructor) error {
	return DefaultRegistry.Register(kind, ctor)
}

// MustRegister adds a constructor to the default registry, panicking on error.
func MustRegister(kind Kind, ctor Constructor) {
	DefaultRegistry.MustRegister(kind, ctor)
}
