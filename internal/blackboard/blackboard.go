// Package blackboard implements the layered key/value store behavior
// tree nodes use to exchange data.
//
// Every subtree boundary gets its own scope, chained to the scope of
// the enclosing tree. Lookups walk the chain outward; explicit
// remappings alias a local name to a key in the parent scope. One type
// registry, owned by the root scope and handed down to every child, is
// shared across the whole chain: a key bound with one declared type can
// never be re-bound with a different one anywhere in the session.
package blackboard

import (
	"sync"

	"github.com/vk/behaviortreego/internal/bterr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Blackboard is one scope in the chain. Safe for concurrent reads; the
// external tick scheduler is expected to serialize writers.
type Blackboard struct {
	mu     sync.RWMutex
	parent *Blackboard
	values map[string]cty.Value
	remap  map[string]string

	types *typeRegistry
}

// typeRegistry is the session-wide key-to-declared-type table. It is
// intentionally global across sibling subtrees (see DESIGN.md).
type typeRegistry struct {
	mu    sync.Mutex
	types map[string]cty.Type
}

// New creates a root scope with a fresh type registry.
func New() *Blackboard {
	return &Blackboard{
		values: make(map[string]cty.Value),
		remap:  make(map[string]string),
		types:  &typeRegistry{types: make(map[string]cty.Type)},
	}
}

// NewScoped creates a child scope of parent. The child shares the
// parent's type registry; parent must not be nil.
func NewScoped(parent *Blackboard) *Blackboard {
	return &Blackboard{
		parent: parent,
		values: make(map[string]cty.Value),
		remap:  make(map[string]string),
		types:  parent.types,
	}
}

// Parent returns the enclosing scope, or nil for the root.
func (b *Blackboard) Parent() *Blackboard { return b.parent }

// AddSubtreeRemapping aliases the local key internal to the parent
// scope's key external. Reads and writes of internal are redirected to
// the parent for the lifetime of this scope.
func (b *Blackboard) AddSubtreeRemapping(internal, external string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remap[internal] = external
}

// Get resolves key in this scope: a remapped key reads the parent's
// target, a locally set key reads the local value, and anything else
// falls through to the enclosing scopes.
func (b *Blackboard) Get(key string) (cty.Value, bool) {
	b.mu.RLock()
	external, remapped := b.remap[key]
	val, local := b.values[key]
	b.mu.RUnlock()

	if remapped && b.parent != nil {
		return b.parent.Get(external)
	}
	if local {
		return val, true
	}
	if b.parent != nil {
		return b.parent.Get(key)
	}
	return cty.NilVal, false
}

// Set stores value under key. A remapped key writes through to the
// parent's target key; everything else writes locally.
func (b *Blackboard) Set(key string, value cty.Value) {
	b.mu.Lock()
	external, remapped := b.remap[key]
	if remapped && b.parent != nil {
		b.mu.Unlock()
		b.parent.Set(external, value)
		return
	}
	b.values[key] = value
	b.mu.Unlock()
}

// SetFromGo converts a native Go value through gocty and stores it.
func (b *Blackboard) SetFromGo(key string, value any) error {
	ty, err := gocty.ImpliedType(value)
	if err != nil {
		return err
	}
	ctyVal, err := gocty.ToCtyValue(value, ty)
	if err != nil {
		return err
	}
	b.Set(key, ctyVal)
	return nil
}

// KeyType returns the declared type registered for key, if any.
func (b *Blackboard) KeyType(key string) (cty.Type, bool) {
	b.types.mu.Lock()
	defer b.types.mu.Unlock()
	t, ok := b.types.types[key]
	return t, ok
}

// RegisterKeyType records the declared type of key in the shared
// session registry. Registering the same type again is a no-op;
// registering a different type fails with a TypeConflictError.
func (b *Blackboard) RegisterKeyType(key string, t cty.Type) error {
	b.types.mu.Lock()
	defer b.types.mu.Unlock()

	prev, ok := b.types.types[key]
	if !ok {
		b.types.types[key] = t
		return nil
	}
	if !prev.Equals(t) {
		return &bterr.TypeConflictError{
			Key:      key,
			Previous: prev.FriendlyName(),
			Current:  t.FriendlyName(),
		}
	}
	return nil
}
