// Package registry is the node catalog: the mapping between the string
// identifiers used in tree documents and the manifests and constructors
// of the node kinds they name.
//
// The catalog is populated two ways: built-in kinds registered at
// construction, and manifest files loaded from disk. The tree loader
// consumes it read-only through Has/Manifest/Construct/BuiltinKinds.
package registry

import (
	"fmt"
	"sort"

	"github.com/vk/behaviortreego/internal/bt"
)

// Registry holds every registered node kind for one loader session.
type Registry struct {
	manifests map[string]*Manifest
	builders  map[string]Builder
	builtins  map[string]struct{}
}

// New creates a registry pre-populated with the built-in control and
// decorator kinds.
func New() *Registry {
	r := &Registry{
		manifests: make(map[string]*Manifest),
		builders:  make(map[string]Builder),
		builtins:  make(map[string]struct{}),
	}
	r.registerBuiltins()
	return r
}

// Register adds a node kind with its manifest and builder. IDs are
// unique per registry.
func (r *Registry) Register(m *Manifest, b Builder) error {
	if m.ID == "" {
		return fmt.Errorf("cannot register a manifest with an empty ID")
	}
	if _, exists := r.manifests[m.ID]; exists {
		return fmt.Errorf("node kind %q already registered", m.ID)
	}
	if m.Ports == nil {
		m.Ports = make(map[string]PortSpec)
	}
	r.manifests[m.ID] = m
	r.builders[m.ID] = b
	return nil
}

// RegisterNodeType registers a kind with the default builder, which
// constructs a plain live node of the manifest's structural kind.
func (r *Registry) RegisterNodeType(m *Manifest) error {
	category := m.Category
	id := m.ID
	return r.Register(m, func(instanceName string, cfg bt.NodeConfig) (*bt.Node, error) {
		return bt.NewNode(category.NodeKind(), id, instanceName, cfg), nil
	})
}

// Has reports whether the ID names a registered node kind.
func (r *Registry) Has(id string) bool {
	_, ok := r.manifests[id]
	return ok
}

// Manifest returns the port contract for the given ID.
func (r *Registry) Manifest(id string) (*Manifest, bool) {
	m, ok := r.manifests[id]
	return m, ok
}

// IDs returns every registered ID in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.manifests))
	for id := range r.manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Construct builds a live node for the given registered ID.
func (r *Registry) Construct(instanceName, id string, cfg bt.NodeConfig) (*bt.Node, error) {
	builder, ok := r.builders[id]
	if !ok {
		return nil, fmt.Errorf("no builder registered for node kind %q", id)
	}
	node, err := builder(instanceName, cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing node %q of kind %q: %w", instanceName, id, err)
	}
	return node, nil
}

// BuiltinKinds returns the set of IDs registered by the library itself.
// The serializer excludes these from the TreeNodesModel block.
func (r *Registry) BuiltinKinds() map[string]struct{} {
	out := make(map[string]struct{}, len(r.builtins))
	for id := range r.builtins {
		out[id] = struct{}{}
	}
	return out
}

// IsBuiltin reports whether the ID is a built-in kind.
func (r *Registry) IsBuiltin(id string) bool {
	_, ok := r.builtins[id]
	return ok
}
