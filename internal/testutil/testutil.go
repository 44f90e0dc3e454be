// Package testutil provides shared fixtures for loader and app tests.
package testutil

import (
	"bytes"
	"sync"

	"github.com/vk/behaviortreego/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NewTestCatalog returns a registry with the node kinds the loader
// tests declare trees against, on top of the builtins.
func NewTestCatalog() *registry.Registry {
	r := registry.New()

	register := func(m *registry.Manifest) {
		if err := r.RegisterNodeType(m); err != nil {
			panic(err)
		}
	}

	register(&registry.Manifest{ID: "ActionX", Category: registry.Action})
	register(&registry.Manifest{ID: "ActionY", Category: registry.Action})
	register(&registry.Manifest{
		ID:       "SaySomething",
		Category: registry.Action,
		Ports: map[string]registry.PortSpec{
			"message": {Direction: registry.Input, Type: cty.String},
		},
	})
	register(&registry.Manifest{
		ID:       "CalculateGoal",
		Category: registry.Action,
		Ports: map[string]registry.PortSpec{
			"goal": {Direction: registry.Output, Type: cty.Number},
		},
	})
	register(&registry.Manifest{
		ID:       "MoveBase",
		Category: registry.Action,
		Ports: map[string]registry.PortSpec{
			"goal": {Direction: registry.Input, Type: cty.Number},
		},
	})
	register(&registry.Manifest{
		ID:       "BatteryOK",
		Category: registry.Condition,
		Ports: map[string]registry.PortSpec{
			"threshold": {Direction: registry.Input, Type: cty.Number},
		},
	})
	register(&registry.Manifest{
		ID:       "Counter",
		Category: registry.Action,
		Ports: map[string]registry.PortSpec{
			"count": {Direction: registry.InOut, Type: cty.Number},
		},
	})
	register(&registry.Manifest{
		ID:       "RetryUntilSuccessful",
		Category: registry.Decorator,
		Ports: map[string]registry.PortSpec{
			"num_attempts": {Direction: registry.Input, Type: cty.Number},
		},
	})

	return r
}
