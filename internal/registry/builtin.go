package registry

import (
	"github.com/vk/behaviortreego/internal/bt"
	"github.com/zclconf/go-cty/cty"
)

// controlKinds are the built-in control tags the structural validator
// arity-checks by name.
var controlKinds = []string{"Sequence", "SequenceStar", "Fallback", "FallbackStar"}

// IsControlKind reports whether the tag names a built-in control node.
func IsControlKind(name string) bool {
	for _, k := range controlKinds {
		if k == name {
			return true
		}
	}
	return false
}

// registerBuiltins installs the node kinds every catalog ships with:
// the four control kinds plus the Inverter and Timeout decorators.
func (r *Registry) registerBuiltins() {
	for _, id := range controlKinds {
		must(r.RegisterNodeType(&Manifest{ID: id, Category: Control}))
		r.builtins[id] = struct{}{}
	}

	must(r.RegisterNodeType(&Manifest{
		ID:          "Inverter",
		Category:    Decorator,
		Description: "Inverts the outcome of its child.",
	}))
	r.builtins["Inverter"] = struct{}{}

	// The timeout decorator owns deferred work, so its builder wires a
	// guard into the node's halt hook: a deadline callback racing an
	// independent halt of the child must lose cleanly.
	must(r.Register(&Manifest{
		ID:          "Timeout",
		Category:    Decorator,
		Description: "Fails its child if it runs past a deadline.",
		Ports: map[string]PortSpec{
			"msec": {Direction: Input, Type: cty.Number, Description: "Deadline in milliseconds."},
		},
	}, func(instanceName string, cfg bt.NodeConfig) (*bt.Node, error) {
		node := bt.NewNode(bt.KindDecorator, "Timeout", instanceName, cfg)
		guard := bt.NewTimeoutGuard(bt.DefaultScheduler())
		node.SetHaltHook(guard.Disarm)
		return node, nil
	}))
	r.builtins["Timeout"] = struct{}{}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
