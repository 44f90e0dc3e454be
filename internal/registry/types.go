package registry

import (
	"fmt"

	"github.com/vk/behaviortreego/internal/bt"
	"github.com/zclconf/go-cty/cty"
)

// PortDirection is the data-flow direction of a declared port.
type PortDirection int

const (
	// Input ports are read by the node.
	Input PortDirection = iota
	// Output ports are written by the node.
	Output
	// InOut ports are both read and written.
	InOut
)

func (d PortDirection) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case InOut:
		return "inout"
	}
	return fmt.Sprintf("PortDirection(%d)", int(d))
}

// PortSpec declares one named data slot of a node kind. Type is
// cty.NilType for untyped ports, which are exempt from the session
// type-registry check.
type PortSpec struct {
	Direction   PortDirection
	Type        cty.Type
	Description string
}

// Category is the declared structural category of a catalog entry. It
// is finer-grained than bt.Kind: Action and Condition both instantiate
// as leaves but serialize under different tags.
type Category int

const (
	Action Category = iota
	Condition
	Decorator
	Control
)

func (c Category) String() string {
	switch c {
	case Action:
		return "Action"
	case Condition:
		return "Condition"
	case Decorator:
		return "Decorator"
	case Control:
		return "Control"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// NodeKind maps the category to the structural kind of the live node.
func (c Category) NodeKind() bt.Kind {
	switch c {
	case Decorator:
		return bt.KindDecorator
	case Control:
		return bt.KindControl
	default:
		return bt.KindLeaf
	}
}

// Manifest is the port contract and category of one registered node
// kind, keyed by its registration ID.
type Manifest struct {
	ID          string
	Category    Category
	Description string
	Ports       map[string]PortSpec
}

// Builder constructs a live node for a registered kind.
type Builder func(instanceName string, cfg bt.NodeConfig) (*bt.Node, error)
