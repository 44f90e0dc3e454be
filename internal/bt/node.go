// Package bt holds the instantiated behavior tree: the live node
// variant, the Tree container handed to the external tick scheduler,
// and the halt/teardown contract.
package bt

import (
	"fmt"
	"sync/atomic"

	"github.com/vk/behaviortreego/internal/blackboard"
)

// Kind is the closed set of structural node categories. Linking and
// serialization switch on it instead of downcasting.
type Kind int

const (
	// KindLeaf is an Action or Condition: no children.
	KindLeaf Kind = iota
	// KindDecorator owns exactly one child.
	KindDecorator
	// KindControl owns an ordered, unbounded list of children.
	KindControl
	// KindSubTreeBridge links an enclosing tree to a nested definition
	// instantiated against its own blackboard scope. It owns the single
	// root node of that nested instantiation.
	KindSubTreeBridge
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindDecorator:
		return "Decorator"
	case KindControl:
		return "Control"
	case KindSubTreeBridge:
		return "SubTree"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NodeConfig is the resolved binding state a node is constructed with:
// the blackboard scope it reads and writes, and its port bindings split
// by direction. An INOUT port appears in both tables.
type NodeConfig struct {
	Blackboard  *blackboard.Blackboard
	InputPorts  map[string]string
	OutputPorts map[string]string
}

// Node is one instantiated tree node. Structure is fixed after
// instantiation; only halt state changes afterwards.
type Node struct {
	kind   Kind
	id     string
	name   string
	config NodeConfig

	children []*Node

	halted atomic.Bool
	onHalt func()
}

// NewNode creates an unlinked live node.
func NewNode(kind Kind, id, name string, config NodeConfig) *Node {
	return &Node{kind: kind, id: id, name: name, config: config}
}

// Kind returns the structural category of the node.
func (n *Node) Kind() Kind { return n.kind }

// ID returns the catalog registration ID.
func (n *Node) ID() string { return n.id }

// Name returns the instance name (the `name` attribute, defaulting to ID).
func (n *Node) Name() string { return n.name }

// Config returns the resolved port bindings and blackboard scope.
func (n *Node) Config() NodeConfig { return n.config }

// Children returns the owned children in declaration order.
func (n *Node) Children() []*Node { return n.children }

// Child returns the sole child of a decorator or subtree bridge, or nil.
func (n *Node) Child() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// AddChild appends a child to a control node.
func (n *Node) AddChild(child *Node) {
	if n.kind != KindControl {
		panic(fmt.Sprintf("bt: AddChild on %s node %q", n.kind, n.name))
	}
	n.children = append(n.children, child)
}

// SetChild sets the sole child of a decorator or subtree bridge. The
// structural validator guarantees this is called at most once; a second
// call is a programming error.
func (n *Node) SetChild(child *Node) {
	if n.kind != KindDecorator && n.kind != KindSubTreeBridge {
		panic(fmt.Sprintf("bt: SetChild on %s node %q", n.kind, n.name))
	}
	if len(n.children) != 0 {
		panic(fmt.Sprintf("bt: SetChild called twice on node %q", n.name))
	}
	n.children = []*Node{child}
}

// SetHaltHook installs a callback run when the node is halted. Used by
// behaviors with in-flight asynchronous work (for example the timeout
// decorator) to cancel it before the node is released.
func (n *Node) SetHaltHook(fn func()) { n.onHalt = fn }

// Halted reports whether Halt has been called on this node.
func (n *Node) Halted() bool { return n.halted.Load() }

// Halt marks this node and its whole subtree halted, root to leaf, so
// that no child's asynchronous work can fire after its ancestors have
// been torn down.
func (n *Node) Halt() {
	if n.halted.Swap(true) {
		return
	}
	if n.onHalt != nil {
		n.onHalt()
	}
	for _, c := range n.children {
		c.Halt()
	}
}
