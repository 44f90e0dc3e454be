package bt

import (
	"github.com/google/uuid"
	"github.com/vk/behaviortreego/internal/blackboard"
)

// Tree is the result of instantiation: the root node, the flat list of
// every owned node in pre-order, and the stack of blackboard scopes
// from the root scope to the innermost created subtree scope.
//
// The tree is handed to an external tick scheduler; a single walker per
// tree is assumed. Halt the tree before discarding it so that no action
// runs against released nodes.
type Tree struct {
	// UID identifies this instantiation in logs.
	UID string

	Root            *Node
	Nodes           []*Node
	BlackboardStack []*blackboard.Blackboard
}

// NewTree returns an empty tree with a fresh UID.
func NewTree() *Tree {
	return &Tree{UID: uuid.NewString()}
}

// RootBlackboard returns the outermost scope, or nil if the tree was
// never instantiated.
func (t *Tree) RootBlackboard() *blackboard.Blackboard {
	if len(t.BlackboardStack) == 0 {
		return nil
	}
	return t.BlackboardStack[0]
}

// Halt stops every still-running node, root to leaf.
func (t *Tree) Halt() {
	if t.Root != nil {
		t.Root.Halt()
	}
}
