// Package bterr defines the typed error surface of the tree loader.
//
// Every public entry point (load, instantiate, render) either succeeds
// or returns exactly one of these kinds; nothing is caught and retried
// internally. Callers distinguish kinds with errors.As.
package bterr

import "fmt"

// ParseError reports a malformed source document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing the XML: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError reports an include whose target file or mandatory
// attribute cannot be resolved.
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve include %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot resolve include %q", e.Path)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ValidationError reports a grammar violation found by the structural
// validator. Line is 0 when the violation has no single source element
// (for example a missing root container).
type ValidationError struct {
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("error at line %d: -> %s", e.Line, e.Message)
	}
	return e.Message
}

// BindingError reports a port binding whose name is not declared by the
// node's manifest.
type BindingError struct {
	Port     string
	NodeID   string
	Instance string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("possible typo: the port [%s] was specified for node [%s / %s], "+
		"but the manifest of this node does not declare a port with this name",
		e.Port, e.NodeID, e.Instance)
}

// TypeConflictError reports a blackboard key bound with two different
// declared types during one instantiation session.
type TypeConflictError struct {
	Key      string
	Previous string
	Current  string
}

func (e *TypeConflictError) Error() string {
	return fmt.Sprintf("the creation of the tree failed because the port [%s] was "+
		"initially created with type [%s] and, later, type [%s] was used somewhere else",
		e.Key, e.Previous, e.Current)
}

// UnknownNodeError reports a tag that is neither a registered node kind
// nor a known tree definition.
type UnknownNodeError struct {
	ID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("%s is not a registered node, nor a subtree", e.ID)
}

// ConfigurationError reports a missing or ambiguous collaborator: no
// root blackboard, no package resolver when an include needs one, or an
// undecidable main tree.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
