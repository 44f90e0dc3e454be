// Package schema defines the HCL structure of node manifest files.
//
// A manifest declares the port contract of a node kind so the tree
// loader can type-check bindings before a single node is constructed:
//
//	node "action" "SaySomething" {
//	  description = "Prints a message."
//	  input "message" { type = string }
//	}
package schema

import "github.com/hashicorp/hcl/v2"

// PortBlock is one input/output/inout block within a node definition.
type PortBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
}

// NodeDefinition is a `node "<kind>" "<ID>"` block. Kind is the
// structural category: action, condition, decorator or control.
type NodeDefinition struct {
	Kind        string       `hcl:"kind,label"`
	ID          string       `hcl:"id,label"`
	Description string       `hcl:"description,optional"`
	Inputs      []*PortBlock `hcl:"input,block"`
	Outputs     []*PortBlock `hcl:"output,block"`
	InOuts      []*PortBlock `hcl:"inout,block"`
}

// CatalogFile is the top-level structure of one manifest file.
type CatalogFile struct {
	Nodes []*NodeDefinition `hcl:"node,block"`
	Body  hcl.Body          `hcl:",remain"`
}
