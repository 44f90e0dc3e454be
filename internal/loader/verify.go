package loader

import (
	"fmt"

	"github.com/vk/behaviortreego/internal/bterr"
	"github.com/vk/behaviortreego/internal/registry"
	"github.com/vk/behaviortreego/internal/xmldom"
)

// verify applies the node-shape grammar to one document. It is a pure
// check over the merged session state: definitions from earlier
// documents (includes) are legal reference targets. The first violation
// aborts with its source line; nothing is mutated.
func (p *Parser) verify(doc *xmldom.Document) error {
	root := doc.Root
	if root == nil || root.Name != "root" {
		return &bterr.ValidationError{Message: "the XML must have a root node called <root>"}
	}

	metaBlocks := root.ChildrenNamed("TreeNodesModel")
	if len(metaBlocks) > 1 {
		return &bterr.ValidationError{
			Line:    metaBlocks[1].Line,
			Message: "only a single node <TreeNodesModel> is supported",
		}
	}
	if len(metaBlocks) == 1 {
		// A missing metadata block is fine (it only serves external
		// tooling), but entries inside one must be identifiable.
		for _, entry := range metaBlocks[0].Children {
			switch entry.Name {
			case "Action", "Condition", "Decorator", "SubTree":
				if !entry.HasAttr("ID") {
					return &bterr.ValidationError{
						Line:    entry.Line,
						Message: "the attribute [ID] is mandatory",
					}
				}
			}
		}
	}

	var treeNames []string
	treeCount := 0
	for _, treeEl := range root.ChildrenNamed("BehaviorTree") {
		treeCount++
		if id, ok := treeEl.Attr("ID"); ok {
			treeNames = append(treeNames, id)
		}
		if len(treeEl.Children) != 1 {
			return &bterr.ValidationError{
				Line:    treeEl.Line,
				Message: "the node <BehaviorTree> must have exactly 1 child",
			}
		}
		if err := p.verifyNode(treeEl.Children[0]); err != nil {
			return err
		}
	}

	if mainTree, ok := root.Attr("main_tree_to_execute"); ok {
		found := false
		for _, name := range treeNames {
			if name == mainTree {
				found = true
				break
			}
		}
		// The attribute may also name a definition loaded from an
		// included document.
		if _, known := p.treeRoots[mainTree]; known {
			found = true
		}
		if !found {
			return &bterr.ConfigurationError{
				Message: fmt.Sprintf("the tree specified in [main_tree_to_execute] can't be found: %q", mainTree),
			}
		}
	} else if treeCount != 1 {
		return &bterr.ConfigurationError{
			Message: "if you don't specify the attribute [main_tree_to_execute], " +
				"your file must contain a single BehaviorTree",
		}
	}

	return nil
}

// verifyNode checks one declared node and recurses depth-first in
// declaration order. SubTree references are not recursed into: the
// referenced definition is validated on its own when encountered as a
// top-level definition.
func (p *Parser) verifyNode(el *xmldom.Element) error {
	childrenCount := len(el.Children)

	switch name := el.Name; {
	case name == "Decorator":
		if childrenCount != 1 {
			return &bterr.ValidationError{Line: el.Line, Message: "the node <Decorator> must have exactly 1 child"}
		}
		if !el.HasAttr("ID") {
			return &bterr.ValidationError{Line: el.Line, Message: "the node <Decorator> must have the attribute [ID]"}
		}
	case name == "Action" || name == "Condition":
		if childrenCount != 0 {
			return &bterr.ValidationError{Line: el.Line, Message: fmt.Sprintf("the node <%s> must not have any child", name)}
		}
		if !el.HasAttr("ID") {
			return &bterr.ValidationError{Line: el.Line, Message: fmt.Sprintf("the node <%s> must have the attribute [ID]", name)}
		}
	case registry.IsControlKind(name):
		if childrenCount == 0 {
			return &bterr.ValidationError{Line: el.Line, Message: "a Control node must have at least 1 child"}
		}
	case name == "SubTree":
		for _, child := range el.Children {
			if child.Name != "remap" {
				return &bterr.ValidationError{Line: el.Line, Message: "<SubTree> accepts only children of type <remap>"}
			}
		}
		if !el.HasAttr("ID") {
			return &bterr.ValidationError{Line: el.Line, Message: "the node <SubTree> must have the attribute [ID]"}
		}
	default:
		_, isTree := p.treeRoots[name]
		if !p.catalog.Has(name) && !isTree {
			return &bterr.ValidationError{Line: el.Line, Message: fmt.Sprintf("node not recognized: %s", name)}
		}
	}

	if el.Name == "SubTree" {
		return nil
	}
	for _, child := range el.Children {
		if err := p.verifyNode(child); err != nil {
			return err
		}
	}
	return nil
}
