package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/behaviortreego/internal/blackboard"
	"github.com/vk/behaviortreego/internal/bt"
	"github.com/vk/behaviortreego/internal/bterr"
	"github.com/vk/behaviortreego/internal/ctxlog"
	"github.com/vk/behaviortreego/internal/registry"
	"github.com/vk/behaviortreego/internal/xmldom"
	"github.com/zclconf/go-cty/cty"
)

// Instantiate converts the loaded definitions into a live tree, rooted
// at the main definition, against the given root blackboard scope.
func (p *Parser) Instantiate(ctx context.Context, rootBlackboard *blackboard.Blackboard) (*bt.Tree, error) {
	mainID, err := p.mainTreeID()
	if err != nil {
		return nil, err
	}
	if rootBlackboard == nil {
		return nil, &bterr.ConfigurationError{Message: "instantiation needs a non-empty root blackboard"}
	}

	tree := bt.NewTree()
	tree.BlackboardStack = append(tree.BlackboardStack, rootBlackboard)

	in := &instantiation{parser: p, tree: tree, logger: ctxlog.FromContext(ctx)}
	if err := in.buildDefinition(mainID, rootBlackboard, nil); err != nil {
		return nil, err
	}
	if len(tree.Nodes) > 0 {
		tree.Root = tree.Nodes[0]
	}

	in.logger.Info("Tree instantiated.",
		"tree_uid", tree.UID, "main_tree", mainID,
		"node_count", len(tree.Nodes), "scope_count", len(tree.BlackboardStack))
	return tree, nil
}

// instantiation bundles the session state the recursive build needs, so
// the recursion is explicit functions over explicit state rather than
// closures capturing the parser.
type instantiation struct {
	parser *Parser
	tree   *bt.Tree
	logger *slog.Logger
}

// buildDefinition instantiates the named definition's single root child
// into the given scope, linked under parent (nil for the main tree).
func (in *instantiation) buildDefinition(defID string, bb *blackboard.Blackboard, parent *bt.Node) error {
	defEl, ok := in.parser.treeRoots[defID]
	if !ok {
		return &bterr.UnknownNodeError{ID: defID}
	}
	// The validator guarantees exactly one child.
	return in.buildNode(defEl.Children[0], bb, parent)
}

// buildNode creates the live node for one element, links it, and
// recurses depth-first in declaration order. A subtree bridge opens a
// new blackboard scope and switches recursion to the referenced
// definition; its declared children (remap elements) never become
// nodes.
func (in *instantiation) buildNode(el *xmldom.Element, bb *blackboard.Blackboard, parent *bt.Node) error {
	node, err := in.createNode(el, bb)
	if err != nil {
		return err
	}
	if err := link(parent, node, el); err != nil {
		return err
	}
	in.tree.Nodes = append(in.tree.Nodes, node)

	if node.Kind() == bt.KindSubTreeBridge {
		nested := blackboard.NewScoped(bb)
		for internal, external := range node.Config().InputPorts {
			nested.AddSubtreeRemapping(internal, external)
		}
		in.tree.BlackboardStack = append(in.tree.BlackboardStack, nested)
		in.logger.Debug("Entering subtree.", "definition", node.ID(), "remaps", len(node.Config().InputPorts))
		return in.buildDefinition(node.ID(), nested, node)
	}

	for _, childEl := range el.Children {
		if err := in.buildNode(childEl, bb, node); err != nil {
			return err
		}
	}
	return nil
}

// link attaches child to parent according to the parent's structural
// kind. The validator's arity rules make a second SetChild impossible
// for <Decorator> elements; a catalog-declared leaf given children in
// the XML is only detectable here.
func link(parent, child *bt.Node, el *xmldom.Element) error {
	if parent == nil {
		return nil
	}
	switch parent.Kind() {
	case bt.KindControl:
		parent.AddChild(child)
	case bt.KindDecorator, bt.KindSubTreeBridge:
		parent.SetChild(child)
	default:
		return &bterr.ValidationError{
			Line:    el.Line,
			Message: fmt.Sprintf("node <%s> is a leaf and cannot have children", parent.ID()),
		}
	}
	return nil
}

// createNode builds one unlinked live node from its declared element:
// catalog-ID and instance-name resolution, the unknown-binding check,
// the type-registry check for typed reference bindings, and the
// direction split into input and output tables.
func (in *instantiation) createNode(el *xmldom.Element, bb *blackboard.Blackboard) (*bt.Node, error) {
	elementName := el.Name

	// Explicit subtree reference: the bridge carries the remap pairs as
	// its binding table; they are applied to the nested scope by the
	// caller and rendered back as <remap> elements by the serializer.
	if elementName == "SubTree" {
		defID := el.AttrValue("ID")
		for _, attr := range el.Attrs {
			if attr.Name != "ID" && attr.Name != "name" {
				return nil, &bterr.BindingError{Port: attr.Name, NodeID: "SubTree", Instance: defID}
			}
		}
		remaps := make(map[string]string)
		for _, remapEl := range el.ChildrenNamed("remap") {
			internal, okInternal := remapEl.Attr("internal")
			external, okExternal := remapEl.Attr("external")
			if !okInternal || !okExternal {
				return nil, &bterr.ValidationError{
					Line:    remapEl.Line,
					Message: "a <remap> element requires both the [internal] and [external] attributes",
				}
			}
			remaps[internal] = external
		}
		cfg := bt.NodeConfig{Blackboard: bb, InputPorts: remaps, OutputPorts: map[string]string{}}
		return bt.NewNode(bt.KindSubTreeBridge, defID, defID, cfg), nil
	}

	// Actions, Conditions and Decorators carry their catalog ID as an
	// attribute; every other tag is its own catalog ID.
	var id string
	if elementName == "Action" || elementName == "Decorator" || elementName == "Condition" {
		id = el.AttrValue("ID")
	} else {
		id = elementName
	}
	instanceName := id
	if alias, ok := el.Attr("name"); ok {
		instanceName = alias
	}

	var bindings []xmldom.Attr
	for _, attr := range el.Attrs {
		if attr.Name != "ID" && attr.Name != "name" {
			bindings = append(bindings, attr)
		}
	}

	if manifest, ok := in.parser.catalog.Manifest(id); ok {
		return in.constructFromCatalog(manifest, instanceName, bindings, bb)
	}

	if _, isTree := in.parser.treeRoots[id]; isTree {
		cfg := bt.NodeConfig{Blackboard: bb, InputPorts: map[string]string{}, OutputPorts: map[string]string{}}
		return bt.NewNode(bt.KindSubTreeBridge, id, instanceName, cfg), nil
	}

	return nil, &bterr.UnknownNodeError{ID: id}
}

// constructFromCatalog resolves the port bindings of a catalog node and
// requests construction.
func (in *instantiation) constructFromCatalog(manifest *registry.Manifest, instanceName string,
	bindings []xmldom.Attr, bb *blackboard.Blackboard) (*bt.Node, error) {

	for _, binding := range bindings {
		if _, declared := manifest.Ports[binding.Name]; !declared {
			return nil, &bterr.BindingError{Port: binding.Name, NodeID: manifest.ID, Instance: instanceName}
		}
	}

	// Register the declared type of every referenced key, in sorted
	// port order so conflicts are reported deterministically.
	portNames := make([]string, 0, len(manifest.Ports))
	for name := range manifest.Ports {
		portNames = append(portNames, name)
	}
	sort.Strings(portNames)

	for _, portName := range portNames {
		port := manifest.Ports[portName]
		if port.Type == cty.NilType {
			// Untyped ports skip the session registry.
			continue
		}
		raw, bound := attrValue(bindings, portName)
		if !bound {
			continue
		}
		key, isRef := refKey(raw)
		if !isRef {
			continue
		}
		if err := bb.RegisterKeyType(key, port.Type); err != nil {
			return nil, err
		}
	}

	inputs := make(map[string]string)
	outputs := make(map[string]string)
	for _, binding := range bindings {
		switch manifest.Ports[binding.Name].Direction {
		case registry.Input:
			inputs[binding.Name] = binding.Value
		case registry.Output:
			outputs[binding.Name] = binding.Value
		case registry.InOut:
			inputs[binding.Name] = binding.Value
			outputs[binding.Name] = binding.Value
		}
	}

	cfg := bt.NodeConfig{Blackboard: bb, InputPorts: inputs, OutputPorts: outputs}
	return in.parser.catalog.Construct(instanceName, manifest.ID, cfg)
}

// refKey reports whether a raw binding value is a blackboard reference
// ("{key}" or the legacy "${key}") and returns the referenced key. An
// empty reference is treated as a literal.
func refKey(raw string) (string, bool) {
	s := raw
	if strings.HasPrefix(s, "$") {
		s = s[1:]
	}
	if len(s) >= 3 && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func attrValue(attrs []xmldom.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
