package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/behaviortreego/internal/bt"
	"github.com/vk/behaviortreego/internal/registry"
	"github.com/vk/behaviortreego/internal/xmldom"
)

// WriteXML renders a live graph and the catalog's port metadata back to
// the textual form. With a nil root only the TreeNodesModel block is
// produced. When compact is set, nodes whose registration ID is in the
// catalog are rendered under their ID as the tag instead of their
// structural category.
//
// Subtree bridges render as <SubTree> references and their expanded
// graphs as separate <BehaviorTree> definitions, so the output reloads
// into an isomorphic tree. The main definition gets a synthetic ID when
// that disambiguation is needed.
func WriteXML(catalog *registry.Registry, root *bt.Node, compact bool) string {
	rootEl := xmldom.NewElement("root")
	doc := &xmldom.Document{Root: rootEl}

	if root != nil {
		w := &treeWriter{catalog: catalog, compact: compact, rendered: map[string]bool{}}

		mainEl := xmldom.NewElement("BehaviorTree")
		rootEl.AddChild(mainEl)
		w.writeNode(root, mainEl)

		if len(w.pending) > 0 {
			mainID := w.uniqueMainID()
			mainEl.SetAttr("ID", mainID)
			rootEl.SetAttr("main_tree_to_execute", mainID)
		}
		for len(w.pending) > 0 {
			def := w.pending[0]
			w.pending = w.pending[1:]
			defEl := xmldom.NewElement("BehaviorTree")
			defEl.SetAttr("ID", def.id)
			rootEl.AddChild(defEl)
			if def.root != nil {
				w.writeNode(def.root, defEl)
			}
		}
	}

	rootEl.AddChild(modelElement(catalog))
	return doc.Render()
}

// subtreeDef is a nested definition discovered while walking the graph.
type subtreeDef struct {
	id   string
	root *bt.Node
}

type treeWriter struct {
	catalog  *registry.Registry
	compact  bool
	rendered map[string]bool
	pending  []subtreeDef
}

// writeNode renders one live node and recurses into its children.
func (w *treeWriter) writeNode(node *bt.Node, parent *xmldom.Element) {
	if node.Kind() == bt.KindSubTreeBridge {
		el := xmldom.NewElement("SubTree")
		el.SetAttr("ID", node.ID())
		for _, internal := range sortedKeys(node.Config().InputPorts) {
			remapEl := xmldom.NewElement("remap")
			remapEl.SetAttr("internal", internal)
			remapEl.SetAttr("external", node.Config().InputPorts[internal])
			el.AddChild(remapEl)
		}
		parent.AddChild(el)

		if !w.rendered[node.ID()] {
			w.rendered[node.ID()] = true
			w.pending = append(w.pending, subtreeDef{id: node.ID(), root: node.Child()})
		}
		return
	}

	tag := w.tagFor(node)
	el := xmldom.NewElement(tag)
	if tag != node.ID() && node.ID() != "" {
		el.SetAttr("ID", node.ID())
	}
	if name := node.Name(); name != tag && name != "" && name != node.ID() {
		el.SetAttr("name", name)
	}

	// An INOUT port appears in both tables; render it once, from the
	// input side.
	added := map[string]bool{}
	for _, port := range sortedKeys(node.Config().InputPorts) {
		el.SetAttr(port, node.Config().InputPorts[port])
		added[port] = true
	}
	for _, port := range sortedKeys(node.Config().OutputPorts) {
		if !added[port] {
			el.SetAttr(port, node.Config().OutputPorts[port])
		}
	}

	parent.AddChild(el)
	for _, child := range node.Children() {
		w.writeNode(child, el)
	}
}

// tagFor picks the element name: control nodes always render under
// their ID, everything else under its structural category unless
// compact rendering applies.
func (w *treeWriter) tagFor(node *bt.Node) string {
	if node.Kind() == bt.KindControl {
		return node.ID()
	}
	if w.compact && w.catalog.Has(node.ID()) {
		return node.ID()
	}
	if m, ok := w.catalog.Manifest(node.ID()); ok {
		return m.Category.String()
	}
	// Not in the catalog; fall back on the structural kind.
	if node.Kind() == bt.KindDecorator {
		return "Decorator"
	}
	return "Action"
}

// uniqueMainID returns a definition ID for the main tree that does not
// collide with any nested definition.
func (w *treeWriter) uniqueMainID() string {
	id := "MainTree"
	for n := 0; w.rendered[id]; n++ {
		id = fmt.Sprintf("MainTree_%d", n)
	}
	return id
}

// modelElement builds the TreeNodesModel block: every non-builtin,
// non-control catalog entry with its port names grouped by direction.
func modelElement(catalog *registry.Registry) *xmldom.Element {
	modelEl := xmldom.NewElement("TreeNodesModel")

	for _, id := range catalog.IDs() {
		if catalog.IsBuiltin(id) {
			continue
		}
		manifest, ok := catalog.Manifest(id)
		if !ok || manifest.Category == registry.Control {
			continue
		}

		el := xmldom.NewElement(manifest.Category.String())
		el.SetAttr("ID", id)

		var inPorts, outPorts, inoutPorts []string
		portNames := make([]string, 0, len(manifest.Ports))
		for name := range manifest.Ports {
			portNames = append(portNames, name)
		}
		sort.Strings(portNames)
		for _, name := range portNames {
			switch manifest.Ports[name].Direction {
			case registry.Input:
				inPorts = append(inPorts, name)
			case registry.Output:
				outPorts = append(outPorts, name)
			case registry.InOut:
				inoutPorts = append(inoutPorts, name)
			}
		}
		if len(inPorts) > 0 {
			el.SetAttr("input_ports", strings.Join(inPorts, ";"))
		}
		if len(outPorts) > 0 {
			el.SetAttr("output_ports", strings.Join(outPorts, ";"))
		}
		if len(inoutPorts) > 0 {
			el.SetAttr("inout_ports", strings.Join(inoutPorts, ";"))
		}

		modelEl.AddChild(el)
	}
	return modelEl
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
