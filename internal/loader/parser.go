// Package loader turns behavior tree XML into a live node graph.
//
// The pipeline has three stages, kept deliberately separate: document
// loading (include expansion, definition collection), structural
// validation (grammar and reference checks, no mutation), and
// instantiation (node construction with scoped blackboards and
// type-checked port bindings). The serializer in this package is the
// inverse transform.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/behaviortreego/internal/bterr"
	"github.com/vk/behaviortreego/internal/ctxlog"
	"github.com/vk/behaviortreego/internal/registry"
	"github.com/vk/behaviortreego/internal/xmldom"
)

// PackageResolver resolves a package name, as used by the optional
// `package` attribute of an include directive, to a directory on disk.
// Platform-specific lookup (for example ROS package paths) lives behind
// this interface and is injected by the caller.
type PackageResolver interface {
	Resolve(pkg string) (string, error)
}

// Parser is one load session: it owns every opened document and the
// merged set of named tree definitions, and instantiates trees from
// them. Not safe for concurrent use.
type Parser struct {
	catalog  *registry.Registry
	resolver PackageResolver

	docs      []*xmldom.Document
	treeRoots map[string]*xmldom.Element

	currentPath string
	suffixCount int
}

// Option configures a Parser.
type Option func(*Parser)

// WithPackageResolver injects the collaborator for includes that name a
// package. Without it, such includes fail with a ConfigurationError.
func WithPackageResolver(r PackageResolver) Option {
	return func(p *Parser) { p.resolver = r }
}

// NewParser creates a load session against the given node catalog.
func NewParser(catalog *registry.Registry, opts ...Option) *Parser {
	p := &Parser{
		catalog:   catalog,
		treeRoots: make(map[string]*xmldom.Element),
	}
	if wd, err := os.Getwd(); err == nil {
		p.currentPath = wd
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definitions returns the IDs of every loaded tree definition.
func (p *Parser) Definitions() []string {
	out := make([]string, 0, len(p.treeRoots))
	for id := range p.treeRoots {
		out = append(out, id)
	}
	return out
}

// LoadFile loads and validates the document at path, recursively
// resolving its includes relative to the file's directory.
func (p *Parser) LoadFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return &bterr.ResolutionError{Path: path, Err: err}
	}
	doc, err := xmldom.ParseFile(path)
	if err != nil {
		return &bterr.ParseError{Err: err}
	}

	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		p.currentPath = abs
	}
	ctxlog.FromContext(ctx).Debug("Loaded tree document.", "path", path)
	return p.loadDoc(ctx, doc)
}

// LoadText loads and validates an in-memory document. Relative include
// paths resolve against the process working directory.
func (p *Parser) LoadText(ctx context.Context, text string) error {
	doc, err := xmldom.ParseText(text)
	if err != nil {
		return &bterr.ParseError{Err: err}
	}
	return p.loadDoc(ctx, doc)
}

// loadDoc merges one parsed document into the session: includes first,
// depth-first, then this document's own tree definitions, then the
// structural checks over the result.
func (p *Parser) loadDoc(ctx context.Context, doc *xmldom.Document) error {
	logger := ctxlog.FromContext(ctx)
	p.docs = append(p.docs, doc)
	root := doc.Root

	if root.Name == "root" {
		for _, include := range root.ChildrenNamed("include") {
			if err := p.loadInclude(ctx, include); err != nil {
				return err
			}
		}
	}

	for _, el := range root.ChildrenNamed("BehaviorTree") {
		id, ok := el.Attr("ID")
		if !ok {
			id = fmt.Sprintf("BehaviorTree_%d", p.suffixCount)
			p.suffixCount++
		}
		if _, exists := p.treeRoots[id]; exists {
			return &bterr.ValidationError{
				Line:    el.Line,
				Message: fmt.Sprintf("a BehaviorTree with ID [%s] is already defined", id),
			}
		}
		p.treeRoots[id] = el
		logger.Debug("Registered tree definition.", "id", id)
	}

	return p.verify(doc)
}

// loadInclude resolves one include directive and recursively loads the
// referenced document. While the included document loads, relative
// paths in its own includes resolve against its directory.
func (p *Parser) loadInclude(ctx context.Context, include *xmldom.Element) error {
	logger := ctxlog.FromContext(ctx)

	path, ok := include.Attr("path")
	if !ok {
		return &bterr.ResolutionError{
			Path: "",
			Err:  fmt.Errorf("the <include> element at line %d is missing the [path] attribute", include.Line),
		}
	}

	if pkg, ok := include.Attr("package"); ok {
		if filepath.IsAbs(path) {
			logger.Warn("Include has an absolute path; the [package] attribute is ignored.",
				"path", path, "package", pkg)
		} else {
			if p.resolver == nil {
				return &bterr.ConfigurationError{
					Message: fmt.Sprintf("the <include> at line %d uses the [package] attribute, "+
						"but no package resolver was configured", include.Line),
				}
			}
			pkgRoot, err := p.resolver.Resolve(pkg)
			if err != nil {
				return &bterr.ResolutionError{Path: path, Err: fmt.Errorf("package %q: %w", pkg, err)}
			}
			path = filepath.Join(pkgRoot, path)
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(p.currentPath, path)
	}

	if _, err := os.Stat(path); err != nil {
		return &bterr.ResolutionError{Path: path, Err: err}
	}
	doc, err := xmldom.ParseFile(path)
	if err != nil {
		return &bterr.ParseError{Err: err}
	}

	logger.Debug("Loaded included document.", "path", path)
	saved := p.currentPath
	p.currentPath = filepath.Dir(path)
	err = p.loadDoc(ctx, doc)
	p.currentPath = saved
	return err
}

// mainTreeID determines which definition instantiation starts from: the
// root document's main_tree_to_execute attribute, or the only
// definition when exactly one exists.
func (p *Parser) mainTreeID() (string, error) {
	if len(p.docs) == 0 {
		return "", &bterr.ConfigurationError{Message: "no document was loaded"}
	}
	if id, ok := p.docs[0].Root.Attr("main_tree_to_execute"); ok {
		return id, nil
	}
	if len(p.treeRoots) == 1 {
		for id := range p.treeRoots {
			return id, nil
		}
	}
	return "", &bterr.ConfigurationError{Message: "[main_tree_to_execute] was not specified correctly"}
}
