package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/behaviortreego/internal/ctxlog"
	"github.com/vk/behaviortreego/internal/fsutil"
	"github.com/vk/behaviortreego/internal/schema"
)

// LoadManifestsRecursively walks nodesPath for .hcl manifest files and
// registers every node definition they contain with the default
// builder. Duplicate IDs, duplicate port names and invalid type
// keywords are load errors.
func (r *Registry) LoadManifestsRecursively(ctx context.Context, nodesPath string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading node manifests...", "path", nodesPath)

	filePaths, err := fsutil.FindFilesByExtension(nodesPath, ".hcl")
	if err != nil {
		logger.Error("Failed to walk manifests directory", "path", nodesPath, "error", err)
		return err
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl manifest files found in path", "path", nodesPath)
		return nil
	}

	parser := hclparse.NewParser()
	loaded := 0

	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse manifest file %s: %w", filePath, diags)
		}

		var catalogFile schema.CatalogFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &catalogFile); diags.HasErrors() {
			return fmt.Errorf("failed to decode manifest file %s: %w", filePath, diags)
		}

		for _, def := range catalogFile.Nodes {
			manifest, err := manifestFromDefinition(def)
			if err != nil {
				return fmt.Errorf("invalid node definition %q in %s: %w", def.ID, filePath, err)
			}
			if err := r.RegisterNodeType(manifest); err != nil {
				return fmt.Errorf("registering node %q from %s: %w", def.ID, filePath, err)
			}
			loaded++
			logger.Debug("Registered node kind from manifest.",
				"id", def.ID, "kind", def.Kind, "file", filePath)
		}
	}

	logger.Info("Registry loaded successfully.", "node_kinds_loaded", loaded)
	return nil
}

// manifestFromDefinition converts a decoded HCL node block into a
// registry manifest, resolving port type keywords.
func manifestFromDefinition(def *schema.NodeDefinition) (*Manifest, error) {
	var category Category
	switch def.Kind {
	case "action":
		category = Action
	case "condition":
		category = Condition
	case "decorator":
		category = Decorator
	case "control":
		category = Control
	default:
		return nil, fmt.Errorf("unknown node kind %q: must be action, condition, decorator or control", def.Kind)
	}

	manifest := &Manifest{
		ID:          def.ID,
		Category:    category,
		Description: def.Description,
		Ports:       make(map[string]PortSpec),
	}

	addPorts := func(blocks []*schema.PortBlock, dir PortDirection) error {
		for _, block := range blocks {
			if _, exists := manifest.Ports[block.Name]; exists {
				return fmt.Errorf("port %q declared more than once", block.Name)
			}
			portType, err := typeExprToCtyType(block.Type)
			if err != nil {
				return fmt.Errorf("port %q: %w", block.Name, err)
			}
			manifest.Ports[block.Name] = PortSpec{
				Direction:   dir,
				Type:        portType,
				Description: block.Description,
			}
		}
		return nil
	}

	if err := addPorts(def.Inputs, Input); err != nil {
		return nil, err
	}
	if err := addPorts(def.Outputs, Output); err != nil {
		return nil, err
	}
	if err := addPorts(def.InOuts, InOut); err != nil {
		return nil, err
	}
	return manifest, nil
}
