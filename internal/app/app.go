package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/behaviortreego/internal/blackboard"
	"github.com/vk/behaviortreego/internal/ctxlog"
	"github.com/vk/behaviortreego/internal/loader"
	"github.com/vk/behaviortreego/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	catalog *registry.Registry
	config  *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and node
// catalog.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	catalog := registry.New()
	if cfg.NodesPath != "" {
		if err := catalog.LoadManifestsRecursively(ctx, cfg.NodesPath); err != nil {
			// A failure to load the catalog is a fatal startup error.
			panic(fmt.Errorf("failed to load node manifests: %w", err))
		}
	}
	logger.Debug("Node catalog ready.", "kinds", len(catalog.IDs()))

	return &App{
		outW:    outW,
		logger:  logger,
		catalog: catalog,
		config:  cfg,
	}
}

// Catalog returns the application's node catalog. This is primarily for
// testing.
func (a *App) Catalog() *registry.Registry {
	return a.catalog
}

// Run executes the main application logic: load the tree document,
// instantiate it against a fresh root blackboard, and render the result
// back to XML when requested.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	parser := loader.NewParser(a.catalog)
	if err := parser.LoadFile(ctx, a.config.TreePath); err != nil {
		return fmt.Errorf("failed to load tree document: %w", err)
	}
	a.logger.Debug("Tree document loaded.", "definitions", parser.Definitions())

	tree, err := parser.Instantiate(ctx, blackboard.New())
	if err != nil {
		return fmt.Errorf("failed to instantiate tree: %w", err)
	}
	a.logger.Info("Tree is ready.",
		"tree_uid", tree.UID, "node_count", len(tree.Nodes), "scope_count", len(tree.BlackboardStack))

	if a.config.Render {
		fmt.Fprint(a.outW, loader.WriteXML(a.catalog, tree.Root, a.config.Compact))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
