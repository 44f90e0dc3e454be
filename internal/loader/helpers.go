package loader

import (
	"context"

	"github.com/vk/behaviortreego/internal/blackboard"
	"github.com/vk/behaviortreego/internal/bt"
	"github.com/vk/behaviortreego/internal/registry"
)

// BuildTreeFromText loads, validates and instantiates a document in one
// call, for the common single-document case.
func BuildTreeFromText(ctx context.Context, catalog *registry.Registry, text string,
	rootBlackboard *blackboard.Blackboard) (*bt.Tree, error) {

	parser := NewParser(catalog)
	if err := parser.LoadText(ctx, text); err != nil {
		return nil, err
	}
	return parser.Instantiate(ctx, rootBlackboard)
}

// BuildTreeFromFile is BuildTreeFromText for a document on disk.
func BuildTreeFromFile(ctx context.Context, catalog *registry.Registry, path string,
	rootBlackboard *blackboard.Blackboard) (*bt.Tree, error) {

	parser := NewParser(catalog)
	if err := parser.LoadFile(ctx, path); err != nil {
		return nil, err
	}
	return parser.Instantiate(ctx, rootBlackboard)
}
