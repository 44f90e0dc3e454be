package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TreePath  string // behavior tree XML document
	NodesPath string // directory of .hcl node manifests

	LogFormat string
	LogLevel  string
	Render    bool
	Compact   bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.TreePath == "" {
		return nil, errors.New("TreePath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
