package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/behaviortreego/internal/testutil"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNewApp_BuiltinsOnlyWithoutManifests(t *testing.T) {
	t.Parallel()

	out := &testutil.SafeBuffer{}
	a := NewApp(out, &Config{TreePath: "unused.xml", LogLevel: "debug", LogFormat: "text"})

	assert.True(t, a.Catalog().Has("Sequence"))
	assert.True(t, a.Catalog().Has("Timeout"))
	assert.Contains(t, out.String(), "Node catalog ready.")
}

func TestApp_RunRendersTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTempFile(t, dir, "ping.hcl", `
node "action" "Ping" {
  input "target" {
    type = string
  }
}
`)
	treePath := writeTempFile(t, dir, "tree.xml", `<root>
  <BehaviorTree ID="Main">
    <Sequence>
      <Ping target="localhost"/>
    </Sequence>
  </BehaviorTree>
</root>`)

	out := &testutil.SafeBuffer{}
	cfg, err := NewConfig(Config{
		TreePath:  treePath,
		NodesPath: dir,
		LogLevel:  "error",
		LogFormat: "text",
		Render:    true,
	})
	require.NoError(t, err)

	a := NewApp(out, cfg)
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), `<Action ID="Ping" target="localhost"/>`)
}

func TestApp_RunReportsInstantiationFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	treePath := writeTempFile(t, dir, "tree.xml", `<root>
  <BehaviorTree ID="Main">
    <SubTree ID="Missing"/>
  </BehaviorTree>
</root>`)

	out := &testutil.SafeBuffer{}
	cfg, err := NewConfig(Config{TreePath: treePath, LogLevel: "error", LogFormat: "text"})
	require.NoError(t, err)

	runErr := NewApp(out, cfg).Run(context.Background())
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), "failed to instantiate tree")
}

func TestNewConfig_RequiresTreePath(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.Error(t, err)
}
