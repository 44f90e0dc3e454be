package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A node manifest with a syntax error is guaranteed to cause a panic
	// during the loading phase inside app.NewApp().
	invalidManifest := `
		node "action" "Broken" {
			input "message" {
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "broken.hcl"), []byte(invalidManifest), 0600))
	treePath := filepath.Join(tempDir, "tree.xml")
	require.NoError(t, os.WriteFile(treePath, []byte(`<root><BehaviorTree ID="A"><Sequence><AlwaysSuccess/></Sequence></BehaviorTree></root>`), 0600))

	args := []string{"--nodes-path", tempDir, treePath}
	out := &bytes.Buffer{}

	// --- Act ---
	// Call the run function, which should recover the panic and return it as an error.
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to load node manifests"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should see `shouldExit=true` and return a nil error.
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Providing an unknown flag will cause cli.Parse to return an error.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	// The run function should propagate the error from cli.Parse.
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_RenderPipeline(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A manifest directory and tree document exercising the whole
	// pipeline: catalog load, tree load, instantiation, rendering.
	tempDir := t.TempDir()
	manifest := `
node "action" "Wave" {
  input "times" {
    type = number
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "wave.hcl"), []byte(manifest), 0600))
	tree := `<root>
  <BehaviorTree ID="Greet">
    <Sequence>
      <Wave times="3"/>
    </Sequence>
  </BehaviorTree>
</root>`
	treePath := filepath.Join(tempDir, "tree.xml")
	require.NoError(t, os.WriteFile(treePath, []byte(tree), 0600))

	args := []string{"--nodes-path", tempDir, "--render", "--log-level", "error", treePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), `<Action ID="Wave" times="3"/>`)
	require.Contains(t, out.String(), `<TreeNodesModel>`)
}

func TestRun_LoadFailureIsError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A tree referencing an unregistered node fails validation; the
	// failure must surface as a plain error, not a panic.
	tempDir := t.TempDir()
	treePath := filepath.Join(tempDir, "tree.xml")
	require.NoError(t, os.WriteFile(treePath, []byte(`<root>
  <BehaviorTree ID="A">
    <NoSuchNode/>
  </BehaviorTree>
</root>`), 0600))

	args := []string{"--nodes-path", "", "--log-level", "error", treePath}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load tree document")
	require.Contains(t, err.Error(), "NoSuchNode")
}
