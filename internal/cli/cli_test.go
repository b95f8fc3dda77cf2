package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDocJSON = `{
  "activeScene": "main",
  "scenes": {
    "main": {
      "variables": {"score": 0},
      "nodes": [
        {"id": "crate_0", "type": "mesh", "primitive": "box", "color": "#aa8844"}
      ]
    }
  }
}`

const validDocYAML = `activeScene: main
scenes:
  main:
    nodes:
      - id: crate_0
        type: mesh
        color: "#aa8844"
`

// invalid: color is not a hex value
const invalidDocJSON = `{
  "activeScene": "main",
  "scenes": {
    "main": {
      "nodes": [{"id": "crate_0", "type": "mesh", "color": "red"}]
    }
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRoot_RejectsUnknownFormat(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)

	_, err := execute(t, "--format", "xml", "validate", doc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate_ValidDocument(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)

	out, err := execute(t, "validate", doc)

	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_ValidYAMLDocument(t *testing.T) {
	doc := writeFile(t, "doc.yaml", validDocYAML)

	out, err := execute(t, "validate", doc)

	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_InvalidDocumentFailsWithReport(t *testing.T) {
	doc := writeFile(t, "doc.json", invalidDocJSON)

	out, err := execute(t, "validate", doc)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "color")
}

func TestValidate_MissingFileIsCommandError(t *testing.T) {
	_, err := execute(t, "validate", "/nope/missing.json")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_JSONFormat(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)

	out, err := execute(t, "--format", "json", "validate", doc)

	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestPatch_AppliesAndWritesOutput(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)
	batch := writeFile(t, "batch.json", `[
		{"op": "replace", "path": "/nodes/0/color", "value": "#0000ff"}
	]`)
	outPath := filepath.Join(t.TempDir(), "patched.json")

	out, err := execute(t, "patch", doc, batch, "-o", outPath)

	require.NoError(t, err)
	assert.Contains(t, out, "applied 1 op(s)")

	body, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"#0000ff"`)
}

func TestPatch_RejectedBatchReportsAndFails(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)
	batch := writeFile(t, "batch.json", `[
		{"op": "replace", "path": "/nodes/0/color", "value": "blue"}
	]`)

	out, err := execute(t, "patch", doc, batch)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "color")
}

func TestPatch_InvalidInputDocumentIsCommandError(t *testing.T) {
	doc := writeFile(t, "doc.json", invalidDocJSON)
	batch := writeFile(t, "batch.json", `[]`)

	_, err := execute(t, "patch", doc, batch)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestPatchAndHistory_JournalRoundTrip(t *testing.T) {
	doc := writeFile(t, "doc.json", validDocJSON)
	batch := writeFile(t, "batch.json", `[
		{"op": "replace", "path": "/nodes/0/color", "value": "#112233"}
	]`)
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	_, err := execute(t, "patch", doc, batch, "--db", dbPath, "-o", filepath.Join(t.TempDir(), "out.json"))
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	// Two commits: the initial set, then the patch.
	assert.Contains(t, out, "set")
	assert.Contains(t, out, "patch")
}

func TestHistory_EmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	out, err := execute(t, "history", "--db", dbPath)

	require.NoError(t, err)
	assert.Contains(t, out, "no revisions")
}

func TestLoader_NormalizesYAMLTree(t *testing.T) {
	doc := writeFile(t, "doc.yaml", validDocYAML)

	tree, err := LoadDocumentTree(doc)

	require.NoError(t, err)
	scenes, ok := tree["scenes"].(map[string]any)
	require.True(t, ok, "nested maps decode string-keyed")
	_, ok = scenes["main"].(map[string]any)
	assert.True(t, ok)
}
