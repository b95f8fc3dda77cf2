package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strata3d/strata/internal/patch"
	"github.com/strata3d/strata/internal/schema"
	"github.com/strata3d/strata/internal/scenedoc"
)

// LoadDocumentTree reads a scene document file as a generic tree.
// JSON and YAML are accepted, keyed off the file extension; anything
// that is not .yaml/.yml is treated as JSON.
func LoadDocumentTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("document not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "reading document", err)
	}

	var tree map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, WrapExitError(ExitCommandError, "parsing YAML document", err)
		}
		tree = normalizeTree(tree).(map[string]any)
	default:
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, WrapExitError(ExitCommandError, "parsing JSON document", err)
		}
	}
	return tree, nil
}

// LoadDocument reads, validates, and decodes a scene document.
// Validation failures are returned as the error slice with a nil error;
// the error return covers I/O and parse problems only.
func LoadDocument(path string) (*scenedoc.Document, map[string]any, []schema.ValidationError, error) {
	tree, err := LoadDocumentTree(path)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, violations := schema.Validate(tree)
	if len(violations) > 0 {
		return nil, tree, violations, nil
	}
	return doc, tree, nil, nil
}

// LoadBatch reads a patch batch file (a JSON array of operations).
func LoadBatch(path string) ([]patch.Operation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("batch not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "reading batch", err)
	}
	ops, err := patch.ParseBatch(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parsing batch", err)
	}
	return ops, nil
}

// normalizeTree rewrites YAML decoding artifacts into the JSON shape
// the validator expects: map[any]any becomes map[string]any all the
// way down. yaml.v3 already produces string keys for string-keyed
// maps, but nested non-scalar keys still surface the generic form.
func normalizeTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeTree(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeTree(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeTree(val)
		}
		return t
	default:
		return v
	}
}
