// Package patch implements the structured-edit wire format external
// writers (an AI action layer, a tool, a test) use to mutate the scene
// document.
//
// A batch is a sequence of JSON-Patch-style operations (add, remove,
// replace) over slash-delimited pointers. Two conveniences sit on top of
// the plain pointer grammar:
//
//   - Shorthand prefixes: /nodes, /variables, and /subscriptions are
//     rewritten under /scenes/{activeScene}/..., so a writer can address
//     "the current scene" without knowing its id.
//   - Append marker: a trailing "-" segment on an add operation resolves
//     to the current length of the target array. Appends resolve
//     sequentially within a batch — each "-" sees the effects of earlier
//     operations in the same batch, so two appends land at consecutive
//     indices. That is the documented batch contract.
//
// The package operates on generic JSON trees and never sees typed
// documents; speculative application and validation are the docstore's
// concern.
package patch

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Op enumerates supported operation kinds.
type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// AppendMarker is the final path segment meaning "one past the end of
// the target array", valid only with OpAdd.
const AppendMarker = "-"

// Operation is one add/remove/replace edit.
type Operation struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// Error codes (E3xx). Same shape as the validator's codes so an
// automated caller can branch on them.
const (
	ErrCodeBadBatch     = "E300" // batch is not a JSON array of operations
	ErrCodeBadOp        = "E301" // unsupported op
	ErrCodeBadPath      = "E302" // empty or malformed path
	ErrCodeMissingValue = "E303" // add/replace without a value
	ErrCodeNoSuchPath   = "E304" // path does not resolve in the document
	ErrCodeIndexRange   = "E305" // array index out of range
	ErrCodeBadAppend    = "E306" // "-" used outside an add on an array
)

// Error describes why an operation could not be applied. OpIndex is the
// position in the batch; Path is the normalized (post-shorthand) path.
type Error struct {
	Code    string
	OpIndex int
	Path    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] op %d (%s): %s", e.Code, e.OpIndex, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] op %d: %s", e.Code, e.OpIndex, e.Message)
}

// ParseBatch decodes a JSON array of operations.
func ParseBatch(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, &Error{Code: ErrCodeBadBatch, Message: fmt.Sprintf("decode batch: %v", err)}
	}
	return ops, nil
}

// ToGeneric converts a batch to its generic JSON form for canonical
// hashing (the docstore's duplicate-submission guard).
func ToGeneric(ops []Operation) ([]any, error) {
	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	var generic []any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return generic, nil
}

// shorthandRoots are the top-level prefixes rewritten under the active
// scene.
var shorthandRoots = map[string]bool{
	"nodes":         true,
	"variables":     true,
	"subscriptions": true,
}

// NormalizePath rewrites shorthand prefixes to explicit scene-scoped
// paths. Non-shorthand paths pass through unchanged.
func NormalizePath(path, activeScene string) string {
	if !strings.HasPrefix(path, "/") {
		return path
	}
	rest := path[1:]
	root := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		root = rest[:i]
	}
	if !shorthandRoots[root] {
		return path
	}
	return "/scenes/" + escapeSegment(activeScene) + path
}

// splitPath splits a slash-delimited pointer into unescaped segments.
// Follows JSON Pointer escaping: ~1 is "/", ~0 is "~".
func splitPath(path string) ([]string, error) {
	if path == "" || !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path must start with '/': %q", path)
	}
	parts := strings.Split(path[1:], "/")
	segments := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		segments[i] = p
	}
	return segments, nil
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
