package patch

import (
	"fmt"
	"strconv"
)

// Apply applies a batch to a document tree in order. The tree is
// mutated in place; callers that need atomicity pass a clone and adopt
// it only on success (the docstore's speculative-apply pipeline).
//
// Each operation's path is shorthand-normalized against activeScene,
// then a trailing append marker is resolved against the tree as already
// modified by earlier operations in the same batch. The first failing
// operation aborts the whole application.
func Apply(tree map[string]any, ops []Operation, activeScene string) error {
	for i, op := range ops {
		if err := applyOne(tree, i, op, activeScene); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(tree map[string]any, opIndex int, op Operation, activeScene string) error {
	switch op.Op {
	case OpAdd, OpRemove, OpReplace:
	default:
		return &Error{
			Code:    ErrCodeBadOp,
			OpIndex: opIndex,
			Message: fmt.Sprintf("unsupported op %q (want add, remove, or replace)", op.Op),
		}
	}

	if (op.Op == OpAdd || op.Op == OpReplace) && op.Value == nil {
		return &Error{
			Code:    ErrCodeMissingValue,
			OpIndex: opIndex,
			Path:    op.Path,
			Message: fmt.Sprintf("%s requires a value", op.Op),
		}
	}

	normalized := NormalizePath(op.Path, activeScene)
	segments, err := splitPath(normalized)
	if err != nil {
		return &Error{Code: ErrCodeBadPath, OpIndex: opIndex, Path: normalized, Message: err.Error()}
	}
	if len(segments) == 1 && segments[0] == "" {
		return &Error{Code: ErrCodeBadPath, OpIndex: opIndex, Path: normalized, Message: "whole-document operations are not allowed"}
	}

	parent, err := walkToParent(tree, segments)
	if err != nil {
		return &Error{Code: ErrCodeNoSuchPath, OpIndex: opIndex, Path: normalized, Message: err.Error()}
	}
	last := segments[len(segments)-1]

	switch target := parent.get().(type) {
	case map[string]any:
		return applyToMap(target, opIndex, op, normalized, last)
	case []any:
		updated, err := applyToArray(target, opIndex, op, normalized, last)
		if err != nil {
			return err
		}
		parent.set(updated)
		return nil
	default:
		return &Error{
			Code:    ErrCodeNoSuchPath,
			OpIndex: opIndex,
			Path:    normalized,
			Message: fmt.Sprintf("segment %q addresses a %T, not a container", last, parent.get()),
		}
	}
}

func applyToMap(m map[string]any, opIndex int, op Operation, path, key string) error {
	_, exists := m[key]
	switch op.Op {
	case OpAdd:
		m[key] = op.Value
	case OpReplace:
		if !exists {
			return &Error{Code: ErrCodeNoSuchPath, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("key %q does not exist", key)}
		}
		m[key] = op.Value
	case OpRemove:
		if !exists {
			return &Error{Code: ErrCodeNoSuchPath, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("key %q does not exist", key)}
		}
		delete(m, key)
	}
	return nil
}

func applyToArray(arr []any, opIndex int, op Operation, path, seg string) ([]any, error) {
	// Append marker: valid only for add, resolves to the array's current
	// length at the moment this operation runs.
	if seg == AppendMarker {
		if op.Op != OpAdd {
			return nil, &Error{Code: ErrCodeBadAppend, OpIndex: opIndex, Path: path, Message: "append marker \"-\" is only valid with add"}
		}
		return append(arr, op.Value), nil
	}

	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 {
		return nil, &Error{Code: ErrCodeBadPath, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("invalid array index %q", seg)}
	}

	switch op.Op {
	case OpAdd:
		// add at index inserts before it; index == len appends.
		if idx > len(arr) {
			return nil, &Error{Code: ErrCodeIndexRange, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("index %d out of range (len %d)", idx, len(arr))}
		}
		out := make([]any, 0, len(arr)+1)
		out = append(out, arr[:idx]...)
		out = append(out, op.Value)
		out = append(out, arr[idx:]...)
		return out, nil
	case OpReplace:
		if idx >= len(arr) {
			return nil, &Error{Code: ErrCodeIndexRange, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("index %d out of range (len %d)", idx, len(arr))}
		}
		arr[idx] = op.Value
		return arr, nil
	case OpRemove:
		if idx >= len(arr) {
			return nil, &Error{Code: ErrCodeIndexRange, OpIndex: opIndex, Path: path, Message: fmt.Sprintf("index %d out of range (len %d)", idx, len(arr))}
		}
		return append(arr[:idx], arr[idx+1:]...), nil
	}
	return arr, nil
}

// container is a settable reference to the parent container reached by
// a path walk. Arrays need write-back because insertion and removal
// reallocate the slice.
type container struct {
	get func() any
	set func(any)
}

// walkToParent descends to the container holding the final segment.
// Every intermediate segment must already exist.
func walkToParent(tree map[string]any, segments []string) (*container, error) {
	var cur any = tree
	var setCur func(any)

	for _, seg := range segments[:len(segments)-1] {
		switch node := cur.(type) {
		case map[string]any:
			child, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("key %q does not exist", seg)
			}
			key := seg
			setCur = func(v any) { node[key] = v }
			cur = child
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("invalid array index %q (len %d)", seg, len(node))
			}
			i := idx
			setCur = func(v any) { node[i] = v }
			cur = node[idx]
		default:
			return nil, fmt.Errorf("segment %q addresses a %T, not a container", seg, cur)
		}
	}

	final := cur
	finalSet := setCur
	return &container{
		get: func() any { return final },
		set: func(v any) {
			if finalSet != nil {
				finalSet(v)
			}
		},
	}, nil
}
