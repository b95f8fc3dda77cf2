package scenedoc

import (
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
)

// Clone produces a deep copy of the document. Mutating the copy never
// touches the original, so prior snapshots handed to subscribers and the
// reconciler stay valid.
func (d *Document) Clone() (*Document, error) {
	if d == nil {
		return nil, nil
	}
	out := &Document{}
	if err := copier.CopyWithOption(out, d, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return out, nil
}

// ToTree converts the document to a generic JSON tree
// (map[string]any / []any / float64 / string / bool / nil), the form the
// patch engine and the CUE validator operate on.
func (d *Document) ToTree() (map[string]any, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode document tree: %w", err)
	}
	return tree, nil
}

// FromTree decodes a generic JSON tree back into a typed document.
// Unknown fields are not rejected here; the schema validator runs on the
// tree before this conversion and owns that check.
func FromTree(tree map[string]any) (*Document, error) {
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode document tree: %w", err)
	}
	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
