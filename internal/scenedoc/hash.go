package scenedoc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// leaves room for a future algorithm migration.
const (
	DomainDocument   = "strata/document/v1"
	DomainPatchBatch = "strata/patch-batch/v1"
)

// hashWithDomain computes SHA-256 over domain + 0x00 + data. The null
// separator removes domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of the document, stable
// across key ordering and encoding differences.
func (d *Document) Hash() (string, error) {
	tree, err := d.ToTree()
	if err != nil {
		return "", fmt.Errorf("document hash: %w", err)
	}
	canonical, err := MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("document hash: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// BatchHash computes the identity of a patch batch from its generic JSON
// form. Two submissions with identical operations hash identically
// regardless of map key order; the docstore uses this for its
// accidental-resubmission guard.
func BatchHash(batch []any) (string, error) {
	canonical, err := MarshalCanonical(batch)
	if err != nil {
		return "", fmt.Errorf("batch hash: %w", err)
	}
	return hashWithDomain(DomainPatchBatch, canonical), nil
}
