package scenedoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarshalCanonical_KeyOrder sorts object keys deterministically.
func TestMarshalCanonical_KeyOrder(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"apple": 2,
		"mango": 3,
	}
	out, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"apple":2,"mango":3,"zebra":1}`, string(out))
}

// TestMarshalCanonical_NoHTMLEscaping leaves < > & unescaped.
func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"u": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"u":"a<b>&c"}`, string(out))
}

// TestMarshalCanonical_Numbers emits whole floats as integers and
// fractional values in shortest form.
func TestMarshalCanonical_Numbers(t *testing.T) {
	out, err := MarshalCanonical([]any{1.0, 2.5, float64(3), -0.25})
	require.NoError(t, err)
	assert.Equal(t, `[1,2.5,3,-0.25]`, string(out))
}

// TestMarshalCanonical_RejectsNonFinite refuses NaN and infinities.
func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": nan()})
	assert.Error(t, err)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

// TestBatchHash_KeyOrderInsensitive hashes identically regardless of
// map construction order. This property backs the duplicate-submission
// guard in the docstore.
func TestBatchHash_KeyOrderInsensitive(t *testing.T) {
	a := []any{map[string]any{"op": "add", "path": "/nodes/-", "value": map[string]any{"id": "n1", "type": "mesh"}}}
	b := []any{map[string]any{"value": map[string]any{"type": "mesh", "id": "n1"}, "path": "/nodes/-", "op": "add"}}

	ha, err := BatchHash(a)
	require.NoError(t, err)
	hb, err := BatchHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

// TestDocumentHash_Stable returns the same hash for equal documents and
// different hashes once content diverges.
func TestDocumentHash_Stable(t *testing.T) {
	doc := &Document{
		ActiveScene: "level_1",
		Scenes: map[string]*SceneData{
			"level_1": {Nodes: []SceneNode{{ID: "crate", Type: NodeMesh, Position: Vec3{0, 1, 0}}}},
		},
	}
	h1, err := doc.Hash()
	require.NoError(t, err)

	clone, err := doc.Clone()
	require.NoError(t, err)
	h2, err := clone.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	clone.Scenes["level_1"].Nodes[0].Position = Vec3{9, 9, 9}
	h3, err := clone.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
