package scenedoc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActionUnmarshal_Increment decodes the flat wire form into the
// increment variant.
func TestActionUnmarshal_Increment(t *testing.T) {
	var a Action
	err := json.Unmarshal([]byte(`{"type":"increment","target":"score","value":5}`), &a)
	require.NoError(t, err)

	assert.Equal(t, ActionIncrement, a.Kind)
	require.NotNil(t, a.Increment)
	assert.Equal(t, "score", a.Increment.Target)
	assert.Equal(t, 5.0, a.Increment.Value)
	assert.Nil(t, a.Destroy)
	assert.Nil(t, a.Transition)
}

// TestActionUnmarshal_DestroyNodePlaceholder keeps the event-target
// placeholder literal; resolution happens at execution time.
func TestActionUnmarshal_DestroyNodePlaceholder(t *testing.T) {
	var a Action
	err := json.Unmarshal([]byte(`{"type":"destroy_node","target":"$event.target"}`), &a)
	require.NoError(t, err)

	assert.Equal(t, ActionDestroyNode, a.Kind)
	require.NotNil(t, a.Destroy)
	assert.Equal(t, EventTargetPlaceholder, a.Destroy.Target)
}

// TestActionUnmarshal_TransitionScene decodes persistVars.
func TestActionUnmarshal_TransitionScene(t *testing.T) {
	var a Action
	err := json.Unmarshal([]byte(`{"type":"transition_scene","to":"level_2","persistVars":["score","lives"]}`), &a)
	require.NoError(t, err)

	assert.Equal(t, ActionTransitionScene, a.Kind)
	require.NotNil(t, a.Transition)
	assert.Equal(t, "level_2", a.Transition.To)
	assert.Equal(t, []string{"score", "lives"}, a.Transition.PersistVars)
}

// TestActionUnmarshal_UnknownTag maps unrecognized tags to
// ActionUnknown without error, preserving the original tag.
func TestActionUnmarshal_UnknownTag(t *testing.T) {
	var a Action
	err := json.Unmarshal([]byte(`{"type":"teleport","target":"player"}`), &a)
	require.NoError(t, err)

	assert.Equal(t, ActionUnknown, a.Kind)
	assert.Equal(t, "teleport", a.RawKind)
	assert.Nil(t, a.Increment)
	assert.Nil(t, a.Destroy)
	assert.Nil(t, a.Transition)
}

// TestActionMarshal_RoundTrip re-encodes each variant in the flat wire
// form, including the unknown passthrough.
func TestActionMarshal_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"type":"increment","target":"score","value":1}`,
		`{"type":"destroy_node","target":"crate_1"}`,
		`{"type":"transition_scene","to":"level_2","persistVars":["score"]}`,
		`{"type":"teleport"}`,
	}
	for _, in := range inputs {
		var a Action
		require.NoError(t, json.Unmarshal([]byte(in), &a))

		out, err := json.Marshal(a)
		require.NoError(t, err)

		var again Action
		require.NoError(t, json.Unmarshal(out, &again))
		assert.Equal(t, a, again, "round trip changed %s", in)
	}
}

// TestComponentUnmarshal_Clickable decodes a click component.
func TestComponentUnmarshal_Clickable(t *testing.T) {
	var c Component
	err := json.Unmarshal([]byte(`{"type":"clickable","event":"crate_clicked"}`), &c)
	require.NoError(t, err)

	assert.Equal(t, ComponentClickable, c.Kind)
	require.NotNil(t, c.Clickable)
	assert.Equal(t, "crate_clicked", c.Clickable.Event)
}

// TestComponentUnmarshal_UnknownTag preserves unrecognized component
// tags for the reconciler to log and skip.
func TestComponentUnmarshal_UnknownTag(t *testing.T) {
	var c Component
	err := json.Unmarshal([]byte(`{"type":"spin","event":"x"}`), &c)
	require.NoError(t, err)

	assert.Equal(t, ComponentUnknown, c.Kind)
	assert.Equal(t, "spin", c.RawKind)
}
