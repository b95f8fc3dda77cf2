package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata3d/strata/internal/bus"
	"github.com/strata3d/strata/internal/docstore"
	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

func testDoc() *scenedoc.Document {
	return &scenedoc.Document{
		ActiveScene: "level_1",
		Scenes: map[string]*scenedoc.SceneData{
			"level_1": {
				Variables: map[string]float64{"score": 0, "lives": 3},
				Nodes: []scenedoc.SceneNode{
					{ID: "crate_0", Type: scenedoc.NodeMesh},
				},
			},
			"level_2": {
				Variables: map[string]float64{"score": 10, "bonus": 5},
				Nodes: []scenedoc.SceneNode{
					{ID: "exit", Type: scenedoc.NodeMesh},
				},
			},
		},
	}
}

func setupExecutor(t *testing.T) (*Executor, *runtime.State, *docstore.Store, *int) {
	t.Helper()
	state := runtime.New()
	store := docstore.New(state)
	store.SetDoc(testDoc())

	reconciles := 0
	e := New(state, store, func() { reconciles++ })
	return e, state, store, &reconciles
}

func TestRun_IncrementFromAbsentStartsAtZero(t *testing.T) {
	e, state, _, _ := setupExecutor(t)

	err := e.Run(scenedoc.Action{
		Kind:      scenedoc.ActionIncrement,
		Increment: &scenedoc.IncrementAction{Target: "combo", Value: 2},
	}, bus.Event{Name: "hit"})

	require.NoError(t, err)
	assert.Equal(t, 2.0, state.Variable("combo"))
}

func TestRun_IncrementAccumulates(t *testing.T) {
	e, state, _, _ := setupExecutor(t)
	act := scenedoc.Action{
		Kind:      scenedoc.ActionIncrement,
		Increment: &scenedoc.IncrementAction{Target: "score", Value: 5},
	}

	require.NoError(t, e.Run(act, bus.Event{}))
	require.NoError(t, e.Run(act, bus.Event{}))

	assert.Equal(t, 10.0, state.Variable("score"))
}

func TestRun_DestroyExplicitTarget(t *testing.T) {
	e, state, _, reconciles := setupExecutor(t)

	err := e.Run(scenedoc.Action{
		Kind:    scenedoc.ActionDestroyNode,
		Destroy: &scenedoc.DestroyNodeAction{Target: "crate_0"},
	}, bus.Event{Name: "boom"})

	require.NoError(t, err)
	assert.True(t, state.IsDestroyed("crate_0"))
	assert.Equal(t, 1, *reconciles, "destroy reconciles immediately")
}

func TestRun_DestroyResolvesEventTarget(t *testing.T) {
	e, state, _, _ := setupExecutor(t)

	err := e.Run(scenedoc.Action{
		Kind:    scenedoc.ActionDestroyNode,
		Destroy: &scenedoc.DestroyNodeAction{Target: scenedoc.EventTargetPlaceholder},
	}, bus.Event{Name: "crate_hit", NodeID: "crate_0"})

	require.NoError(t, err)
	assert.True(t, state.IsDestroyed("crate_0"))
}

func TestRun_DestroyPlaceholderWithoutNodeFails(t *testing.T) {
	e, state, _, reconciles := setupExecutor(t)

	err := e.Run(scenedoc.Action{
		Kind:    scenedoc.ActionDestroyNode,
		Destroy: &scenedoc.DestroyNodeAction{Target: scenedoc.EventTargetPlaceholder},
	}, bus.Event{Name: "tick"})

	require.Error(t, err)
	assert.Equal(t, 0, state.DestroyedCount())
	assert.Equal(t, 0, *reconciles)
}

func TestRun_TransitionCarriesPersistedVariables(t *testing.T) {
	e, state, store, reconciles := setupExecutor(t)
	state.SetPlaying(true)
	state.SetVariable("score", 50)
	state.MarkDestroyed("crate_0")

	err := e.Run(scenedoc.Action{
		Kind:       scenedoc.ActionTransitionScene,
		Transition: &scenedoc.TransitionSceneAction{To: "level_2", PersistVars: []string{"score"}},
	}, bus.Event{})

	require.NoError(t, err)
	assert.Equal(t, "level_2", store.Doc().ActiveScene)
	assert.Equal(t, 50.0, state.Variable("score"), "persisted value beats the new scene's default")
	assert.Equal(t, 5.0, state.Variable("bonus"), "new scene's own defaults are seeded")
	assert.Equal(t, 0, state.DestroyedCount(), "a new scene starts with nothing destroyed")
	assert.True(t, state.Playing(), "play flag survives the transition")
	assert.GreaterOrEqual(t, *reconciles, 1)
}

func TestRun_TransitionPersistOfDeadVariableDoesNotStompSeed(t *testing.T) {
	e, state, _, _ := setupExecutor(t)

	// "bonus" has no live value in level_1; persisting it must not write
	// a zero over level_2's seeded 5.
	err := e.Run(scenedoc.Action{
		Kind:       scenedoc.ActionTransitionScene,
		Transition: &scenedoc.TransitionSceneAction{To: "level_2", PersistVars: []string{"bonus"}},
	}, bus.Event{})

	require.NoError(t, err)
	assert.Equal(t, 5.0, state.Variable("bonus"))
}

func TestRun_TransitionUnknownSceneChangesNothing(t *testing.T) {
	e, state, store, reconciles := setupExecutor(t)
	state.MarkDestroyed("crate_0")

	err := e.Run(scenedoc.Action{
		Kind:       scenedoc.ActionTransitionScene,
		Transition: &scenedoc.TransitionSceneAction{To: "level_99"},
	}, bus.Event{})

	require.Error(t, err)
	assert.Equal(t, "level_1", store.Doc().ActiveScene)
	assert.True(t, state.IsDestroyed("crate_0"), "failed transition leaves the destroyed set alone")
	assert.Equal(t, 0, *reconciles)
}

func TestRun_UnknownKindIsSkippedSilently(t *testing.T) {
	e, state, _, _ := setupExecutor(t)

	err := e.Run(scenedoc.Action{Kind: scenedoc.ActionUnknown, RawKind: "spawn_dragon"}, bus.Event{})

	require.NoError(t, err)
	assert.Equal(t, 0, state.DestroyedCount())
}
