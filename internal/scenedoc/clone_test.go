package scenedoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureDoc() *Document {
	return &Document{
		ActiveScene: "level_1",
		Scenes: map[string]*SceneData{
			"level_1": {
				Variables: map[string]float64{"score": 0},
				Nodes: []SceneNode{
					{
						ID:       "crate",
						Type:     NodeMesh,
						Position: Vec3{0, 0.5, 0},
						Color:    "#aa8844",
						Components: []Component{
							{Kind: ComponentClickable, Clickable: &ClickableComponent{Event: "crate_clicked"}},
						},
					},
				},
				Subscriptions: []Subscription{
					{
						ID: "sub_1",
						On: "crate_clicked",
						Actions: []Action{
							{Kind: ActionIncrement, Increment: &IncrementAction{Target: "score", Value: 1}},
						},
					},
				},
			},
		},
		Assets: map[string]AssetDefinition{
			"robot": {Type: AssetModel, URL: "https://assets.example.com/robot.glb"},
		},
	}
}

// TestClone_Independent verifies deep independence: mutating any level
// of the clone leaves the original untouched.
func TestClone_Independent(t *testing.T) {
	orig := fixtureDoc()
	clone, err := orig.Clone()
	require.NoError(t, err)

	clone.ActiveScene = "level_2"
	clone.Scenes["level_1"].Nodes[0].Color = "#ffffff"
	clone.Scenes["level_1"].Variables["score"] = 99
	clone.Scenes["level_1"].Subscriptions[0].Actions[0].Increment.Value = 42
	clone.Assets["robot"] = AssetDefinition{Type: AssetTexture, URL: "other"}

	assert.Equal(t, "level_1", orig.ActiveScene)
	assert.Equal(t, "#aa8844", orig.Scenes["level_1"].Nodes[0].Color)
	assert.Equal(t, 0.0, orig.Scenes["level_1"].Variables["score"])
	assert.Equal(t, 1.0, orig.Scenes["level_1"].Subscriptions[0].Actions[0].Increment.Value)
	assert.Equal(t, AssetModel, orig.Assets["robot"].Type)
}

// TestTreeRoundTrip converts typed -> tree -> typed without loss.
func TestTreeRoundTrip(t *testing.T) {
	orig := fixtureDoc()

	tree, err := orig.ToTree()
	require.NoError(t, err)
	back, err := FromTree(tree)
	require.NoError(t, err)

	assert.Equal(t, orig, back)
}

// TestSubscriptionsFor filters by event name in declaration order.
func TestSubscriptionsFor(t *testing.T) {
	scene := &SceneData{
		Subscriptions: []Subscription{
			{ID: "a", On: "clicked"},
			{ID: "b", On: "other"},
			{ID: "c", On: "clicked"},
		},
	}
	subs := scene.SubscriptionsFor("clicked")
	require.Len(t, subs, 2)
	assert.Equal(t, "a", subs[0].ID)
	assert.Equal(t, "c", subs[1].ID)
}
