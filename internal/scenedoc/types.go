package scenedoc

// NodeType distinguishes geometry nodes from light sources.
type NodeType string

const (
	// NodeMesh is a geometry node created from a primitive or an asset.
	NodeMesh NodeType = "mesh"
	// NodeLight is a light source. Primitive and asset fields are ignored.
	NodeLight NodeType = "light"
)

// AssetType distinguishes loadable asset kinds.
type AssetType string

const (
	// AssetModel is an external 3D model (GLB).
	AssetModel AssetType = "model"
	// AssetTexture is an image applied as a material texture.
	AssetTexture AssetType = "texture"
)

// DefaultPrimitive is the fallback geometry for mesh nodes whose
// primitive field is empty or unrecognized.
const DefaultPrimitive = "box"

// DefaultSize is the uniform scale applied when a node omits size.
const DefaultSize = 1.0

// Vec3 is a 3-component position vector in scene units.
type Vec3 [3]float64

// Document is the root of the authoritative scene description.
//
// ActiveScene must name an entry in Scenes; node asset and texture
// references must resolve in Assets. Both are enforced at commit time by
// the validator. The reconciler tolerates dangling references (logs and
// degrades) so a half-edited document can never crash a render pass.
type Document struct {
	ActiveScene string                     `json:"activeScene"`
	Scenes      map[string]*SceneData      `json:"scenes"`
	Assets      map[string]AssetDefinition `json:"assets,omitempty"`
}

// SceneData describes one scene: variable defaults, display nodes, and
// event subscriptions.
type SceneData struct {
	Variables     map[string]float64 `json:"variables,omitempty"`
	Nodes         []SceneNode        `json:"nodes,omitempty"`
	Subscriptions []Subscription     `json:"subscriptions,omitempty"`
}

// SceneNode is one placeable entity. ID is unique within its scene and
// stable across reconciliation passes.
//
// Primitive and Asset are mutually exclusive mesh sources; when both are
// set the asset wins. Components are attached exactly once, at creation
// time (see reconcile package for the known rewiring limitation).
type SceneNode struct {
	ID         string      `json:"id"`
	Type       NodeType    `json:"type"`
	Primitive  string      `json:"primitive,omitempty"`
	Asset      string      `json:"asset,omitempty"`
	Position   Vec3        `json:"position"`
	Color      string      `json:"color,omitempty"`
	Texture    string      `json:"texture,omitempty"`
	Size       float64     `json:"size,omitempty"`
	Intensity  float64     `json:"intensity,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// EffectiveSize returns the node's uniform scale, defaulting when unset.
func (n *SceneNode) EffectiveSize() float64 {
	if n.Size > 0 {
		return n.Size
	}
	return DefaultSize
}

// EffectivePrimitive returns the primitive kind used when no asset
// applies, defaulting to the simplest box geometry.
func (n *SceneNode) EffectivePrimitive() string {
	if n.Primitive != "" {
		return n.Primitive
	}
	return DefaultPrimitive
}

// AssetDefinition maps an asset key to a loadable resource.
type AssetDefinition struct {
	Type     AssetType      `json:"type"`
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Subscription is one declarative event rule: when the named event is
// published, its actions run in array order.
//
// When is reserved for a future conditional guard; the executor ignores
// it today but the field round-trips so external writers can set it.
type Subscription struct {
	ID      string   `json:"id"`
	On      string   `json:"on"`
	When    string   `json:"when,omitempty"`
	Actions []Action `json:"actions"`
}

// Scene returns the named scene, or nil if absent.
func (d *Document) Scene(id string) *SceneData {
	if d == nil || d.Scenes == nil {
		return nil
	}
	return d.Scenes[id]
}

// ActiveSceneData returns the scene named by ActiveScene, or nil if the
// pointer dangles.
func (d *Document) ActiveSceneData() *SceneData {
	if d == nil {
		return nil
	}
	return d.Scene(d.ActiveScene)
}

// NodeByID returns a pointer to the node with the given id, or nil.
func (s *SceneData) NodeByID(id string) *SceneNode {
	if s == nil {
		return nil
	}
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// SubscriptionsFor returns the subscriptions listening on the given
// event name, in declaration order.
func (s *SceneData) SubscriptionsFor(event string) []Subscription {
	if s == nil {
		return nil
	}
	var out []Subscription
	for _, sub := range s.Subscriptions {
		if sub.On == event {
			out = append(out, sub)
		}
	}
	return out
}
