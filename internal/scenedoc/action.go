package scenedoc

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags the closed action vocabulary.
type ActionKind string

const (
	// ActionIncrement adds a value to a runtime variable.
	ActionIncrement ActionKind = "increment"
	// ActionDestroyNode marks a node destroyed (hidden, not removed).
	ActionDestroyNode ActionKind = "destroy_node"
	// ActionTransitionScene switches the active scene.
	ActionTransitionScene ActionKind = "transition_scene"
	// ActionUnknown carries an unrecognized tag from an external writer.
	// The executor logs and skips it; it is never silently dropped at
	// decode time so the original tag survives for diagnostics.
	ActionUnknown ActionKind = ""
)

// EventTargetPlaceholder is the destroy_node target meaning "the node
// that raised the current event". Resolved from the publish payload.
const EventTargetPlaceholder = "$event.target"

// Action is a tagged union over the closed action vocabulary. Exactly
// one of the variant pointers is non-nil for known kinds; unknown kinds
// keep the raw tag in RawKind with all variants nil.
type Action struct {
	Kind    ActionKind
	RawKind string // original tag when Kind == ActionUnknown

	Increment  *IncrementAction
	Destroy    *DestroyNodeAction
	Transition *TransitionSceneAction
}

// IncrementAction adds Value to the runtime variable named Target.
// An absent variable reads as zero.
type IncrementAction struct {
	Target string
	Value  float64
}

// DestroyNodeAction marks Target destroyed. Target may be
// EventTargetPlaceholder.
type DestroyNodeAction struct {
	Target string
}

// TransitionSceneAction switches the active scene to To, carrying the
// current values of PersistVars across the transition.
type TransitionSceneAction struct {
	To          string
	PersistVars []string
}

// actionWire is the flat JSON form actions take inside the document:
// a type tag plus the union of all variant fields.
type actionWire struct {
	Type        string   `json:"type"`
	Target      string   `json:"target,omitempty"`
	Value       float64  `json:"value,omitempty"`
	To          string   `json:"to,omitempty"`
	PersistVars []string `json:"persistVars,omitempty"`
}

// UnmarshalJSON decodes the flat wire form into the tagged union.
// Unrecognized type tags produce an ActionUnknown, never an error:
// rejecting them is the validator's job, skipping them the executor's.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w actionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode action: %w", err)
	}

	*a = Action{}
	switch ActionKind(w.Type) {
	case ActionIncrement:
		a.Kind = ActionIncrement
		a.Increment = &IncrementAction{Target: w.Target, Value: w.Value}
	case ActionDestroyNode:
		a.Kind = ActionDestroyNode
		a.Destroy = &DestroyNodeAction{Target: w.Target}
	case ActionTransitionScene:
		a.Kind = ActionTransitionScene
		a.Transition = &TransitionSceneAction{To: w.To, PersistVars: w.PersistVars}
	default:
		a.Kind = ActionUnknown
		a.RawKind = w.Type
	}
	return nil
}

// MarshalJSON re-encodes the union in the flat wire form.
func (a Action) MarshalJSON() ([]byte, error) {
	w := actionWire{Type: string(a.Kind)}
	switch a.Kind {
	case ActionIncrement:
		if a.Increment != nil {
			w.Target = a.Increment.Target
			w.Value = a.Increment.Value
		}
	case ActionDestroyNode:
		if a.Destroy != nil {
			w.Target = a.Destroy.Target
		}
	case ActionTransitionScene:
		if a.Transition != nil {
			w.To = a.Transition.To
			w.PersistVars = a.Transition.PersistVars
		}
	default:
		w.Type = a.RawKind
	}
	return json.Marshal(w)
}

// ComponentKind tags the closed component vocabulary.
type ComponentKind string

const (
	// ComponentClickable publishes an event when the node is picked.
	ComponentClickable ComponentKind = "clickable"
	// ComponentUnknown carries an unrecognized component tag.
	ComponentUnknown ComponentKind = ""
)

// Component is a declarative behavior descriptor attached to a node at
// creation time. Same union shape as Action.
type Component struct {
	Kind    ComponentKind
	RawKind string

	Clickable *ClickableComponent
}

// ClickableComponent raises Event (with the node's id in the payload)
// when the renderer reports a pick on the node.
type ClickableComponent struct {
	Event string
}

type componentWire struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
}

// UnmarshalJSON decodes the flat wire form into the tagged union.
func (c *Component) UnmarshalJSON(data []byte) error {
	var w componentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode component: %w", err)
	}

	*c = Component{}
	switch ComponentKind(w.Type) {
	case ComponentClickable:
		c.Kind = ComponentClickable
		c.Clickable = &ClickableComponent{Event: w.Event}
	default:
		c.Kind = ComponentUnknown
		c.RawKind = w.Type
	}
	return nil
}

// MarshalJSON re-encodes the union in the flat wire form.
func (c Component) MarshalJSON() ([]byte, error) {
	w := componentWire{Type: string(c.Kind)}
	if c.Kind == ComponentClickable && c.Clickable != nil {
		w.Event = c.Clickable.Event
	}
	if c.Kind == ComponentUnknown {
		w.Type = c.RawKind
	}
	return json.Marshal(w)
}
