// Package action executes subscription actions against the runtime
// state and the document store.
package action

import (
	"fmt"
	"log/slog"

	"github.com/strata3d/strata/internal/bus"
	"github.com/strata3d/strata/internal/docstore"
	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

// Executor runs the closed action vocabulary. It satisfies bus.Runner.
//
// The reconcile callback is invoked after any action whose effect must
// be visible immediately (destroy, scene transition); plain variable
// writes flow to observers through the runtime's own listeners.
type Executor struct {
	state     *runtime.State
	store     *docstore.Store
	reconcile func()
}

// New creates an Executor. reconcile may be nil in headless contexts
// that only care about state effects.
func New(state *runtime.State, store *docstore.Store, reconcile func()) *Executor {
	return &Executor{state: state, store: store, reconcile: reconcile}
}

// Run executes one action. Unknown kinds are logged and skipped with a
// nil error so sibling actions keep running; everything else returns an
// error only for conditions the document author needs to hear about
// (an unknown transition target, a destroy with no resolvable node).
func (e *Executor) Run(act scenedoc.Action, ev bus.Event) error {
	switch act.Kind {
	case scenedoc.ActionIncrement:
		return e.runIncrement(act.Increment)
	case scenedoc.ActionDestroyNode:
		return e.runDestroy(act.Destroy, ev)
	case scenedoc.ActionTransitionScene:
		return e.runTransition(act.Transition)
	default:
		slog.Warn("unknown action type skipped",
			"type", act.RawKind,
			"event", ev.Name,
		)
		return nil
	}
}

// runIncrement adds Value to the target variable. An absent variable
// reads as zero, so the first increment establishes it.
func (e *Executor) runIncrement(act *scenedoc.IncrementAction) error {
	cur := e.state.Variable(act.Target)
	e.state.SetVariable(act.Target, cur+act.Value)
	return nil
}

// runDestroy marks the target node destroyed and reconciles so it
// disappears immediately. EventTargetPlaceholder resolves to the node
// that raised the current event.
func (e *Executor) runDestroy(act *scenedoc.DestroyNodeAction, ev bus.Event) error {
	target := act.Target
	if target == scenedoc.EventTargetPlaceholder {
		if ev.NodeID == "" {
			return fmt.Errorf("destroy_node: event %q carries no target node", ev.Name)
		}
		target = ev.NodeID
	}
	e.state.MarkDestroyed(target)
	e.triggerReconcile()
	return nil
}

// runTransition switches the active scene. Order matters:
//
//  1. validate the target scene exists — unknown target is an error
//     with no state change at all
//  2. capture the live values of persistVars
//  3. clear the destroyed set (a new scene starts with nothing
//     destroyed)
//  4. repoint the active scene through the store's mutation path, which
//     also seeds the new scene's variable defaults
//  5. restore the captured values, overriding any default just seeded
//
// The play flag is untouched throughout.
func (e *Executor) runTransition(act *scenedoc.TransitionSceneAction) error {
	doc := e.store.Doc()
	if doc.Scene(act.To) == nil {
		return fmt.Errorf("transition_scene: scene %q is not defined", act.To)
	}

	// Only live values carry over. A persistVars name with no live value
	// must not stomp the new scene's seeded default with a zero.
	persisted := make(map[string]float64, len(act.PersistVars))
	for _, name := range act.PersistVars {
		if e.state.Has(name) {
			persisted[name] = e.state.Variable(name)
		}
	}

	e.state.ClearDestroyed()

	if err := e.store.PatchDoc(func(d *scenedoc.Document) {
		d.ActiveScene = act.To
	}); err != nil {
		return fmt.Errorf("transition_scene: %w", err)
	}

	for name, value := range persisted {
		e.state.SetVariable(name, value)
	}

	slog.Info("scene transition",
		"to", act.To,
		"persisted", len(persisted),
	)
	e.triggerReconcile()
	return nil
}

func (e *Executor) triggerReconcile() {
	if e.reconcile != nil {
		e.reconcile()
	}
}
