// Package bus routes published events to the active scene's declarative
// subscriptions and runs their actions in order.
//
// The bus holds no subscription state of its own. Every publish re-reads
// the current document snapshot, so editing a subscription mid-session
// takes effect on the very next event with no re-registration step.
package bus

import (
	"log/slog"

	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

// Event is one published occurrence: the event name plus the node that
// raised it (empty for events not tied to a node).
type Event struct {
	Name   string
	NodeID string
}

// Runner executes one subscription action in the context of the event
// that triggered it.
type Runner interface {
	Run(act scenedoc.Action, ev Event) error
}

// Bus dispatches events against the live document.
type Bus struct {
	state  *runtime.State
	source func() *scenedoc.Document
	runner Runner
}

// New creates a Bus reading document snapshots from source.
func New(state *runtime.State, source func() *scenedoc.Document, runner Runner) *Bus {
	return &Bus{state: state, source: source, runner: runner}
}

// Publish dispatches the event to every matching subscription of the
// active scene, running actions in declaration order. Events published
// while the runtime is stopped are dropped.
//
// A failing action is logged and the remaining actions still run. One
// bad rule never takes down the dispatch pass; retrying would not be
// deterministic, reporting is the caller's job.
func (b *Bus) Publish(name, nodeID string) {
	if !b.state.Playing() {
		slog.Debug("event dropped: runtime stopped", "event", name)
		return
	}

	doc := b.source()
	scene := doc.ActiveSceneData()
	if scene == nil {
		slog.Warn("event dropped: active scene not found",
			"event", name,
			"scene", doc.ActiveScene,
		)
		return
	}

	ev := Event{Name: name, NodeID: nodeID}
	matched := 0
	for _, sub := range scene.SubscriptionsFor(name) {
		matched++
		for i, act := range sub.Actions {
			if err := b.runner.Run(act, ev); err != nil {
				slog.Error("action failed",
					"event", name,
					"subscription", sub.ID,
					"action", i,
					"error", err,
				)
				continue
			}
		}
	}

	if matched == 0 {
		slog.Debug("event had no subscribers", "event", name)
		return
	}
	slog.Debug("event dispatched",
		"event", name,
		"node", nodeID,
		"subscriptions", matched,
	)
}
