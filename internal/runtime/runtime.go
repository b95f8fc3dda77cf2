// Package runtime holds the ephemeral play-session state: the play
// flag, live variable values, and the destroyed-node set.
//
// State is an explicit handle injected into the event bus, the action
// executor, and the reconciler's visibility check. Nothing here is a
// package-level global, so independent sessions (and tests) can coexist
// in one process.
//
// Lifecycle: variables are seeded from a scene's declared defaults when
// a document is committed, but a seed never overwrites a live value.
// That rule is what lets the document be hot-edited mid-play without
// resetting a running score. Reset clears everything and is the only
// path that does.
package runtime

import "log/slog"

// VariableListener observes committed variable changes. Called only
// when the stored value actually changed; no-op writes are silent.
type VariableListener func(key string, value float64)

// ResetListener observes a full state reset.
type ResetListener func()

// State is the ephemeral runtime state for one session.
//
// All methods are intended for the session's single logical thread of
// control; State performs no internal locking.
type State struct {
	playing   bool
	variables map[string]float64
	destroyed map[string]struct{}

	varListeners   []VariableListener
	resetListeners []ResetListener
}

// New creates an empty, stopped state.
func New() *State {
	return &State{
		variables: make(map[string]float64),
		destroyed: make(map[string]struct{}),
	}
}

// OnVariableChanged registers a listener for committed variable writes.
func (s *State) OnVariableChanged(fn VariableListener) {
	s.varListeners = append(s.varListeners, fn)
}

// OnReset registers a listener for state resets.
func (s *State) OnReset(fn ResetListener) {
	s.resetListeners = append(s.resetListeners, fn)
}

// Playing reports whether the session is in play mode. Events are inert
// while stopped.
func (s *State) Playing() bool {
	return s.playing
}

// SetPlaying toggles play mode. Stopping does not clear state; callers
// that want stop-and-reset semantics call Reset explicitly.
func (s *State) SetPlaying(playing bool) {
	s.playing = playing
}

// Variable returns the named variable's value. Absent reads as zero,
// matching the increment action's contract.
func (s *State) Variable(key string) float64 {
	return s.variables[key]
}

// Has reports whether the variable holds a live value.
func (s *State) Has(key string) bool {
	_, ok := s.variables[key]
	return ok
}

// SetVariable writes a variable and notifies listeners, but only when
// the value actually changes.
func (s *State) SetVariable(key string, value float64) {
	if prev, ok := s.variables[key]; ok && prev == value {
		return
	}
	s.variables[key] = value
	for _, fn := range s.varListeners {
		fn(key, value)
	}
}

// SeedVariables installs scene defaults for variables that have no live
// value yet. Existing values are never overwritten.
func (s *State) SeedVariables(defaults map[string]float64) {
	for key, value := range defaults {
		if _, ok := s.variables[key]; ok {
			continue
		}
		s.SetVariable(key, value)
	}
}

// MarkDestroyed records a node id as destroyed. Destroyed nodes stay in
// the reconciler's map but are hidden.
func (s *State) MarkDestroyed(nodeID string) {
	s.destroyed[nodeID] = struct{}{}
}

// IsDestroyed reports whether the node id is marked destroyed.
func (s *State) IsDestroyed(nodeID string) bool {
	_, ok := s.destroyed[nodeID]
	return ok
}

// ClearDestroyed empties the destroyed set. Called on scene transition:
// a new scene starts with nothing destroyed.
func (s *State) ClearDestroyed() {
	clear(s.destroyed)
}

// DestroyedCount returns the number of destroyed node ids.
func (s *State) DestroyedCount() int {
	return len(s.destroyed)
}

// Reset clears variables, the destroyed set, and the play flag, then
// notifies reset listeners. This is the stop/reset path; a plain
// document replace never calls it.
func (s *State) Reset() {
	slog.Debug("runtime state reset",
		"variables", len(s.variables),
		"destroyed", len(s.destroyed),
	)
	clear(s.variables)
	clear(s.destroyed)
	s.playing = false
	for _, fn := range s.resetListeners {
		fn()
	}
}
