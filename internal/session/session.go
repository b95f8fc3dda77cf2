// Package session wires the document store, reconciler, event bus, and
// action executor into one editing/play session.
//
// Construction order matters: the bus needs the executor, the executor
// needs the store and a reconcile trigger, and the reconciler needs a
// publisher that does not exist until the bus does. The cycle is broken
// by two-phase construction — the reconciler is built without a
// publisher and wired via SetPublisher once the bus exists.
package session

import (
	"log/slog"

	"github.com/strata3d/strata/internal/action"
	"github.com/strata3d/strata/internal/bus"
	"github.com/strata3d/strata/internal/docstore"
	"github.com/strata3d/strata/internal/patch"
	"github.com/strata3d/strata/internal/reconcile"
	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

// Session is one live editing/play session: a document, its runtime
// state, and the machinery keeping a renderer in sync with both.
type Session struct {
	State      *runtime.State
	Store      *docstore.Store
	Reconciler *reconcile.Reconciler
	Bus        *bus.Bus
	Executor   *action.Executor
}

// New builds a fully wired session on top of the given renderer.
// storeOpts pass through to the document store (journal, debounce
// window, clock).
func New(renderer reconcile.Renderer, storeOpts ...docstore.Option) *Session {
	state := runtime.New()
	store := docstore.New(state, storeOpts...)

	rec := reconcile.New(renderer, reconcile.DocumentAssets{Source: store.Doc}, state)
	exec := action.New(state, store, func() {
		rec.Reconcile(store.Doc())
	})
	b := bus.New(state, store.Doc, exec)
	rec.SetPublisher(b.Publish)

	// Every committed document — replace, mutation, or patch — flows
	// straight into a reconcile pass.
	store.Subscribe(func(doc *scenedoc.Document) {
		rec.Reconcile(doc)
	})

	return &Session{
		State:      state,
		Store:      store,
		Reconciler: rec,
		Bus:        b,
		Executor:   exec,
	}
}

// LoadDocument replaces the whole document and reconciles.
func (s *Session) LoadDocument(doc *scenedoc.Document) {
	s.Store.SetDoc(doc)
}

// ApplyPatch runs a patch batch through the validation pipeline. On
// rejection the document is untouched and the error describes every
// violation.
func (s *Session) ApplyPatch(ops []patch.Operation) error {
	return s.Store.ApplyPatch(ops)
}

// Play enters play mode. Events published while stopped are inert, so
// this is the switch that makes the scene interactive.
func (s *Session) Play() {
	s.State.SetPlaying(true)
	slog.Info("session playing")
}

// Stop leaves play mode without touching variables or the destroyed
// set: a stop/play round trip resumes exactly where it left off.
func (s *Session) Stop() {
	s.State.SetPlaying(false)
	slog.Info("session stopped")
}

// Reset clears all runtime state, re-seeds the active scene's variable
// defaults, and reconciles so hidden nodes reappear.
func (s *Session) Reset() {
	s.State.Reset()
	doc := s.Store.Doc()
	if scene := doc.ActiveSceneData(); scene != nil {
		s.State.SeedVariables(scene.Variables)
	}
	s.Reconciler.Reconcile(doc)
}

// Close tears the session down. The renderer's objects are disposed;
// the session is unusable afterwards.
func (s *Session) Close() {
	s.Reconciler.WaitForLoads()
	s.Reconciler.Dispose()
}
