// Package docstore owns the authoritative scene document.
//
// The Store is the document's only writer. It exposes three mutation
// paths:
//
//   - SetDoc: wholesale replacement (file load, hot reload)
//   - PatchDoc: structural mutation via callback on a clone (internal
//     callers like scene transitions)
//   - ApplyPatch: untrusted structured edits from external writers,
//     run through the speculative-apply pipeline: normalize shorthand,
//     resolve append markers, apply to a clone, validate, then commit
//     atomically or reject with the full violation report
//
// Every committed change notifies subscribers synchronously with the
// new immutable snapshot. Prior snapshots are never mutated in place,
// so the reconciler and tests may retain references safely.
//
// An optional journal receives every committed revision; journaling
// failures are logged and never block a commit.
package docstore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strata3d/strata/internal/patch"
	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
	"github.com/strata3d/strata/internal/schema"
)

// DefaultDebounceWindow is how long an identical patch batch counts as
// an accidental resubmission.
const DefaultDebounceWindow = 2 * time.Second

// Subscriber observes committed documents. Called synchronously, in
// registration order, with the new snapshot.
type Subscriber func(doc *scenedoc.Document)

// Revision is one committed document state handed to the journal.
type Revision struct {
	ID     string // revision uuid
	Seq    int64  // monotonic commit counter for this store
	Source string // "set", "mutate", or "patch"
	Hash   string // canonical content hash of the document
	Body   []byte // document JSON
}

// Journal persists committed revisions. Implemented by journal.Journal;
// kept as an interface here so the store has no storage dependency.
type Journal interface {
	Append(rev Revision) error
}

// Store owns the document. All methods run on the session's single
// logical thread of control; the store performs no locking.
type Store struct {
	state *runtime.State
	doc   *scenedoc.Document

	subscribers []Subscriber
	seq         int64
	journal     Journal

	// duplicate-batch guard
	now           func() time.Time
	debounce      time.Duration
	lastBatchHash string
	lastBatchAt   time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithJournal attaches a revision journal.
func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithDebounceWindow overrides the duplicate-batch window. Zero
// disables the guard.
func WithDebounceWindow(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store bound to the session's runtime state, holding an
// empty single-scene document until SetDoc is called.
func New(state *runtime.State, opts ...Option) *Store {
	s := &Store{
		state: state,
		doc: &scenedoc.Document{
			ActiveScene: "main",
			Scenes:      map[string]*scenedoc.SceneData{"main": {}},
		},
		now:      time.Now,
		debounce: DefaultDebounceWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Doc returns the current document snapshot. Callers must treat it as
// immutable; mutation goes through PatchDoc or ApplyPatch.
func (s *Store) Doc() *scenedoc.Document {
	return s.doc
}

// Subscribe registers a change observer. Subscribers added after a
// commit do not see it retroactively.
func (s *Store) Subscribe(fn Subscriber) {
	s.subscribers = append(s.subscribers, fn)
}

// SetDoc replaces the document wholesale, re-seeds runtime variables
// from the new active scene's defaults (never clobbering live values),
// and notifies subscribers synchronously.
func (s *Store) SetDoc(doc *scenedoc.Document) {
	s.commit(doc, "set")
}

// PatchDoc clones the current document, applies the mutation callback
// to the clone, and commits the result. The previous document object is
// never mutated in place.
func (s *Store) PatchDoc(mutate func(doc *scenedoc.Document)) error {
	clone, err := s.doc.Clone()
	if err != nil {
		return fmt.Errorf("patch document: %w", err)
	}
	mutate(clone)
	s.commit(clone, "mutate")
	return nil
}

// ApplyPatch runs an untrusted batch through the speculative-apply
// pipeline. All-or-nothing: either every operation applies and the
// result validates, or the live document is untouched and the returned
// error carries the full rejection report. ApplyPatch never panics.
//
// Identical batches resubmitted within the debounce window after a
// successful commit are treated as accidental re-delivery and ignored
// (nil error, no commit). Rejected batches are not recorded by the
// guard, so an unchanged retry of a failing batch reports its errors
// again.
func (s *Store) ApplyPatch(ops []patch.Operation) error {
	batchID := uuid.NewString()

	generic, err := patch.ToGeneric(ops)
	if err != nil {
		return &PatchRejectedError{BatchID: batchID, Reason: err.Error()}
	}
	batchHash, err := scenedoc.BatchHash(generic)
	if err != nil {
		return &PatchRejectedError{BatchID: batchID, Reason: err.Error()}
	}

	if s.isDuplicate(batchHash) {
		slog.Info("duplicate patch batch ignored",
			"batch_id", batchID,
			"batch_hash", batchHash,
		)
		return nil
	}

	tree, err := s.doc.ToTree()
	if err != nil {
		return &PatchRejectedError{BatchID: batchID, Reason: err.Error()}
	}

	if err := patch.Apply(tree, ops, s.doc.ActiveScene); err != nil {
		slog.Warn("patch batch rejected",
			"batch_id", batchID,
			"stage", "apply",
			"error", err,
		)
		return &PatchRejectedError{BatchID: batchID, Reason: err.Error()}
	}

	candidate, violations := schema.Validate(tree)
	if len(violations) > 0 {
		slog.Warn("patch batch rejected",
			"batch_id", batchID,
			"stage", "validate",
			"violations", len(violations),
		)
		return &PatchRejectedError{
			BatchID:    batchID,
			Reason:     schema.Report(violations),
			Violations: violations,
		}
	}

	s.lastBatchHash = batchHash
	s.lastBatchAt = s.now()
	s.commit(candidate, "patch")

	slog.Info("patch batch committed",
		"batch_id", batchID,
		"ops", len(ops),
	)
	return nil
}

// isDuplicate reports whether the batch hash matches the last committed
// batch within the debounce window.
func (s *Store) isDuplicate(batchHash string) bool {
	if s.debounce <= 0 || s.lastBatchHash == "" {
		return false
	}
	return batchHash == s.lastBatchHash && s.now().Sub(s.lastBatchAt) < s.debounce
}

// commit installs the new document, seeds variables, journals the
// revision, and notifies subscribers.
func (s *Store) commit(doc *scenedoc.Document, source string) {
	s.doc = doc
	s.seq++

	if scene := doc.ActiveSceneData(); scene != nil {
		s.state.SeedVariables(scene.Variables)
	}

	s.appendRevision(doc, source)

	for _, fn := range s.subscribers {
		fn(doc)
	}
}

// appendRevision hands the commit to the journal, if any. Failures are
// logged; a journal outage must not block editing.
func (s *Store) appendRevision(doc *scenedoc.Document, source string) {
	if s.journal == nil {
		return
	}
	hash, err := doc.Hash()
	if err != nil {
		slog.Error("journal append skipped", "seq", s.seq, "error", err)
		return
	}
	tree, err := doc.ToTree()
	if err != nil {
		slog.Error("journal append skipped", "seq", s.seq, "error", err)
		return
	}
	body, err := scenedoc.MarshalCanonical(tree)
	if err != nil {
		slog.Error("journal append skipped", "seq", s.seq, "error", err)
		return
	}
	rev := Revision{
		ID:     uuid.NewString(),
		Seq:    s.seq,
		Source: source,
		Hash:   hash,
		Body:   body,
	}
	if err := s.journal.Append(rev); err != nil {
		slog.Error("journal append failed", "seq", s.seq, "error", err)
	}
}
