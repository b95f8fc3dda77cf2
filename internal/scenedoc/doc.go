// Package scenedoc defines the authoritative scene document model.
//
// The document is a declarative description of everything a session can
// render: scenes, nodes, scene-scoped variable defaults, event
// subscriptions, and asset definitions. It is owned by a single
// docstore.Store; every other component sees it as an immutable snapshot.
//
// Identity model:
//   - A node's ID is the join key between the document and live renderer
//     objects. Node order within a scene is display order only.
//   - Actions and components are closed tagged unions. Unknown tags from
//     external writers survive decoding with an explicit Unknown kind so
//     the runtime can log and skip them instead of guessing.
//
// The package also provides canonical JSON serialization (UTF-16 key
// order, NFC-normalized strings, no HTML escaping) and SHA-256 content
// hashing with domain separation. Canonical hashes are used for the
// duplicate patch-batch guard and for revision identity in the journal.
package scenedoc
