// Package reconcile keeps live renderer objects in sync with the scene
// document.
//
// The reconciler is a pure projection: after any Reconcile call, its
// id→object map is derivable from (document, destroyed-node set) and
// nothing else. It never accumulates state the document cannot
// reproduce, which is why full create/update/sweep passes — not
// incremental event-driven mutation — are the model.
//
// Pass structure, per Reconcile call:
//  1. visit every node of the active scene: create missing objects,
//     then run the update pass (position, material, scale, intensity,
//     visibility) regardless of whether the object is new
//  2. orphan sweep: dispose objects whose node id was not visited
//
// Sweep ordering after the visit loop guarantees a node removed and
// re-added in the same document generation is never disposed after
// being recreated.
//
// External model assets load asynchronously: the node gets an
// immediate placeholder, the load is keyed and deduplicated by URL,
// and completion atomically swaps the placeholder under the same id,
// preserving the last-known position. Failed loads leave the
// placeholder in a terminal errored state with no automatic retry.
package reconcile

import (
	"log/slog"
	"sync"

	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

// object is one live renderer object tracked by id.
type object struct {
	handle  Handle
	isLight bool

	// placeholder lifecycle
	placeholder bool
	errored     bool
	pendingURL  string // set while an async load owes this object a swap

	// re-applied to the swapped-in object on load completion
	components []scenedoc.Component
	lastPos    scenedoc.Vec3
	lastScale  float64
	visible    bool
}

// loadState tracks one URL-keyed model load. A second request for the
// same URL while a load is pending reuses the in-flight result instead
// of fetching again; a finished state (success or failure) is reused
// forever — failures are terminal, successes are the bundle cache.
type loadState struct {
	done   bool
	bundle Handle
	err    error
}

// Reconciler drives a Renderer from document snapshots.
//
// All document-driven work happens on the session's single logical
// thread; the mutex exists only because load completions arrive on
// loader goroutines and must mutate the object map safely.
type Reconciler struct {
	mu       sync.Mutex
	renderer Renderer
	assets   AssetProvider
	state    *runtime.State
	publish  func(event, nodeID string)

	objects  map[string]*object
	loads    map[string]*loadState
	loadWG   sync.WaitGroup
	disposed bool
}

// New creates a Reconciler. The publish callback for click components
// is wired afterwards via SetPublisher (two-phase construction keeps
// the bus↔reconciler dependency acyclic).
func New(renderer Renderer, assets AssetProvider, state *runtime.State) *Reconciler {
	return &Reconciler{
		renderer: renderer,
		assets:   assets,
		state:    state,
		objects:  make(map[string]*object),
		loads:    make(map[string]*loadState),
	}
}

// SetPublisher wires the event sink used by click components. Clicks
// before wiring (or after a nil reset) are dropped.
func (r *Reconciler) SetPublisher(publish func(event, nodeID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publish = publish
}

// Reconcile makes the live object set match the document's active
// scene, filtered by destroyed state. Safe to call repeatedly with an
// unchanged document: no creates, no disposals, same visible state.
func (r *Reconciler) Reconcile(doc *scenedoc.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}

	scene := doc.ActiveSceneData()
	if scene == nil {
		slog.Warn("reconcile skipped: active scene not found", "scene", doc.ActiveScene)
		return
	}

	visited := make(map[string]bool, len(scene.Nodes))
	for i := range scene.Nodes {
		node := &scene.Nodes[i]
		visited[node.ID] = true

		obj, ok := r.objects[node.ID]
		if !ok {
			obj = r.createObject(node)
			if obj == nil {
				// Creation failed; logged. One bad node never aborts
				// the rest of the pass.
				continue
			}
			r.objects[node.ID] = obj
		}
		r.updateObject(node, obj)
	}

	// Orphan sweep, strictly after all create/update work.
	for id, obj := range r.objects {
		if visited[id] {
			continue
		}
		r.renderer.Dispose(obj.handle)
		delete(r.objects, id)
		slog.Debug("orphan disposed", "node", id)
	}
}

// createObject builds the live object for a node. Lights are created
// as light sources regardless of primitive/asset fields. Mesh nodes
// prefer a resolvable model asset (placeholder + async load) and fall
// back to a built-in primitive. Components attach here, exactly once.
func (r *Reconciler) createObject(node *scenedoc.SceneNode) *object {
	if node.Type == scenedoc.NodeLight {
		h, err := r.renderer.CreateLight(node.ID)
		if err != nil {
			slog.Error("create light failed", "node", node.ID, "error", err)
			return nil
		}
		obj := &object{handle: h, isLight: true, visible: true}
		r.attachComponents(node.ID, obj, node)
		return obj
	}

	if node.Asset != "" {
		resolved, err := r.assets.Resolve(node.Asset)
		switch {
		case err != nil:
			slog.Warn("asset unresolved, using primitive",
				"node", node.ID,
				"asset", node.Asset,
				"error", err,
			)
		case resolved.Type != scenedoc.AssetModel:
			slog.Warn("asset is not a model, using primitive",
				"node", node.ID,
				"asset", node.Asset,
				"type", resolved.Type,
			)
		default:
			return r.createModelPlaceholder(node, resolved.URL)
		}
	}

	h, err := r.renderer.CreatePrimitive(node.EffectivePrimitive(), node.ID)
	if err != nil {
		slog.Error("create primitive failed", "node", node.ID, "error", err)
		return nil
	}
	obj := &object{handle: h, visible: true}
	r.attachComponents(node.ID, obj, node)
	return obj
}

// createModelPlaceholder substitutes an identity-preserving placeholder
// and ensures a load for the model URL is running or already settled.
func (r *Reconciler) createModelPlaceholder(node *scenedoc.SceneNode, url string) *object {
	h, err := r.renderer.CreatePrimitive(scenedoc.DefaultPrimitive, node.ID)
	if err != nil {
		slog.Error("create placeholder failed", "node", node.ID, "error", err)
		return nil
	}
	obj := &object{
		handle:      h,
		placeholder: true,
		pendingURL:  url,
		components:  node.Components,
		visible:     true,
	}
	r.attachComponents(node.ID, obj, node)
	r.objects[node.ID] = obj
	r.ensureLoad(node.ID, obj, url)
	return obj
}

// ensureLoad starts or reuses the load for url. Caller holds r.mu.
func (r *Reconciler) ensureLoad(nodeID string, obj *object, url string) {
	ls, ok := r.loads[url]
	if ok {
		if !ls.done {
			return // in flight; completion sweeps all pending objects
		}
		if ls.err != nil {
			r.markErrored(nodeID, obj, ls.err)
			return
		}
		r.swapToBundle(nodeID, obj, ls.bundle)
		return
	}

	ls = &loadState{}
	r.loads[url] = ls
	r.loadWG.Add(1)
	go r.runLoad(url, ls)
}

// runLoad performs the blocking fetch off the reconcile path, then
// delivers the result to every object still waiting on this URL. The
// liveness checks (disposed reconciler, object still present and still
// pending) make a stale completion a no-op.
func (r *Reconciler) runLoad(url string, ls *loadState) {
	defer r.loadWG.Done()

	bundle, err := r.renderer.LoadModel(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	ls.done = true
	ls.bundle = bundle
	ls.err = err

	if r.disposed {
		if bundle != nil {
			r.renderer.Dispose(bundle)
			ls.bundle = nil
		}
		return
	}

	for id, obj := range r.objects {
		if obj.pendingURL != url {
			continue
		}
		if err != nil {
			r.markErrored(id, obj, err)
			continue
		}
		r.swapToBundle(id, obj, bundle)
	}
}

// markErrored puts a placeholder in its terminal failed state. No
// automatic retry: the errored placeholder persists until the document
// changes the node.
func (r *Reconciler) markErrored(nodeID string, obj *object, err error) {
	obj.errored = true
	obj.pendingURL = ""
	r.renderer.SetErrored(obj.handle)
	slog.Warn("model load failed, placeholder marked errored",
		"node", nodeID,
		"error", err,
	)
}

// swapToBundle atomically replaces a placeholder with an instance of
// the loaded bundle under the same id, restoring the last-known
// position, scale, visibility, and click wiring. Caller holds r.mu.
func (r *Reconciler) swapToBundle(nodeID string, obj *object, bundle Handle) {
	inst, err := r.renderer.Instantiate(bundle, nodeID)
	if err != nil {
		r.markErrored(nodeID, obj, err)
		return
	}
	r.renderer.Dispose(obj.handle)
	obj.handle = inst
	obj.placeholder = false
	obj.pendingURL = ""

	r.renderer.SetPosition(inst, obj.lastPos[0], obj.lastPos[1], obj.lastPos[2])
	if obj.lastScale > 0 {
		r.renderer.SetUniformScale(inst, obj.lastScale)
	}
	r.renderer.SetVisible(inst, obj.visible)
	r.attachClickables(nodeID, obj, obj.components)

	slog.Debug("model swapped in", "node", nodeID)
}

// updateObject runs the every-pass update: position, material, scale,
// intensity, and destroyed-driven visibility.
func (r *Reconciler) updateObject(node *scenedoc.SceneNode, obj *object) {
	obj.lastPos = node.Position
	r.renderer.SetPosition(obj.handle, node.Position[0], node.Position[1], node.Position[2])

	if obj.isLight {
		if node.Intensity > 0 {
			r.renderer.SetLightIntensity(obj.handle, node.Intensity)
		}
	} else {
		r.applyMaterial(node, obj)
		scale := node.EffectiveSize()
		obj.lastScale = scale
		r.renderer.SetUniformScale(obj.handle, scale)
	}

	visible := !r.state.IsDestroyed(node.ID)
	obj.visible = visible
	r.renderer.SetVisible(obj.handle, visible)
}

// applyMaterial applies texture over color: a resolvable texture wins,
// otherwise color is applied as a flat tint (which clears any previous
// texture per the Renderer contract). Unresolvable textures degrade to
// the tint path with a log, never an abort.
func (r *Reconciler) applyMaterial(node *scenedoc.SceneNode, obj *object) {
	if node.Texture != "" {
		resolved, err := r.assets.Resolve(node.Texture)
		if err == nil && resolved.Type == scenedoc.AssetTexture {
			r.renderer.SetTexture(obj.handle, resolved.URL)
			return
		}
		slog.Warn("texture unresolved",
			"node", node.ID,
			"texture", node.Texture,
			"error", err,
		)
	}
	if node.Color != "" {
		r.renderer.SetTint(obj.handle, node.Color)
	}
}

// attachComponents wires declarative components at creation time.
// Later document edits to a live node's components list are not
// re-applied; that rewiring is a known limitation.
func (r *Reconciler) attachComponents(nodeID string, obj *object, node *scenedoc.SceneNode) {
	obj.components = node.Components
	r.attachClickables(nodeID, obj, node.Components)
}

func (r *Reconciler) attachClickables(nodeID string, obj *object, components []scenedoc.Component) {
	for _, c := range components {
		switch c.Kind {
		case scenedoc.ComponentClickable:
			event := c.Clickable.Event
			r.renderer.OnPick(obj.handle, func() {
				r.firePick(event, nodeID)
			})
		default:
			slog.Warn("unknown component kind skipped", "kind", c.RawKind)
		}
	}
}

// firePick forwards a renderer pick to the wired publisher.
func (r *Reconciler) firePick(event, nodeID string) {
	r.mu.Lock()
	publish := r.publish
	r.mu.Unlock()
	if publish == nil {
		return
	}
	publish(event, nodeID)
}

// WaitForLoads blocks until all in-flight model loads have delivered.
// Used by tests and by teardown paths that want deterministic state.
func (r *Reconciler) WaitForLoads() {
	r.loadWG.Wait()
}

// Dispose tears the reconciler down: disposes every live object and
// cached bundle and clears all maps. In-flight loads observe the
// disposed flag and discard their results. Safe to call once; the
// reconciler is unusable afterwards.
func (r *Reconciler) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true

	for id, obj := range r.objects {
		r.renderer.Dispose(obj.handle)
		delete(r.objects, id)
	}
	for url, ls := range r.loads {
		if ls.done && ls.bundle != nil {
			r.renderer.Dispose(ls.bundle)
		}
		delete(r.loads, url)
	}
}

// Has reports whether a live object exists for the node id.
func (r *Reconciler) Has(nodeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[nodeID]
	return ok
}

// Len returns the number of live objects.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

