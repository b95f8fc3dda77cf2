package reconcile

import (
	"fmt"
	"sync"
)

// RecHandle is the Recorder's handle type: one live fake object.
type RecHandle struct {
	ID       string
	Kind     string // primitive kind, "light", "bundle", or "instance"
	Position [3]float64
	Scale    float64
	Tint     string
	Texture  string
	Visible  bool
	Light    float64
	Errored  bool
	Disposed bool

	pick func()
}

// Recorder is an in-memory Renderer that records every operation. It
// backs reconciler tests and the CLI's headless watch mode.
//
// Model loads complete synchronously and successfully by default. Set
// FailLoads to make every load fail, or Gate to hand-control
// completion timing from a test (each LoadModel call receives on the
// gate channel once).
type Recorder struct {
	mu sync.Mutex

	Ops      []string
	handles  map[string]*RecHandle
	bundles  map[string]*RecHandle // by url
	creates  int
	disposes int
	loads    int

	FailLoads bool
	Gate      chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		handles: make(map[string]*RecHandle),
		bundles: make(map[string]*RecHandle),
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.Ops = append(r.Ops, fmt.Sprintf(format, args...))
}

// CreatePrimitive implements Renderer.
func (r *Recorder) CreatePrimitive(kind, id string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &RecHandle{ID: id, Kind: kind, Visible: true, Scale: 1}
	r.handles[id] = h
	r.creates++
	r.record("create primitive %s %s", kind, id)
	return h, nil
}

// CreateLight implements Renderer.
func (r *Recorder) CreateLight(id string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &RecHandle{ID: id, Kind: "light", Visible: true, Scale: 1}
	r.handles[id] = h
	r.creates++
	r.record("create light %s", id)
	return h, nil
}

// LoadModel implements Renderer. Blocks on Gate when set.
func (r *Recorder) LoadModel(url string) (Handle, error) {
	if r.Gate != nil {
		<-r.Gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	r.record("load model %s", url)
	if r.FailLoads {
		return nil, fmt.Errorf("load %s: fetch failed", url)
	}
	b := &RecHandle{ID: url, Kind: "bundle"}
	r.bundles[url] = b
	return b, nil
}

// Instantiate implements Renderer.
func (r *Recorder) Instantiate(bundle Handle, id string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := bundle.(*RecHandle)
	h := &RecHandle{ID: id, Kind: "instance:" + b.ID, Visible: true, Scale: 1}
	r.handles[id] = h
	r.creates++
	r.record("instantiate %s %s", b.ID, id)
	return h, nil
}

// SetPosition implements Renderer.
func (r *Recorder) SetPosition(h Handle, x, y, z float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh := h.(*RecHandle)
	rh.Position = [3]float64{x, y, z}
}

// SetUniformScale implements Renderer.
func (r *Recorder) SetUniformScale(h Handle, factor float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*RecHandle).Scale = factor
}

// SetTint implements Renderer. Clears any applied texture, matching
// the Renderer contract the reconciler depends on.
func (r *Recorder) SetTint(h Handle, hexColor string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh := h.(*RecHandle)
	rh.Tint = hexColor
	rh.Texture = ""
}

// SetTexture implements Renderer.
func (r *Recorder) SetTexture(h Handle, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*RecHandle).Texture = url
}

// SetVisible implements Renderer.
func (r *Recorder) SetVisible(h Handle, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*RecHandle).Visible = visible
}

// SetLightIntensity implements Renderer.
func (r *Recorder) SetLightIntensity(h Handle, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*RecHandle).Light = value
}

// SetErrored implements Renderer.
func (r *Recorder) SetErrored(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh := h.(*RecHandle)
	rh.Errored = true
	r.record("errored %s", rh.ID)
}

// OnPick implements Renderer.
func (r *Recorder) OnPick(h Handle, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h.(*RecHandle).pick = fn
}

// Dispose implements Renderer.
func (r *Recorder) Dispose(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rh := h.(*RecHandle)
	rh.Disposed = true
	r.disposes++
	r.record("dispose %s", rh.ID)
	if cur, ok := r.handles[rh.ID]; ok && cur == rh {
		delete(r.handles, rh.ID)
	}
}

// Click simulates a renderer pick on the current object for id.
// Returns false if no object or no pick callback is registered.
func (r *Recorder) Click(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	var fn func()
	if ok {
		fn = h.pick
	}
	r.mu.Unlock()

	if fn == nil {
		return false
	}
	fn() // outside the lock: the callback re-enters the reconciler
	return true
}

// Handle returns the current live handle for id, or nil.
func (r *Recorder) Handle(id string) *RecHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[id]
}

// Creates returns the number of create/instantiate calls so far.
func (r *Recorder) Creates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

// Disposes returns the number of dispose calls so far.
func (r *Recorder) Disposes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposes
}

// Loads returns the number of LoadModel calls so far.
func (r *Recorder) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
