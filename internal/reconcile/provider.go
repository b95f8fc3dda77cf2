package reconcile

import (
	"fmt"

	"github.com/strata3d/strata/internal/scenedoc"
)

// ResolvedAsset is what an asset key resolves to: a loadable resource.
type ResolvedAsset struct {
	Type     scenedoc.AssetType
	URL      string
	Metadata map[string]any
}

// AssetProvider resolves asset keys to loadable resources. Resolution
// failures are reported as errors, never panics; the reconciler treats
// them as a degraded-node condition, not a fatal one.
type AssetProvider interface {
	Resolve(key string) (ResolvedAsset, error)
}

// DocumentAssets resolves keys against the current document's assets
// map. Source returns the live document so resolution always sees the
// latest committed definitions, including mid-session asset edits.
type DocumentAssets struct {
	Source func() *scenedoc.Document
}

// Resolve implements AssetProvider.
func (p DocumentAssets) Resolve(key string) (ResolvedAsset, error) {
	doc := p.Source()
	if doc == nil {
		return ResolvedAsset{}, fmt.Errorf("no document loaded")
	}
	def, ok := doc.Assets[key]
	if !ok {
		return ResolvedAsset{}, fmt.Errorf("asset %q is not defined", key)
	}
	return ResolvedAsset{Type: def.Type, URL: def.URL, Metadata: def.Metadata}, nil
}
