package reconcile

// Handle is an opaque reference to one live renderer object. The
// reconciler never inspects handles; it only passes them back to the
// Renderer that created them.
type Handle any

// Renderer is the rendering capability the reconciler drives. It is
// the narrow seam between the declarative core and whatever draws
// pixels: a GPU scene graph in production, a recording double in tests
// and the CLI.
//
// Contract notes:
//   - CreatePrimitive/CreateLight/Instantiate return objects that are
//     visible by default at the origin.
//   - SetTint clears any previously applied texture; SetTexture wins
//     over tint. The reconciler relies on that ordering.
//   - LoadModel may block; the reconciler always calls it off the
//     reconcile path and caches the returned bundle by URL. Instantiate
//     stamps out one per-node object from a cached bundle.
//   - SetErrored puts a placeholder into its terminal failed look.
//   - OnPick registers a pick/click callback; repeated registration on
//     the same handle replaces the previous callback.
type Renderer interface {
	CreatePrimitive(kind, id string) (Handle, error)
	CreateLight(id string) (Handle, error)
	LoadModel(url string) (Handle, error)
	Instantiate(bundle Handle, id string) (Handle, error)

	SetPosition(h Handle, x, y, z float64)
	SetUniformScale(h Handle, factor float64)
	SetTint(h Handle, hexColor string)
	SetTexture(h Handle, url string)
	SetVisible(h Handle, visible bool)
	SetLightIntensity(h Handle, value float64)
	SetErrored(h Handle)
	OnPick(h Handle, fn func())

	Dispose(h Handle)
}
