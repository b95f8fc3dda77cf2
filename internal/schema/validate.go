// Package schema validates candidate scene documents before commit.
//
// Validation has two layers: a CUE structural schema (field presence,
// types, ranges, formats) and Go-side semantic checks (activeScene
// resolution, node id uniqueness, asset reference resolution, URL
// well-formedness). Both layers report every violation they find rather
// than failing fast, so an automated writer gets the full correction
// list in one round trip.
//
// Validation is pure: it never mutates its input and has no side
// effects.
package schema

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/strata3d/strata/internal/scenedoc"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes (E2xx).
const (
	ErrCodeSchema            = "E200" // CUE structural violation
	ErrCodeUnknownScene      = "E201" // activeScene names no scene
	ErrCodeDuplicateNodeID   = "E202" // node id repeated within a scene
	ErrCodeUnresolvedAsset   = "E203" // node.asset has no assets entry
	ErrCodeUnresolvedTexture = "E204" // node.texture has no assets entry
	ErrCodeBadAssetURL       = "E205" // asset url is not an absolute URL
	ErrCodeDuplicateSubID    = "E206" // subscription id repeated within a scene
	ErrCodeEmptySceneID      = "E207" // scenes map has an empty key
	ErrCodeDecode            = "E208" // tree does not decode into a document
	ErrCodeTextureAssetKind  = "E209" // texture reference points at a model asset
)

// ValidationError is one violation, addressed by document path.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a candidate document tree. On success it returns the
// decoded typed document and a nil slice; on failure it returns every
// violation found.
func Validate(tree map[string]any) (*scenedoc.Document, []ValidationError) {
	if errs := validateStructure(tree); len(errs) > 0 {
		return nil, errs
	}

	doc, err := scenedoc.FromTree(tree)
	if err != nil {
		return nil, []ValidationError{{
			Field:   "/",
			Message: err.Error(),
			Code:    ErrCodeDecode,
		}}
	}

	if errs := validateSemantics(doc); len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// validateStructure unifies the tree with the embedded CUE schema and
// collects every structural violation with its path.
func validateStructure(tree map[string]any) []ValidationError {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schemaVal.Err(); err != nil {
		// The schema is embedded; a compile failure is a programming
		// error, surfaced as a validation error rather than a panic.
		return []ValidationError{{Field: "schema.cue", Message: err.Error(), Code: ErrCodeSchema}}
	}
	docDef := schemaVal.LookupPath(cue.ParsePath("#Document"))
	if err := docDef.Err(); err != nil {
		return []ValidationError{{Field: "schema.cue#Document", Message: err.Error(), Code: ErrCodeSchema}}
	}

	candidate := ctx.Encode(tree)
	if err := candidate.Err(); err != nil {
		return []ValidationError{{Field: "/", Message: err.Error(), Code: ErrCodeSchema}}
	}

	unified := docDef.Unify(candidate)
	err := unified.Validate(cue.Concrete(true), cue.Final())
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, ValidationError{
			Field:   cuePathString(e.Path()),
			Message: e.Error(),
			Code:    ErrCodeSchema,
		})
	}
	return errs
}

func cuePathString(path []string) string {
	if len(path) == 0 {
		return "/"
	}
	return "/" + strings.Join(path, "/")
}

// validateSemantics runs the cross-reference checks the structural
// schema cannot express.
func validateSemantics(doc *scenedoc.Document) []ValidationError {
	var errs []ValidationError

	if doc.Scene(doc.ActiveScene) == nil {
		errs = append(errs, ValidationError{
			Field:   "/activeScene",
			Message: fmt.Sprintf("active scene %q is not defined in scenes", doc.ActiveScene),
			Code:    ErrCodeUnknownScene,
		})
	}

	for sceneID, scene := range doc.Scenes {
		if sceneID == "" {
			errs = append(errs, ValidationError{
				Field:   "/scenes",
				Message: "scene identifier must be non-empty",
				Code:    ErrCodeEmptySceneID,
			})
			continue
		}
		errs = append(errs, validateScene(doc, sceneID, scene)...)
	}

	for key, asset := range doc.Assets {
		field := fmt.Sprintf("/assets/%s/url", key)
		u, err := url.Parse(asset.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("asset url %q must be an absolute URL", asset.URL),
				Code:    ErrCodeBadAssetURL,
			})
		}
	}

	return errs
}

func validateScene(doc *scenedoc.Document, sceneID string, scene *scenedoc.SceneData) []ValidationError {
	var errs []ValidationError

	nodeIDs := make(map[string]bool, len(scene.Nodes))
	for i, node := range scene.Nodes {
		base := fmt.Sprintf("/scenes/%s/nodes/%d", sceneID, i)

		if nodeIDs[node.ID] {
			errs = append(errs, ValidationError{
				Field:   base + "/id",
				Message: fmt.Sprintf("duplicate node id %q within scene %q", node.ID, sceneID),
				Code:    ErrCodeDuplicateNodeID,
			})
		}
		nodeIDs[node.ID] = true

		if node.Asset != "" {
			if _, ok := doc.Assets[node.Asset]; !ok {
				errs = append(errs, ValidationError{
					Field:   base + "/asset",
					Message: fmt.Sprintf("asset %q is not defined in assets", node.Asset),
					Code:    ErrCodeUnresolvedAsset,
				})
			}
		}
		if node.Texture != "" {
			def, ok := doc.Assets[node.Texture]
			switch {
			case !ok:
				errs = append(errs, ValidationError{
					Field:   base + "/texture",
					Message: fmt.Sprintf("texture asset %q is not defined in assets", node.Texture),
					Code:    ErrCodeUnresolvedTexture,
				})
			case def.Type != scenedoc.AssetTexture:
				errs = append(errs, ValidationError{
					Field:   base + "/texture",
					Message: fmt.Sprintf("texture reference %q points at a %s asset", node.Texture, def.Type),
					Code:    ErrCodeTextureAssetKind,
				})
			}
		}
	}

	subIDs := make(map[string]bool, len(scene.Subscriptions))
	for i, sub := range scene.Subscriptions {
		if subIDs[sub.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("/scenes/%s/subscriptions/%d/id", sceneID, i),
				Message: fmt.Sprintf("duplicate subscription id %q within scene %q", sub.ID, sceneID),
				Code:    ErrCodeDuplicateSubID,
			})
		}
		subIDs[sub.ID] = true
	}

	return errs
}
