// Package patch computes and applies RFC 6902 JSON-Patch documents over
// the plain JSON object snapshots the projection engine reconstructs from
// an event stream.
package patch

import (
	"encoding/json"

	"github.com/Kong/gojsondiff"
	"github.com/Kong/gojsondiff/formatter"
	jsonpatch "github.com/evanphx/json-patch/v5"

	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
)

// Diff computes the JSON-Patch document that transforms before into
// after. Returns an empty-array document ("[]") when before and after are
// equivalent.
func Diff(before, after []byte) ([]byte, error) {
	differ := gojsondiff.New()
	d, err := differ.Compare(before, after)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, "compute json diff")
	}

	if !d.Modified() {
		return []byte("[]"), nil
	}

	var beforeObj map[string]interface{}
	if err := json.Unmarshal(before, &beforeObj); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, "unmarshal diff source")
	}

	f := formatter.NewPatchFormatter(beforeObj)
	patchOps, err := f.FormatAsJson(d)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "format json patch")
	}

	out, err := json.Marshal(patchOps)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "marshal json patch")
	}
	return out, nil
}

// IsEmpty reports whether a patch document encodes no operations.
func IsEmpty(doc []byte) bool {
	var ops []json.RawMessage
	if err := json.Unmarshal(doc, &ops); err != nil {
		return false
	}
	return len(ops) == 0
}

// Apply applies a JSON-Patch document to the JSON object obj and returns
// the resulting object.
func Apply(obj, doc []byte) ([]byte, error) {
	p, err := jsonpatch.DecodePatch(doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, "decode json patch")
	}

	out, err := p.Apply(obj)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInvalidArgument, "apply json patch")
	}
	return out, nil
}
