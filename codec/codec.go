// Package codec implements the catalog/workflow manifest wire format
// (spec.md §4.G): a compact binary primary form, a JSON secondary form for
// debugging, and an HCL tertiary debug form adapted from the teacher's
// convert package.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/workflow"
)

// magic is the 4-byte prefix identifying an Oatty manifest file.
var magic = [4]byte{'O', 'A', 'T', 'Y'}

// schemaVersion is the current manifest schema version. A decoder rejects
// any version it does not recognize rather than guessing at a shape.
const schemaVersion byte = 1

// canonicalEncMode is fxamacker/cbor's canonical encode mode (RFC 8949
// §4.2.1): map keys are sorted, so Manifest.Workflows and
// WorkflowSpec.Inputs (both Go maps, whose default iteration order is
// randomized per process) encode in the same byte order every time. This
// is what makes EncodeBinary satisfy spec.md §4.G's "stable field order"
// and the §8 round-trip invariant "encode -> decode -> encode yields
// byte-identical output" — cbor.Marshal's default mode (SortNone) does
// not sort map keys at all.
var canonicalEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: invalid canonical CBOR encode options: %v", err))
	}
	return mode
}()

// Manifest is the full catalog + workflow bundle persisted by the codec,
// Oatty's equivalent of the teacher's single-document Arazzo.
type Manifest struct {
	Commands  []*registry.CommandSpec           `json:"commands" cbor:"commands"`
	Workflows map[string]*workflow.WorkflowSpec `json:"workflows,omitempty" cbor:"workflows,omitempty"`
}

// EncodeBinary writes m as magic + schema version + CBOR envelope, the
// compact primary form spec.md §4.G requires (stable field order, via
// CBOR's own deterministic map/array encoding).
func EncodeBinary(m *Manifest) ([]byte, error) {
	body, err := canonicalEncMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("codec: encode manifest: %w", err)
	}
	out := make([]byte, 0, len(magic)+1+len(body))
	out = append(out, magic[:]...)
	out = append(out, schemaVersion)
	out = append(out, body...)
	return out, nil
}

// DecodeBinary reverses EncodeBinary, rejecting anything that doesn't
// start with the Oatty magic or that declares an unrecognized schema
// version.
func DecodeBinary(data []byte) (*Manifest, error) {
	if len(data) < len(magic)+1 {
		return nil, &registry.ParseError{File: "manifest", Pointer: "$", Reason: "truncated: shorter than magic+version header"}
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, &registry.ParseError{File: "manifest", Pointer: "$", Reason: "bad magic: not an Oatty manifest"}
	}
	version := data[len(magic)]
	if version != schemaVersion {
		return nil, &registry.ParseError{File: "manifest", Pointer: "$", Reason: fmt.Sprintf("unsupported schema version %d", version)}
	}
	var m Manifest
	if err := cbor.Unmarshal(data[len(magic)+1:], &m); err != nil {
		return nil, fmt.Errorf("codec: decode manifest: %w", err)
	}
	return &m, nil
}

// EncodeJSON is the secondary debug form (spec.md §4.G "JSON is provided
// as a secondary form for debugging"), grounded on the teacher's
// convert.MarshalJSONIndent.
func EncodeJSON(m *Manifest) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// DecodeJSON reverses EncodeJSON.
func DecodeJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &registry.ParseError{File: "manifest", Pointer: "$", Reason: err.Error()}
	}
	return &m, nil
}
