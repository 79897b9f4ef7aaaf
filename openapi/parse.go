package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/oattyio/oatty/registry"
	"gopkg.in/yaml.v3"
)

// ParseDocument auto-detects JSON vs YAML by leading byte, adapted from the
// teacher's parseOpenAPI (generator/convert.go): a document starting with
// '{' is decoded as JSON only (an invalid one is an error, with no YAML
// retry); anything else is unmarshalled as YAML into a generic tree,
// re-marshalled to JSON, then decoded into the typed document. This keeps
// exactly one canonical unmarshal path (JSON) regardless of input format.
func ParseDocument(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &registry.ParseError{Pointer: "", Reason: "empty document"}
	}

	var doc Document
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, &registry.ParseError{Pointer: "", Reason: fmt.Sprintf("invalid json: %v", err)}
		}
		return normalize(&doc)
	}

	var generic interface{}
	if err := yaml.Unmarshal(trimmed, &generic); err != nil {
		return nil, &registry.ParseError{Pointer: "", Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}
	asJSON, err := json.Marshal(convertYAMLMapKeys(generic))
	if err != nil {
		return nil, &registry.ParseError{Pointer: "", Reason: fmt.Sprintf("yaml-to-json re-encode: %v", err)}
	}
	if err := json.Unmarshal(asJSON, &doc); err != nil {
		return nil, &registry.ParseError{Pointer: "", Reason: fmt.Sprintf("invalid document shape: %v", err)}
	}
	return normalize(&doc)
}

// convertYAMLMapKeys recursively copies the map[string]interface{} and
// []interface{} nodes of a yaml.v3-decoded tree; any other value, including
// a map[interface{}]interface{}, is returned unchanged (json.Marshal then
// reports an error for the latter). Adapted from the teacher's same-purpose
// helper in generator/convert.go.
func convertYAMLMapKeys(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, val := range vv {
			out[k] = convertYAMLMapKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, val := range vv {
			out[i] = convertYAMLMapKeys(val)
		}
		return out
	default:
		return vv
	}
}

func normalize(doc *Document) (*Document, error) {
	if doc.Paths == nil {
		return nil, &registry.ParseError{Pointer: "/paths", Reason: "document has no paths"}
	}
	return doc, nil
}
