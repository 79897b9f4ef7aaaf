package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/oattyio/oatty/registry"
	"gopkg.in/yaml.v3"
)

// legacyMarkerKey is the bundle-level escape hatch spec.md §9's Open
// Question leaves for catalogs still shipping the old "tasks:" step list.
const legacyMarkerKey = "x-oatty-legacy"

// ParseBundle implements spec.md §4.E's parse_workflow(document): JSON/YAML
// auto-detected by leading byte (grounded on the same technique as
// openapi.ParseDocument / generator/convert.go's parseOpenAPI), validated
// per workflow (unique step ids, depends_on known, no cycles via Kahn's
// algorithm in order.go). Deprecation notices from the legacy tasks: alias
// are discarded; use ParseBundleWithLogger to observe them.
func ParseBundle(data []byte) (Bundle, error) {
	return ParseBundleWithLogger(data, logr.Discard())
}

// ParseBundleWithLogger is ParseBundle with an explicit logr.Logger for the
// one-line deprecation notice the legacy tasks: alias emits (spec.md §9).
//
// spec.md §6: "Top-level is either a single WorkflowSpec (key `workflow:`
// present) or a bundle (key `workflows:` present)." The two shapes are
// mutually exclusive; a document with neither or both keys is rejected.
func ParseBundleWithLogger(data []byte, log logr.Logger) (Bundle, error) {
	raw, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: err.Error()}
	}

	legacyAllowed := false
	if marker, ok := top[legacyMarkerKey]; ok {
		_ = json.Unmarshal(marker, &legacyAllowed)
	}

	_, hasWorkflow := top["workflow"]
	workflowsRaw, hasWorkflows := top["workflows"]

	switch {
	case hasWorkflow && hasWorkflows:
		return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: `document has both a top-level "workflow" key and a "workflows" key; it must be either a single WorkflowSpec or a bundle, not both`}

	case hasWorkflows:
		var names map[string]json.RawMessage
		if err := json.Unmarshal(workflowsRaw, &names); err != nil {
			return nil, &registry.ParseError{File: "workflow", Pointer: "/workflows", Reason: err.Error()}
		}
		bundle := make(Bundle, len(names))
		for name, entryRaw := range names {
			spec, err := parseWorkflowEntry(name, entryRaw, legacyAllowed, log)
			if err != nil {
				return nil, err
			}
			bundle[name] = spec
		}
		return bundle, nil

	case hasWorkflow:
		delete(top, legacyMarkerKey)
		entryRaw, err := json.Marshal(top)
		if err != nil {
			return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: err.Error()}
		}
		spec, err := parseWorkflowEntry("workflow", entryRaw, legacyAllowed, log)
		if err != nil {
			return nil, err
		}
		return Bundle{spec.Workflow: spec}, nil

	default:
		return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: `document has neither a top-level "workflow" key (single WorkflowSpec) nor a "workflows" key (bundle)`}
	}
}

// parseWorkflowEntry turns one bundle entry (or, for the single-spec shape,
// the whole document) into a validated *WorkflowSpec. name is the bundle
// key for error pointers and as the spec.Workflow default when the entry
// itself doesn't set one.
func parseWorkflowEntry(name string, entryRaw json.RawMessage, legacyAllowed bool, log logr.Logger) (*WorkflowSpec, error) {
	entry, err := normalizeLegacyShape(name, entryRaw, legacyAllowed, log)
	if err != nil {
		return nil, err
	}

	var spec WorkflowSpec
	if err := json.Unmarshal(entry, &spec); err != nil {
		return nil, &registry.ParseError{File: "workflow", Pointer: "/" + name, Reason: err.Error()}
	}
	if spec.Workflow == "" {
		spec.Workflow = name
	}
	for i, s := range spec.Steps {
		s.sourceOrder = i
	}

	if err := validateWorkflow(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// normalizeLegacyShape rejects a "tasks:" step list unless legacyAllowed,
// in which case it is read as an alias for "steps" with a deprecation log.
func normalizeLegacyShape(name string, entryRaw json.RawMessage, legacyAllowed bool, log logr.Logger) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entryRaw, &fields); err != nil {
		return nil, &registry.ParseError{File: "workflow", Pointer: "/" + name, Reason: err.Error()}
	}
	tasks, hasTasks := fields["tasks"]
	if !hasTasks {
		return entryRaw, nil
	}
	if !legacyAllowed {
		return nil, &registry.ValidationError{
			Kind:   registry.KindLegacyTasksShape,
			Detail: fmt.Sprintf("workflow %q uses the legacy tasks: field; add x-oatty-legacy: true to opt in", name),
		}
	}
	log.Info("workflow uses deprecated tasks: field, treating as steps", "workflow", name)
	fields["steps"] = tasks
	delete(fields, "tasks")
	return json.Marshal(fields)
}

// validateWorkflow runs parse_workflow's structural checks: non-empty
// steps ids, known depends_on, no cycles. Provider-reference validation
// (spec.md §4.E: "only when a registry is supplied") happens later, in
// resolve_inputs, since ParseBundle has no catalog handle.
func validateWorkflow(spec *WorkflowSpec) error {
	if spec.Workflow == "" {
		return &registry.ValidationError{Kind: registry.KindFlagConflict, Detail: "workflow name must not be empty"}
	}
	for _, s := range spec.Steps {
		if s.ID == "" {
			return &registry.ValidationError{Kind: registry.KindFlagConflict, Detail: "step id must not be empty"}
		}
	}
	_, err := topoOrder(spec.Steps)
	return err
}

// toJSON auto-detects JSON vs YAML by leading byte (spec.md §6) and
// returns a JSON-encoded form either way, mirroring openapi.ParseDocument's
// decode path.
func toJSON(data []byte) ([]byte, error) {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return data, nil
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: err.Error()}
	}
	converted := convertYAMLKeys(generic)
	out, err := json.Marshal(converted)
	if err != nil {
		return nil, &registry.ParseError{File: "workflow", Pointer: "/", Reason: err.Error()}
	}
	return out, nil
}

func trimLeadingSpace(data []byte) []byte {
	i := 0
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	return data[i:]
}

// convertYAMLKeys recursively turns map[string]interface{} (yaml.v3's
// default map decoding) into a tree json.Marshal can encode, matching
// openapi.convertYAMLMapKeys.
func convertYAMLKeys(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[k] = convertYAMLKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, val := range vv {
			out[i] = convertYAMLKeys(val)
		}
		return out
	default:
		return v
	}
}
