package registry

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ValueKind is the type of value a positional argument, flag, or input
// accepts.
type ValueKind string

const (
	ValueKindString  ValueKind = "string"
	ValueKindNumber  ValueKind = "number"
	ValueKindBoolean ValueKind = "boolean"
	ValueKindArray   ValueKind = "array"
	ValueKindObject  ValueKind = "object"
)

// HTTPMethod is the set of methods an HttpCommandSpec may use.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// Binding specifies, for one provider required input, where the consumer
// satisfies it from: an earlier positional/flag of the same name, or a path
// placeholder of the same name. SourceKind records which of the three
// supplies it; all are "the consumer field named X" in practice, kept
// distinct so the generator can record how it decided.
type Binding struct {
	InputName  string `json:"inputName" yaml:"inputName"`
	SourceKind string `json:"sourceKind" yaml:"sourceKind"` // "positional" | "flag" | "placeholder"
	SourceName string `json:"sourceName" yaml:"sourceName"`
}

// ValueProvider references a provider command plus the input bindings that
// satisfy its required inputs from the consuming command's own arguments.
type ValueProvider struct {
	ProviderID string    `json:"providerId" yaml:"providerId"` // "<group> <name>"
	Bindings   []Binding `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// PositionalArgument is one ordered positional argument of a command.
type PositionalArgument struct {
	Name          string         `json:"name" yaml:"name"`
	Help          string         `json:"help,omitempty" yaml:"help,omitempty"`
	Required      bool           `json:"required" yaml:"required"`
	ValueKind     ValueKind      `json:"valueKind" yaml:"valueKind"`
	OfKind        ValueKind      `json:"ofKind,omitempty" yaml:"ofKind,omitempty"` // element kind when ValueKind == array
	ValueProvider *ValueProvider `json:"valueProvider,omitempty" yaml:"valueProvider,omitempty"`
}

// CommandFlag is one named flag of a command.
type CommandFlag struct {
	Name          string         `json:"name" yaml:"name"`
	Help          string         `json:"help,omitempty" yaml:"help,omitempty"`
	Required      bool           `json:"required" yaml:"required"`
	ValueKind     ValueKind      `json:"valueKind" yaml:"valueKind"`
	OfKind        ValueKind      `json:"ofKind,omitempty" yaml:"ofKind,omitempty"`
	ValueProvider *ValueProvider `json:"valueProvider,omitempty" yaml:"valueProvider,omitempty"`
}

// HttpCommandSpec is the HTTP execution backing of a command.
type HttpCommandSpec struct {
	Method             HTTPMethod `json:"method" yaml:"method"`
	Path               string     `json:"path" yaml:"path"` // OpenAPI path template, may contain {placeholder}
	BaseURL            string     `json:"baseUrl" yaml:"baseUrl"`
	Ranges             []string   `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	RequestContentType string     `json:"requestContentType,omitempty" yaml:"requestContentType,omitempty"`
	Destructive        bool       `json:"destructive,omitempty" yaml:"destructive,omitempty"`
}

// McpCommandSpec is the MCP execution backing of a command.
type McpCommandSpec struct {
	ServerName string `json:"serverName" yaml:"serverName"`
	ToolName   string `json:"toolName" yaml:"toolName"`
	ReadOnly   bool   `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// ExecutionKind discriminates the CommandExecution tagged variant.
type ExecutionKind string

const (
	ExecutionHTTP ExecutionKind = "http"
	ExecutionMCP  ExecutionKind = "mcp"
	ExecutionNoop ExecutionKind = "noop"
)

// CommandExecution is the tagged variant {Http, Mcp, Noop}. Exactly one of
// Http/Mcp is populated depending on Kind; neither is populated for Noop.
// Modeled as a discriminated struct (not an interface or embedding) to
// match the teacher's SuccessActionOrReusable/FailureActionOrReusable
// "struct with optional pointer arms" style.
type CommandExecution struct {
	Kind ExecutionKind    `json:"kind" yaml:"kind"`
	Http *HttpCommandSpec `json:"http,omitempty" yaml:"http,omitempty"`
	Mcp  *McpCommandSpec  `json:"mcp,omitempty" yaml:"mcp,omitempty"`
}

// CommandSpec is a single callable command.
type CommandSpec struct {
	Group             string               `json:"group" yaml:"group"`
	Name              string               `json:"name" yaml:"name"`
	CatalogIdentifier string               `json:"catalogIdentifier,omitempty" yaml:"catalogIdentifier,omitempty"`
	Summary           string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	PositionalArgs    []PositionalArgument `json:"positionalArgs,omitempty" yaml:"positionalArgs,omitempty"`
	Flags             []CommandFlag        `json:"flags,omitempty" yaml:"flags,omitempty"`
	Execution         CommandExecution     `json:"execution" yaml:"execution"`
}

// ID returns the command identifier grammar from spec.md §6: "group[:subgroup]... name".
func (c *CommandSpec) ID() string {
	return c.Group + " " + c.Name
}

// ColonID returns the "group:name" convenience form the engine also accepts
// in workflow run: fields.
func (c *CommandSpec) ColonID() string {
	return c.Group + ":" + c.Name
}

var nameSegmentPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*(:[a-z0-9][a-z0-9-]*)*$`)

// Validate checks the CommandSpec invariants from spec.md §3: non-empty
// group/name, unique positional names, unique flag names, no flag/positional
// name collision.
func (c *CommandSpec) Validate() error {
	if err := validateName(c.Group); err != nil {
		return &ValidationError{Kind: KindFlagConflict, Detail: "command group: " + err.Error()}
	}
	if err := validateName(c.Name); err != nil {
		return &ValidationError{Kind: KindFlagConflict, Detail: "command name: " + err.Error()}
	}

	seen := make(map[string]string, len(c.PositionalArgs)+len(c.Flags))
	for _, p := range c.PositionalArgs {
		if err := validateName(p.Name); err != nil {
			return &ValidationError{Kind: KindFlagConflict, Detail: "positional argument: " + err.Error()}
		}
		if prev, ok := seen[p.Name]; ok {
			return &ValidationError{Kind: KindFlagConflict, Detail: fmt.Sprintf("positional %q collides with %s", p.Name, prev)}
		}
		seen[p.Name] = "positional " + p.Name
	}
	for _, f := range c.Flags {
		if err := validateName(f.Name); err != nil {
			return &ValidationError{Kind: KindFlagConflict, Detail: "flag: " + err.Error()}
		}
		if prev, ok := seen[f.Name]; ok {
			return &ValidationError{Kind: KindFlagConflict, Detail: fmt.Sprintf("flag %q collides with %s", f.Name, prev)}
		}
		seen[f.Name] = "flag " + f.Name
	}
	return nil
}

// validateName enforces non-empty, case-sensitive naming used throughout
// the catalog and workflow data model (spec.md §4.A).
func validateName(s string) error {
	if s == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

// InputSourceHint describes where a provider's required input is
// conventionally found; purely documentary (spec.md §3 ProviderContract).
type InputSourceHint string

// RequiredInput is one required input of a ProviderContract.
type RequiredInput struct {
	Name       string          `json:"name" yaml:"name"`
	Kind       ValueKind       `json:"kind" yaml:"kind"`
	SourceHint InputSourceHint `json:"sourceHint,omitempty" yaml:"sourceHint,omitempty"`
}

// ProviderContract describes a provider's required inputs and output shape.
type ProviderContract struct {
	ID             string          `json:"id" yaml:"id"`
	RequiredInputs []RequiredInput `json:"requiredInputs,omitempty" yaml:"requiredInputs,omitempty"`
	OutputShape    json.RawMessage `json:"outputShape,omitempty" yaml:"outputShape,omitempty"`
	Cacheable      bool            `json:"cacheable,omitempty" yaml:"cacheable,omitempty"`
}
