package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/genelet/horizon/dethcl"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/workflow"
	"github.com/zclconf/go-cty/cty"
)

// The types below mirror Manifest with `hcl:"..."` struct tags, exactly the
// way the teacher mirrors Arazzo's JSON types for dethcl. Every field here
// is statically shaped except hclInput.Default and hclStep.With, which
// (like arazzo1.Workflow.Inputs and arazzo1.Parameter.Value) carry
// arbitrary JSON and so need a hand-written UnmarshalHCL instead of
// generic struct-tag reflection.

type hclManifest struct {
	Commands  []*hclCommand  `hcl:"command,block"`
	Workflows []*hclWorkflow `hcl:"workflow,block"`
}

type hclCommand struct {
	Group             string         `hcl:"group,label"`
	Name              string         `hcl:"name,label"`
	CatalogIdentifier string         `hcl:"catalogIdentifier,optional"`
	Summary           string         `hcl:"summary,optional"`
	ExecutionKind     string         `hcl:"executionKind"`
	Http              *hclHTTPExec   `hcl:"http,block"`
	Mcp               *hclMCPExec    `hcl:"mcp,block"`
	Positionals       []*hclArgument `hcl:"positional,block"`
	Flags             []*hclArgument `hcl:"flag,block"`
}

type hclHTTPExec struct {
	Method             string   `hcl:"method"`
	Path               string   `hcl:"path"`
	BaseURL            string   `hcl:"baseUrl"`
	Ranges             []string `hcl:"ranges,optional"`
	RequestContentType string   `hcl:"requestContentType,optional"`
	Destructive        bool     `hcl:"destructive,optional"`
}

type hclMCPExec struct {
	ServerName string `hcl:"serverName"`
	ToolName   string `hcl:"toolName"`
	ReadOnly   bool   `hcl:"readOnly,optional"`
}

// hclArgument mirrors both PositionalArgument and CommandFlag, which share
// an identical shape.
type hclArgument struct {
	Name      string            `hcl:"name,label"`
	Help      string            `hcl:"help,optional"`
	Required  bool              `hcl:"required,optional"`
	ValueKind string            `hcl:"valueKind"`
	OfKind    string            `hcl:"ofKind,optional"`
	Provider  *hclValueProvider `hcl:"provider,block"`
}

type hclValueProvider struct {
	ProviderID string        `hcl:"providerId"`
	Bindings   []*hclBinding `hcl:"binding,block"`
}

type hclBinding struct {
	InputName  string `hcl:"inputName,label"`
	SourceKind string `hcl:"sourceKind"`
	SourceName string `hcl:"sourceName"`
}

// hclWorkflow implements dethcl.Unmarshaler because Inputs/Steps carry the
// dynamic Default/With fields.
type hclWorkflow struct {
	Name   string      `hcl:"name,label"`
	Inputs []*hclInput `hcl:"input,block"`
	Steps  []*hclStep  `hcl:"step,block"`
}

type hclInput struct {
	Name            string            `hcl:"name,label"`
	Description     string            `hcl:"description,optional"`
	ValueKind       string            `hcl:"valueKind"`
	Required        bool              `hcl:"required,optional"`
	Default         any               `hcl:"default,optional"`
	Provider        *hclValueProvider `hcl:"provider,block"`
	AutoSelectFirst bool              `hcl:"autoSelectFirst,optional"`
}

type hclStep struct {
	ID              string     `hcl:"id,label"`
	Run             string     `hcl:"run"`
	With            any        `hcl:"with,optional"`
	If              string     `hcl:"if,optional"`
	DependsOn       []string   `hcl:"dependsOn,optional"`
	DependsOnPolicy string     `hcl:"dependsOnPolicy,optional"`
	Repeat          *hclRepeat `hcl:"repeat,block"`
}

type hclRepeat struct {
	Until       string `hcl:"until"`
	MaxAttempts int    `hcl:"maxAttempts,optional"`
}

// transformKeys recursively rewrites map keys so "$ref" (and the other
// "$"-prefixed JSON Schema keywords) become HCL-legal identifiers and
// back, exactly as the teacher's convert.transformKeys does for Arazzo's
// dynamic Inputs fields.
func transformKeys(v any, toHCL bool) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, inner := range val {
			newKey := k
			if toHCL && strings.HasPrefix(k, "$") {
				newKey = "_" + k[1:]
			} else if !toHCL && strings.HasPrefix(k, "_") {
				switch k {
				case "_ref", "_id", "_schema", "_defs", "_comment", "_vocabulary", "_anchor", "_dynamicRef", "_dynamicAnchor":
					newKey = "$" + k[1:]
				}
			}
			result[newKey] = transformKeys(inner, toHCL)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = transformKeys(item, toHCL)
		}
		return result
	default:
		return v
	}
}

// toHCLMirror converts m into the hcl-tagged mirror tree via a JSON round
// trip (every hcl* type's JSON shape matches its registry/workflow source
// field-for-field), applying the $ref<->_ref transform to the dynamic
// With/Default values along the way.
func toHCLMirror(m *Manifest) (*hclManifest, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var mirror hclManifest
	if err := json.Unmarshal(raw, &mirrorShape{m: &mirror}); err != nil {
		return nil, err
	}
	for _, wf := range mirror.Workflows {
		for _, step := range wf.Steps {
			if step.With != nil {
				step.With = transformKeys(step.With, true)
			}
		}
		for _, in := range wf.Inputs {
			if in.Default != nil {
				in.Default = transformKeys(in.Default, true)
			}
		}
	}
	return &mirror, nil
}

// mirrorShape adapts hclManifest's block-oriented shape to a plain JSON
// object shape (Manifest's {commands:[...], workflows:{name: ...}}) via a
// small hand-written UnmarshalJSON, since hclManifest itself has no json
// tags (its tags are hcl-only).
type mirrorShape struct {
	m *hclManifest
}

func (s *mirrorShape) UnmarshalJSON(data []byte) error {
	var doc struct {
		Commands  []*registry.CommandSpec           `json:"commands"`
		Workflows map[string]*workflow.WorkflowSpec `json:"workflows"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for _, c := range doc.Commands {
		s.m.Commands = append(s.m.Commands, commandToHCL(c))
	}
	for name, wf := range doc.Workflows {
		s.m.Workflows = append(s.m.Workflows, workflowToHCL(name, wf))
	}
	return nil
}

func commandToHCL(c *registry.CommandSpec) *hclCommand {
	out := &hclCommand{
		Group:             c.Group,
		Name:              c.Name,
		CatalogIdentifier: c.CatalogIdentifier,
		Summary:           c.Summary,
		ExecutionKind:     string(c.Execution.Kind),
	}
	if c.Execution.Http != nil {
		out.Http = &hclHTTPExec{
			Method:             string(c.Execution.Http.Method),
			Path:               c.Execution.Http.Path,
			BaseURL:            c.Execution.Http.BaseURL,
			Ranges:             c.Execution.Http.Ranges,
			RequestContentType: c.Execution.Http.RequestContentType,
			Destructive:        c.Execution.Http.Destructive,
		}
	}
	if c.Execution.Mcp != nil {
		out.Mcp = &hclMCPExec{
			ServerName: c.Execution.Mcp.ServerName,
			ToolName:   c.Execution.Mcp.ToolName,
			ReadOnly:   c.Execution.Mcp.ReadOnly,
		}
	}
	for _, p := range c.PositionalArgs {
		out.Positionals = append(out.Positionals, argumentToHCL(p.Name, p.Help, p.Required, p.ValueKind, p.OfKind, p.ValueProvider))
	}
	for _, f := range c.Flags {
		out.Flags = append(out.Flags, argumentToHCL(f.Name, f.Help, f.Required, f.ValueKind, f.OfKind, f.ValueProvider))
	}
	return out
}

func argumentToHCL(name, help string, required bool, kind, ofKind registry.ValueKind, vp *registry.ValueProvider) *hclArgument {
	out := &hclArgument{Name: name, Help: help, Required: required, ValueKind: string(kind), OfKind: string(ofKind)}
	if vp != nil {
		out.Provider = valueProviderToHCL(vp)
	}
	return out
}

func valueProviderToHCL(vp *registry.ValueProvider) *hclValueProvider {
	out := &hclValueProvider{ProviderID: vp.ProviderID}
	for _, b := range vp.Bindings {
		out.Bindings = append(out.Bindings, &hclBinding{InputName: b.InputName, SourceKind: b.SourceKind, SourceName: b.SourceName})
	}
	return out
}

func workflowToHCL(name string, wf *workflow.WorkflowSpec) *hclWorkflow {
	out := &hclWorkflow{Name: name}
	for inputName, in := range wf.Inputs {
		hi := &hclInput{
			Name:            inputName,
			Description:     in.Description,
			ValueKind:       string(in.ValueKind),
			Required:        in.Required,
			Default:         in.Default,
			AutoSelectFirst: in.AutoSelectFirst,
		}
		if in.Provider != nil {
			hi.Provider = valueProviderToHCL(in.Provider)
		}
		out.Inputs = append(out.Inputs, hi)
	}
	for _, step := range wf.Steps {
		hs := &hclStep{
			ID:              step.ID,
			Run:             step.Run,
			With:            step.With,
			If:              step.If,
			DependsOn:       step.DependsOn,
			DependsOnPolicy: string(step.DependsOnPolicy),
		}
		if step.Repeat != nil {
			hs.Repeat = &hclRepeat{Until: step.Repeat.Until, MaxAttempts: step.Repeat.MaxAttempts}
		}
		out.Steps = append(out.Steps, hs)
	}
	return out
}

// fromHCLMirror reverses toHCLMirror.
func fromHCLMirror(mirror *hclManifest) *Manifest {
	m := &Manifest{Workflows: make(map[string]*workflow.WorkflowSpec, len(mirror.Workflows))}
	for _, hc := range mirror.Commands {
		m.Commands = append(m.Commands, commandFromHCL(hc))
	}
	for _, hw := range mirror.Workflows {
		name, wf := workflowFromHCL(hw)
		m.Workflows[name] = wf
	}
	return m
}

func commandFromHCL(hc *hclCommand) *registry.CommandSpec {
	c := &registry.CommandSpec{
		Group:             hc.Group,
		Name:              hc.Name,
		CatalogIdentifier: hc.CatalogIdentifier,
		Summary:           hc.Summary,
		Execution:         registry.CommandExecution{Kind: registry.ExecutionKind(hc.ExecutionKind)},
	}
	if hc.Http != nil {
		c.Execution.Http = &registry.HttpCommandSpec{
			Method:             registry.HTTPMethod(hc.Http.Method),
			Path:               hc.Http.Path,
			BaseURL:            hc.Http.BaseURL,
			Ranges:             hc.Http.Ranges,
			RequestContentType: hc.Http.RequestContentType,
			Destructive:        hc.Http.Destructive,
		}
	}
	if hc.Mcp != nil {
		c.Execution.Mcp = &registry.McpCommandSpec{ServerName: hc.Mcp.ServerName, ToolName: hc.Mcp.ToolName, ReadOnly: hc.Mcp.ReadOnly}
	}
	for _, p := range hc.Positionals {
		c.PositionalArgs = append(c.PositionalArgs, registry.PositionalArgument(argumentFromHCL(p)))
	}
	for _, f := range hc.Flags {
		c.Flags = append(c.Flags, registry.CommandFlag(argumentFromHCL(f)))
	}
	return c
}

// argumentFromHCL returns a value with PositionalArgument's field layout;
// CommandFlag shares the identical layout so the caller converts via a
// plain type conversion.
func argumentFromHCL(a *hclArgument) registry.PositionalArgument {
	out := registry.PositionalArgument{
		Name:      a.Name,
		Help:      a.Help,
		Required:  a.Required,
		ValueKind: registry.ValueKind(a.ValueKind),
		OfKind:    registry.ValueKind(a.OfKind),
	}
	if a.Provider != nil {
		out.ValueProvider = valueProviderFromHCL(a.Provider)
	}
	return out
}

func valueProviderFromHCL(vp *hclValueProvider) *registry.ValueProvider {
	out := &registry.ValueProvider{ProviderID: vp.ProviderID}
	for _, b := range vp.Bindings {
		out.Bindings = append(out.Bindings, registry.Binding{InputName: b.InputName, SourceKind: b.SourceKind, SourceName: b.SourceName})
	}
	return out
}

func workflowFromHCL(hw *hclWorkflow) (string, *workflow.WorkflowSpec) {
	wf := &workflow.WorkflowSpec{Workflow: hw.Name, Inputs: make(map[string]workflow.InputSpec, len(hw.Inputs))}
	for _, hi := range hw.Inputs {
		in := workflow.InputSpec{
			Description:     hi.Description,
			ValueKind:       registry.ValueKind(hi.ValueKind),
			Required:        hi.Required,
			Default:         transformKeys(hi.Default, false),
			AutoSelectFirst: hi.AutoSelectFirst,
		}
		if hi.Provider != nil {
			in.Provider = valueProviderFromHCL(hi.Provider)
		}
		wf.Inputs[hi.Name] = in
	}
	for _, hs := range hw.Steps {
		step := &workflow.StepSpec{
			ID:              hs.ID,
			Run:             hs.Run,
			With:            transformKeys(hs.With, false),
			If:              hs.If,
			DependsOn:       hs.DependsOn,
			DependsOnPolicy: workflow.DependsOnPolicy(hs.DependsOnPolicy),
		}
		if hs.Repeat != nil {
			step.Repeat = &workflow.RepeatSpec{Until: hs.Repeat.Until, MaxAttempts: hs.Repeat.MaxAttempts}
		}
		wf.Steps = append(wf.Steps, step)
	}
	return hw.Name, wf
}

// UnmarshalHCL implements the dethcl.Unmarshaler interface, grounded on
// arazzo1.Workflow.UnmarshalHCL: it parses its own block tree by hand
// using hclsyntax/cty, because the Default/With fields are typed `any`
// and dethcl's generic struct-tag reflection only covers statically
// shaped fields (see arazzo1.Workflow and arazzo1.Parameter for the same
// pattern in the teacher).
func (w *hclWorkflow) UnmarshalHCL(data []byte, labels ...string) error {
	file, diags := hclsyntax.ParseConfig(data, "", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return fmt.Errorf("parsing HCL workflow: %w", diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("unexpected HCL body type: %T", file.Body)
	}
	if len(labels) > 0 {
		w.Name = labels[0]
	}

	var errs []string
	for _, block := range body.Blocks {
		switch block.Type {
		case "input":
			in, err := parseInputBlock(block)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			w.Inputs = append(w.Inputs, in)
		case "step":
			step, err := parseStepBlock(block)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			w.Steps = append(w.Steps, step)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("HCL workflow unmarshal errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func parseInputBlock(block *hclsyntax.Block) (*hclInput, error) {
	in := &hclInput{}
	if len(block.Labels) > 0 {
		in.Name = block.Labels[0]
	}
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("input %q attribute %q: %w", in.Name, name, diags)
		}
		switch name {
		case "description":
			in.Description = val.AsString()
		case "valueKind":
			in.ValueKind = val.AsString()
		case "required":
			in.Required = val.True()
		case "default":
			in.Default = ctyToGo(val)
		case "autoSelectFirst":
			in.AutoSelectFirst = val.True()
		}
	}
	for _, nested := range block.Body.Blocks {
		if nested.Type == "provider" {
			vp, err := parseValueProviderBlock(nested)
			if err != nil {
				return nil, err
			}
			in.Provider = vp
		}
	}
	return in, nil
}

func parseStepBlock(block *hclsyntax.Block) (*hclStep, error) {
	step := &hclStep{}
	if len(block.Labels) > 0 {
		step.ID = block.Labels[0]
	}
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q attribute %q: %w", step.ID, name, diags)
		}
		switch name {
		case "run":
			step.Run = val.AsString()
		case "with":
			step.With = ctyToGo(val)
		case "if":
			step.If = val.AsString()
		case "dependsOn":
			step.DependsOn = ctyToStringSlice(val)
		case "dependsOnPolicy":
			step.DependsOnPolicy = val.AsString()
		}
	}
	for _, nested := range block.Body.Blocks {
		if nested.Type == "repeat" {
			repeat, err := parseRepeatBlock(nested)
			if err != nil {
				return nil, err
			}
			step.Repeat = repeat
		}
	}
	return step, nil
}

func parseRepeatBlock(block *hclsyntax.Block) (*hclRepeat, error) {
	repeat := &hclRepeat{}
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("repeat attribute %q: %w", name, diags)
		}
		switch name {
		case "until":
			repeat.Until = val.AsString()
		case "maxAttempts":
			repeat.MaxAttempts = ctyToInt(val)
		}
	}
	return repeat, nil
}

func parseValueProviderBlock(block *hclsyntax.Block) (*hclValueProvider, error) {
	vp := &hclValueProvider{}
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("provider attribute %q: %w", name, diags)
		}
		if name == "providerId" {
			vp.ProviderID = val.AsString()
		}
	}
	for _, nested := range block.Body.Blocks {
		if nested.Type != "binding" {
			continue
		}
		b := &hclBinding{}
		if len(nested.Labels) > 0 {
			b.InputName = nested.Labels[0]
		}
		for name, attr := range nested.Body.Attributes {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("binding attribute %q: %w", name, diags)
			}
			switch name {
			case "sourceKind":
				b.SourceKind = val.AsString()
			case "sourceName":
				b.SourceName = val.AsString()
			}
		}
		vp.Bindings = append(vp.Bindings, b)
	}
	return vp, nil
}

// ctyToGo converts a cty.Value to a Go value, grounded directly on
// arazzo1.ctyToGo.
func ctyToGo(val cty.Value) any {
	if val.IsNull() {
		return nil
	}
	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Number:
		return ctyToInt(val)
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type().IsListType() || val.Type().IsTupleType():
		var result []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			result = append(result, ctyToGo(v))
		}
		return result
	case val.Type().IsMapType() || val.Type().IsObjectType():
		result := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			result[k.AsString()] = ctyToGo(v)
		}
		return result
	default:
		return val.GoString()
	}
}

func ctyToInt(val cty.Value) int {
	bf := val.AsBigFloat()
	f, _ := bf.Float64()
	if f == float64(int64(f)) {
		return int(f)
	}
	s := bf.Text('f', -1)
	n, err := strconv.Atoi(s)
	if err != nil {
		return int(f)
	}
	return n
}

func ctyToStringSlice(val cty.Value) []string {
	if val.IsNull() || !val.CanIterateElements() {
		return nil
	}
	var result []string
	for it := val.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.Type() == cty.String {
			result = append(result, v.AsString())
		}
	}
	return result
}

// ToHCL renders m as HCL, for human-readable debug export only
// (spec.md §6's wire grammar names YAML/JSON for workflows and a
// versioned binary for the manifest; HCL is additive, never an ingestible
// source). Marshal uses dethcl's generic struct-tag reflection directly,
// same as the teacher's convert.JSONToHCL.
func ToHCL(m *Manifest) ([]byte, error) {
	mirror, err := toHCLMirror(m)
	if err != nil {
		return nil, err
	}
	return dethcl.Marshal(mirror)
}

// FromHCL parses the HCL debug form back into a Manifest. Top-level
// "command" blocks unmarshal generically; "workflow" blocks delegate to
// hclWorkflow's custom UnmarshalHCL, mirroring how dethcl.Unmarshal on
// arazzo1.Arazzo delegates "workflow" blocks to arazzo1.Workflow.
func FromHCL(data []byte) (*Manifest, error) {
	var mirror hclManifest
	if err := dethcl.Unmarshal(data, &mirror); err != nil {
		return nil, err
	}
	return fromHCLMirror(&mirror), nil
}
