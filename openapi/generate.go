package openapi

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/oattyio/oatty/registry"
)

// Generate walks a parsed OpenAPI document and produces an ordered command
// catalog, following spec.md §4.B's six-step algorithm: server selection,
// command naming, argument extraction, provider inference, input binding,
// emit. Adapted from the teacher's enrichment passes in
// generator/convert.go (enrichStepFromOpenAPI), reworked from "enrich an
// Arazzo step" to "synthesize an Oatty command" from scratch.
func Generate(doc *Document) ([]*registry.CommandSpec, error) {
	docHosts := collectHosts(doc.Servers)

	type rawCommand struct {
		spec *registry.CommandSpec
		path string
		segs []string
	}

	var commands []rawCommand
	nameCounts := make(map[string]int) // "<group> <name>" -> count, for collision suffixing

	// Sort paths for deterministic emission order.
	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := doc.Paths[path]
		segs := pathSegments(path)
		if len(segs) == 0 {
			continue
		}
		group := firstNonPlaceholderSegment(segs)
		if group == "" {
			return nil, &registry.ParseError{Pointer: "/paths/" + path, Reason: "path has no concrete segment to derive a group from"}
		}
		group = kebabCase(group)

		for _, mo := range item.Operations() {
			baseURL, err := resolveBaseURL(mo.Operation, item, doc, docHosts)
			if err != nil {
				return nil, &registry.ParseError{Pointer: "/paths/" + path, Reason: err.Error()}
			}

			name := commandName(mo.Method, mo.Operation, segs, group)
			name = uniqueName(nameCounts, group, name, mo.Method)

			cmd := &registry.CommandSpec{
				Group:   group,
				Name:    name,
				Summary: mo.Operation.Summary,
				Execution: registry.CommandExecution{
					Kind: registry.ExecutionHTTP,
					Http: &registry.HttpCommandSpec{
						Method:      registry.HTTPMethod(mo.Method),
						Path:        path,
						BaseURL:     baseURL,
						Destructive: mo.Method == "DELETE",
					},
				},
			}

			if err := extractArguments(cmd, segs, mo.Operation, doc); err != nil {
				return nil, err
			}

			if err := cmd.Validate(); err != nil {
				return nil, err
			}

			commands = append(commands, rawCommand{spec: cmd, path: path, segs: segs})
		}
	}

	specs := make([]*registry.CommandSpec, len(commands))
	for i, c := range commands {
		specs[i] = c.spec
	}

	// Pass 2: provider inference + input binding.
	listIndex := buildListIndex(specs)
	for _, c := range commands {
		inferProviders(c.spec, c.segs, listIndex)
	}

	return specs, nil
}

func firstNonPlaceholderSegment(segs []string) string {
	for _, s := range segs {
		if !isPlaceholder(s) {
			return s
		}
	}
	return ""
}

func collectHosts(servers []Server) map[string]bool {
	hosts := make(map[string]bool)
	for _, s := range servers {
		if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
			hosts[u.Host] = true
		}
	}
	return hosts
}

// resolveBaseURL implements spec.md §4.B step 1: operation-level servers →
// path-level servers → document-level servers → error if none. Only https
// URLs are accepted, and the host must be one of the document-level
// servers' hosts (docHosts); when the document declares no servers of its
// own, docHosts is empty and any https host is accepted.
func resolveBaseURL(op *Operation, item *PathItem, doc *Document, docHosts map[string]bool) (string, error) {
	var candidate string
	switch {
	case len(op.Servers) > 0:
		candidate = op.Servers[0].URL
	case len(item.Servers) > 0:
		candidate = item.Servers[0].URL
	case len(doc.Servers) > 0:
		candidate = doc.Servers[0].URL
	default:
		return "", fmt.Errorf("no servers declared at operation, path, or document level")
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %v", candidate, err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q for server url %q (only https is accepted)", u.Scheme, candidate)
	}
	if len(docHosts) > 0 && !docHosts[u.Host] {
		return "", fmt.Errorf("server host %q is not a registered catalog host", u.Host)
	}
	return strings.TrimSuffix(candidate, "/"), nil
}

// commandName implements spec.md §4.B step 2.
func commandName(method string, op *Operation, segs []string, group string) string {
	if op.OperationID != "" {
		name := kebabCaseColonPath(op.OperationID)
		// An operationId conventionally already spells out "group:name"
		// (spec.md §8 scenario 5: "apps:list"); when its leading segment
		// matches the path-derived group, strip it so the command's own
		// Name ends up exactly "list"/"config:delete", not a duplicate
		// "apps:list"/"apps:config:delete" that would double the group
		// once joined back with it in ColonID().
		if prefix := group + ":"; strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
		}
		return name
	}
	var rest []string
	for _, s := range segs[1:] {
		if !isPlaceholder(s) {
			rest = append(rest, kebabCase(s))
		}
	}
	name := strings.Join(rest, ":")
	if name == "" {
		name = "item"
	}
	if method != "GET" {
		name = name + ":" + strings.ToLower(method)
	}
	return name
}

// uniqueName resolves collisions within a group by appending the method,
// then an integer suffix, per spec.md §4.B step 2.
func uniqueName(counts map[string]int, group, name, method string) string {
	key := group + " " + name
	if counts[key] == 0 {
		counts[key]++
		return name
	}
	alt := name + "-" + strings.ToLower(method)
	altKey := group + " " + alt
	if counts[altKey] == 0 {
		counts[key]++
		counts[altKey]++
		return alt
	}
	counts[key]++
	n := counts[key]
	for {
		suffixed := fmt.Sprintf("%s-%d", alt, n)
		suffixedKey := group + " " + suffixed
		if counts[suffixedKey] == 0 {
			counts[suffixedKey]++
			return suffixed
		}
		n++
	}
}

// extractArguments implements spec.md §4.B step 3.
func extractArguments(cmd *registry.CommandSpec, segs []string, op *Operation, doc *Document) error {
	paramByName := make(map[string]*Parameter, len(op.Parameters))
	for _, p := range op.Parameters {
		paramByName[p.Name] = p
	}

	for _, seg := range segs {
		if !isPlaceholder(seg) {
			continue
		}
		name := placeholderName(seg)
		kind := registry.ValueKindString
		help := ""
		if p, ok := paramByName[name]; ok && p.Schema != nil {
			kind = valueKindFromSchemaType(p.Schema.Type)
		}
		cmd.PositionalArgs = append(cmd.PositionalArgs, registry.PositionalArgument{
			Name:      name,
			Help:      help,
			Required:  true,
			ValueKind: kind,
		})
	}

	for _, p := range op.Parameters {
		if p.In != "query" && p.In != "header" && p.In != "cookie" {
			continue
		}
		kind := registry.ValueKindString
		if p.Schema != nil {
			kind = valueKindFromSchemaType(p.Schema.Type)
		}
		cmd.Flags = append(cmd.Flags, registry.CommandFlag{
			Name:      p.Name,
			Required:  p.Required,
			ValueKind: kind,
		})
	}

	if op.RequestBody != nil {
		contentType, media := pickJSONContent(op.RequestBody.Content)
		if media != nil {
			cmd.Execution.Http.RequestContentType = contentType
			if media.Schema != nil && media.Schema.Type == "object" && len(media.Schema.Properties) > 0 {
				names := make([]string, 0, len(media.Schema.Properties))
				for n := range media.Schema.Properties {
					names = append(names, n)
				}
				sort.Strings(names)
				required := make(map[string]bool, len(media.Schema.Required))
				for _, r := range media.Schema.Required {
					required[r] = true
				}
				for _, n := range names {
					cmd.Flags = append(cmd.Flags, registry.CommandFlag{
						Name:      n,
						Required:  required[n],
						ValueKind: valueKindFromSchemaType(media.Schema.Properties[n].Type),
					})
				}
			} else {
				help := ""
				if ex := firstExample(media); ex != "" {
					help = "example: " + ex
				}
				cmd.Flags = append(cmd.Flags, registry.CommandFlag{
					Name:      "body",
					Required:  op.RequestBody.Required,
					ValueKind: registry.ValueKindObject,
					Help:      help,
				})
			}
		}
	}

	addSecurityFlags(cmd, op, doc)
	return nil
}

func pickJSONContent(content map[string]*MediaType) (string, *MediaType) {
	if m, ok := content["application/json"]; ok {
		return "application/json", m
	}
	for ct, m := range content {
		return ct, m
	}
	return "", nil
}

func firstExample(m *MediaType) string {
	if m.Example != nil {
		return fmt.Sprintf("%v", m.Example)
	}
	for _, ex := range m.Examples {
		if ex.Value != nil {
			return fmt.Sprintf("%v", ex.Value)
		}
	}
	return ""
}

func valueKindFromSchemaType(t string) registry.ValueKind {
	switch t {
	case "integer", "number":
		return registry.ValueKindNumber
	case "boolean":
		return registry.ValueKindBoolean
	case "array":
		return registry.ValueKindArray
	case "object":
		return registry.ValueKindObject
	default:
		return registry.ValueKindString
	}
}

// addSecurityFlags implements the security-scheme-derived flags described
// in SPEC_FULL.md §4.B point 2: an apiKey scheme becomes a required string
// flag named after the key (kebab-cased), whose help text names the
// matching env.<NAME> variable (the flag is not filled from the environment
// automatically); an http/bearer scheme becomes a required "authorization"
// flag, which Plan sends as the Authorization header.
func addSecurityFlags(cmd *registry.CommandSpec, op *Operation, doc *Document) {
	if len(op.Security) == 0 {
		return
	}
	seen := make(map[string]bool)
	for _, f := range cmd.Flags {
		seen[f.Name] = true
	}
	for _, req := range op.Security {
		for schemeName := range req {
			scheme, ok := doc.Components.SecuritySchemes[schemeName]
			if !ok {
				continue
			}
			switch scheme.Type {
			case "apiKey":
				name := kebabCase(scheme.Name)
				if seen[name] {
					continue
				}
				seen[name] = true
				cmd.Flags = append(cmd.Flags, registry.CommandFlag{
					Name:      name,
					Required:  true,
					ValueKind: registry.ValueKindString,
					Help:      "bound to env." + strings.ToUpper(name),
				})
			case "http":
				if seen["authorization"] {
					continue
				}
				seen["authorization"] = true
				cmd.Flags = append(cmd.Flags, registry.CommandFlag{
					Name:      "authorization",
					Required:  true,
					ValueKind: registry.ValueKindString,
					Help:      "HTTP " + scheme.Scheme + " credential",
				})
			}
		}
	}
}

// buildListIndex implements the first half of spec.md §4.B step 4: an
// index, by group, of commands whose name begins with "list" or ends in
// ":list" (the first such command per group wins).
func buildListIndex(commands []*registry.CommandSpec) map[string]*registry.CommandSpec {
	idx := make(map[string]*registry.CommandSpec)
	for _, c := range commands {
		if strings.HasPrefix(c.Name, "list") || strings.HasSuffix(c.Name, ":list") {
			if _, exists := idx[c.Group]; !exists {
				idx[c.Group] = c
			}
		}
	}
	return idx
}

// inferProviders implements spec.md §4.B steps 4-5 for one command.
func inferProviders(cmd *registry.CommandSpec, segs []string, listIndex map[string]*registry.CommandSpec) {
	for i := range cmd.PositionalArgs {
		arg := &cmd.PositionalArgs[i]
		preceding := precedingConcreteSegment(segs, arg.Name)
		if preceding == "" {
			continue
		}
		provider := lookupListCommand(preceding, listIndex)
		if provider == nil {
			continue
		}
		if bindings, ok := bindProviderInputs(provider, cmd, i, -1); ok {
			arg.ValueProvider = &registry.ValueProvider{ProviderID: provider.ID(), Bindings: bindings}
		}
	}

	for i := range cmd.Flags {
		flag := &cmd.Flags[i]
		candidate := kebabCase(flag.Name)
		provider, ok := listIndex[candidate]
		if !ok {
			provider, ok = listIndex[singularize(candidate)]
		}
		if !ok {
			provider, ok = listIndex[pluralize(candidate)]
		}
		if !ok || provider == nil {
			continue
		}
		if bindings, ok := bindProviderInputs(provider, cmd, -1, i); ok {
			flag.ValueProvider = &registry.ValueProvider{ProviderID: provider.ID(), Bindings: bindings}
		}
	}
}

// precedingConcreteSegment finds the path segment immediately before the
// placeholder named argName.
func precedingConcreteSegment(segs []string, argName string) string {
	for i, s := range segs {
		if isPlaceholder(s) && placeholderName(s) == argName && i > 0 {
			return kebabCase(segs[i-1])
		}
	}
	return ""
}

func lookupListCommand(resourceSegment string, listIndex map[string]*registry.CommandSpec) *registry.CommandSpec {
	if c, ok := listIndex[resourceSegment]; ok {
		return c
	}
	if c, ok := listIndex[singularize(resourceSegment)]; ok {
		return c
	}
	if c, ok := listIndex[pluralize(resourceSegment)]; ok {
		return c
	}
	return nil
}

// bindProviderInputs implements spec.md §4.B step 5: bind each of the
// provider's required inputs (its own required positionals and required
// flags) to an earlier field of the consumer with the same name, only if
// every required input is exactly satisfiable. consumerPositionalIdx and
// consumerFlagIdx mark which consumer field is currently being resolved
// (it and anything after it are not yet available as a binding source).
func bindProviderInputs(provider, consumer *registry.CommandSpec, consumerPositionalIdx, consumerFlagIdx int) ([]registry.Binding, bool) {
	var bindings []registry.Binding

	availablePositionals := make(map[string]bool)
	for i, p := range consumer.PositionalArgs {
		if consumerPositionalIdx >= 0 && i >= consumerPositionalIdx {
			break
		}
		availablePositionals[p.Name] = true
	}
	availableFlags := make(map[string]bool)
	for i, f := range consumer.Flags {
		if consumerFlagIdx >= 0 && i >= consumerFlagIdx {
			continue
		}
		if f.Required {
			availableFlags[f.Name] = true
		}
	}

	for _, p := range provider.PositionalArgs {
		if availablePositionals[p.Name] {
			bindings = append(bindings, registry.Binding{InputName: p.Name, SourceKind: "positional", SourceName: p.Name})
			continue
		}
		return nil, false
	}
	for _, f := range provider.Flags {
		if !f.Required {
			continue
		}
		if availableFlags[f.Name] {
			bindings = append(bindings, registry.Binding{InputName: f.Name, SourceKind: "flag", SourceName: f.Name})
			continue
		}
		if availablePositionals[f.Name] {
			bindings = append(bindings, registry.Binding{InputName: f.Name, SourceKind: "positional", SourceName: f.Name})
			continue
		}
		return nil, false
	}
	return bindings, true
}
