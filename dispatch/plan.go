package dispatch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/oattyio/oatty/registry"
)

// Plan implements spec.md §4.F's plan(command, args) → Plan: resolves args
// against the spec, percent-encodes path placeholders, and serializes
// remaining fields into headers and body per request_content_type. The
// only recognized argument-derived header field is "authorization"
// (case-insensitive, matching the implicit flag openapi.Generate attaches
// for http/bearer security schemes); every other resolved argument becomes
// part of the JSON body, since CommandFlag carries no header/query/cookie
// location of its own (spec.md §3's data model does not distinguish one).
//
// Plan.Headers also carries Accept/User-Agent (spec.md §6 "Wire surface")
// and any configuration-store header overrides, so it is byte-identical to
// what ExecuteCommand actually sends (spec.md §8 testable property: "a
// successful plan applied via the dispatcher is byte-identical to the plan
// emitted by dry_run_plan for the same RunContext") — ExecuteCommand builds
// its request purely from this Plan, not by setting any header itself.
func (d *Dispatcher) Plan(cmd *registry.CommandSpec, args map[string]registry.JSONValue) (*Plan, error) {
	if cmd.Execution.Kind != registry.ExecutionHTTP || cmd.Execution.Http == nil {
		return nil, fmt.Errorf("command %s is not an HTTP command", cmd.ColonID())
	}
	spec := cmd.Execution.Http

	if spec.Destructive || spec.Method == registry.MethodDelete {
		confirmed, _ := args["confirm"].(bool)
		if !confirmed {
			return nil, &registry.RequiresConfirmationError{ID: cmd.ColonID()}
		}
	}

	if err := d.checkHostAllowed(spec.BaseURL); err != nil {
		return nil, err
	}

	path := spec.Path
	consumed := map[string]bool{"confirm": true}
	for _, pos := range cmd.PositionalArgs {
		v, ok := args[pos.Name]
		if !ok {
			if pos.Required {
				return nil, &registry.InputMissingError{Name: pos.Name}
			}
			continue
		}
		encoded := url.PathEscape(fmt.Sprintf("%v", v))
		path = strings.Replace(path, "{"+pos.Name+"}", encoded, 1)
		consumed[pos.Name] = true
	}

	body := map[string]interface{}{}
	var authFromArgs string
	hasAuthFromArgs := false
	for name, v := range args {
		if consumed[name] {
			continue
		}
		if strings.EqualFold(name, "authorization") {
			authFromArgs = fmt.Sprintf("%v", v)
			hasAuthFromArgs = true
			continue
		}
		body[name] = v
	}

	var bodyBytes []byte
	if len(body) > 0 {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyBytes = encoded
	}

	headers := map[string]string{
		"Accept":     d.acceptHeader(),
		"User-Agent": d.userAgent(),
	}
	if len(bodyBytes) > 0 {
		contentType := "application/json"
		if spec.RequestContentType != "" {
			contentType = spec.RequestContentType
		}
		headers["Content-Type"] = contentType
	}
	for k, v := range d.HeaderOverrides {
		headers[k] = v
	}
	if hasAuthFromArgs {
		headers["Authorization"] = authFromArgs
	}

	return &Plan{
		Method:  string(spec.Method),
		URL:     strings.TrimSuffix(spec.BaseURL, "/") + path,
		Headers: headers,
		Body:    bodyBytes,
	}, nil
}

// checkHostAllowed implements spec.md §4.F's host allow-list: only https
// URLs under hosts registered in the catalog's base_url are permitted.
func (d *Dispatcher) checkHostAllowed(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme != "https" {
		return &registry.HostNotAllowedError{URL: baseURL}
	}
	if !d.AllowedHosts[u.Host] {
		return &registry.HostNotAllowedError{URL: baseURL}
	}
	return nil
}
