package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oattyio/oatty/registry"
)

const (
	defaultTimeout = 30 * time.Second
	// maxResponseBodySize caps how much of a response body is read into
	// memory, grounded on the gridctl OpenAPIClient's identical constant
	// (other_examples/...wcollins-gridctl...client.go).
	maxResponseBodySize = 10 << 20
)

// ExecuteCommand implements spec.md §4.F's execute(command, args) →
// Response: build the plan, perform the HTTP call, classify the outcome.
// Grounded on gridctl's OpenAPIClient.executeOperation (build request from
// method/path/params, classify by status code, cap response body size);
// the teacher itself has no HTTP client, being a pure data library.
func (d *Dispatcher) ExecuteCommand(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (*Response, error) {
	plan, err := d.Plan(cmd, args)
	if err != nil {
		return nil, err
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if len(plan.Body) > 0 {
		bodyReader = bytes.NewReader(plan.Body)
	}
	req, err := http.NewRequestWithContext(callCtx, plan.Method, plan.URL, bodyReader)
	if err != nil {
		return nil, &registry.TransportError{Detail: err.Error()}
	}
	// Every header sent over the wire was already decided by Plan, so
	// dry_run_plan's output is provably the same request execution
	// actually makes (spec.md §8 testable property 3).
	for k, v := range plan.Headers {
		req.Header.Set(k, v)
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, &registry.CancelledError{}
		}
		return nil, &registry.TransportError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, &registry.TransportError{Detail: err.Error()}
	}

	return classify(resp.StatusCode, resp.Header.Get("Content-Type"), raw), nil
}

// Execute satisfies provider.Dispatcher: read-only, returns the success
// body or the classified failure as an error.
func (d *Dispatcher) Execute(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	resp, err := d.ExecuteCommand(ctx, cmd, args)
	if err != nil {
		return nil, err
	}
	return resp.asValueOrError()
}

func (r *Response) asValueOrError() (registry.JSONValue, error) {
	switch r.Outcome {
	case OutcomeSuccess:
		return r.Body, nil
	case OutcomeUnauthorized:
		return nil, &registry.UnauthorizedError{}
	case OutcomeTransient:
		return nil, &registry.TransientError{Status: r.StatusCode}
	case OutcomeClientError:
		return nil, &registry.ClientError{Status: r.StatusCode, Body: r.RawBody}
	default:
		return nil, &registry.TransportError{Detail: "unclassified response"}
	}
}

func classify(status int, contentType string, raw []byte) *Response {
	resp := &Response{StatusCode: status, RawBody: string(raw)}
	switch {
	case status >= 200 && status < 300:
		resp.Outcome = OutcomeSuccess
		resp.Body = parseBody(contentType, raw)
	case status == 401:
		resp.Outcome = OutcomeUnauthorized
	case status == 408 || status == 429 || status >= 500:
		resp.Outcome = OutcomeTransient
	default:
		resp.Outcome = OutcomeClientError
	}
	return resp
}

func parseBody(contentType string, raw []byte) registry.JSONValue {
	if len(raw) == 0 {
		return nil
	}
	if !strings.Contains(contentType, "json") {
		return string(raw)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
