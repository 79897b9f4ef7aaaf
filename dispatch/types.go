// Package dispatch resolves a registry.CommandSpec plus resolved
// arguments into either an HTTP request or an MCP tool call, and
// classifies the outcome (spec.md §4.F).
package dispatch

import (
	"net/http"
	"time"

	"github.com/oattyio/oatty/registry"
)

// Plan is the side-effect-free result of plan(): spec.md §4.F's
// {method, url, headers, body}.
type Plan struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Outcome discriminates a Response's tagged variant.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeClientError  Outcome = "client_error"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeTransient    Outcome = "transient_error"
	OutcomeTransport    Outcome = "transport_error"
)

// Response is the classified result of execute(), per spec.md §4.F.
type Response struct {
	Outcome    Outcome
	StatusCode int
	Body       registry.JSONValue
	RawBody    string
}

// MCPTarget names one MCP server + tool pair an External provider or
// command delegates to.
type MCPTarget struct {
	ServerName string
	ToolName   string
}

// Dispatcher is the process-wide-shared command execution handle: one
// shared *http.Client (spec.md §5 "Shared resources: the HTTP client is
// thread-safe and shared") plus an MCP session pool and the catalog's host
// allow-list.
type Dispatcher struct {
	Client          *http.Client
	Timeout         time.Duration
	AllowedHosts    map[string]bool
	HeaderOverrides map[string]string
	UserAgentValue  string
	AcceptValue     string
	MCP             *MCPPool
}

func (d *Dispatcher) userAgent() string {
	if d.UserAgentValue != "" {
		return d.UserAgentValue
	}
	return "oatty/1"
}

func (d *Dispatcher) acceptHeader() string {
	if d.AcceptValue != "" {
		return d.AcceptValue
	}
	return "application/json"
}
