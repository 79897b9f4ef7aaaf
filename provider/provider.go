// Package provider implements the dynamic value-provider registry: the
// contract-validated, cacheable-by-contract lookup that backs a command
// argument's value suggestions (spec.md §4.D).
package provider

import (
	"context"

	"github.com/oattyio/oatty/registry"
)

// Dispatcher is the minimal command-execution surface a CatalogBacked
// provider needs: invoke a listing command in read-only mode and get back
// its parsed response body. Satisfied structurally by *dispatch.Dispatcher
// — this package never imports dispatch, to keep the dependency direction
// one-way (dispatch has no reason to know about providers).
type Dispatcher interface {
	Execute(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error)
}

// MCPFetcher is the minimal MCP tool-invocation surface an External
// provider needs. Satisfied structurally by *dispatch.Dispatcher.
type MCPFetcher interface {
	CallTool(ctx context.Context, serverName, toolName string, args map[string]registry.JSONValue) (registry.JSONValue, error)
}

// Kind discriminates the Provider tagged variant.
type Kind string

const (
	KindNull          Kind = "null"
	KindCatalogBacked Kind = "catalog_backed"
	KindExternal      Kind = "external"
)

// Provider is one registered value-fetching strategy behind a single
// contract id. Modeled as a tagged struct with unused arms left zero,
// following the teacher's non-inheritance "struct with a kind field"
// pattern (arazzo1.SuccessActionOrReusable) rather than an interface
// hierarchy.
type Provider struct {
	Kind     Kind
	Contract registry.ProviderContract

	// Populated when Kind == KindCatalogBacked.
	Command    *registry.CommandSpec
	Dispatcher Dispatcher

	// Populated when Kind == KindExternal.
	ServerName string
	ToolName   string
	MCP        MCPFetcher
}
