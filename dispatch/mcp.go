package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oattyio/oatty/registry"
)

// MCPServerConfig describes one configured MCP server endpoint.
type MCPServerConfig struct {
	Name     string
	Endpoint string
	Headers  map[string]string
}

// MCPPool holds one pooled, ping-checked client session per configured MCP
// server. Grounded on rashadism-openchoreo's internal/rca/mcp/manager.go:
// sessions keyed by server name, lazily (re)connected, liveness verified
// with a ping before reuse.
type MCPPool struct {
	mu       sync.Mutex
	configs  map[string]MCPServerConfig
	sessions map[string]*gomcp.ClientSession
	client   *gomcp.Client
}

// NewMCPPool builds a pool over the given server configs. Sessions connect
// lazily on first use, not at construction time.
func NewMCPPool(configs []MCPServerConfig) *MCPPool {
	byName := make(map[string]MCPServerConfig, len(configs))
	for _, c := range configs {
		byName[c.Name] = c
	}
	return &MCPPool{
		configs:  byName,
		sessions: make(map[string]*gomcp.ClientSession),
		client:   gomcp.NewClient(&gomcp.Implementation{Name: "oatty", Version: "1"}, nil),
	}
}

// getSession returns a live session for serverName, reconnecting if the
// pooled session fails a ping.
func (p *MCPPool) getSession(ctx context.Context, serverName string) (*gomcp.ClientSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, ok := p.configs[serverName]
	if !ok {
		return nil, fmt.Errorf("unknown mcp server %q", serverName)
	}

	if session, ok := p.sessions[serverName]; ok {
		if err := session.Ping(ctx, nil); err == nil {
			return session, nil
		}
		delete(p.sessions, serverName)
	}

	session, err := p.connect(ctx, cfg)
	if err != nil {
		return nil, &registry.TransportError{Detail: err.Error()}
	}
	p.sessions[serverName] = session
	return session, nil
}

func (p *MCPPool) connect(ctx context.Context, cfg MCPServerConfig) (*gomcp.ClientSession, error) {
	httpClient := &http.Client{Transport: &headerRoundTripper{headers: cfg.Headers, base: http.DefaultTransport}}
	transport := &gomcp.StreamableClientTransport{Endpoint: cfg.Endpoint, HTTPClient: httpClient}
	return p.client.Connect(ctx, transport, nil)
}

// Close tears down every pooled session.
func (p *MCPPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, session := range p.sessions {
		session.Close()
		delete(p.sessions, name)
	}
	return nil
}

// headerRoundTripper injects static auth headers onto every outbound
// request, grounded on rashadism-openchoreo's identically-purposed
// headerRoundTripper in internal/rca/mcp/manager.go.
type headerRoundTripper struct {
	headers map[string]string
	base    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range rt.headers {
		clone.Header.Set(k, v)
	}
	return rt.base.RoundTrip(clone)
}

// CallTool satisfies provider.MCPFetcher and backs any McpCommandSpec
// dispatch: invoke one tool on one configured server and return its
// structured content when present, otherwise the text of its first text
// content item.
func (d *Dispatcher) CallTool(ctx context.Context, serverName, toolName string, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	if d.MCP == nil {
		return nil, fmt.Errorf("dispatcher has no mcp pool configured")
	}
	session, err := d.MCP.getSession(ctx, serverName)
	if err != nil {
		return nil, err
	}

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{Name: toolName, Arguments: args})
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, &registry.CancelledError{}
		}
		return nil, &registry.TransportError{Detail: err.Error()}
	}
	if result.IsError {
		return nil, &registry.ClientError{Status: 0, Body: contentText(result)}
	}
	return structuredOrText(result), nil
}

func contentText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func structuredOrText(result *gomcp.CallToolResult) registry.JSONValue {
	if result.StructuredContent != nil {
		return result.StructuredContent
	}
	return contentText(result)
}

// ExecuteMCPCommand dispatches a command whose execution backing is MCP,
// for use alongside ExecuteCommand in the general command-dispatch path.
func (d *Dispatcher) ExecuteMCPCommand(ctx context.Context, cmd *registry.CommandSpec, args map[string]registry.JSONValue) (registry.JSONValue, error) {
	if cmd.Execution.Kind != registry.ExecutionMCP || cmd.Execution.Mcp == nil {
		return nil, fmt.Errorf("command %s is not an mcp command", cmd.ColonID())
	}
	return d.CallTool(ctx, cmd.Execution.Mcp.ServerName, cmd.Execution.Mcp.ToolName, args)
}
