package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oattyio/oatty/registry"
)

// Registry holds every known provider, keyed by contract id
// ("<group> <name>"), plus a short-lived cache for contracts marked
// cacheable. The cache is scoped to a single resolve_inputs pass and is
// never persisted across runs (spec.md §3 "Lifecycle & ownership").
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
	cache     map[string][]registry.JSONValue
}

// NewRegistry returns an empty Registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Register adds or replaces the provider for a contract id.
func (r *Registry) Register(providerID string, p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[providerID] = p
}

// GetContract implements spec.md §4.D's get_contract(provider_id).
func (r *Registry) GetContract(providerID string) (*registry.ProviderContract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[providerID]
	if !ok {
		return nil, false
	}
	contract := p.Contract
	return &contract, true
}

// BeginPass discards the cacheable-contract cache, starting a fresh
// resolve_inputs pass.
func (r *Registry) BeginPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string][]registry.JSONValue)
}

// FetchValues implements spec.md §4.D's fetch_values(provider_id, args).
// Arguments are validated against the contract before any dispatch; a
// CatalogBacked provider's non-array response is wrapped into a
// single-element array.
func (r *Registry) FetchValues(ctx context.Context, providerID string, args map[string]registry.JSONValue) ([]registry.JSONValue, error) {
	r.mu.RLock()
	p, ok := r.providers[providerID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}

	if missing := missingRequiredInputs(p.Contract, args); len(missing) > 0 {
		return nil, &registry.ProviderPreconditionFailure{ProviderID: providerID, Missing: missing}
	}

	if p.Contract.Cacheable {
		if cached, ok := r.cacheGet(providerID, args); ok {
			return cached, nil
		}
	}

	var values []registry.JSONValue
	var err error
	switch p.Kind {
	case KindNull:
		values = nil
	case KindCatalogBacked:
		values, err = r.fetchCatalogBacked(ctx, p, args)
	case KindExternal:
		values, err = r.fetchExternal(ctx, p, args)
	default:
		return nil, fmt.Errorf("provider %q has unrecognized kind %q", providerID, p.Kind)
	}
	if err != nil {
		return nil, err
	}

	if p.Contract.Cacheable {
		r.cacheSet(providerID, args, values)
	}
	return values, nil
}

func missingRequiredInputs(contract registry.ProviderContract, args map[string]registry.JSONValue) []string {
	var missing []string
	for _, req := range contract.RequiredInputs {
		if _, ok := args[req.Name]; !ok {
			missing = append(missing, req.Name)
		}
	}
	return missing
}

func (r *Registry) fetchCatalogBacked(ctx context.Context, p *Provider, args map[string]registry.JSONValue) ([]registry.JSONValue, error) {
	result, err := p.Dispatcher.Execute(ctx, p.Command, args)
	if err != nil {
		return nil, err
	}
	return asValueSequence(result), nil
}

func (r *Registry) fetchExternal(ctx context.Context, p *Provider, args map[string]registry.JSONValue) ([]registry.JSONValue, error) {
	result, err := p.MCP.CallTool(ctx, p.ServerName, p.ToolName, args)
	if err != nil {
		return nil, err
	}
	return asValueSequence(result), nil
}

// asValueSequence implements spec.md §4.D: "expects an array response;
// non-array responses are wrapped into a single-element array."
func asValueSequence(v registry.JSONValue) []registry.JSONValue {
	if v == nil {
		return nil
	}
	if arr, ok := registry.AsArray(v); ok {
		out := make([]registry.JSONValue, len(arr))
		copy(out, arr)
		return out
	}
	return []registry.JSONValue{v}
}

// cacheKey builds a deterministic-enough key for one resolve_inputs pass.
// Provider args are always small (a handful of required inputs), so a
// sorted "name=value" join is simpler than pulling in a canonical-JSON
// dependency for no real benefit here.
func cacheKey(providerID string, args map[string]registry.JSONValue) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(providerID)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, args[k])
	}
	return b.String()
}

func (r *Registry) cacheGet(providerID string, args map[string]registry.JSONValue) ([]registry.JSONValue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cache == nil {
		return nil, false
	}
	v, ok := r.cache[cacheKey(providerID, args)]
	return v, ok
}

func (r *Registry) cacheSet(providerID string, args map[string]registry.JSONValue, values []registry.JSONValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cache == nil {
		r.cache = make(map[string][]registry.JSONValue)
	}
	r.cache[cacheKey(providerID, args)] = values
}
