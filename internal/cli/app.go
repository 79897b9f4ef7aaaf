// Package cli implements the external CLI surface spec.md §6 names as a
// boundary service the core must be drivable by: catalog import/list/
// search, command execution, workflow list/preview/run, and dry-run plan
// emission, with the exit codes spec.md §6 defines. Grounded on
// rashadism-openchoreo's pkg/cli/core/root "BuildRootCmd assembles a tree
// of per-resource cobra.Command factories" shape and
// stacklok-toolhive/cmd/thv/main.go's thin main() that only calls
// Execute() and maps the returned error to an exit status.
package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oattyio/oatty/codec"
	"github.com/oattyio/oatty/dispatch"
	"github.com/oattyio/oatty/internal/oatlog"
	"github.com/oattyio/oatty/provider"
	"github.com/oattyio/oatty/registry"
)

// defaultHTTPClient returns the shared, thread-safe *http.Client spec.md
// §5 requires ("Shared resources: the HTTP client is thread-safe and
// shared"). Per-call deadlines are enforced by Dispatcher.Timeout via
// context, not here, so this client carries no blanket timeout of its
// own.
func defaultHTTPClient() *http.Client {
	return &http.Client{}
}

// App is the CLI's process-wide wiring: configuration, logger, and the
// lazily-loaded catalog manifest. One App backs the whole command tree,
// matching spec.md §9's "the registry handle, configuration store handle,
// and HTTP client are process-wide immutable handles initialized at
// startup" for the CLI's own lifetime.
type App struct {
	Config *Config
	Log    logr.Logger
}

// NewApp builds the App used by every subcommand's RunE closure.
func NewApp(cfg *Config) *App {
	return &App{
		Config: cfg,
		Log:    oatlog.New(oatlog.ParseLevel(cfg.LogLevel)),
	}
}

// manifestPath is the single file a bare `oatty catalog import` writes to
// and every other subcommand reads from, inside the resolved catalog
// cache directory.
func (a *App) manifestPath() string {
	return a.Config.CatalogDir + "/catalog.oatty"
}

// SaveManifest persists m to the manifest path, creating the cache
// directory if needed.
func (a *App) SaveManifest(m *codec.Manifest) error {
	if err := os.MkdirAll(a.Config.CatalogDir, 0o755); err != nil {
		return fmt.Errorf("creating catalog cache dir: %w", err)
	}
	data, err := codec.EncodeBinary(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(a.manifestPath(), data, 0o644)
}

// LoadManifest reads and decodes the persisted manifest. A missing file
// is reported as a plain error, not one of spec.md §7's structured kinds,
// since "no catalog imported yet" is an operator-facing precondition, not
// a data-shape error the core itself raises.
func (a *App) LoadManifest() (*codec.Manifest, error) {
	data, err := os.ReadFile(a.manifestPath())
	if err != nil {
		return nil, fmt.Errorf("no catalog loaded (run `oatty catalog import` first): %w", err)
	}
	return codec.DecodeBinary(data)
}

// LoadCatalog is LoadManifest plus building the immutable Catalog index
// every other subcommand looks commands up through.
func (a *App) LoadCatalog() (*registry.Catalog, *codec.Manifest, error) {
	m, err := a.LoadManifest()
	if err != nil {
		return nil, nil, err
	}
	cat, err := registry.NewCatalog(m.Commands)
	if err != nil {
		return nil, nil, err
	}
	return cat, m, nil
}

// NewDispatcher builds the shared HTTP-calling handle for one CLI
// invocation: host allow-list derived from every HTTP command's base
// URL (spec.md §4.F "Host allow-list"), bearer token from OATTY_API_TOKEN
// if one is set.
func (a *App) NewDispatcher(cat *registry.Catalog) *dispatch.Dispatcher {
	allowed := make(map[string]bool)
	for _, cmd := range cat.Commands {
		if cmd.Execution.Kind != registry.ExecutionHTTP || cmd.Execution.Http == nil {
			continue
		}
		if u, err := url.Parse(cmd.Execution.Http.BaseURL); err == nil && u.Scheme == "https" {
			allowed[u.Host] = true
		}
	}

	headers := map[string]string{}
	if a.Config.APIToken != "" {
		headers["Authorization"] = "Bearer " + a.Config.APIToken
	}

	return &dispatch.Dispatcher{
		Client:          defaultHTTPClient(),
		AllowedHosts:    allowed,
		HeaderOverrides: headers,
		UserAgentValue:  "oatty/1",
		AcceptValue:     "application/json",
	}
}

// BuildProviderRegistry registers a CatalogBacked provider.Provider for
// every command referenced as a value provider somewhere in the catalog
// (spec.md §4.D "CatalogBacked — invokes a listing command through the
// dispatcher"). Only commands actually named by some other command's
// ValueProvider are registered, so an unattached `apps:list` sitting in
// the catalog with nothing consuming it never becomes live provider
// wiring by accident.
func BuildProviderRegistry(cat *registry.Catalog, d *dispatch.Dispatcher) *provider.Registry {
	reg := provider.NewRegistry()
	seen := make(map[string]bool)

	register := func(vp *registry.ValueProvider) {
		if vp == nil || seen[vp.ProviderID] {
			return
		}
		providerCmd, ok := cat.FindProvider(vp.ProviderID)
		if !ok {
			return
		}
		seen[vp.ProviderID] = true
		reg.Register(vp.ProviderID, &provider.Provider{
			Kind:       provider.KindCatalogBacked,
			Contract:   contractFor(vp.ProviderID, providerCmd),
			Command:    providerCmd,
			Dispatcher: d,
		})
	}

	for _, cmd := range cat.Commands {
		for _, p := range cmd.PositionalArgs {
			register(p.ValueProvider)
		}
		for _, f := range cmd.Flags {
			register(f.ValueProvider)
		}
	}
	return reg
}

// contractFor derives a ProviderContract from a listing command's own
// required positionals/flags, since the catalog generator attaches a
// ValueProvider without separately persisting the provider's contract
// (spec.md §3 ProviderContract is a description of the provider side,
// reconstructible from the command it names).
func contractFor(id string, cmd *registry.CommandSpec) registry.ProviderContract {
	var required []registry.RequiredInput
	for _, p := range cmd.PositionalArgs {
		if p.Required {
			required = append(required, registry.RequiredInput{Name: p.Name, Kind: p.ValueKind})
		}
	}
	for _, f := range cmd.Flags {
		if f.Required {
			required = append(required, registry.RequiredInput{Name: f.Name, Kind: f.ValueKind})
		}
	}
	return registry.ProviderContract{ID: id, RequiredInputs: required}
}

// snapshotEnv turns os.Environ() into the map[string]string RunContext
// wants, read once at run creation per spec.md §5 "Environment variables
// are read at run creation; subsequent mutations do not affect an
// in-flight run."
func snapshotEnv() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if name, value, ok := strings.Cut(kv, "="); ok {
			out[name] = value
		}
	}
	return out
}
