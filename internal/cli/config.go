package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/oattyio/oatty/internal/oatlog"
)

// Config is the CLI's own environment-variable ingestion (spec.md §6's
// OATTY_API_TOKEN/OATTY_LOG), distinct from the out-of-scope on-disk
// configuration store spec.md §1 names (catalog list, header editor).
// Grounded on rashadism-openchoreo's internal/config/loader.go: koanf
// defaults via confmap.Provider, overridden by env.Provider.
type Config struct {
	APIToken   string `koanf:"api.token"`
	LogLevel   string `koanf:"log.level"`
	CatalogDir string `koanf:"catalog.dir"`
}

const envPrefix = "OATTY_"

// LoadConfig loads CLI configuration with environment variables taking
// priority over struct defaults; there is no config-file layer here,
// since the on-disk configuration store is an out-of-scope collaborator
// (spec.md §1) this module only ever reads environment variables
// directly from.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	cacheDir, err := defaultCatalogDir()
	if err != nil {
		return nil, fmt.Errorf("resolving catalog cache dir: %w", err)
	}

	defaults := map[string]interface{}{
		"api.token":   "",
		"log.level":   string(oatlog.LevelInfo),
		"catalog.dir": cacheDir,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}

	// OATTY_API_TOKEN -> api.token, OATTY_LOG -> log.level: the two names
	// are irregular (spec.md §6 names them literally), so map them by hand
	// rather than through the generic double-underscore nesting scheme
	// loader.go uses for its own, regularly-named variables.
	overrides := map[string]interface{}{}
	if v := os.Getenv("OATTY_API_TOKEN"); v != "" {
		overrides["api.token"] = v
	}
	if v := os.Getenv("OATTY_LOG"); v != "" {
		overrides["log.level"] = v
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading env overrides: %w", err)
		}
	}

	// Any other OATTY_-prefixed variable is still picked up generically
	// (OATTY_CATALOG_DIR -> catalog.dir), matching loader.go's
	// double-underscore nesting convention with a single underscore since
	// this config has no nested structs to disambiguate.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		if key == "log" {
			return "log.level"
		}
		return strings.ReplaceAll(key, "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// defaultCatalogDir resolves the cache directory a bare `oatty catalog
// import` writes its manifest to, grounded on go-homedir being a teacher
// dependency never exercised by arazzo1/convert/generator, whose CLI
// (there isn't one) never needed a home-directory lookup of its own.
func defaultCatalogDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + "/.config/oatty", nil
}
