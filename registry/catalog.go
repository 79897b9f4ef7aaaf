package registry

import (
	"sort"
	"strings"

	"github.com/oattyio/oatty/internal/suggest"
)

// Catalog is the immutable, process-wide-shared collection of commands
// derived from one OpenAPI document; the workflow bundle stored alongside
// it lives in the codec's Manifest, not here. Once built it is never mutated; concurrent
// runs may share one handle freely (spec.md §3 "Lifecycle & ownership",
// §5 "Shared resources").
type Catalog struct {
	Commands []*CommandSpec

	byID    map[string]*CommandSpec
	byColon map[string]*CommandSpec
}

// NewCatalog builds an immutable Catalog from an ordered command sequence,
// indexing it once. The input slice is not retained verbatim so
// appending to it afterward cannot leak into the catalog.
func NewCatalog(commands []*CommandSpec) (*Catalog, error) {
	c := &Catalog{
		Commands: append([]*CommandSpec(nil), commands...),
		byID:     make(map[string]*CommandSpec, len(commands)),
		byColon:  make(map[string]*CommandSpec, len(commands)),
	}
	for _, cmd := range commands {
		if err := cmd.Validate(); err != nil {
			return nil, err
		}
		c.byID[cmd.ID()] = cmd
		c.byColon[cmd.ColonID()] = cmd
	}
	return c, nil
}

// Lookup resolves a command by either "group name" or "group:name" (the
// convenience form spec.md §6 says the engine also accepts).
func (c *Catalog) Lookup(id string) (*CommandSpec, error) {
	if cmd, ok := c.byID[id]; ok {
		return cmd, nil
	}
	if cmd, ok := c.byColon[id]; ok {
		return cmd, nil
	}
	return nil, &CommandNotFoundError{ID: id, Suggestion: c.suggest(id)}
}

// suggest returns the nearest known command id under Levenshtein distance,
// empty if nothing is close enough to be a plausible typo.
func (c *Catalog) suggest(id string) string {
	known := make([]string, 0, len(c.byColon))
	for k := range c.byColon {
		known = append(known, k)
	}
	return suggest.Nearest(id, known, suggest.DefaultThreshold)
}

// Search returns commands whose group, name, or summary contains the
// (case-insensitive) query substring, ordered as in the catalog.
func (c *Catalog) Search(query string) []*CommandSpec {
	q := strings.ToLower(query)
	var results []*CommandSpec
	for _, cmd := range c.Commands {
		if strings.Contains(strings.ToLower(cmd.ColonID()), q) ||
			strings.Contains(strings.ToLower(cmd.Summary), q) {
			results = append(results, cmd)
		}
	}
	return results
}

// ListenersByGroup groups commands for a "list commands" presentation,
// commands within a group kept in catalog (append) order. The result is a
// map and has no group order of its own; Groups returns the sorted names.
func (c *Catalog) ListenersByGroup() map[string][]*CommandSpec {
	out := make(map[string][]*CommandSpec)
	for _, cmd := range c.Commands {
		out[cmd.Group] = append(out[cmd.Group], cmd)
	}
	return out
}

// Groups returns the sorted set of command groups in the catalog.
func (c *Catalog) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, cmd := range c.Commands {
		if !seen[cmd.Group] {
			seen[cmd.Group] = true
			groups = append(groups, cmd.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// FindProvider looks up a command that can serve as a value provider given
// its "<group> <name>" or "<group>:<name>" contract id.
func (c *Catalog) FindProvider(providerID string) (*CommandSpec, bool) {
	normalized := strings.Replace(providerID, ":", " ", 1)
	if cmd, ok := c.byID[normalized]; ok {
		return cmd, true
	}
	if cmd, ok := c.byColon[strings.Replace(providerID, " ", ":", 1)]; ok {
		return cmd, true
	}
	return nil, false
}
