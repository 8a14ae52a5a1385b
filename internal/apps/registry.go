// Package apps maintains the registry of launchable applications and
// starts them on request. The registry is a flat JSON map of spoken
// name to executable path; matching tolerates transcription noise via
// fuzzy name comparison.
package apps

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/samivoice/sami/internal/logger"
)

// Registry maps lowercase application names to launch paths.
type Registry struct {
	apps map[string]string
	log  *logger.Logger
}

// LoadRegistry reads the name->path map from a JSON file. A missing or
// malformed file degrades to an empty registry rather than failing; the
// assistant still runs, it just cannot open anything.
func LoadRegistry(path string, log *logger.Logger) *Registry {
	r := &Registry{apps: make(map[string]string), log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("apps: could not read registry %s: %v", path, err)
		return r
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn("apps: malformed registry %s: %v", path, err)
		return r
	}

	for name, target := range raw {
		r.apps[strings.ToLower(strings.TrimSpace(name))] = target
	}
	log.Info("apps: loaded %d applications from %s", len(r.apps), path)
	return r
}

// NewRegistry builds a registry from an in-memory map. Keys are
// lowercased. Used by tests and embedders.
func NewRegistry(apps map[string]string, log *logger.Logger) *Registry {
	r := &Registry{apps: make(map[string]string, len(apps)), log: log}
	for name, target := range apps {
		r.apps[strings.ToLower(strings.TrimSpace(name))] = target
	}
	return r
}

// Lookup returns the launch target for an exact (case-insensitive) name.
func (r *Registry) Lookup(name string) (string, bool) {
	target, ok := r.apps[strings.ToLower(strings.TrimSpace(name))]
	return target, ok
}

// Has reports whether the registry knows the exact name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Keys returns the registered names in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.apps))
	for name := range r.apps {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered applications.
func (r *Registry) Len() int {
	return len(r.apps)
}
