// Package profile holds the registry of built-in named profiles a
// config can reference by name instead of spelling out every field,
// the same way named resolvers are looked up by name rather than
// reconfigured at every reference.
package profile

import (
	"github.com/zhouchenh/secDNS/internal/config/profile"
	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

var registry = map[string]*profile.Profile{
	"strict": {
		Loglevel:              dnssecproof.LevelWarning,
		ConsolidateClients:    false,
		UnsupportedAlgorithms: map[uint8]bool{},
	},
	"permissive": {
		Loglevel:              dnssecproof.LevelError,
		ConsolidateClients:    true,
		UnsupportedAlgorithms: map[uint8]bool{},
	},
	"debug": {
		Loglevel:              dnssecproof.LevelDebug,
		ConsolidateClients:    false,
		UnsupportedAlgorithms: map[uint8]bool{},
	},
}

// Named returns the built-in profile registered under name.
func Named(name string) (*profile.Profile, error) {
	p, ok := registry[name]
	if !ok {
		return nil, NotFoundError(name)
	}
	return p, nil
}

// Names returns the names of every built-in profile.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
