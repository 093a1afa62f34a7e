// Package profile wires the built-in named-profile registry into
// internal/config/profile's dispatcher, mirroring how
// internal/config/typed/resolver wires GetResolverDescriptorByTypeName
// into pkg/upstream/resolver's dispatcher.
package profile

import (
	named "github.com/zhouchenh/secDNS/internal/config/named/profile"
	"github.com/zhouchenh/secDNS/internal/config/profile"
)

func init() {
	profile.RegisterNamedLookup(named.Named)
}
