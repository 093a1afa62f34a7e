// Package profile describes the evaluation Profile a run is configured
// with: the logging threshold, whether server/client evidence is
// consolidated in serialized reports, and which DNSSEC algorithm
// numbers a deployment additionally refuses to treat as supported.
package profile

import (
	"github.com/zhouchenh/go-descriptor"

	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

// Profile bundles the knobs evaluators and the CLI consult at the
// boundary of pkg/dnssecproof, never inside it: the evaluators
// themselves stay pure functions of their explicit arguments.
type Profile struct {
	Loglevel              dnssecproof.Loglevel
	ConsolidateClients    bool
	UnsupportedAlgorithms map[uint8]bool
}

var typeOfProfile = descriptor.TypeOfNew(new(*Profile))

// Type identifies *Profile to the descriptor package.
func Type() descriptor.Type {
	return typeOfProfile
}

// Descriptor builds a fresh descriptor.Describable for a Profile,
// mirroring pkg/upstream/resolver/ecs's single-struct registration
// shape: one ObjectFiller per field, each with a JSON-side conversion
// and a default applied when the key is absent.
func Descriptor() descriptor.Describable {
	return &descriptor.Descriptor{
		Type: typeOfProfile,
		Filler: descriptor.Fillers{
			descriptor.ObjectFiller{
				ObjectPath: descriptor.Path{"Loglevel"},
				ValueSource: descriptor.ValueSources{
					descriptor.ObjectAtPath{
						ObjectPath: descriptor.Path{"loglevel"},
						AssignableKind: descriptor.ConvertibleKind{
							Kind: descriptor.KindString,
							ConvertFunction: func(original interface{}) (converted interface{}, ok bool) {
								str, ok := original.(string)
								if !ok {
									return
								}
								level, ok := dnssecproof.ParseLoglevel(str)
								if !ok {
									return nil, false
								}
								return level, true
							},
						},
					},
					descriptor.DefaultValue{Value: dnssecproof.LevelInfo},
				},
			},
			descriptor.ObjectFiller{
				ObjectPath: descriptor.Path{"ConsolidateClients"},
				ValueSource: descriptor.ValueSources{
					descriptor.ObjectAtPath{
						ObjectPath:     descriptor.Path{"consolidateClients"},
						AssignableKind: descriptor.KindBool,
					},
					descriptor.DefaultValue{Value: true},
				},
			},
			descriptor.ObjectFiller{
				ObjectPath: descriptor.Path{"UnsupportedAlgorithms"},
				ValueSource: descriptor.ValueSources{
					descriptor.ObjectAtPath{
						ObjectPath: descriptor.Path{"unsupportedAlgorithms"},
						AssignableKind: descriptor.ConvertibleKind{
							Kind: descriptor.KindSlice,
							ConvertFunction: func(original interface{}) (converted interface{}, ok bool) {
								arr, ok := original.([]interface{})
								if !ok {
									return
								}
								out := make(map[uint8]bool, len(arr))
								for _, v := range arr {
									f, numeric := v.(float64)
									if !numeric {
										return nil, false
									}
									out[uint8(f)] = true
								}
								converted = out
								ok = true
								return
							},
						},
					},
					descriptor.DefaultValue{Value: map[uint8]bool{}},
				},
			},
		},
	}
}

// Default returns the profile used when a run names neither an inline
// nor a built-in named profile.
func Default() *Profile {
	return &Profile{
		Loglevel:              dnssecproof.LevelInfo,
		ConsolidateClients:    true,
		UnsupportedAlgorithms: map[uint8]bool{},
	}
}

// namedLookup resolves a built-in profile name to a Profile. It is
// wired by internal/config/typed/profile's init, keeping this package
// free of a direct dependency on the named-profile registry the same
// way pkg/upstream/resolver never imports config/named/resolver.
var namedLookup func(name string) (*Profile, error)

// RegisterNamedLookup installs the function used to resolve a bare
// profile name (e.g. "strict") referenced from a config. Called once
// from internal/config/typed/profile's init.
func RegisterNamedLookup(f func(name string) (*Profile, error)) {
	namedLookup = f
}

// Resolve interprets raw as either a profile name (a JSON string) or
// an inline profile object, returning the default when raw is absent.
func Resolve(raw interface{}) (*Profile, bool) {
	switch v := raw.(type) {
	case nil:
		return Default(), true
	case string:
		if namedLookup == nil {
			return nil, false
		}
		p, err := namedLookup(v)
		if err != nil {
			return nil, false
		}
		return p, true
	default:
		obj, s, f := Descriptor().Describe(v)
		if s < 1 || f > 0 {
			return nil, false
		}
		p, ok := obj.(*Profile)
		return p, ok
	}
}
