package dnssecproof

import "github.com/rs/zerolog"

// Loglevel selects both how much of a verdict's serialized report is
// emitted and, for callers that also log with internal/logger, the
// matching logging threshold. It reuses zerolog's level ordering
// directly rather than inventing a parallel numbering.
type Loglevel int

const (
	LevelDebug   = Loglevel(zerolog.DebugLevel)
	LevelInfo    = Loglevel(zerolog.InfoLevel)
	LevelWarning = Loglevel(zerolog.WarnLevel)
	LevelError   = Loglevel(zerolog.ErrorLevel)
)

// ParseLoglevel maps a configuration string onto a Loglevel, for
// profile descriptors that accept "debug"/"info"/"warning"/"error".
func ParseLoglevel(s string) (Loglevel, bool) {
	switch s {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return 0, false
	}
}

// entry is one key/value pair in an OrderedResult.
type entry struct {
	key   string
	value interface{}
}

// OrderedResult is the fixed-schema, order-preserving map the
// serialization contract produces. Go's map type does not preserve
// insertion order, and the contract is explicitly order-sensitive
// (description, evidence, status, servers, warnings, errors), so a
// plain map cannot stand in for it.
type OrderedResult struct {
	entries []entry
}

// Set appends key/value, or overwrites the value of key if already
// present without changing its position.
func (r *OrderedResult) Set(key string, value interface{}) {
	for i := range r.entries {
		if r.entries[i].key == key {
			r.entries[i].value = value
			return
		}
	}
	r.entries = append(r.entries, entry{key: key, value: value})
}

// Delete removes key if present.
func (r *OrderedResult) Delete(key string) {
	for i := range r.entries {
		if r.entries[i].key == key {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Get returns the value of key and whether it was present.
func (r *OrderedResult) Get(key string) (interface{}, bool) {
	for _, e := range r.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (r *OrderedResult) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.key
	}
	return keys
}

// MarshalJSON renders the entries in insertion order. encoding/json
// cannot do this for a Go map, so OrderedResult builds the object text
// by hand.
func (r *OrderedResult) MarshalJSON() ([]byte, error) {
	return marshalOrderedJSON(r.entries)
}
