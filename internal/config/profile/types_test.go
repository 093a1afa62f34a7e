package profile

import (
	"testing"

	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

func TestDescriptorDefaults(t *testing.T) {
	obj, s, f := Descriptor().Describe(map[string]interface{}{})
	if s < 1 || f > 0 {
		t.Fatalf("describe failed: success=%d failure=%d", s, f)
	}
	p := obj.(*Profile)
	if p.Loglevel != dnssecproof.LevelInfo {
		t.Fatalf("Loglevel default = %v, want LevelInfo", p.Loglevel)
	}
	if !p.ConsolidateClients {
		t.Fatalf("ConsolidateClients default = false, want true")
	}
	if len(p.UnsupportedAlgorithms) != 0 {
		t.Fatalf("UnsupportedAlgorithms default = %v, want empty", p.UnsupportedAlgorithms)
	}
}

func TestDescriptorFields(t *testing.T) {
	raw := map[string]interface{}{
		"loglevel":              "debug",
		"consolidateClients":    false,
		"unsupportedAlgorithms": []interface{}{float64(1), float64(3)},
	}
	obj, s, f := Descriptor().Describe(raw)
	if s < 1 || f > 0 {
		t.Fatalf("describe failed: success=%d failure=%d", s, f)
	}
	p := obj.(*Profile)
	if p.Loglevel != dnssecproof.LevelDebug {
		t.Fatalf("Loglevel = %v, want LevelDebug", p.Loglevel)
	}
	if p.ConsolidateClients {
		t.Fatalf("ConsolidateClients = true, want false")
	}
	if !p.UnsupportedAlgorithms[1] || !p.UnsupportedAlgorithms[3] {
		t.Fatalf("UnsupportedAlgorithms = %v, want {1,3}", p.UnsupportedAlgorithms)
	}
}

func TestDescriptorRejectsBadLoglevel(t *testing.T) {
	raw := map[string]interface{}{"loglevel": "verbose"}
	_, s, f := Descriptor().Describe(raw)
	if s > 0 && f < 1 {
		t.Fatalf("expected describe to fail for an unknown loglevel")
	}
}

func TestResolveDefaultsOnNil(t *testing.T) {
	p, ok := Resolve(nil)
	if !ok {
		t.Fatalf("Resolve(nil) failed")
	}
	if p.Loglevel != dnssecproof.LevelInfo || !p.ConsolidateClients {
		t.Fatalf("Resolve(nil) = %+v, want Default()", p)
	}
}

func TestResolveNamedWithoutRegistrationFails(t *testing.T) {
	RegisterNamedLookup(nil)
	if _, ok := Resolve("strict"); ok {
		t.Fatalf("expected Resolve(\"strict\") to fail without a registered lookup")
	}
}
