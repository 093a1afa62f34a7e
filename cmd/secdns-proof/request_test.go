package main

import (
	"testing"

	_ "github.com/zhouchenh/secDNS/internal/config/typed/profile"
	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

func TestRequestQtype(t *testing.T) {
	req := &request{Qtype: "DNSKEY"}
	qtype, err := req.qtype()
	if err != nil {
		t.Fatalf("qtype() returned error: %v", err)
	}
	if qtype != 48 { // dns.TypeDNSKEY
		t.Fatalf("qtype() = %d, want 48", qtype)
	}
}

func TestRequestQtypeUnknown(t *testing.T) {
	req := &request{Qtype: "NOTAREALTYPE"}
	if _, err := req.qtype(); err == nil {
		t.Fatalf("expected an error for an unknown qtype")
	}
}

func TestRequestReferenceTimeParses(t *testing.T) {
	req := &request{ReferenceTime: "2024-01-01T00:00:00Z"}
	ts, err := req.referenceTime()
	if err != nil {
		t.Fatalf("referenceTime() returned error: %v", err)
	}
	if ts.Year() != 2024 {
		t.Fatalf("referenceTime() = %v, want year 2024", ts)
	}
}

func TestRequestResolveProfileDefault(t *testing.T) {
	req := &request{}
	p, err := req.resolveProfile()
	if err != nil {
		t.Fatalf("resolveProfile() returned error: %v", err)
	}
	if p.Loglevel != dnssecproof.LevelInfo {
		t.Fatalf("resolveProfile() default Loglevel = %v, want LevelInfo", p.Loglevel)
	}
}

func TestRequestResolveProfileNamed(t *testing.T) {
	req := &request{Profile: []byte(`"strict"`)}
	p, err := req.resolveProfile()
	if err != nil {
		t.Fatalf("resolveProfile() returned error: %v", err)
	}
	if p.Loglevel != dnssecproof.LevelWarning {
		t.Fatalf("resolveProfile(\"strict\") Loglevel = %v, want LevelWarning", p.Loglevel)
	}
}

func TestRequestCollectorRequiresServers(t *testing.T) {
	req := &request{}
	if _, err := req.collector(); err == nil {
		t.Fatalf("expected an error when no servers are configured")
	}
}

func TestServerConfigToNameServerRejectsBadAddress(t *testing.T) {
	sc := serverConfig{Address: "not-an-ip"}
	if _, err := sc.toNameServer(); err == nil {
		t.Fatalf("expected an error for an invalid address")
	}
}
