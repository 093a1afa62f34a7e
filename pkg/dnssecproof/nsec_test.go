package dnssecproof

import (
	"testing"

	"github.com/miekg/dns"
)

func nsecRRset(owner, next string, types ...uint16) *RRset {
	rr := &dns.NSEC{
		Hdr:        dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeNSEC, Class: dns.ClassINET, Ttl: 3600},
		NextDomain: dns.Fqdn(next),
		TypeBitMap: types,
	}
	return &RRset{Name: dns.Fqdn(owner), Rdtype: dns.TypeNSEC, TTL: 3600, Records: []dns.RR{rr}}
}

// TestNSECNXDOMAINValid is spec.md section 8 scenario 5.
func TestNSECNXDOMAINValid(t *testing.T) {
	recs := map[string]*RRset{
		"bar.example.": nsecRRset("bar.example.", "zzz.example."),
		"!.example.":   nsecRRset("!.example.", "0.example."),
	}
	view := NewNSECSetView(recs, false)

	st := EvaluateNSECNXDOMAIN("foo.example.", "example.", view)

	if st.Status != NSECValid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
	owners := allOwners(st.View)
	if len(owners) != 2 {
		t.Fatalf("retained owners = %v, want exactly the two covering NSEC owners", owners)
	}
}

func TestNSECNXDOMAINSnameNotCovered(t *testing.T) {
	recs := map[string]*RRset{
		"!.example.": nsecRRset("!.example.", "0.example."),
	}
	view := NewNSECSetView(recs, false)

	st := EvaluateNSECNXDOMAIN("foo.example.", "example.", view)

	if st.Status != NSECInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	found := false
	for _, e := range st.Errors {
		if _, ok := e.(SnameNotCoveredNameError); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want SnameNotCoveredNameError", st.Errors)
	}
	// On failure the full input set is retained, not a minimal projection.
	if len(allOwners(st.View)) != 1 {
		t.Fatalf("retained owners = %v, want full input set", allOwners(st.View))
	}
}

func TestNSECNoAnswerReferral(t *testing.T) {
	recs := map[string]*RRset{
		"example.": nsecRRset("example.", "foo.example.", dns.TypeNS),
	}
	view := NewNSECSetView(recs, true)

	st := EvaluateNSECNoAnswer("example.", dns.TypeDS, "example.", view)

	if st.Status != NSECValid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
}

func TestNSECNoAnswerReferralMissingNSBit(t *testing.T) {
	recs := map[string]*RRset{
		"example.": nsecRRset("example.", "foo.example."),
	}
	view := NewNSECSetView(recs, true)

	st := EvaluateNSECNoAnswer("example.", dns.TypeDS, "example.", view)

	if st.Status != NSECInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	found := false
	for _, e := range st.Errors {
		if _, ok := e.(ReferralWithoutNSBitNSEC); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want ReferralWithoutNSBitNSEC", st.Errors)
	}
}

func TestNSECNoAnswerStypeInBitmap(t *testing.T) {
	recs := map[string]*RRset{
		"www.example.": nsecRRset("www.example.", "zzz.example.", dns.TypeA, dns.TypeAAAA),
	}
	view := NewNSECSetView(recs, false)

	st := EvaluateNSECNoAnswer("www.example.", dns.TypeA, "example.", view)

	if st.Status != NSECInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
}

func TestNSECWildcardValid(t *testing.T) {
	recs := map[string]*RRset{
		"bar.example.": nsecRRset("bar.example.", "zzz.example."),
		"!.example.":   nsecRRset("!.example.", "0.example."),
	}
	view := NewNSECSetView(recs, false)

	st := EvaluateNSECWildcard("foo.example.", "*.example.", "example.", view)

	if st.Status != NSECValid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
}
