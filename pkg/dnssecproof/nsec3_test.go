package dnssecproof

import (
	"testing"

	"github.com/miekg/dns"
)

const (
	testNSEC3Salt       = ""
	testNSEC3Iterations = uint16(0)
)

func hashLabel(t *testing.T, name string) string {
	t.Helper()
	h := dns.HashName(name, dns.SHA1, testNSEC3Iterations, testNSEC3Salt)
	if h == "" {
		t.Fatalf("HashName(%q) returned empty", name)
	}
	return h
}

func nsec3RRset(owner, next string, optOut bool, types ...uint16) *RRset {
	var flags uint8
	if optOut {
		flags = 1
	}
	rr := &dns.NSEC3{
		Hdr:        dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeNSEC3, Class: dns.ClassINET, Ttl: 3600},
		Hash:       dns.SHA1,
		Flags:      flags,
		Iterations: testNSEC3Iterations,
		SaltLength: uint8(len(testNSEC3Salt)),
		Salt:       testNSEC3Salt,
		HashLength: 20,
		NextDomain: next,
		TypeBitMap: types,
	}
	return &RRset{Name: dns.Fqdn(owner), Rdtype: dns.TypeNSEC3, TTL: 3600, Records: []dns.RR{rr}}
}

// nsec3Fixture builds a view over three records: an exact match on
// encloser, and two synthetic bracketing records that cover
// nextCloser's and wildcard's hashes by construction (their owners are
// forced to sort immediately below the target hash and their next
// fields immediately above it, in hash space approximated by string
// order since both are base32hex digests of fixed length).
type nsec3Fixture struct {
	encloserHash, nextCloserHash, wildcardHash string
}

func buildNSEC3CoveringRecord(t *testing.T, targetHash, origin string) (owner, next string) {
	t.Helper()
	// Force an interval (owner, next) that brackets targetHash: owner is
	// the target hash with its last hex digit decremented, next is the
	// target hash with its last hex digit incremented. Both remain
	// syntactically valid base32hex-ish labels for test purposes since
	// Covers only compares them as opaque canonical names. next is the
	// bare hash label, as in an NSEC3 record's next field; the view
	// appends origin to it.
	owner = decrementLastChar(targetHash) + "." + origin
	next = incrementLastChar(targetHash)
	return owner, next
}

func decrementLastChar(s string) string {
	b := []byte(s)
	b[len(b)-1] = b[len(b)-1] - 1
	return string(b)
}

func incrementLastChar(s string) string {
	b := []byte(s)
	b[len(b)-1] = b[len(b)-1] + 1
	return string(b)
}

// TestNSEC3NXDOMAINValid is spec.md section 8's NSEC3 shape: a closest
// encloser match plus covering records for both the next-closer and
// wildcard hashes.
func TestNSEC3NXDOMAINValid(t *testing.T) {
	origin := "example."
	qname := "foo.bar.example."
	encloser := "bar.example."
	nextCloser := qname

	encloserHash := hashLabel(t, encloser)
	nextCloserHash := hashLabel(t, nextCloser)
	wildcardHash := hashLabel(t, "*."+encloser)

	recs := map[string]*RRset{}
	recs[encloserHash+".example."] = nsec3RRset(encloserHash+".example.", incrementLastChar(encloserHash), false)

	ncOwner, ncNext := buildNSEC3CoveringRecord(t, nextCloserHash, "example.")
	recs[ncOwner] = nsec3RRset(ncOwner, ncNext, false)

	wcOwner, wcNext := buildNSEC3CoveringRecord(t, wildcardHash, "example.")
	recs[wcOwner] = nsec3RRset(wcOwner, wcNext, false)

	view := NewNSEC3SetView(recs, origin, false)

	st := EvaluateNSEC3NXDOMAIN(qname, origin, view)

	if st.Status != NSEC3Valid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
	if st.ClosestEncloser != encloser {
		t.Fatalf("closest encloser = %q, want %q", st.ClosestEncloser, encloser)
	}
}

func TestNSEC3NXDOMAINNoClosestEncloser(t *testing.T) {
	origin := "example."
	qname := "foo.bar.example."

	recs := map[string]*RRset{}
	unrelatedHash := hashLabel(t, "unrelated.example.")
	recs[unrelatedHash+".example."] = nsec3RRset(unrelatedHash+".example.", incrementLastChar(unrelatedHash), false)

	view := NewNSEC3SetView(recs, origin, false)

	st := EvaluateNSEC3NXDOMAIN(qname, origin, view)

	if st.Status != NSEC3Invalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	found := false
	for _, e := range st.Errors {
		if _, ok := e.(NoClosestEncloserNameError); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want NoClosestEncloserNameError", st.Errors)
	}
}

// TestNSEC3NoAnswerDSOptOut is spec.md section 8 scenario 6.
func TestNSEC3NoAnswerDSOptOut(t *testing.T) {
	origin := "example."
	qname := "child.example."

	qnameHash := hashLabel(t, qname)
	owner, next := buildNSEC3CoveringRecord(t, qnameHash, "example.")
	recs := map[string]*RRset{
		owner: nsec3RRset(owner, next, true),
	}
	view := NewNSEC3SetView(recs, origin, false)

	st := EvaluateNSEC3NoAnswer(qname, dns.TypeDS, origin, view)

	if st.Status != NSEC3Valid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
	if !st.OptOut {
		t.Fatalf("expected OptOut=true in diagnostic metadata")
	}
}

// TestNSEC3NoAnswerDSOptOutMultiLabelGap covers an opt-out delegation
// more than one label below the closest encloser, where the next
// closer name differs from qname. The coverage interval must bracket
// the next closer name's digest, not qname's own digest, or this case
// (the common real-world opt-out shape) is evaluated against the wrong
// hash.
func TestNSEC3NoAnswerDSOptOutMultiLabelGap(t *testing.T) {
	origin := "example."
	qname := "b.a.example."
	nextCloser := "a.example."

	encloserHash := hashLabel(t, origin)
	recs := map[string]*RRset{}
	recs[encloserHash+".example."] = nsec3RRset(encloserHash+".example.", incrementLastChar(encloserHash), false)

	nextCloserHash := hashLabel(t, nextCloser)
	ncOwner, ncNext := buildNSEC3CoveringRecord(t, nextCloserHash, "example.")
	recs[ncOwner] = nsec3RRset(ncOwner, ncNext, true)

	view := NewNSEC3SetView(recs, origin, false)

	st := EvaluateNSEC3NoAnswer(qname, dns.TypeDS, origin, view)

	if st.Status != NSEC3Valid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
	if !st.OptOut {
		t.Fatalf("expected OptOut=true in diagnostic metadata")
	}
	if st.NextClosestEncloser != nextCloser {
		t.Fatalf("next closest encloser = %q, want %q", st.NextClosestEncloser, nextCloser)
	}
}

// TestNSEC3UnsupportedAlgorithmOnly is spec.md section 8 scenario 7:
// an unsupported-algorithm-only view with no closest encloser reports
// only UnsupportedNSEC3Algorithm, suppressing the semantic error.
func TestNSEC3UnsupportedAlgorithmOnly(t *testing.T) {
	origin := "example."
	qname := "foo.example."

	rr := &dns.NSEC3{
		Hdr:        dns.RR_Header{Name: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.example.", Rrtype: dns.TypeNSEC3, Class: dns.ClassINET, Ttl: 3600},
		Hash:       99,
		Iterations: 0,
		NextDomain: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb.example.",
	}
	recs := map[string]*RRset{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.example.": {
			Name: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.example.", Rdtype: dns.TypeNSEC3, TTL: 3600, Records: []dns.RR{rr},
		},
	}
	view := NewNSEC3SetView(recs, origin, false)

	st := EvaluateNSEC3NXDOMAIN(qname, origin, view)

	if st.Status != NSEC3Invalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	if len(st.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly [UnsupportedNSEC3Algorithm]", st.Errors)
	}
	if _, ok := st.Errors[0].(UnsupportedNSEC3Algorithm); !ok {
		t.Fatalf("errors[0] = %T, want UnsupportedNSEC3Algorithm", st.Errors[0])
	}
}
