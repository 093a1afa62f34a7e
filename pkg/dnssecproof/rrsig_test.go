package dnssecproof

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func makeARRset(owner string, ttl uint32) *RRset {
	a := &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   net.IP{192, 0, 2, 1},
	}
	return &RRset{Name: dns.Fqdn(owner), Rdtype: dns.TypeA, TTL: ttl, Records: []dns.RR{a}}
}

func withRRSIGMeta(rrset *RRset, rrsig *dns.RRSIG, ttl uint32) *RRset {
	rrset.RRSIGInfo = map[*dns.RRSIG]RRSIGMeta{rrsig: {TTL: ttl}}
	return rrset
}

// TestRRSIGInWindowValid is spec.md section 8 scenario 1.
func TestRRSIGInWindowValid(t *testing.T) {
	key, priv := mustGenerateKey(t, "example.")
	now := time.Unix(1_700_000_000, 0)
	rrset := makeARRset("www.example.", 3600)
	sig := mustSign(t, rrset.Records, key, priv, "example.", dns.TypeA, now, now.Add(-60*time.Second), now.Add(86400*time.Second))
	rrset = withRRSIGMeta(rrset, sig, 3600)
	dnskey := NewDNSKEYRecord(key)

	st := EvaluateRRSIG(rrset, sig, dnskey, "example.", now, false, DefaultVerifier{})

	if st.Status != RRSIGValid {
		t.Fatalf("status = %v, want VALID", st.Status)
	}
	if len(st.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", st.Warnings)
	}
	if len(st.Errors) != 0 {
		t.Fatalf("errors = %v, want none", st.Errors)
	}
}

// TestRRSIGExpiredAndSignerWrong is spec.md section 8 scenario 2: the
// signer check (rule 3) precedes the window check (rule 5), so the
// final status is INVALID, not EXPIRED, but both errors are recorded.
func TestRRSIGExpiredAndSignerWrong(t *testing.T) {
	key, priv := mustGenerateKey(t, "example.")
	now := time.Unix(1_700_000_000, 0)
	rrset := makeARRset("www.example.", 3600)
	sig := mustSign(t, rrset.Records, key, priv, "not-example.", dns.TypeA, now, now.Add(-2*time.Hour), now.Add(-1*time.Second))
	rrset = withRRSIGMeta(rrset, sig, 3600)
	dnskey := NewDNSKEYRecord(key)

	st := EvaluateRRSIG(rrset, sig, dnskey, "example.", now, false, DefaultVerifier{})

	if st.Status != RRSIGInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	var sawSignerNotZone, sawExpirationInPast bool
	for _, e := range st.Errors {
		switch e.(type) {
		case SignerNotZone:
			sawSignerNotZone = true
		case ExpirationInPast:
			sawExpirationInPast = true
		}
	}
	if !sawSignerNotZone || !sawExpirationInPast {
		t.Fatalf("errors = %v, want both SignerNotZone and ExpirationInPast", st.Errors)
	}
}

func TestRRSIGNoDNSKEYIndeterminate(t *testing.T) {
	key, priv := mustGenerateKey(t, "example.")
	now := time.Unix(1_700_000_000, 0)
	rrset := makeARRset("www.example.", 3600)
	sig := mustSign(t, rrset.Records, key, priv, "example.", dns.TypeA, now, now.Add(-60*time.Second), now.Add(86400*time.Second))
	rrset = withRRSIGMeta(rrset, sig, 3600)

	st := EvaluateRRSIG(rrset, sig, nil, "example.", now, false, DefaultVerifier{})

	if st.Status != RRSIGIndeterminateNoDNSKEY {
		t.Fatalf("status = %v, want INDETERMINATE_NO_DNSKEY", st.Status)
	}
}

func TestRRSIGRevokedSameTagInvalid(t *testing.T) {
	key, priv := mustGenerateKey(t, "example.")
	now := time.Unix(1_700_000_000, 0)
	rrset := makeARRset("www.example.", 3600)
	sig := mustSign(t, rrset.Records, key, priv, "example.", dns.TypeA, now, now.Add(-60*time.Second), now.Add(86400*time.Second))
	rrset = withRRSIGMeta(rrset, sig, 3600)

	revoked := *key
	revoked.Flags |= DNSKEYFlagRevoke
	dnskey := NewDNSKEYRecord(&revoked)
	sig.KeyTag = dnskey.KeyTag

	st := EvaluateRRSIG(rrset, sig, dnskey, "example.", now, false, DefaultVerifier{})

	if st.Status != RRSIGInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	if len(st.Errors) == 0 {
		t.Fatalf("expected DNSKEYRevokedRRSIG error")
	}
}

func TestRRSIGTTLMismatchWarns(t *testing.T) {
	key, priv := mustGenerateKey(t, "example.")
	now := time.Unix(1_700_000_000, 0)
	rrset := makeARRset("www.example.", 1800)
	sig := mustSign(t, rrset.Records, key, priv, "example.", dns.TypeA, now, now.Add(-60*time.Second), now.Add(86400*time.Second))
	rrset = withRRSIGMeta(rrset, sig, 3600)
	dnskey := NewDNSKEYRecord(key)

	st := EvaluateRRSIG(rrset, sig, dnskey, "example.", now, false, DefaultVerifier{})

	found := false
	for _, w := range st.Warnings {
		if _, ok := w.(RRsetTTLMismatch); ok {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v, want RRsetTTLMismatch", st.Warnings)
	}
}
