package dnssecproof

import (
	"testing"

	"github.com/miekg/dns"
)

func makeDSMeta(owner string) *DSMeta {
	rrset := &RRset{Name: dns.Fqdn(owner), Rdtype: dns.TypeDS, TTL: 3600}
	return &DSMeta{RRset: rrset}
}

// TestDSRevokedSameTagInvalid is spec.md section 8 scenario 3.
func TestDSRevokedSameTagInvalid(t *testing.T) {
	key, _ := mustGenerateKey(t, "example.")
	revoked := *key
	revoked.Flags |= DNSKEYFlagRevoke
	dnskey := NewDNSKEYRecord(&revoked)

	ds := dnskey.RR.ToDS(dns.SHA256)
	ds.KeyTag = dnskey.KeyTag
	meta := makeDSMeta("example.")

	st := EvaluateDS(ds, meta, dnskey, false, DefaultVerifier{})

	if st.Status != DSInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	if len(st.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly [DNSKEYRevokedDS]", st.Errors)
	}
	if _, ok := st.Errors[0].(DNSKEYRevokedDS); !ok {
		t.Fatalf("errors[0] = %T, want DNSKEYRevokedDS", st.Errors[0])
	}
}

// TestDSRevokedPreRevokeTagIndeterminate is spec.md section 8 scenario 4.
func TestDSRevokedPreRevokeTagIndeterminate(t *testing.T) {
	key, _ := mustGenerateKey(t, "example.")
	revoked := *key
	revoked.Flags |= DNSKEYFlagRevoke
	dnskey := NewDNSKEYRecord(&revoked)

	ds := dnskey.RR.ToDS(dns.SHA256)
	ds.KeyTag = dnskey.KeyTag + 1 // simulate a pre-revocation tag
	meta := makeDSMeta("example.")

	st := EvaluateDS(ds, meta, dnskey, false, DefaultVerifier{})

	if st.Status != DSIndeterminateMatchPreRevoke {
		t.Fatalf("status = %v, want INDETERMINATE_MATCH_PRE_REVOKE", st.Status)
	}
	if len(st.Errors) != 0 {
		t.Fatalf("errors = %v, want none", st.Errors)
	}
}

func TestDSValid(t *testing.T) {
	key, _ := mustGenerateKey(t, "example.")
	dnskey := NewDNSKEYRecord(key)
	ds := dnskey.RR.ToDS(dns.SHA256)
	ds.KeyTag = dnskey.KeyTag
	meta := makeDSMeta("example.")

	st := EvaluateDS(ds, meta, dnskey, false, DefaultVerifier{})

	if st.Status != DSValid {
		t.Fatalf("status = %v, want VALID", st.Status)
	}
}

func TestDSDigestInvalid(t *testing.T) {
	key, _ := mustGenerateKey(t, "example.")
	dnskey := NewDNSKEYRecord(key)
	ds := dnskey.RR.ToDS(dns.SHA256)
	ds.KeyTag = dnskey.KeyTag
	ds.Digest = "deadbeef"
	meta := makeDSMeta("example.")

	st := EvaluateDS(ds, meta, dnskey, false, DefaultVerifier{})

	if st.Status != DSInvalidDigest {
		t.Fatalf("status = %v, want INVALID_DIGEST", st.Status)
	}
}

func TestDSNoDNSKEYIndeterminate(t *testing.T) {
	meta := makeDSMeta("example.")
	ds := &dns.DS{KeyTag: 1, Algorithm: dns.RSASHA256, DigestType: dns.SHA256, Digest: "aa"}

	st := EvaluateDS(ds, meta, nil, false, DefaultVerifier{})

	if st.Status != DSIndeterminateNoDNSKEY {
		t.Fatalf("status = %v, want INDETERMINATE_NO_DNSKEY", st.Status)
	}
}
