package dnssecproof

import (
	"crypto"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// mustGenerateKey and mustSign generalize validate_test.go's key/signing
// helpers for use across every evaluator's test file in this package.

func mustGenerateKey(t *testing.T, name string) (*dns.DNSKEY, crypto.Signer) {
	t.Helper()
	key := &dns.DNSKEY{
		Hdr:       dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeDNSKEY, Class: dns.ClassINET, Ttl: 3600},
		Flags:     257,
		Protocol:  3,
		Algorithm: dns.RSASHA256,
	}
	privRaw, err := key.Generate(1024)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, ok := privRaw.(crypto.Signer)
	if !ok {
		t.Fatalf("generated key does not implement crypto.Signer")
	}
	return key, signer
}

func mustSign(t *testing.T, rrs []dns.RR, key *dns.DNSKEY, priv crypto.Signer, signer string, covered uint16, now time.Time, inception, expiration time.Time) *dns.RRSIG {
	t.Helper()
	sig := &dns.RRSIG{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(rrs[0].Header().Name),
			Rrtype: dns.TypeRRSIG,
			Class:  dns.ClassINET,
			Ttl:    rrs[0].Header().Ttl,
		},
		TypeCovered: covered,
		Algorithm:   key.Algorithm,
		Labels:      uint8(dns.CountLabel(rrs[0].Header().Name)),
		OrigTtl:     rrs[0].Header().Ttl,
		Expiration:  uint32(expiration.Unix()),
		Inception:   uint32(inception.Unix()),
		KeyTag:      key.KeyTag(),
		SignerName:  dns.Fqdn(signer),
	}
	if err := sig.Sign(priv, rrs); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return sig
}

func mustKeyTag(key *dns.DNSKEY) uint16 { return key.KeyTag() }
