// Package dnssecproof evaluates already-collected DNS response material
// and decides whether a DNSSEC proof of authenticity, or of
// authenticated non-existence, holds. Every exported evaluator in this
// package is a pure function of its arguments and a reference time: it
// performs no I/O, makes no DNS queries, and never mutates the inputs
// it is given. Gathering the material to evaluate is the caller's job.
package dnssecproof

import (
	"github.com/miekg/dns"
)

// DNSKEY flag bits (RFC 4034 section 2.1.1, RFC 5011 section 3).
// miekg/dns exposes Flags as a bare uint16; these name the zone-key,
// revoke and SEP bits.
const (
	DNSKEYFlagZoneKey = 1 << 8
	DNSKEYFlagRevoke  = 1 << 7
	DNSKEYFlagSEP     = 1 << 0
)

// DNSKEYRecord wraps a DNSKEY together with the key tag it would have
// carried before RFC 5011 revocation flipped the revoke bit. A
// signature made before revocation is signed with the pre-revoke tag;
// detecting that requires both tags side by side without
// re-synthesizing the pre-revoke RDATA.
type DNSKEYRecord struct {
	RR             *dns.DNSKEY
	KeyTag         uint16
	KeyTagNoRevoke uint16
}

// IsRevoked reports whether the revoke bit (RFC 5011) is set.
func (k *DNSKEYRecord) IsRevoked() bool {
	return k.RR.Flags&DNSKEYFlagRevoke != 0
}

// NewDNSKEYRecord computes both key tags for rr. If rr does not carry
// the revoke bit, both tags are identical.
func NewDNSKEYRecord(rr *dns.DNSKEY) *DNSKEYRecord {
	tag := rr.KeyTag()
	noRevoke := tag
	if rr.Flags&DNSKEYFlagRevoke != 0 {
		unrevoked := *rr
		unrevoked.Flags &^= DNSKEYFlagRevoke
		noRevoke = unrevoked.KeyTag()
	}
	return &DNSKEYRecord{RR: rr, KeyTag: tag, KeyTagNoRevoke: noRevoke}
}

// ServerClient identifies one (server, client) pair a response was
// observed over. It is opaque to every evaluator; only Serialize
// consults it.
type ServerClient struct {
	Server string
	Client string
}

// ServerClientSet maps a server/client pair to the set of response
// identifiers (e.g. transaction IDs or timestamps) observed for it.
// Carried through untouched from RRset/RRSIGMeta/DSMeta into the
// serialized report.
type ServerClientSet map[ServerClient]map[string]bool

// RRSIGMeta is the per-signature metadata the RRset carrier keeps
// alongside each covering RRSIG: the TTL the signature itself was
// served with (which may differ from the RRset's own TTL) and the
// servers/clients it was observed from.
type RRSIGMeta struct {
	TTL            uint32
	ServersClients ServerClientSet
}

// RRset is the read-only carrier the core evaluators consume. It never
// mutates its Records, RRSIGInfo, or ServersClients.
type RRset struct {
	Name           string
	Rdtype         uint16
	TTL            uint32
	Records        []dns.RR
	RRSIGInfo      map[*dns.RRSIG]RRSIGMeta
	ServersClients ServerClientSet
}

// DSMeta carries the RRset a DS record lives in, so the DS evaluator
// can report its TTL and provenance without re-deriving them.
type DSMeta struct {
	RRset          *RRset
	ServersClients ServerClientSet
}

// NSEC3Params identifies one (salt, algorithm, iterations) parameter
// group within an NSEC3 set view. It is comparable so it can key a map.
type NSEC3Params struct {
	Salt       string
	Algorithm  uint8
	Iterations uint16
}

// Tri is a three-valued cryptographic verdict: a signature or digest
// either checks out, fails, or could not be evaluated at all because
// the algorithm is unsupported or no key material was available.
type Tri uint8

const (
	TriUnsupported Tri = iota
	TriBad
	TriOK
)

// Verifier is the crypto collaborator described in the specification's
// external-interfaces section: pure, reentrant signature and digest
// verification. The default implementation (DefaultVerifier) delegates
// to miekg/dns; callers may substitute their own (e.g. an HSM-backed
// verifier, or a mock in tests).
type Verifier interface {
	// ValidateRRSIG reports whether rrsig validly covers rrset under
	// dnskey. rrset must already be in the form RRSIG.Verify expects
	// (same owner/type, consistent TTLs are not required here).
	ValidateRRSIG(rrset []dns.RR, rrsig *dns.RRSIG, dnskey *dns.DNSKEY) Tri
	// ValidateDSDigest reports whether ds is a correct digest of
	// dnskey.
	ValidateDSDigest(ds *dns.DS, dnskey *dns.DNSKEY) Tri
}
