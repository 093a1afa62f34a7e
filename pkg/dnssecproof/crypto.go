package dnssecproof

import (
	"strings"

	"github.com/miekg/dns"
)

// unsupportedRRSIGAlgorithms are DNSSEC algorithm numbers this build
// cannot verify signatures for, even though miekg/dns might parse the
// record. RFC 8624 deprecates algorithms 1, 3, 5, 6, 7, 12; we only
// refuse the ones miekg/dns itself has no verifier for.
var unsupportedRRSIGAlgorithms = map[uint8]bool{
	dns.DSA:         true,
	dns.DSANSEC3SHA1: true,
}

// unsupportedDigestAlgorithms are DS digest types without a verifier.
var unsupportedDigestAlgorithms = map[uint8]bool{}

// DefaultVerifier implements Verifier on top of miekg/dns's own RRSIG
// verification (RRSIG.Verify) and DS digest comparison (DNSKEY.ToDS),
// the same pair of primitives
// internal/upstream/resolvers/recursive/validate.go uses.
type DefaultVerifier struct{}

func (DefaultVerifier) ValidateRRSIG(rrset []dns.RR, rrsig *dns.RRSIG, dnskey *dns.DNSKEY) Tri {
	if unsupportedRRSIGAlgorithms[rrsig.Algorithm] {
		return TriUnsupported
	}
	if err := rrsig.Verify(dnskey, rrset); err != nil {
		if err == dns.ErrAlg {
			return TriUnsupported
		}
		return TriBad
	}
	return TriOK
}

// AlgorithmSupported reports whether this build can verify RRSIGs of
// the given algorithm at all, independent of any particular signature.
// Callers combine this with a deployment's own UnsupportedAlgorithms
// profile setting to compute EvaluateRRSIG's algorithmUnknown argument.
func (DefaultVerifier) AlgorithmSupported(alg uint8) bool {
	return !unsupportedRRSIGAlgorithms[alg]
}

// DigestAlgorithmSupported is AlgorithmSupported's DS-digest analogue.
func (DefaultVerifier) DigestAlgorithmSupported(digestType uint8) bool {
	return !unsupportedDigestAlgorithms[digestType]
}

func (DefaultVerifier) ValidateDSDigest(ds *dns.DS, dnskey *dns.DNSKEY) Tri {
	if unsupportedDigestAlgorithms[ds.DigestType] {
		return TriUnsupported
	}
	generated := dnskey.ToDS(ds.DigestType)
	if generated == nil {
		return TriUnsupported
	}
	if strings.EqualFold(generated.Digest, ds.Digest) {
		return TriOK
	}
	return TriBad
}
