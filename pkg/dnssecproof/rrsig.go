package dnssecproof

import (
	"time"

	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/dnsname"
)

// RRSIGValidationStatus is the verdict of the RRSIG evaluator.
type RRSIGValidationStatus int

const (
	RRSIGValid RRSIGValidationStatus = iota
	RRSIGIndeterminateNoDNSKEY
	RRSIGIndeterminateMatchPreRevoke
	RRSIGIndeterminateUnknownAlgorithm
	RRSIGExpired
	RRSIGPremature
	RRSIGInvalidSig
	RRSIGInvalid
)

func (s RRSIGValidationStatus) String() string {
	switch s {
	case RRSIGValid:
		return "VALID"
	case RRSIGIndeterminateNoDNSKEY:
		return "INDETERMINATE_NO_DNSKEY"
	case RRSIGIndeterminateMatchPreRevoke:
		return "INDETERMINATE_MATCH_PRE_REVOKE"
	case RRSIGIndeterminateUnknownAlgorithm:
		return "INDETERMINATE_UNKNOWN_ALGORITHM"
	case RRSIGExpired:
		return "EXPIRED"
	case RRSIGPremature:
		return "PREMATURE"
	case RRSIGInvalidSig:
		return "INVALID_SIG"
	case RRSIGInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// RRSIGStatus is the result of evaluating one RRSIG over the RRset it
// covers.
type RRSIGStatus struct {
	statusBase
	Status         RRSIGValidationStatus
	RRset          *RRset
	RRSIG          *dns.RRSIG
	DNSKEY         *DNSKEYRecord
	ZoneName       string
	MinTTL         uint32
	ServersClients ServerClientSet
}

// EvaluateRRSIG runs the RRSIG evaluator. zoneName may be empty, in
// which case signer scope is checked against rrset.Name being a
// subdomain of the RRSIG's signer instead of an exact zone match.
// algorithmUnknown marks rrsig.Algorithm as one the caller's crypto
// collaborator cannot evaluate, independent of whatever Tri value
// verifier returns.
func EvaluateRRSIG(rrset *RRset, rrsig *dns.RRSIG, dnskey *DNSKEYRecord, zoneName string, referenceTime time.Time, algorithmUnknown bool, verifier Verifier) *RRSIGStatus {
	meta := rrset.RRSIGInfo[rrsig]
	st := &RRSIGStatus{
		statusBase:     statusBase{Qname: rrset.Name},
		Status:         RRSIGValid,
		RRset:          rrset,
		RRSIG:          rrsig,
		DNSKEY:         dnskey,
		ZoneName:       zoneName,
		ServersClients: meta.ServersClients,
	}

	var sigValid Tri = TriUnsupported
	if dnskey != nil && !algorithmUnknown {
		sigValid = verifier.ValidateRRSIG(rrset.Records, rrsig, dnskey.RR)
	}

	// 1. Keying.
	if sigValid == TriUnsupported || algorithmUnknown {
		if dnskey == nil {
			downgrade(&st.Status, RRSIGValid, RRSIGIndeterminateNoDNSKEY)
		} else {
			downgrade(&st.Status, RRSIGValid, RRSIGIndeterminateUnknownAlgorithm)
			st.warn(AlgorithmNotSupported{Algorithm: rrsig.Algorithm})
		}
	}

	// 2. TTL sanity.
	if rrset.TTL != meta.TTL {
		st.warn(RRsetTTLMismatch{RRsetTTL: rrset.TTL, RRSIGTTL: meta.TTL})
	}
	if meta.TTL > rrsig.OrigTtl {
		st.fail(OriginalTTLExceeded{RRsetTTL: meta.TTL, OriginalTTL: rrsig.OrigTtl})
	}
	st.MinTTL = minUint32(rrset.TTL, meta.TTL, rrsig.OrigTtl)

	// 3. Signer scope.
	signer := dnsname.Canonicalize(rrsig.SignerName)
	signerMismatch := false
	if zoneName != "" {
		signerMismatch = signer != dnsname.Canonicalize(zoneName)
	} else {
		signerMismatch = !dnsname.IsSubdomain(rrset.Name, signer)
	}
	if signerMismatch {
		downgrade(&st.Status, RRSIGValid, RRSIGInvalid)
		st.fail(SignerNotZone{ZoneName: zoneName, SignerName: rrsig.SignerName})
	}

	// 4. Revocation cross-check.
	if dnskey != nil && dnskey.IsRevoked() && rrsig.TypeCovered != dns.TypeDNSKEY {
		if rrsig.KeyTag != dnskey.KeyTag {
			downgrade(&st.Status, RRSIGValid, RRSIGIndeterminateMatchPreRevoke)
		} else {
			st.fail(DNSKEYRevokedRRSIG{})
			downgrade(&st.Status, RRSIGValid, RRSIGInvalid)
		}
	}

	// 5. Validity window.
	inception := time.Unix(int64(rrsig.Inception), 0)
	expiration := time.Unix(int64(rrsig.Expiration), 0)
	switch {
	case referenceTime.Before(inception):
		downgrade(&st.Status, RRSIGValid, RRSIGPremature)
		st.fail(InceptionInFuture{Inception: inception, ReferenceTime: referenceTime})
	case !referenceTime.Before(expiration):
		downgrade(&st.Status, RRSIGValid, RRSIGExpired)
		st.fail(ExpirationInPast{Expiration: expiration, ReferenceTime: referenceTime})
	default:
		if !referenceTime.Add(time.Duration(st.MinTTL) * time.Second).Before(expiration) {
			st.fail(TTLBeyondExpiration{Expiration: expiration, RRSIGTTL: st.MinTTL, ReferenceTime: referenceTime})
		}
	}

	// 6. Cryptographic verdict.
	if !algorithmUnknown && sigValid == TriBad && dnskey != nil && dnskey.KeyTag == rrsig.KeyTag {
		downgrade(&st.Status, RRSIGValid, RRSIGInvalidSig)
		st.fail(SignatureInvalid{})
	}

	return st
}

func minUint32(vs ...uint32) uint32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Serialize renders the status per the fixed-schema, order-sensitive
// contract: description/status gated by showBasic, rdata at DEBUG,
// servers at DEBUG or when showBasic, warnings/errors at their own
// thresholds.
func (s *RRSIGStatus) Serialize(consolidateClients bool, level Loglevel) *OrderedResult {
	r := &OrderedResult{}
	basic := showBasic(level, len(s.Warnings) > 0, len(s.Errors) > 0, s.Status != RRSIGValid)
	if basic {
		r.Set("description", "RRSIG "+s.Qname+" ("+dns.TypeToString[s.RRSIG.TypeCovered]+")")
	}
	if level <= LevelDebug {
		rdata := &OrderedResult{}
		rdata.Set("signer", s.RRSIG.SignerName)
		rdata.Set("algorithm", s.RRSIG.Algorithm)
		rdata.Set("key_tag", s.RRSIG.KeyTag)
		rdata.Set("inception", s.RRSIG.Inception)
		rdata.Set("expiration", s.RRSIG.Expiration)
		r.Set("rdata", rdata)
	}
	if basic {
		r.Set("status", s.Status.String())
	}
	if level <= LevelDebug || basic {
		r.Set("servers", serializeServers(s.ServersClients, consolidateClients))
	}
	if level <= LevelWarning {
		serializeFindings(r, "warnings", s.Warnings)
	}
	if level <= LevelError {
		serializeFindings(r, "errors", s.Errors)
	}
	return r
}
