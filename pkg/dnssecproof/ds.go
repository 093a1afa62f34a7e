package dnssecproof

import "github.com/miekg/dns"

// DSValidationStatus is the verdict of the DS evaluator.
type DSValidationStatus int

const (
	DSValid DSValidationStatus = iota
	DSIndeterminateNoDNSKEY
	DSIndeterminateMatchPreRevoke
	DSIndeterminateUnknownAlgorithm
	DSInvalidDigest
	DSInvalid
)

func (s DSValidationStatus) String() string {
	switch s {
	case DSValid:
		return "VALID"
	case DSIndeterminateNoDNSKEY:
		return "INDETERMINATE_NO_DNSKEY"
	case DSIndeterminateMatchPreRevoke:
		return "INDETERMINATE_MATCH_PRE_REVOKE"
	case DSIndeterminateUnknownAlgorithm:
		return "INDETERMINATE_UNKNOWN_ALGORITHM"
	case DSInvalidDigest:
		return "INVALID_DIGEST"
	case DSInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// DSStatus is the result of evaluating one DS record against the
// DNSKEY it is supposed to bind to.
type DSStatus struct {
	statusBase
	Status DSValidationStatus
	DS     *dns.DS
	DSMeta *DSMeta
	DNSKEY *DNSKEYRecord
}

// EvaluateDS runs the DS evaluator. digestAlgorithmUnknown marks
// ds.DigestType as one the caller's crypto collaborator cannot
// evaluate.
func EvaluateDS(ds *dns.DS, meta *DSMeta, dnskey *DNSKEYRecord, digestAlgorithmUnknown bool, verifier Verifier) *DSStatus {
	st := &DSStatus{
		statusBase: statusBase{Qname: meta.RRset.Name},
		Status:     DSValid,
		DS:         ds,
		DSMeta:     meta,
		DNSKEY:     dnskey,
	}

	var digestValid Tri = TriUnsupported
	if dnskey != nil && !digestAlgorithmUnknown {
		digestValid = verifier.ValidateDSDigest(ds, dnskey.RR)
	}

	if digestValid == TriUnsupported || digestAlgorithmUnknown {
		if dnskey == nil {
			downgrade(&st.Status, DSValid, DSIndeterminateNoDNSKEY)
		} else {
			downgrade(&st.Status, DSValid, DSIndeterminateUnknownAlgorithm)
			st.warn(DigestAlgorithmNotSupported{Algorithm: ds.DigestType})
		}
	}

	if dnskey != nil && dnskey.IsRevoked() {
		if dnskey.KeyTag != ds.KeyTag {
			downgrade(&st.Status, DSValid, DSIndeterminateMatchPreRevoke)
		} else {
			st.fail(DNSKEYRevokedDS{})
			downgrade(&st.Status, DSValid, DSInvalid)
		}
	}

	if !digestAlgorithmUnknown && digestValid == TriBad && dnskey != nil && dnskey.KeyTag == ds.KeyTag {
		downgrade(&st.Status, DSValid, DSInvalidDigest)
		st.fail(DigestInvalid{})
	}

	return st
}

func (s *DSStatus) Serialize(consolidateClients bool, level Loglevel) *OrderedResult {
	r := &OrderedResult{}
	basic := showBasic(level, len(s.Warnings) > 0, len(s.Errors) > 0, s.Status != DSValid)
	if basic {
		r.Set("description", "DS "+s.Qname)
	}
	if level <= LevelDebug {
		rdata := &OrderedResult{}
		rdata.Set("key_tag", s.DS.KeyTag)
		rdata.Set("algorithm", s.DS.Algorithm)
		rdata.Set("digest_type", s.DS.DigestType)
		r.Set("rdata", rdata)
	}
	if basic {
		r.Set("status", s.Status.String())
	}
	if level <= LevelDebug || basic {
		r.Set("servers", serializeServers(s.DSMeta.ServersClients, consolidateClients))
	}
	if level <= LevelWarning {
		serializeFindings(r, "warnings", s.Warnings)
	}
	if level <= LevelError {
		serializeFindings(r, "errors", s.Errors)
	}
	return r
}
