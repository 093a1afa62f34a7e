package dnssecproof

import "github.com/miekg/dns"

// DNAMEValidationStatus is the verdict of the DNAME/CNAME-synthesis
// evaluator.
type DNAMEValidationStatus int

const (
	DNAMEValid DNAMEValidationStatus = iota
	DNAMEInvalidTarget
	DNAMEInvalid
)

func (s DNAMEValidationStatus) String() string {
	switch s {
	case DNAMEValid:
		return "VALID"
	case DNAMEInvalidTarget:
		return "INVALID_TARGET"
	default:
		return "INVALID"
	}
}

// DNAMEStatus is the result of checking that a CNAME present in a
// response matches the CNAME a resolver would have synthesized from a
// DNAME.
type DNAMEStatus struct {
	statusBase
	Status          DNAMEValidationStatus
	DNAME           *dns.DNAME
	IncludedCNAME   *dns.CNAME
	SynthesizedName string
	ServersClients  ServerClientSet
}

// synthesizeCNAMETarget builds the CNAME target a resolver would
// produce for qname given a DNAME at dname.Hdr.Name redirecting to
// dname.Target: the portion of qname below the DNAME owner is kept,
// and the owner suffix is replaced with the target.
func synthesizeCNAMETarget(qname string, dname *dns.DNAME) string {
	owner := dns.Fqdn(dname.Hdr.Name)
	suffixLen := len(qname) - len(owner)
	if suffixLen < 0 {
		return dns.Fqdn(dname.Target)
	}
	return dns.Fqdn(qname[:suffixLen] + dname.Target)
}

// EvaluateDNAMESynthesis checks that includedCNAME (if any) is the
// CNAME a resolver would synthesize from dname for qname.
func EvaluateDNAMESynthesis(qname string, dname *dns.DNAME, includedCNAME *dns.CNAME, serversClients ServerClientSet) *DNAMEStatus {
	st := &DNAMEStatus{
		statusBase:     statusBase{Qname: qname},
		Status:         DNAMEValid,
		DNAME:          dname,
		IncludedCNAME:  includedCNAME,
		ServersClients: serversClients,
	}
	st.SynthesizedName = synthesizeCNAMETarget(qname, dname)

	if includedCNAME == nil {
		downgrade(&st.Status, DNAMEValid, DNAMEInvalid)
		st.fail(DNAMENoCNAME{})
		return st
	}

	if dns.Fqdn(includedCNAME.Target) != st.SynthesizedName {
		downgrade(&st.Status, DNAMEValid, DNAMEInvalidTarget)
		st.fail(DNAMETargetMismatch{})
	}

	if includedCNAME.Hdr.Ttl != dname.Hdr.Ttl {
		if includedCNAME.Hdr.Ttl == 0 {
			st.warn(DNAMETTLZero{})
		} else {
			st.warn(DNAMETTLMismatch{SynthesizedTTL: dname.Hdr.Ttl, IncludedTTL: includedCNAME.Hdr.Ttl})
		}
	}

	return st
}

func (s *DNAMEStatus) Serialize(consolidateClients bool, level Loglevel) *OrderedResult {
	r := &OrderedResult{}
	basic := showBasic(level, len(s.Warnings) > 0, len(s.Errors) > 0, s.Status != DNAMEValid)
	if basic {
		r.Set("description", "DNAME "+s.DNAME.Hdr.Name+" -> "+s.DNAME.Target)
	}
	if level <= LevelDebug {
		dname := &OrderedResult{}
		dname.Set("owner", s.DNAME.Hdr.Name)
		dname.Set("target", s.DNAME.Target)
		dname.Set("synthesized_cname", s.SynthesizedName)
		if s.IncludedCNAME != nil {
			dname.Set("included_cname", s.IncludedCNAME.Target)
		}
		r.Set("dname", dname)
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
