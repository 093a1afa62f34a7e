package dnssecproof

import (
	"testing"

	"github.com/miekg/dns"
)

func makeDNAME(owner, target string, ttl uint32) *dns.DNAME {
	return &dns.DNAME{
		Hdr:    dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeDNAME, Class: dns.ClassINET, Ttl: ttl},
		Target: dns.Fqdn(target),
	}
}

func makeCNAME(owner, target string, ttl uint32) *dns.CNAME {
	return &dns.CNAME{
		Hdr:    dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: ttl},
		Target: dns.Fqdn(target),
	}
}

func TestDNAMESynthesisValid(t *testing.T) {
	dname := makeDNAME("b.example.", "c.", 300)
	cname := makeCNAME("a.b.example.", "a.c.", 300)

	st := EvaluateDNAMESynthesis("a.b.example.", dname, cname, nil)

	if st.Status != DNAMEValid {
		t.Fatalf("status = %v, want VALID, errors=%v", st.Status, st.Errors)
	}
}

// TestDNAMETargetMismatch is spec.md section 8 scenario 8.
func TestDNAMETargetMismatch(t *testing.T) {
	dname := makeDNAME("b.example.", "c.", 300)
	cname := makeCNAME("a.b.example.", "a.c.different.", 300)

	st := EvaluateDNAMESynthesis("a.b.example.", dname, cname, nil)

	if st.Status != DNAMEInvalidTarget {
		t.Fatalf("status = %v, want INVALID_TARGET", st.Status)
	}
	if len(st.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly [DNAMETargetMismatch]", st.Errors)
	}
	if _, ok := st.Errors[0].(DNAMETargetMismatch); !ok {
		t.Fatalf("errors[0] = %T, want DNAMETargetMismatch", st.Errors[0])
	}
	if len(st.Warnings) != 0 {
		t.Fatalf("warnings = %v, want none", st.Warnings)
	}
}

func TestDNAMENoCNAME(t *testing.T) {
	dname := makeDNAME("b.example.", "c.", 300)

	st := EvaluateDNAMESynthesis("a.b.example.", dname, nil, nil)

	if st.Status != DNAMEInvalid {
		t.Fatalf("status = %v, want INVALID", st.Status)
	}
	if _, ok := st.Errors[0].(DNAMENoCNAME); !ok {
		t.Fatalf("errors[0] = %T, want DNAMENoCNAME", st.Errors[0])
	}
}

func TestDNAMETTLZeroWarns(t *testing.T) {
	dname := makeDNAME("b.example.", "c.", 300)
	cname := makeCNAME("a.b.example.", "a.c.", 0)

	st := EvaluateDNAMESynthesis("a.b.example.", dname, cname, nil)

	if st.Status != DNAMEValid {
		t.Fatalf("status = %v, want VALID", st.Status)
	}
	if len(st.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly [DNAMETTLZero]", st.Warnings)
	}
	if _, ok := st.Warnings[0].(DNAMETTLZero); !ok {
		t.Fatalf("warnings[0] = %T, want DNAMETTLZero", st.Warnings[0])
	}
}
