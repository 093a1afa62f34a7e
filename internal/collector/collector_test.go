package collector

import (
	"testing"

	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

func aRecord(owner, ip string, ttl uint32) *dns.A {
	return &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(owner), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   []byte{192, 0, 2, 1},
	}
}

func TestMergeAnswerAccumulatesServers(t *testing.T) {
	c := New([]*NameServer{{Label: "ns1"}, {Label: "ns2"}})
	rrset := &dnssecproof.RRset{Name: "example.", Rdtype: dns.TypeA, RRSIGInfo: map[*dns.RRSIG]dnssecproof.RRSIGMeta{}}

	reply1 := &dns.Msg{Answer: []dns.RR{aRecord("example.", "192.0.2.1", 300)}}
	c.mergeAnswer(rrset, reply1, c.Servers[0])

	reply2 := &dns.Msg{Answer: []dns.RR{aRecord("example.", "192.0.2.1", 300)}}
	c.mergeAnswer(rrset, reply2, c.Servers[1])

	if len(rrset.Records) != 1 {
		t.Fatalf("Records = %v, want exactly one deduplicated record", rrset.Records)
	}
	if len(rrset.ServersClients) != 2 {
		t.Fatalf("ServersClients = %v, want both ns1 and ns2", rrset.ServersClients)
	}
}

func TestMergeAnswerIgnoresOtherNames(t *testing.T) {
	c := New([]*NameServer{{Label: "ns1"}})
	rrset := &dnssecproof.RRset{Name: "example.", Rdtype: dns.TypeA, RRSIGInfo: map[*dns.RRSIG]dnssecproof.RRSIGMeta{}}

	reply := &dns.Msg{Answer: []dns.RR{aRecord("other.example.", "192.0.2.1", 300)}}
	c.mergeAnswer(rrset, reply, c.Servers[0])

	if len(rrset.Records) != 0 {
		t.Fatalf("Records = %v, want none (name mismatch)", rrset.Records)
	}
}

func TestAppendUniqueRR(t *testing.T) {
	a := aRecord("example.", "192.0.2.1", 300)
	b := aRecord("example.", "192.0.2.1", 300)
	merged := appendUniqueRR(nil, a)
	merged = appendUniqueRR(merged, b)
	if len(merged) != 1 {
		t.Fatalf("merged = %v, want one deduplicated record", merged)
	}
}
