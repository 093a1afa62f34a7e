package main

import (
	"fmt"

	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/collector"
	"github.com/zhouchenh/secDNS/internal/config/profile"
	"github.com/zhouchenh/secDNS/internal/logger"
	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

// selectDNSKEY finds the key among keys that signed rrsig, preferring
// an exact KeyTag match over a pre-revocation KeyTagNoRevoke match so
// EvaluateRRSIG's revocation cross-check (rule 4) sees the more
// specific of the two when both happen to be present.
func selectDNSKEY(keys []*dnssecproof.DNSKEYRecord, rrsig *dns.RRSIG) *dnssecproof.DNSKEYRecord {
	var preRevokeMatch *dnssecproof.DNSKEYRecord
	for _, key := range keys {
		if key.KeyTag == rrsig.KeyTag {
			return key
		}
		if key.KeyTagNoRevoke == rrsig.KeyTag {
			preRevokeMatch = key
		}
	}
	return preRevokeMatch
}

// firstRRSIG returns one signature from rrset's RRSIGInfo, preferring
// the lowest KeyTag so repeated runs over the same evidence are
// deterministic even though Go map iteration is not.
func firstRRSIG(rrset *dnssecproof.RRset) *dns.RRSIG {
	var best *dns.RRSIG
	for rrsig := range rrset.RRSIGInfo {
		if best == nil || rrsig.KeyTag < best.KeyTag {
			best = rrsig
		}
	}
	return best
}

func runRRSIG(req *request, c *collector.Collector, p *profile.Profile) (*dnssecproof.OrderedResult, error) {
	qtype, err := req.qtype()
	if err != nil {
		return nil, err
	}
	refTime, err := req.referenceTime()
	if err != nil {
		return nil, err
	}
	rrset, err := c.QueryRRset(req.Qname, qtype)
	if err != nil {
		return nil, err
	}
	rrsig := firstRRSIG(rrset)
	if rrsig == nil {
		return nil, fmt.Errorf("run: no RRSIG found covering %s %s", req.Qname, req.Qtype)
	}
	keys, _, err := c.QueryDNSKEY(req.Zone)
	if err != nil {
		return nil, err
	}
	dnskey := selectDNSKEY(keys, rrsig)
	verifier := dnssecproof.DefaultVerifier{}
	unknown := unsupportedAlgorithm(verifier, p, rrsig.Algorithm)
	status := dnssecproof.EvaluateRRSIG(rrset, rrsig, dnskey, req.Zone, refTime, unknown, verifier)
	return status.Serialize(p.ConsolidateClients, p.Loglevel), nil
}

func runDS(req *request, c *collector.Collector, p *profile.Profile) (*dnssecproof.OrderedResult, error) {
	meta, err := c.QueryDS(req.Qname)
	if err != nil {
		return nil, err
	}
	if len(meta.RRset.Records) == 0 {
		return nil, fmt.Errorf("run: no DS record found for %s", req.Qname)
	}
	ds, ok := meta.RRset.Records[0].(*dns.DS)
	if !ok {
		return nil, fmt.Errorf("run: record for %s is not a DS record", req.Qname)
	}
	keys, _, err := c.QueryDNSKEY(req.Qname)
	if err != nil {
		return nil, err
	}
	var dnskey *dnssecproof.DNSKEYRecord
	for _, key := range keys {
		if key.KeyTag == ds.KeyTag || key.KeyTagNoRevoke == ds.KeyTag {
			dnskey = key
			break
		}
	}
	verifier := dnssecproof.DefaultVerifier{}
	unknown := unsupportedDigestAlgorithm(verifier, p, ds.DigestType)
	status := dnssecproof.EvaluateDS(ds, meta, dnskey, unknown, verifier)
	return status.Serialize(p.ConsolidateClients, p.Loglevel), nil
}

func runNSEC(req *request, c *collector.Collector, p *profile.Profile) (*dnssecproof.OrderedResult, error) {
	qtype := dns.TypeA
	if req.Mode == "nsec-noanswer" {
		t, err := req.qtype()
		if err != nil {
			return nil, err
		}
		qtype = t
	}
	nsec, _, referral, err := c.QueryNegativeProof(req.Qname, qtype)
	if err != nil {
		return nil, err
	}
	view := dnssecproof.NewNSECSetView(nsec, referral)

	switch req.Mode {
	case "nsec-nxdomain":
		return dnssecproof.EvaluateNSECNXDOMAIN(req.Qname, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	case "nsec-wildcard":
		return dnssecproof.EvaluateNSECWildcard(req.Qname, req.WildcardName, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	case "nsec-noanswer":
		return dnssecproof.EvaluateNSECNoAnswer(req.Qname, qtype, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	default:
		return nil, fmt.Errorf("run: unknown NSEC mode %q", req.Mode)
	}
}

func runNSEC3(req *request, c *collector.Collector, p *profile.Profile) (*dnssecproof.OrderedResult, error) {
	qtype := dns.TypeA
	if req.Mode == "nsec3-noanswer" {
		t, err := req.qtype()
		if err != nil {
			return nil, err
		}
		qtype = t
	}
	_, nsec3, referral, err := c.QueryNegativeProof(req.Qname, qtype)
	if err != nil {
		return nil, err
	}
	view := dnssecproof.NewNSEC3SetView(nsec3, req.Zone, referral)

	switch req.Mode {
	case "nsec3-nxdomain":
		return dnssecproof.EvaluateNSEC3NXDOMAIN(req.Qname, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	case "nsec3-wildcard":
		return dnssecproof.EvaluateNSEC3Wildcard(req.Qname, req.WildcardName, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	case "nsec3-noanswer":
		return dnssecproof.EvaluateNSEC3NoAnswer(req.Qname, qtype, req.Zone, view).Serialize(p.ConsolidateClients, p.Loglevel), nil
	default:
		return nil, fmt.Errorf("run: unknown NSEC3 mode %q", req.Mode)
	}
}

func runDNAME(req *request, c *collector.Collector, p *profile.Profile) (*dnssecproof.OrderedResult, error) {
	dnameRRset, err := c.QueryRRset(req.Zone, dns.TypeDNAME)
	if err != nil {
		return nil, err
	}
	if len(dnameRRset.Records) == 0 {
		return nil, fmt.Errorf("run: no DNAME record found at %s", req.Zone)
	}
	dname := dnameRRset.Records[0].(*dns.DNAME)

	cnameRRset, err := c.QueryRRset(req.Qname, dns.TypeCNAME)
	if err != nil {
		return nil, err
	}
	var cname *dns.CNAME
	if len(cnameRRset.Records) > 0 {
		cname, _ = cnameRRset.Records[0].(*dns.CNAME)
	}
	status := dnssecproof.EvaluateDNAMESynthesis(req.Qname, dname, cname, cnameRRset.ServersClients)
	return status.Serialize(p.ConsolidateClients, p.Loglevel), nil
}

// run dispatches req to the evaluator its mode names, performing
// whatever collection that evaluator needs first. Every mode ends in
// a pkg/dnssecproof Serialize() call: run never touches evaluator
// internals beyond constructing arguments and reading back a verdict.
func run(req *request) (*dnssecproof.OrderedResult, error) {
	p, err := req.resolveProfile()
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(logger.Level(p.Loglevel))
	c, err := req.collector()
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case "rrsig":
		return runRRSIG(req, c, p)
	case "ds":
		return runDS(req, c, p)
	case "nsec-nxdomain", "nsec-wildcard", "nsec-noanswer":
		return runNSEC(req, c, p)
	case "nsec3-nxdomain", "nsec3-wildcard", "nsec3-noanswer":
		return runNSEC3(req, c, p)
	case "dname":
		return runDNAME(req, c, p)
	default:
		return nil, fmt.Errorf("run: unknown mode %q", req.Mode)
	}
}
