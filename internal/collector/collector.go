package collector

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/sync/singleflight"

	"github.com/zhouchenh/secDNS/internal/common"
	"github.com/zhouchenh/secDNS/internal/dnsname"
	"github.com/zhouchenh/secDNS/internal/logger"
	"github.com/zhouchenh/secDNS/pkg/dnssecproof"
)

// Collector assembles pkg/dnssecproof input types by querying a fixed
// set of upstream servers with the DNSSEC OK bit set, merging what
// each one returns into ServerClientSet-annotated evidence the way the
// spec's serialized reports expect to attribute findings to the
// servers/clients that observed them.
type Collector struct {
	Servers []*NameServer
	// Client identifies the vantage point queries were made from; left
	// constant since this collector queries from a single local host,
	// unlike a multi-resolver consensus service.
	Client string

	group singleflight.Group
}

// New builds a Collector over the given upstream servers.
func New(servers []*NameServer) *Collector {
	return &Collector{Servers: servers, Client: "collector"}
}

func (c *Collector) client() string {
	if c.Client != "" {
		return c.Client
	}
	return "collector"
}

// askOne sends a single DNSSEC-OK query for (qname, qtype) to server,
// deduplicating concurrent identical queries to the same server via
// singleflight the way internal/upstream/resolvers/cache dedupes
// concurrent misses for the same cache key.
func (c *Collector) askOne(server *NameServer, qname string, qtype uint16) (*dns.Msg, error) {
	key := server.label() + "|" + qname + "|" + strconv.Itoa(int(qtype))
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(qname), qtype)
		msg.SetEdns0(4096, true)
		return server.query(msg)
	})
	if err != nil {
		logger.Debug().Str("server", server.label()).Str("qname", qname).Err(err).Msg("collector: query failed")
		return nil, err
	}
	reply, _ := v.(*dns.Msg)
	return reply, nil
}

// QueryRRset queries every configured server for (qname, qtype),
// merging the matching answer records and any covering RRSIGs across
// servers into a single RRset with consolidated ServersClients
// evidence.
func (c *Collector) QueryRRset(qname string, qtype uint16) (*dnssecproof.RRset, error) {
	qname = dnsname.Canonicalize(qname)
	rrset := &dnssecproof.RRset{
		Name:      qname,
		Rdtype:    qtype,
		RRSIGInfo: map[*dns.RRSIG]dnssecproof.RRSIGMeta{},
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make([]error, len(c.Servers))

	for i, server := range c.Servers {
		wg.Add(1)
		go func(i int, server *NameServer) {
			defer wg.Done()
			reply, err := c.askOne(server, qname, qtype)
			if err != nil {
				errs[i] = err
				return
			}
			mu.Lock()
			defer mu.Unlock()
			c.mergeAnswer(rrset, reply, server)
		}(i, server)
	}
	wg.Wait()

	if len(rrset.Records) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("collector: no usable answer for %s %s: %w", qname, dns.TypeToString[qtype], err)
			}
		}
	}
	return rrset, nil
}

func (c *Collector) mergeAnswer(rrset *dnssecproof.RRset, reply *dns.Msg, server *NameServer) {
	if reply == nil {
		return
	}
	sc := dnssecproof.ServerClient{Server: server.label(), Client: c.client()}
	matched := common.FilterResourceRecords(reply.Answer, func(rr dns.RR) bool {
		return rr.Header().Rrtype == rrset.Rdtype && dnsname.Canonicalize(rr.Header().Name) == rrset.Name
	})
	if len(matched) > 0 {
		rrset.Records = appendUniqueRR(rrset.Records, matched...)
		rrset.TTL = matched[0].Header().Ttl
		recordServerClient(&rrset.ServersClients, sc, "")
	}
	for _, rr := range reply.Answer {
		rrsig, ok := rr.(*dns.RRSIG)
		if !ok || rrsig.TypeCovered != rrset.Rdtype {
			continue
		}
		key := findEquivalentRRSIG(rrset.RRSIGInfo, rrsig)
		meta := rrset.RRSIGInfo[key]
		meta.TTL = rrsig.Hdr.Ttl
		recordServerClient(&meta.ServersClients, sc, "")
		rrset.RRSIGInfo[key] = meta
	}
}

// findEquivalentRRSIG returns an existing key describing the same
// signature as rrsig if one is already present, so two servers
// returning byte-identical signatures merge into one map entry instead
// of two.
func findEquivalentRRSIG(m map[*dns.RRSIG]dnssecproof.RRSIGMeta, rrsig *dns.RRSIG) *dns.RRSIG {
	for existing := range m {
		if existing.Signature == rrsig.Signature && existing.KeyTag == rrsig.KeyTag && existing.SignerName == rrsig.SignerName {
			return existing
		}
	}
	return rrsig
}

func recordServerClient(set *dnssecproof.ServerClientSet, sc dnssecproof.ServerClient, client string) {
	if *set == nil {
		*set = dnssecproof.ServerClientSet{}
	}
	clients, ok := (*set)[sc]
	if !ok {
		clients = map[string]bool{}
		(*set)[sc] = clients
	}
	clients[client] = true
}

func appendUniqueRR(existing []dns.RR, add ...dns.RR) []dns.RR {
outer:
	for _, rr := range add {
		for _, have := range existing {
			if dns.IsDuplicate(have, rr) {
				continue outer
			}
		}
		existing = append(existing, rr)
	}
	return existing
}

// QueryDNSKEY fetches the DNSKEY RRset for zone and wraps each record
// with its precomputed key tags.
func (c *Collector) QueryDNSKEY(zone string) ([]*dnssecproof.DNSKEYRecord, *dnssecproof.RRset, error) {
	rrset, err := c.QueryRRset(zone, dns.TypeDNSKEY)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]*dnssecproof.DNSKEYRecord, 0, len(rrset.Records))
	for _, rr := range rrset.Records {
		dnskey, ok := rr.(*dns.DNSKEY)
		if !ok {
			continue
		}
		keys = append(keys, dnssecproof.NewDNSKEYRecord(dnskey))
	}
	return keys, rrset, nil
}

// QueryDS fetches the DS RRset for name as seen from the parent zone.
func (c *Collector) QueryDS(name string) (*dnssecproof.DSMeta, error) {
	rrset, err := c.QueryRRset(name, dns.TypeDS)
	if err != nil {
		return nil, err
	}
	return &dnssecproof.DSMeta{RRset: rrset, ServersClients: rrset.ServersClients}, nil
}

// QueryNegativeProof queries qname/qtype expecting a negative
// response, and returns the NSEC and NSEC3 records found in the
// authority section, keyed by owner name, for the caller to hand to
// NewNSECSetView/NewNSEC3SetView.
func (c *Collector) QueryNegativeProof(qname string, qtype uint16) (nsec map[string]*dnssecproof.RRset, nsec3 map[string]*dnssecproof.RRset, referral bool, err error) {
	qname = dnsname.Canonicalize(qname)
	nsec = map[string]*dnssecproof.RRset{}
	nsec3 = map[string]*dnssecproof.RRset{}

	for _, server := range c.Servers {
		reply, qerr := c.askOne(server, qname, qtype)
		if qerr != nil {
			err = qerr
			continue
		}
		if reply == nil {
			continue
		}
		if !reply.Authoritative && len(common.FilterResourceRecords(reply.Ns, func(rr dns.RR) bool { return rr.Header().Rrtype == dns.TypeNS })) > 0 {
			referral = true
		}
		sc := dnssecproof.ServerClient{Server: server.label(), Client: c.client()}
		for _, rr := range reply.Ns {
			owner := dnsname.Canonicalize(rr.Header().Name)
			switch rr.(type) {
			case *dns.NSEC:
				mergeIntoSet(nsec, owner, rr, sc)
			case *dns.NSEC3:
				mergeIntoSet(nsec3, owner, rr, sc)
			}
		}
	}
	if len(nsec) > 0 || len(nsec3) > 0 {
		err = nil
	}
	return
}

func mergeIntoSet(m map[string]*dnssecproof.RRset, owner string, rr dns.RR, sc dnssecproof.ServerClient) {
	rrset, ok := m[owner]
	if !ok {
		rrset = &dnssecproof.RRset{Name: owner, Rdtype: rr.Header().Rrtype, TTL: rr.Header().Ttl}
		m[owner] = rrset
	}
	rrset.Records = appendUniqueRR(rrset.Records, rr)
	recordServerClient(&rrset.ServersClients, sc, "")
}
