package dnssecproof

import (
	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/dnsname"
)

// NSECSetView is the read-only collaborator the NSEC evaluator consumes.
// It never exposes the underlying []dns.RR slice directly so the
// evaluator cannot accidentally depend on collection order; every
// method either returns a fresh map/slice or a projected copy.
type NSECSetView interface {
	// Covers returns the owner name of every NSEC record whose
	// (owner, next) interval covers name. Ordinarily exactly one NSEC
	// does; more than one means the caller handed over an internally
	// inconsistent set.
	Covers(name string) map[string]bool
	// RRsetsByOwner returns, for each NSEC owner, the RRset carrying
	// that single NSEC record (so callers can read its TTL/metadata
	// through the same RRset type DS/RRSIG evaluation uses).
	RRsetsByOwner() map[string]*RRset
	// RdtypeExistsInBitmap reports whether owner's NSEC type bitmap
	// includes rdtype.
	RdtypeExistsInBitmap(owner string, rdtype uint16) bool
	// Project returns a view restricted to the given owners.
	Project(owners ...string) NSECSetView
	// ServersClients merges the server/client provenance of every
	// record in the view.
	ServersClients() ServerClientSet
	// Referral reports whether this view was collected to prove a
	// referral (as opposed to a NXDOMAIN/NODATA answer).
	Referral() bool
}

type nsecRecord struct {
	rr             *dns.NSEC
	ttl            uint32
	serversClients ServerClientSet
}

// nsecSetView is the sole NSECSetView implementation. It holds its
// records sorted by canonical owner name so iteration order is
// deterministic and Project can binary-search if it ever needs to.
type nsecSetView struct {
	owners   []string
	byOwner  map[string]*nsecRecord
	referral bool
}

// NewNSECSetView builds an NSECSetView from a flat set of NSEC RRsets
// keyed by owner. It copies nothing mutable out of recs beyond what it
// needs, and the returned view is safe to share across goroutines.
func NewNSECSetView(recs map[string]*RRset, referral bool) NSECSetView {
	v := &nsecSetView{byOwner: make(map[string]*nsecRecord, len(recs)), referral: referral}
	for owner, set := range recs {
		if set == nil {
			continue
		}
		for _, rr := range set.Records {
			nsec, ok := rr.(*dns.NSEC)
			if !ok {
				continue
			}
			canon := dnsname.Canonicalize(owner)
			v.byOwner[canon] = &nsecRecord{rr: nsec, ttl: set.TTL, serversClients: set.ServersClients}
			break
		}
	}
	v.owners = make([]string, 0, len(v.byOwner))
	for owner := range v.byOwner {
		v.owners = append(v.owners, owner)
	}
	dnsname.SortNames(v.owners)
	return v
}

func (v *nsecSetView) Covers(name string) map[string]bool {
	name = dnsname.Canonicalize(name)
	out := map[string]bool{}
	for _, owner := range v.owners {
		rec := v.byOwner[owner]
		next := dnsname.Canonicalize(rec.rr.NextDomain)
		if dnsname.Covers(owner, next, name) {
			out[owner] = true
		}
	}
	return out
}

func (v *nsecSetView) RRsetsByOwner() map[string]*RRset {
	out := make(map[string]*RRset, len(v.owners))
	for _, owner := range v.owners {
		rec := v.byOwner[owner]
		out[owner] = &RRset{
			Name:           owner,
			Rdtype:         dns.TypeNSEC,
			TTL:            rec.ttl,
			Records:        []dns.RR{rec.rr},
			ServersClients: rec.serversClients,
		}
	}
	return out
}

func (v *nsecSetView) RdtypeExistsInBitmap(owner string, rdtype uint16) bool {
	rec, ok := v.byOwner[dnsname.Canonicalize(owner)]
	if !ok {
		return false
	}
	return bitmapHasType(rec.rr.TypeBitMap, rdtype)
}

func (v *nsecSetView) Project(owners ...string) NSECSetView {
	p := &nsecSetView{byOwner: make(map[string]*nsecRecord, len(owners)), referral: v.referral}
	for _, owner := range owners {
		canon := dnsname.Canonicalize(owner)
		if rec, ok := v.byOwner[canon]; ok {
			p.byOwner[canon] = rec
		}
	}
	p.owners = make([]string, 0, len(p.byOwner))
	for owner := range p.byOwner {
		p.owners = append(p.owners, owner)
	}
	dnsname.SortNames(p.owners)
	return p
}

func (v *nsecSetView) ServersClients() ServerClientSet {
	merged := ServerClientSet{}
	for _, owner := range v.owners {
		mergeServersClients(merged, v.byOwner[owner].serversClients)
	}
	return merged
}

func (v *nsecSetView) Referral() bool { return v.referral }

func bitmapHasType(bitmap []uint16, rdtype uint16) bool {
	for _, t := range bitmap {
		if t == rdtype {
			return true
		}
	}
	return false
}

func mergeServersClients(dst, src ServerClientSet) {
	for sc, ids := range src {
		existing, ok := dst[sc]
		if !ok {
			existing = map[string]bool{}
			dst[sc] = existing
		}
		for id := range ids {
			existing[id] = true
		}
	}
}
