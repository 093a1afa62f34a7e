package dnssecproof

import (
	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/dnsname"
)

// NSEC3SetView extends NSECSetView over hashed owner names: Covers and
// RdtypeExistsInBitmap operate on digest names (the NSEC3 owner, e.g.
// "2vptu5timamqttgl4luu9kg21e0aor3s.example."), not plain names.
type NSEC3SetView interface {
	NSECSetView

	// NSEC3Params groups owners by the (salt, algorithm, iterations)
	// they were computed with, since a response may legitimately mix
	// records computed under more than one parameter set during a
	// rollover.
	NSEC3Params() map[NSEC3Params]map[string]bool
	// DigestNameForNSEC3 hashes name under origin with the given
	// parameters, returning the resulting owner name. ok is false if
	// algorithm is not one this build can hash.
	DigestNameForNSEC3(name, origin string, salt string, algorithm uint8, iterations uint16) (string, bool)
	// ClosestEncloser walks qname's ancestors up to and including
	// origin, returning, for every ancestor with at least one matching
	// NSEC3 owner, the set of owners that matched it.
	ClosestEncloser(qname, origin string) map[string]map[string]bool
	// AlgorithmSupport partitions the hash algorithms present in the
	// view into ones this build can evaluate and ones it cannot.
	AlgorithmSupport() (valid map[uint8]bool, invalid map[uint8]bool)
	// NameForNSEC3Next returns the full (digest + origin) next owner
	// name of the NSEC3 record at owner, or "" if owner is unknown.
	NameForNSEC3Next(owner string) string
}

// supportedNSEC3Algorithms mirrors what miekg/dns's NSEC3 Cover/Match
// can actually hash with (RFC 5155 section 8.1 only ever defined SHA-1).
var supportedNSEC3Algorithms = map[uint8]bool{
	dns.SHA1: true,
}

type nsec3Record struct {
	rr             *dns.NSEC3
	origin         string
	ttl            uint32
	serversClients ServerClientSet
}

type nsec3SetView struct {
	owners   []string
	byOwner  map[string]*nsec3Record
	referral bool
}

// NewNSEC3SetView builds an NSEC3SetView from a flat set of NSEC3
// RRsets keyed by owner, and the zone each record was collected
// relative to (needed to turn a bare hash label back into a full
// owner/next name).
func NewNSEC3SetView(recs map[string]*RRset, origin string, referral bool) NSEC3SetView {
	origin = dnsname.Canonicalize(origin)
	v := &nsec3SetView{byOwner: make(map[string]*nsec3Record, len(recs)), referral: referral}
	for owner, set := range recs {
		if set == nil {
			continue
		}
		for _, rr := range set.Records {
			n3, ok := rr.(*dns.NSEC3)
			if !ok {
				continue
			}
			canon := dnsname.Canonicalize(owner)
			v.byOwner[canon] = &nsec3Record{rr: n3, origin: origin, ttl: set.TTL, serversClients: set.ServersClients}
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

// Covers expects name to already be a digest name (the output of
// DigestNameForNSEC3), not a plain domain name: unlike NSEC, an NSEC3
// interval is ordered on hash values, and the caller is responsible for
// hashing under whichever parameter group it is probing. Comparing the
// already-hashed labels with plain canonical-name ordering gives the
// same result as comparing their raw digest bytes, since a digest
// label is just another DNS label once computed.
func (v *nsec3SetView) Covers(name string) map[string]bool {
	name = dnsname.Canonicalize(name)
	out := map[string]bool{}
	for _, owner := range v.owners {
		next := v.NameForNSEC3Next(owner)
		if dnsname.Covers(owner, next, name) {
			out[owner] = true
		}
	}
	return out
}

func (v *nsec3SetView) RRsetsByOwner() map[string]*RRset {
	out := make(map[string]*RRset, len(v.owners))
	for _, owner := range v.owners {
		rec := v.byOwner[owner]
		out[owner] = &RRset{
			Name:           owner,
			Rdtype:         dns.TypeNSEC3,
			TTL:            rec.ttl,
			Records:        []dns.RR{rec.rr},
			ServersClients: rec.serversClients,
		}
	}
	return out
}

func (v *nsec3SetView) RdtypeExistsInBitmap(owner string, rdtype uint16) bool {
	rec, ok := v.byOwner[dnsname.Canonicalize(owner)]
	if !ok {
		return false
	}
	return bitmapHasType(rec.rr.TypeBitMap, rdtype)
}

func (v *nsec3SetView) Project(owners ...string) NSECSetView {
	p := &nsec3SetView{byOwner: make(map[string]*nsec3Record, len(owners)), referral: v.referral}
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

func (v *nsec3SetView) ServersClients() ServerClientSet {
	merged := ServerClientSet{}
	for _, owner := range v.owners {
		mergeServersClients(merged, v.byOwner[owner].serversClients)
	}
	return merged
}

func (v *nsec3SetView) Referral() bool { return v.referral }

func (v *nsec3SetView) NSEC3Params() map[NSEC3Params]map[string]bool {
	out := map[NSEC3Params]map[string]bool{}
	for _, owner := range v.owners {
		rr := v.byOwner[owner].rr
		p := NSEC3Params{Salt: rr.Salt, Algorithm: rr.Hash, Iterations: rr.Iterations}
		set, ok := out[p]
		if !ok {
			set = map[string]bool{}
			out[p] = set
		}
		set[owner] = true
	}
	return out
}

func (v *nsec3SetView) DigestNameForNSEC3(name, origin string, salt string, algorithm uint8, iterations uint16) (string, bool) {
	if !supportedNSEC3Algorithms[algorithm] {
		return "", false
	}
	hash := dns.HashName(name, algorithm, iterations, salt)
	if hash == "" {
		return "", false
	}
	return dnsname.Canonicalize(hash + "." + dnsname.Canonicalize(origin)), true
}

// ClosestEncloser walks qname's ancestor chain, including origin
// itself, from most to least specific. Per validate.go's
// closestEncloserNSEC3, the first ancestor with a matching NSEC3 is the
// closest encloser; this returns every matching ancestor instead of
// just the first so the caller can detect and flag the ambiguous case
// of more than one matching ancestor (which should not occur in a
// consistent proof but is not ruled out mechanically).
func (v *nsec3SetView) ClosestEncloser(qname, origin string) map[string]map[string]bool {
	qname = dnsname.Canonicalize(qname)
	origin = dnsname.Canonicalize(origin)
	params := v.NSEC3Params()
	out := map[string]map[string]bool{}
	for _, ancestor := range ancestorChain(qname, origin) {
		for p := range params {
			digest, ok := v.DigestNameForNSEC3(ancestor, origin, p.Salt, p.Algorithm, p.Iterations)
			if !ok {
				continue
			}
			if _, ok := v.byOwner[digest]; !ok {
				continue
			}
			set, ok := out[ancestor]
			if !ok {
				set = map[string]bool{}
				out[ancestor] = set
			}
			set[digest] = true
		}
	}
	return out
}

func (v *nsec3SetView) AlgorithmSupport() (valid map[uint8]bool, invalid map[uint8]bool) {
	valid, invalid = map[uint8]bool{}, map[uint8]bool{}
	for _, owner := range v.owners {
		alg := v.byOwner[owner].rr.Hash
		if supportedNSEC3Algorithms[alg] {
			valid[alg] = true
		} else {
			invalid[alg] = true
		}
	}
	return valid, invalid
}

func (v *nsec3SetView) NameForNSEC3Next(owner string) string {
	rec, ok := v.byOwner[dnsname.Canonicalize(owner)]
	if !ok {
		return ""
	}
	return dnsname.Canonicalize(rec.rr.NextDomain + "." + rec.origin)
}

// ancestorChain returns qname, its parent, its parent's parent, and so
// on up to and including origin.
func ancestorChain(qname, origin string) []string {
	var chain []string
	name := qname
	for {
		chain = append(chain, name)
		if name == origin || name == "." {
			break
		}
		name = dnsname.Parent(name)
	}
	return chain
}
