package dnssecproof

import (
	"github.com/miekg/dns"

	"github.com/zhouchenh/secDNS/internal/dnsname"
)

// NSEC3ValidationStatus is the verdict shared by every NSEC3 proof
// variant.
type NSEC3ValidationStatus int

const (
	NSEC3Valid NSEC3ValidationStatus = iota
	NSEC3Invalid
)

func (s NSEC3ValidationStatus) String() string {
	if s == NSEC3Valid {
		return "VALID"
	}
	return "INVALID"
}

// NSEC3StatusKind distinguishes the three proof shapes an NSEC3 chain
// can establish, mirroring NSECStatusKind.
type NSEC3StatusKind int

const (
	NSEC3KindNXDOMAIN NSEC3StatusKind = iota
	NSEC3KindWildcard
	NSEC3KindNoAnswer
)

// NSEC3Status is the result of one NSEC3-based denial proof.
type NSEC3Status struct {
	statusBase
	Kind   NSEC3StatusKind
	Status NSEC3ValidationStatus
	Origin string
	Rdtype uint16 // NoAnswer only
	Referral bool // NoAnswer only

	WildcardName        string
	ClosestEncloser     string
	NextClosestEncloser string
	InferredFromWildcard bool // Wildcard only: closest encloser had no direct NSEC3 match

	OptOut bool // NoAnswer/DS only

	NameDigestMap map[string]map[NSEC3Params]string

	MatchingQname    string
	MatchingWildcard string

	ValidAlgorithms   map[uint8]bool
	InvalidAlgorithms map[uint8]bool

	View NSEC3SetView
}

func (st *NSEC3Status) recordAlgorithmSupport(view NSEC3SetView) {
	st.ValidAlgorithms, st.InvalidAlgorithms = view.AlgorithmSupport()
}

// reportUnsupportedAlgorithm appends UnsupportedNSEC3Algorithm at most
// once, for the lowest invalid algorithm number present, when the view
// carries any record this build cannot hash with.
func (st *NSEC3Status) reportUnsupportedAlgorithm() {
	if len(st.InvalidAlgorithms) == 0 {
		return
	}
	var alg uint8
	first := true
	for a := range st.InvalidAlgorithms {
		if first || a < alg {
			alg = a
			first = false
		}
	}
	downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
	st.fail(UnsupportedNSEC3Algorithm{Algorithm: alg})
}

// digestAllParams hashes name under origin for every parameter group
// in view, recording results into st.NameDigestMap and returning the
// owners of the NSEC3 records whose intervals cover any resulting digest.
func digestAllParams(view NSEC3SetView, name, origin string, st *NSEC3Status) map[string]bool {
	covering := map[string]bool{}
	digests := map[NSEC3Params]string{}
	for params := range view.NSEC3Params() {
		digest, ok := view.DigestNameForNSEC3(name, origin, params.Salt, params.Algorithm, params.Iterations)
		if !ok {
			continue
		}
		digests[params] = digest
		for owner := range view.Covers(digest) {
			covering[owner] = true
		}
	}
	if st.NameDigestMap == nil {
		st.NameDigestMap = map[string]map[NSEC3Params]string{}
	}
	st.NameDigestMap[name] = digests
	return covering
}

// EvaluateNSEC3NXDOMAIN proves that qname does not exist.
func EvaluateNSEC3NXDOMAIN(qname, origin string, view NSEC3SetView) *NSEC3Status {
	qname, origin = dnsname.Canonicalize(qname), dnsname.Canonicalize(origin)
	st := &NSEC3Status{
		statusBase: statusBase{Qname: qname},
		Kind:       NSEC3KindNXDOMAIN,
		Status:     NSEC3Valid,
		Origin:     origin,
	}
	st.recordAlgorithmSupport(view)

	encloserMatches := view.ClosestEncloser(qname, origin)
	encloser := firstClosestEncloser(qname, origin, encloserMatches)

	var coveringNextCloser, coveringWildcard map[string]bool
	if encloser != "" {
		st.ClosestEncloser = encloser
		nextCloserLabels := dnsname.LabelCount(encloser) + 1
		st.NextClosestEncloser = dnsname.SuffixLabels(qname, nextCloserLabels)
		st.WildcardName = dnsname.Wildcard(encloser)

		coveringNextCloser = digestAllParams(view, st.NextClosestEncloser, origin, st)
		coveringWildcard = digestAllParams(view, st.WildcardName, origin, st)
	}

	hasValidAlg := len(st.ValidAlgorithms) > 0

	if encloser == "" {
		downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
		if hasValidAlg || len(st.InvalidAlgorithms) == 0 {
			st.fail(NoClosestEncloserNameError{Sname: qname})
		}
	} else if hasValidAlg {
		if len(coveringNextCloser) == 0 {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(NextClosestEncloserNotCoveredNameError{NextClosestEncloser: st.NextClosestEncloser})
		}
		if len(coveringWildcard) == 0 {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(WildcardNotCoveredNSEC3{Wildcard: st.WildcardName})
		}
	}
	st.reportUnsupportedAlgorithm()

	if st.Status == NSEC3Valid {
		owners := unionOwners(encloserMatches[encloser], coveringNextCloser, coveringWildcard)
		st.View = view.Project(owners...).(NSEC3SetView)
	} else {
		st.View = view.Project(allOwners(view)...).(NSEC3SetView)
	}
	return st
}

// firstClosestEncloser returns the longest-matching ancestor present in
// matches, i.e. the one nearest to qname.
func firstClosestEncloser(qname, origin string, matches map[string]map[string]bool) string {
	for _, ancestor := range ancestorChain(qname, origin) {
		if ancestor == qname {
			continue
		}
		if len(matches[ancestor]) > 0 {
			return ancestor
		}
	}
	return ""
}

// EvaluateNSEC3Wildcard proves that the answer for qname was produced
// by expanding wildcardName.
func EvaluateNSEC3Wildcard(qname, wildcardName, origin string, view NSEC3SetView) *NSEC3Status {
	qname, origin = dnsname.Canonicalize(qname), dnsname.Canonicalize(origin)
	wildcardName = dnsname.Canonicalize(wildcardName)
	st := &NSEC3Status{
		statusBase:   statusBase{Qname: qname},
		Kind:         NSEC3KindWildcard,
		Status:       NSEC3Valid,
		Origin:       origin,
		WildcardName: wildcardName,
	}
	st.recordAlgorithmSupport(view)

	encloserMatches := view.ClosestEncloser(qname, origin)
	encloser := firstClosestEncloser(qname, origin, encloserMatches)
	if encloser == "" {
		// The wildcard owner names its own parent; when the view has
		// no direct NSEC3 hit for it, synthesize it rather than
		// failing the proof outright.
		encloser = dnsname.Parent(wildcardName)
		st.InferredFromWildcard = true
	}
	st.ClosestEncloser = encloser
	nextCloserLabels := dnsname.LabelCount(encloser) + 1
	st.NextClosestEncloser = dnsname.SuffixLabels(qname, nextCloserLabels)

	coveringNextCloser := digestAllParams(view, st.NextClosestEncloser, origin, st)
	coveringWildcard := digestAllParams(view, wildcardName, origin, st)

	hasValidAlg := len(st.ValidAlgorithms) > 0
	if hasValidAlg {
		if len(coveringNextCloser) == 0 {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(NextClosestEncloserNotCoveredWildcardAnswer{NextClosestEncloser: st.NextClosestEncloser})
		}
		if len(coveringWildcard) > 0 {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(WildcardCoveredAnswerNSEC3{NextClosestEncloser: st.NextClosestEncloser})
		}
	}
	st.reportUnsupportedAlgorithm()

	if st.Status == NSEC3Valid {
		owners := unionOwners(encloserMatches[st.ClosestEncloser], coveringNextCloser)
		st.View = view.Project(owners...).(NSEC3SetView)
	} else {
		st.View = view.Project(allOwners(view)...).(NSEC3SetView)
	}
	return st
}

// EvaluateNSEC3NoAnswer proves NODATA: qname exists but rdtype does
// not, or (for rdtype=DS) an opt-out delegation covers it.
func EvaluateNSEC3NoAnswer(qname string, rdtype uint16, origin string, view NSEC3SetView) *NSEC3Status {
	qname, origin = dnsname.Canonicalize(qname), dnsname.Canonicalize(origin)
	st := &NSEC3Status{
		statusBase: statusBase{Qname: qname},
		Kind:       NSEC3KindNoAnswer,
		Status:     NSEC3Valid,
		Origin:     origin,
		Rdtype:     rdtype,
		Referral:   view.Referral(),
	}
	st.recordAlgorithmSupport(view)

	// Recorded for NameDigestMap bookkeeping only: the decision below
	// always keys coverage off the next closer name, per RFC 5155
	// section 8.3/8.4, not off qname's own digest.
	digestAllParams(view, qname, origin, st)
	matchingQname := firstOwner(coveringQnameDirect(view, qname, origin, st))
	st.MatchingQname = matchingQname

	var hasRdtype, hasNS, hasDS, hasSOA, hasCNAME bool
	if matchingQname != "" {
		hasRdtype = view.RdtypeExistsInBitmap(matchingQname, rdtype)
		hasNS = view.RdtypeExistsInBitmap(matchingQname, dns.TypeNS)
		hasDS = view.RdtypeExistsInBitmap(matchingQname, dns.TypeDS)
		hasSOA = view.RdtypeExistsInBitmap(matchingQname, dns.TypeSOA)
		hasCNAME = view.RdtypeExistsInBitmap(matchingQname, dns.TypeCNAME)
	}

	var encloser, nextCloser string
	var coveringNextCloser map[string]bool
	if matchingQname == "" {
		encloserMatches := view.ClosestEncloser(qname, origin)
		encloser = firstClosestEncloser(qname, origin, encloserMatches)
		if encloser == "" {
			// No ancestor between qname and the zone apex has a direct
			// NSEC3 hit; the apex doesn't need one, since its existence
			// is already established by virtue of being the zone this
			// proof is evaluated against.
			encloser = origin
		}
		nextCloserLabels := dnsname.LabelCount(encloser) + 1
		nextCloser = dnsname.SuffixLabels(qname, nextCloserLabels)
		coveringNextCloser = digestAllParams(view, nextCloser, origin, st)
	}

	switch {
	case matchingQname != "":
		if rdtype == dns.TypeDS || st.Referral {
			if !hasNS {
				downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
				st.fail(ReferralWithoutNSBitNSEC3{Sname: qname})
			}
			if hasDS {
				downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
				st.fail(ReferralWithDSBitNSEC3{Sname: qname})
			}
			if hasSOA {
				downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
				st.fail(ReferralWithSOABitNSEC3{Sname: qname})
			}
		} else if hasRdtype || hasCNAME {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(StypeInBitmapNoDataNSEC3{Sname: qname, Stype: dns.TypeToString[rdtype]})
		}

	case rdtype == dns.TypeDS && optOutCovers(view, coveringNextCloser):
		st.OptOut = true
		st.ClosestEncloser = encloser
		st.NextClosestEncloser = nextCloser

	default:
		wildcard := dnsname.Wildcard(encloser)
		matchingWildcard := firstOwner(coveringQnameDirect(view, wildcard, origin, st))
		if matchingWildcard != "" {
			st.MatchingWildcard = matchingWildcard
			st.ClosestEncloser = encloser
			st.NextClosestEncloser = nextCloser

			if len(coveringNextCloser) == 0 {
				downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
				st.fail(NextClosestEncloserNotCoveredWildcardNoData{NextClosestEncloser: st.NextClosestEncloser})
			}
			if view.RdtypeExistsInBitmap(matchingWildcard, rdtype) {
				downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
				st.fail(StypeInBitmapWildcardNoDataNSEC3{Sname: wildcard, Stype: dns.TypeToString[rdtype]})
			}
		} else if rdtype == dns.TypeDS {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(NoNSEC3MatchingSnameDSNoData{Sname: qname})
		} else {
			downgrade(&st.Status, NSEC3Valid, NSEC3Invalid)
			st.fail(NoNSEC3MatchingSnameNoData{Sname: qname})
		}
	}
	st.reportUnsupportedAlgorithm()

	if st.Status == NSEC3Valid {
		var owners []string
		if matchingQname != "" {
			owners = append(owners, matchingQname)
		} else {
			owners = append(owners, sortedOwnerSlice(coveringNextCloser)...)
		}
		if st.MatchingWildcard != "" {
			owners = append(owners, st.MatchingWildcard)
		}
		st.View = view.Project(owners...).(NSEC3SetView)
	} else {
		st.View = view.Project(allOwners(view)...).(NSEC3SetView)
	}
	return st
}

// coveringQnameDirect hashes name under every parameter group and
// returns the set of owners whose digest matches exactly (a direct
// NSEC3 hit, not merely a covering interval).
func coveringQnameDirect(view NSEC3SetView, name, origin string, st *NSEC3Status) map[string]bool {
	if name == "" {
		return nil
	}
	matches := map[string]bool{}
	rrsets := view.RRsetsByOwner()
	for params := range view.NSEC3Params() {
		digest, ok := view.DigestNameForNSEC3(name, origin, params.Salt, params.Algorithm, params.Iterations)
		if !ok {
			continue
		}
		if _, ok := rrsets[digest]; ok {
			matches[digest] = true
		}
	}
	return matches
}

// optOutCovers reports whether any owner in coveringOwners has the
// opt-out flag set.
func optOutCovers(view NSEC3SetView, coveringOwners map[string]bool) bool {
	rrsets := view.RRsetsByOwner()
	for owner := range coveringOwners {
		set, ok := rrsets[owner]
		if !ok || len(set.Records) == 0 {
			continue
		}
		n3, ok := set.Records[0].(*dns.NSEC3)
		if !ok {
			continue
		}
		if n3.Flags&1 != 0 {
			return true
		}
	}
	return false
}

func (s *NSEC3Status) description() string {
	switch s.Kind {
	case NSEC3KindNXDOMAIN:
		return "NSEC3 record(s) proving the non-existence (NXDOMAIN) of " + s.Qname
	case NSEC3KindWildcard:
		return "NSEC3 record(s) proving the wildcard expansion of " + s.Qname
	default:
		return "NSEC3 record(s) proving non-existence (NODATA) of " + s.Qname + "/" + dns.TypeToString[s.Rdtype]
	}
}

func (s *NSEC3Status) Serialize(consolidateClients bool, level Loglevel) *OrderedResult {
	r := &OrderedResult{}
	basic := showBasic(level, len(s.Warnings) > 0, len(s.Errors) > 0, s.Status != NSEC3Valid)
	if basic {
		r.Set("description", s.description())
	}
	if level <= LevelDebug {
		rrsets := s.View.RRsetsByOwner()
		owners := allOwners(s.View)
		nsec3 := make([]*OrderedResult, 0, len(owners))
		for _, owner := range owners {
			set := rrsets[owner]
			entryResult := &OrderedResult{}
			entryResult.Set("owner", owner)
			if n, ok := set.Records[0].(*dns.NSEC3); ok {
				entryResult.Set("next", s.View.NameForNSEC3Next(owner))
				entryResult.Set("optout", n.Flags&1 != 0)
			}
			nsec3 = append(nsec3, entryResult)
		}
		r.Set("nsec3", nsec3)

		meta := &OrderedResult{}
		meta.Set("qname", s.Qname)
		meta.Set("closest_encloser", s.ClosestEncloser)
		meta.Set("next_closest_encloser", s.NextClosestEncloser)
		if s.Kind != NSEC3KindNoAnswer {
			meta.Set("wildcard", s.WildcardName)
		}
		if s.Kind == NSEC3KindWildcard {
			meta.Set("inferred_from_wildcard", s.InferredFromWildcard)
		}
		if s.Kind == NSEC3KindNoAnswer && s.Rdtype == dns.TypeDS {
			meta.Set("opt_out", s.OptOut)
		}
		r.Set("meta", meta)
	}
	if basic {
		r.Set("status", s.Status.String())
	}
	if level <= LevelDebug || basic {
		r.Set("servers", serializeServers(s.View.ServersClients(), consolidateClients))
	}
	if level <= LevelWarning {
		serializeFindings(r, "warnings", s.Warnings)
	}
	if level <= LevelError {
		serializeFindings(r, "errors", s.Errors)
	}
	return r
}
