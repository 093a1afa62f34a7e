// Package dnsname provides the canonical-name operations the proof
// evaluators build on: parent, subdomain, wildcard construction, and
// ordering, all in terms of the fully-qualified, lower-cased form
// every other package in this module is expected to pass around.
package dnsname

import (
	"sort"
	"strings"

	"github.com/miekg/dns"
)

// Canonicalize lower-cases and fully-qualifies name. It is the only
// place in the module allowed to decide what "the same name" means.
func Canonicalize(name string) string {
	name = dns.Fqdn(strings.ToLower(name))
	if name == "" {
		return "."
	}
	return name
}

// Parent returns the immediate parent of name, or "." if name is
// already the root.
func Parent(name string) string {
	name = Canonicalize(name)
	if name == "." {
		return "."
	}
	labels := dns.SplitDomainName(name)
	if len(labels) <= 1 {
		return "."
	}
	return Canonicalize(strings.Join(labels[1:], "."))
}

// IsSubdomain reports whether name is equal to or a subdomain of
// ancestor, both in canonical form.
func IsSubdomain(name, ancestor string) bool {
	return dns.IsSubDomain(Canonicalize(ancestor), Canonicalize(name))
}

// Labels returns the canonical labels of name, root-to-leaf order
// reversed to leaf-to-root as dns.SplitDomainName does.
func Labels(name string) []string {
	return dns.SplitDomainName(Canonicalize(name))
}

// Wildcard builds "*.<parent>" the way dns.name.from_text('*', parent)
// does in the original implementation.
func Wildcard(parent string) string {
	parent = Canonicalize(parent)
	if parent == "." {
		return "*."
	}
	return "*." + parent
}

// SuffixLabels returns the last n labels of name as a canonical name,
// i.e. name truncated to n labels counted from the root end. This is
// how "next closer name" is built from a closest encloser: take the
// qname and keep only len(encloser)+1 labels.
func SuffixLabels(name string, n int) string {
	labels := Labels(name)
	if n <= 0 {
		return "."
	}
	if n > len(labels) {
		n = len(labels)
	}
	return Canonicalize(strings.Join(labels[len(labels)-n:], "."))
}

// LabelCount returns the number of labels in name, treating "." as
// zero labels.
func LabelCount(name string) int {
	return len(Labels(name))
}

// Compare orders two canonical names using DNSSEC canonical ordering
// (miekg/dns's CompareDomainName is label-count based, not the
// bytewise ordering RFC 4034 section 6.1 specifies, so we implement it
// directly here: shortest-suffix-first comparison of canonicalized
// labels, right to left).
func Compare(a, b string) int {
	la, lb := Labels(a), Labels(b)
	for i := 1; i <= len(la) && i <= len(lb); i++ {
		x, y := la[len(la)-i], lb[len(lb)-i]
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(la) < len(lb):
		return -1
	case len(la) > len(lb):
		return 1
	default:
		return 0
	}
}

// SortNames sorts names in canonical DNSSEC order, in place.
func SortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return Compare(names[i], names[j]) < 0
	})
}

// Covers reports whether the NSEC-style interval (owner, next) covers
// name, honoring zone-wrap-around when owner is the lexicographically
// last name in the zone (owner >= next). owner and next are themselves
// existing names, so Covers(owner, next, owner) and
// Covers(owner, next, next) are always false.
func Covers(owner, next, name string) bool {
	owner, next, name = Canonicalize(owner), Canonicalize(next), Canonicalize(name)
	if owner == name || next == name {
		return false
	}
	if Compare(owner, next) < 0 {
		return Compare(owner, name) < 0 && Compare(name, next) < 0
	}
	// Wrap-around interval: owner is the last name before the zone apex.
	return Compare(owner, name) < 0 || Compare(name, next) < 0
}
