package dnssecproof

import (
	"fmt"
	"time"
)

// Finding is implemented by every warning and error the evaluators can
// report. Unlike a bare error string, each Finding carries the
// structured fields the condition was detected with, and knows how to
// render them for the serialization contract.
type Finding interface {
	error
	Serialize() *OrderedResult
}

func namedResult(name string, fields ...entry) *OrderedResult {
	r := &OrderedResult{}
	r.Set("description", name)
	for _, f := range fields {
		r.Set(f.key, f.value)
	}
	return r
}

// --- RRSIG findings ---

// AlgorithmNotSupported warns that the RRSIG's algorithm could not be
// cryptographically evaluated.
type AlgorithmNotSupported struct{ Algorithm uint8 }

func (e AlgorithmNotSupported) Error() string {
	return fmt.Sprintf("Algorithm %d not supported", e.Algorithm)
}
func (e AlgorithmNotSupported) Serialize() *OrderedResult {
	return namedResult("AlgorithmNotSupported", entry{"algorithm", e.Algorithm})
}

// RRsetTTLMismatch warns that the RRset's TTL disagrees with the TTL
// the covering RRSIG was served with.
type RRsetTTLMismatch struct{ RRsetTTL, RRSIGTTL uint32 }

func (e RRsetTTLMismatch) Error() string {
	return fmt.Sprintf("RRset TTL (%d) does not match RRSIG TTL (%d)", e.RRsetTTL, e.RRSIGTTL)
}
func (e RRsetTTLMismatch) Serialize() *OrderedResult {
	return namedResult("RRsetTTLMismatch", entry{"rrset_ttl", e.RRsetTTL}, entry{"rrsig_ttl", e.RRSIGTTL})
}

// OriginalTTLExceeded errors that the RRSIG's original TTL is smaller
// than the TTL it was actually served with.
type OriginalTTLExceeded struct{ RRsetTTL, OriginalTTL uint32 }

func (e OriginalTTLExceeded) Error() string {
	return fmt.Sprintf("Served TTL (%d) exceeds RRSIG original TTL (%d)", e.RRsetTTL, e.OriginalTTL)
}
func (e OriginalTTLExceeded) Serialize() *OrderedResult {
	return namedResult("OriginalTTLExceeded", entry{"rrset_ttl", e.RRsetTTL}, entry{"original_ttl", e.OriginalTTL})
}

// SignerNotZone errors that the RRSIG's signer name is not the
// expected zone (or, when the zone is unknown, that the RRset's owner
// is not even a subdomain of the signer).
type SignerNotZone struct{ ZoneName, SignerName string }

func (e SignerNotZone) Error() string {
	return fmt.Sprintf("Signer name (%s) does not match zone name (%s)", e.SignerName, e.ZoneName)
}
func (e SignerNotZone) Serialize() *OrderedResult {
	return namedResult("SignerNotZone", entry{"zone_name", e.ZoneName}, entry{"signer_name", e.SignerName})
}

// DNSKEYRevokedRRSIG errors that the signing DNSKEY carries the RFC
// 5011 revoke bit and the signature's key tag matches the revoked key.
type DNSKEYRevokedRRSIG struct{}

func (DNSKEYRevokedRRSIG) Error() string { return "RRSIG signed by revoked DNSKEY" }
func (DNSKEYRevokedRRSIG) Serialize() *OrderedResult {
	return namedResult("DNSKEYRevokedRRSIG")
}

// InceptionInFuture errors that the reference time is before the
// RRSIG's inception.
type InceptionInFuture struct{ Inception, ReferenceTime time.Time }

func (e InceptionInFuture) Error() string {
	return fmt.Sprintf("Inception (%s) is in the future relative to reference time (%s)", e.Inception, e.ReferenceTime)
}
func (e InceptionInFuture) Serialize() *OrderedResult {
	return namedResult("InceptionInFuture", entry{"inception", e.Inception}, entry{"reference_time", e.ReferenceTime})
}

// ExpirationInPast errors that the reference time is at or after the
// RRSIG's expiration.
type ExpirationInPast struct{ Expiration, ReferenceTime time.Time }

func (e ExpirationInPast) Error() string {
	return fmt.Sprintf("Expiration (%s) is in the past relative to reference time (%s)", e.Expiration, e.ReferenceTime)
}
func (e ExpirationInPast) Serialize() *OrderedResult {
	return namedResult("ExpirationInPast", entry{"expiration", e.Expiration}, entry{"reference_time", e.ReferenceTime})
}

// TTLBeyondExpiration errors that a full TTL interval from the
// reference time would outlive the RRSIG's expiration: a resolver
// caching this RRset could serve it after the signature has expired.
type TTLBeyondExpiration struct {
	Expiration    time.Time
	RRSIGTTL      uint32
	ReferenceTime time.Time
}

func (e TTLBeyondExpiration) Error() string {
	return fmt.Sprintf("TTL (%d) extends beyond expiration (%s)", e.RRSIGTTL, e.Expiration)
}
func (e TTLBeyondExpiration) Serialize() *OrderedResult {
	return namedResult("TTLBeyondExpiration",
		entry{"expiration", e.Expiration}, entry{"rrsig_ttl", e.RRSIGTTL}, entry{"reference_time", e.ReferenceTime})
}

// SignatureInvalid errors that cryptographic verification failed.
type SignatureInvalid struct{}

func (SignatureInvalid) Error() string { return "Signature is invalid" }
func (SignatureInvalid) Serialize() *OrderedResult {
	return namedResult("SignatureInvalid")
}

// --- DS findings ---

// DigestAlgorithmNotSupported warns that the DS digest type could not
// be cryptographically evaluated.
type DigestAlgorithmNotSupported struct{ Algorithm uint8 }

func (e DigestAlgorithmNotSupported) Error() string {
	return fmt.Sprintf("Digest algorithm %d not supported", e.Algorithm)
}
func (e DigestAlgorithmNotSupported) Serialize() *OrderedResult {
	return namedResult("DigestAlgorithmNotSupported", entry{"algorithm", e.Algorithm})
}

// DNSKEYRevokedDS errors that the DNSKEY the DS points at carries the
// revoke bit and the DS key tag matches the revoked key.
type DNSKEYRevokedDS struct{}

func (DNSKEYRevokedDS) Error() string { return "DS record refers to revoked DNSKEY" }
func (DNSKEYRevokedDS) Serialize() *OrderedResult {
	return namedResult("DNSKEYRevokedDS")
}

// DigestInvalid errors that the DS digest does not match the DNSKEY.
type DigestInvalid struct{}

func (DigestInvalid) Error() string { return "Digest is invalid" }
func (DigestInvalid) Serialize() *OrderedResult {
	return namedResult("DigestInvalid")
}

// --- NSEC findings ---

type SnameNotCoveredNameError struct{ Sname string }

func (e SnameNotCoveredNameError) Error() string {
	return fmt.Sprintf("No NSEC record covers %s", e.Sname)
}
func (e SnameNotCoveredNameError) Serialize() *OrderedResult {
	return namedResult("SnameNotCoveredNameError", entry{"sname", e.Sname})
}

type WildcardNotCoveredNSEC struct{ Wildcard string }

func (e WildcardNotCoveredNSEC) Error() string {
	return fmt.Sprintf("No NSEC record covers the wildcard %s", e.Wildcard)
}
func (e WildcardNotCoveredNSEC) Serialize() *OrderedResult {
	return namedResult("WildcardNotCoveredNSEC", entry{"wildcard", e.Wildcard})
}

type LastNSECNextNotZone struct{ NSECOwner, NextName, ZoneName string }

func (e LastNSECNextNotZone) Error() string {
	return fmt.Sprintf("NSEC %s -> %s crosses the zone apex %s", e.NSECOwner, e.NextName, e.ZoneName)
}
func (e LastNSECNextNotZone) Serialize() *OrderedResult {
	return namedResult("LastNSECNextNotZone",
		entry{"nsec_owner", e.NSECOwner}, entry{"next_name", e.NextName}, entry{"zone_name", e.ZoneName})
}

type WildcardExpansionInvalid struct{ Sname, Wildcard, NextClosestEncloser string }

func (e WildcardExpansionInvalid) Error() string {
	return fmt.Sprintf("No NSEC record covers the next closer name %s for wildcard expansion of %s", e.NextClosestEncloser, e.Wildcard)
}
func (e WildcardExpansionInvalid) Serialize() *OrderedResult {
	return namedResult("WildcardExpansionInvalid",
		entry{"sname", e.Sname}, entry{"wildcard", e.Wildcard}, entry{"next_closest_encloser", e.NextClosestEncloser})
}

type SnameNotCoveredWildcardAnswer struct{ Sname string }

func (e SnameNotCoveredWildcardAnswer) Error() string {
	return fmt.Sprintf("No NSEC record covers %s for a wildcard answer", e.Sname)
}
func (e SnameNotCoveredWildcardAnswer) Serialize() *OrderedResult {
	return namedResult("SnameNotCoveredWildcardAnswer", entry{"sname", e.Sname})
}

type ReferralWithoutNSBitNSEC struct{ Sname string }

func (e ReferralWithoutNSBitNSEC) Error() string {
	return fmt.Sprintf("NSEC for referral %s does not have the NS bit set", e.Sname)
}
func (e ReferralWithoutNSBitNSEC) Serialize() *OrderedResult {
	return namedResult("ReferralWithoutNSBitNSEC", entry{"sname", e.Sname})
}

type ReferralWithDSBitNSEC struct{ Sname string }

func (e ReferralWithDSBitNSEC) Error() string {
	return fmt.Sprintf("NSEC for referral %s has the DS bit set", e.Sname)
}
func (e ReferralWithDSBitNSEC) Serialize() *OrderedResult {
	return namedResult("ReferralWithDSBitNSEC", entry{"sname", e.Sname})
}

type ReferralWithSOABitNSEC struct{ Sname string }

func (e ReferralWithSOABitNSEC) Error() string {
	return fmt.Sprintf("NSEC for referral %s has the SOA bit set", e.Sname)
}
func (e ReferralWithSOABitNSEC) Serialize() *OrderedResult {
	return namedResult("ReferralWithSOABitNSEC", entry{"sname", e.Sname})
}

type StypeInBitmapNoDataNSEC struct{ Sname, Stype string }

func (e StypeInBitmapNoDataNSEC) Error() string {
	return fmt.Sprintf("%s bit is set in the NSEC bitmap for %s", e.Stype, e.Sname)
}
func (e StypeInBitmapNoDataNSEC) Serialize() *OrderedResult {
	return namedResult("StypeInBitmapNoDataNSEC", entry{"sname", e.Sname}, entry{"stype", e.Stype})
}

type SnameNotCoveredWildcardNoData struct{ Sname string }

func (e SnameNotCoveredWildcardNoData) Error() string {
	return fmt.Sprintf("No NSEC record covers %s for a wildcard no-data proof", e.Sname)
}
func (e SnameNotCoveredWildcardNoData) Serialize() *OrderedResult {
	return namedResult("SnameNotCoveredWildcardNoData", entry{"sname", e.Sname})
}

type NoNSECMatchingSnameNoData struct{ Sname string }

func (e NoNSECMatchingSnameNoData) Error() string {
	return fmt.Sprintf("No NSEC record matches or covers %s", e.Sname)
}
func (e NoNSECMatchingSnameNoData) Serialize() *OrderedResult {
	return namedResult("NoNSECMatchingSnameNoData", entry{"sname", e.Sname})
}

// --- NSEC3 findings ---

type UnsupportedNSEC3Algorithm struct{ Algorithm uint8 }

func (e UnsupportedNSEC3Algorithm) Error() string {
	return fmt.Sprintf("NSEC3 hash algorithm %d not supported", e.Algorithm)
}
func (e UnsupportedNSEC3Algorithm) Serialize() *OrderedResult {
	return namedResult("UnsupportedNSEC3Algorithm", entry{"algorithm", e.Algorithm})
}

type NoClosestEncloserNameError struct{ Sname string }

func (e NoClosestEncloserNameError) Error() string {
	return fmt.Sprintf("No closest encloser found for %s", e.Sname)
}
func (e NoClosestEncloserNameError) Serialize() *OrderedResult {
	return namedResult("NoClosestEncloserNameError", entry{"sname", e.Sname})
}

type NextClosestEncloserNotCoveredNameError struct{ NextClosestEncloser string }

func (e NextClosestEncloserNotCoveredNameError) Error() string {
	return fmt.Sprintf("No NSEC3 record covers the next closer name %s", e.NextClosestEncloser)
}
func (e NextClosestEncloserNotCoveredNameError) Serialize() *OrderedResult {
	return namedResult("NextClosestEncloserNotCoveredNameError", entry{"next_closest_encloser", e.NextClosestEncloser})
}

type WildcardNotCoveredNSEC3 struct{ Wildcard string }

func (e WildcardNotCoveredNSEC3) Error() string {
	return fmt.Sprintf("No NSEC3 record covers the wildcard %s", e.Wildcard)
}
func (e WildcardNotCoveredNSEC3) Serialize() *OrderedResult {
	return namedResult("WildcardNotCoveredNSEC3", entry{"wildcard", e.Wildcard})
}

type NextClosestEncloserNotCoveredWildcardAnswer struct{ NextClosestEncloser string }

func (e NextClosestEncloserNotCoveredWildcardAnswer) Error() string {
	return fmt.Sprintf("No NSEC3 record covers the next closer name %s for the wildcard answer", e.NextClosestEncloser)
}
func (e NextClosestEncloserNotCoveredWildcardAnswer) Serialize() *OrderedResult {
	return namedResult("NextClosestEncloserNotCoveredWildcardAnswer", entry{"next_closest_encloser", e.NextClosestEncloser})
}

type WildcardCoveredAnswerNSEC3 struct{ NextClosestEncloser string }

func (e WildcardCoveredAnswerNSEC3) Error() string {
	return fmt.Sprintf("An NSEC3 record covers the wildcard itself, contradicting the wildcard answer for %s", e.NextClosestEncloser)
}
func (e WildcardCoveredAnswerNSEC3) Serialize() *OrderedResult {
	return namedResult("WildcardCoveredAnswerNSEC3", entry{"next_closest_encloser", e.NextClosestEncloser})
}

type ReferralWithoutNSBitNSEC3 struct{ Sname string }

func (e ReferralWithoutNSBitNSEC3) Error() string {
	return fmt.Sprintf("NSEC3 for referral %s does not have the NS bit set", e.Sname)
}
func (e ReferralWithoutNSBitNSEC3) Serialize() *OrderedResult {
	return namedResult("ReferralWithoutNSBitNSEC3", entry{"sname", e.Sname})
}

type ReferralWithDSBitNSEC3 struct{ Sname string }

func (e ReferralWithDSBitNSEC3) Error() string {
	return fmt.Sprintf("NSEC3 for referral %s has the DS bit set", e.Sname)
}
func (e ReferralWithDSBitNSEC3) Serialize() *OrderedResult {
	return namedResult("ReferralWithDSBitNSEC3", entry{"sname", e.Sname})
}

type ReferralWithSOABitNSEC3 struct{ Sname string }

func (e ReferralWithSOABitNSEC3) Error() string {
	return fmt.Sprintf("NSEC3 for referral %s has the SOA bit set", e.Sname)
}
func (e ReferralWithSOABitNSEC3) Serialize() *OrderedResult {
	return namedResult("ReferralWithSOABitNSEC3", entry{"sname", e.Sname})
}

type StypeInBitmapNoDataNSEC3 struct{ Sname, Stype string }

func (e StypeInBitmapNoDataNSEC3) Error() string {
	return fmt.Sprintf("%s bit is set in the NSEC3 bitmap for %s", e.Stype, e.Sname)
}
func (e StypeInBitmapNoDataNSEC3) Serialize() *OrderedResult {
	return namedResult("StypeInBitmapNoDataNSEC3", entry{"sname", e.Sname}, entry{"stype", e.Stype})
}

type NextClosestEncloserNotCoveredWildcardNoData struct{ NextClosestEncloser string }

func (e NextClosestEncloserNotCoveredWildcardNoData) Error() string {
	return fmt.Sprintf("No NSEC3 record covers the next closer name %s for the wildcard no-data proof", e.NextClosestEncloser)
}
func (e NextClosestEncloserNotCoveredWildcardNoData) Serialize() *OrderedResult {
	return namedResult("NextClosestEncloserNotCoveredWildcardNoData", entry{"next_closest_encloser", e.NextClosestEncloser})
}

type StypeInBitmapWildcardNoDataNSEC3 struct{ Sname, Stype string }

func (e StypeInBitmapWildcardNoDataNSEC3) Error() string {
	return fmt.Sprintf("%s bit is set in the wildcard NSEC3 bitmap for %s", e.Stype, e.Sname)
}
func (e StypeInBitmapWildcardNoDataNSEC3) Serialize() *OrderedResult {
	return namedResult("StypeInBitmapWildcardNoDataNSEC3", entry{"sname", e.Sname}, entry{"stype", e.Stype})
}

type NoNSEC3MatchingSnameDSNoData struct{ Sname string }

func (e NoNSEC3MatchingSnameDSNoData) Error() string {
	return fmt.Sprintf("No NSEC3 record matches, or opt-out covers, %s for a DS no-data proof", e.Sname)
}
func (e NoNSEC3MatchingSnameDSNoData) Serialize() *OrderedResult {
	return namedResult("NoNSEC3MatchingSnameDSNoData", entry{"sname", e.Sname})
}

type NoNSEC3MatchingSnameNoData struct{ Sname string }

func (e NoNSEC3MatchingSnameNoData) Error() string {
	return fmt.Sprintf("No NSEC3 record matches %s", e.Sname)
}
func (e NoNSEC3MatchingSnameNoData) Serialize() *OrderedResult {
	return namedResult("NoNSEC3MatchingSnameNoData", entry{"sname", e.Sname})
}

// --- DNAME findings ---

type DNAMENoCNAME struct{}

func (DNAMENoCNAME) Error() string { return "No CNAME accompanies the DNAME" }
func (DNAMENoCNAME) Serialize() *OrderedResult {
	return namedResult("DNAMENoCNAME")
}

type DNAMETargetMismatch struct{}

func (DNAMETargetMismatch) Error() string {
	return "Included CNAME target does not match the synthesized target"
}
func (DNAMETargetMismatch) Serialize() *OrderedResult {
	return namedResult("DNAMETargetMismatch")
}

type DNAMETTLZero struct{}

func (DNAMETTLZero) Error() string { return "Included CNAME has a TTL of zero" }
func (DNAMETTLZero) Serialize() *OrderedResult {
	return namedResult("DNAMETTLZero")
}

type DNAMETTLMismatch struct{ SynthesizedTTL, IncludedTTL uint32 }

func (e DNAMETTLMismatch) Error() string {
	return fmt.Sprintf("Included CNAME TTL (%d) does not match synthesized TTL (%d)", e.IncludedTTL, e.SynthesizedTTL)
}
func (e DNAMETTLMismatch) Serialize() *OrderedResult {
	return namedResult("DNAMETTLMismatch", entry{"synthesized_ttl", e.SynthesizedTTL}, entry{"included_ttl", e.IncludedTTL})
}
