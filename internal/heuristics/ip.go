package heuristics

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// ipv4Candidate deliberately over-matches (octets up to 999) so that invalid
// literals like 999.1.1.1 are surfaced as findings instead of being skipped.
var ipv4Candidate = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// ipAnomalies reports embedded IPv4 literals that should not appear in
// client-supplied header values: private, loopback, and multicast ranges, or
// octets outside 0-255. Valid public addresses are not findings.
func ipAnomalies(name, value string) []Finding {
	var findings []Finding

	for _, literal := range ipv4Candidate.FindAllString(value, -1) {
		if !validOctets(literal) {
			findings = append(findings, Finding{
				Type:     "invalid_ip",
				Header:   name,
				Value:    literal,
				Severity: SeverityMedium,
				Reason:   "IPv4 literal with out-of-range octet",
			})
			continue
		}
		ip := net.ParseIP(literal)
		if ip == nil {
			findings = append(findings, Finding{
				Type:     "invalid_ip",
				Header:   name,
				Value:    literal,
				Severity: SeverityMedium,
				Reason:   "unparseable IPv4 literal",
			})
			continue
		}
		switch {
		case ip.IsLoopback():
			findings = append(findings, Finding{
				Type:     "loopback_ip",
				Header:   name,
				Value:    literal,
				Severity: SeverityMedium,
				Reason:   "loopback address in header value",
			})
		case ip.IsPrivate():
			findings = append(findings, Finding{
				Type:     "private_ip",
				Header:   name,
				Value:    literal,
				Severity: SeverityLow,
				Reason:   "private-range address in header value",
			})
		case ip.IsMulticast():
			findings = append(findings, Finding{
				Type:     "multicast_ip",
				Header:   name,
				Value:    literal,
				Severity: SeverityLow,
				Reason:   "multicast address in header value",
			})
		}
	}

	return findings
}

func validOctets(literal string) bool {
	for _, part := range strings.Split(literal, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}
