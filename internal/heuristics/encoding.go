package heuristics

import (
	"regexp"
	"strings"
)

var (
	doubleEncoded  = regexp.MustCompile(`%25[0-9A-Fa-f]{2}`)
	urlEncodedByte = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
)

// encodingIssues flags values that look like they went through more than one
// encoding pass, a common trick for sneaking payloads past naive filters.
func encodingIssues(name, value string) []Finding {
	var findings []Finding

	if doubleEncoded.MatchString(value) {
		findings = append(findings, Finding{
			Type:     "double_encoding",
			Header:   name,
			Value:    truncate(value),
			Severity: SeverityMedium,
			Reason:   "double URL-encoded sequence (%25XX)",
		})
	}

	encoded := len(urlEncodedByte.FindAllString(value, -1))
	if encoded > 0 && strings.Count(value, "+") > 2 {
		findings = append(findings, Finding{
			Type:     "mixed_encoding",
			Header:   name,
			Value:    truncate(value),
			Severity: SeverityLow,
			Reason:   "mix of percent-encoding and plus-encoding",
		})
	}

	return findings
}
