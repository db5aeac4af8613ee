package heuristics

import (
	"fmt"
	"strings"

	"github.com/hdrsift/hdrsift/internal/headers"
)

// standardHeaderNames is the reference casing for mutation checks.
var standardHeaderNames = []string{
	"Host", "User-Agent", "Accept", "Accept-Encoding", "Accept-Language",
	"Connection", "Content-Type", "Content-Length", "Referer", "Cookie",
	"Authorization", "Cache-Control", "X-Forwarded-For", "X-Real-IP",
	"X-Forwarded-Proto",
}

// unusualSeparators in values suggest tooling that concatenates fields in
// ways browsers never do.
var unusualSeparators = []string{"|", ";;", "::"}

const (
	caseMismatchScore = 0.2
	nearMatchScore    = 0.3
	separatorScore    = 0.1

	nearMatchFloor = 0.7
)

// mutationIndicators scores evasion-style mutations of standard headers:
// exact names with wrong casing, names one edit away from a standard name,
// and values glued together with unusual separators. The returned score is
// the raw sub-score; the caller clamps and folds it into the total.
func mutationIndicators(set headers.Set) ([]Finding, float64) {
	findings := []Finding{}
	score := 0.0

	for _, p := range set.Pairs() {
		if standard, ok := caseMutationOf(p.Name); ok {
			findings = append(findings, Finding{
				Type:     "case_mismatch",
				Header:   p.Name,
				Value:    truncate(p.Value),
				Severity: SeverityMedium,
				Reason:   fmt.Sprintf("nonstandard casing of %s", standard),
			})
			score += caseMismatchScore
		} else if standard, sim, ok := nearMatchOf(p.Name); ok {
			findings = append(findings, Finding{
				Type:     "near_match",
				Header:   p.Name,
				Value:    truncate(p.Value),
				Severity: SeverityMedium,
				Reason:   fmt.Sprintf("resembles %s (similarity %.2f)", standard, sim),
			})
			score += nearMatchScore
		}

		for _, sep := range unusualSeparators {
			if n := strings.Count(p.Value, sep); n > 0 {
				findings = append(findings, Finding{
					Type:     "unusual_separator",
					Header:   p.Name,
					Value:    truncate(p.Value),
					Severity: SeverityLow,
					Reason:   fmt.Sprintf("separator %q appears %d time(s)", sep, n),
				})
				score += separatorScore * float64(n)
			}
		}
	}

	return findings, score
}

// caseMutationOf reports the standard header p mutates, if the name matches
// one case-insensitively but not byte for byte.
func caseMutationOf(name string) (string, bool) {
	for _, standard := range standardHeaderNames {
		if name != standard && strings.EqualFold(name, standard) {
			return standard, true
		}
	}
	return "", false
}

// nearMatchOf finds the closest standard header under normalized edit
// distance. Only similarities strictly between the floor and 1.0 count:
// 1.0 is either the header itself or a case mutation handled elsewhere.
func nearMatchOf(name string) (string, float64, bool) {
	best := 0.0
	bestName := ""
	folded := strings.ToLower(name)
	for _, standard := range standardHeaderNames {
		sim := similarity(folded, strings.ToLower(standard))
		if sim > best {
			best = sim
			bestName = standard
		}
	}
	if best > nearMatchFloor && best < 1.0 {
		return bestName, best, true
	}
	return "", 0, false
}

// similarity is 1 - levenshtein/maxlen, in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
