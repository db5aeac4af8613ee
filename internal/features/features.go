// Package features turns an ordered header collection into the fixed-length
// numeric vector the anomaly models are trained on. Slot order is a contract:
// models trained against one layout cannot score vectors from another, so any
// change here must bump Version and invalidates persisted models.
package features

import (
	"math"
	"regexp"
	"strings"

	"github.com/hdrsift/hdrsift/internal/headers"
)

// Version identifies the vector layout. Persisted models record the version
// they were trained with and refuse to score a different one.
const Version = 1

// Count is the fixed vector length.
const Count = 35

type weightedHeader struct {
	Name   string
	Weight float64
}

// expectedHeaders is the weighted presence table. Order defines the first
// len(expectedHeaders) vector slots.
var expectedHeaders = []weightedHeader{
	// Critical
	{"Host", 2.0},
	{"User-Agent", 2.0},
	// Important
	{"Accept", 1.5},
	{"Accept-Encoding", 1.5},
	{"Accept-Language", 1.5},
	{"Connection", 1.5},
	// Common
	{"Content-Type", 1.0},
	{"Content-Length", 1.0},
	{"Referer", 1.0},
	{"Cookie", 1.0},
	{"Authorization", 1.0},
	{"Cache-Control", 1.0},
	// Proxy / forwarding
	{"X-Forwarded-For", 0.8},
	{"X-Real-IP", 0.8},
	{"X-Forwarded-Proto", 0.8},
}

type scoredPattern struct {
	re       *regexp.Regexp
	severity float64
}

// suspiciousUAPatterns maps tool signatures to severities. The slot value is
// the maximum severity across matches.
var suspiciousUAPatterns = []scoredPattern{
	// High
	{regexp.MustCompile(`(?i)\bcurl\b`), 1.0},
	{regexp.MustCompile(`(?i)\bwget\b`), 1.0},
	{regexp.MustCompile(`(?i)\bpython-requests\b`), 1.0},
	{regexp.MustCompile(`(?i)\bscrapy\b`), 1.0},
	{regexp.MustCompile(`(?i)\bGo-http-client\b`), 1.0},
	// Medium
	{regexp.MustCompile(`(?i)\bbot\b`), 0.7},
	{regexp.MustCompile(`(?i)\bspider\b`), 0.7},
	{regexp.MustCompile(`(?i)\bcrawler\b`), 0.7},
	{regexp.MustCompile(`(?i)\bscraper\b`), 0.7},
	// Low
	{regexp.MustCompile(`(?i)\bJava\b`), 0.4},
	{regexp.MustCompile(`(?i)\bRuby\b`), 0.4},
	{regexp.MustCompile(`(?i)\bPerl\b`), 0.4},
}

// legitimateUAPatterns are browser signatures; matching is case-sensitive on
// purpose ("mozilla/5.0" from a hand-rolled client should not count).
var legitimateUAPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Mozilla/5\.0`),
	regexp.MustCompile(`AppleWebKit`),
	regexp.MustCompile(`Chrome/\d+`),
	regexp.MustCompile(`Safari/\d+`),
	regexp.MustCompile(`Firefox/\d+`),
	regexp.MustCompile(`Edge/\d+`),
}

// suspiciousMIMETypes is an ordered first-match table: scanning stops at the
// first pattern that matches, so more specific entries come first.
var suspiciousMIMETypes = []scoredPattern{
	// Executable types in a web context
	{regexp.MustCompile(`(?i)application/x-msdownload`), 0.8},
	{regexp.MustCompile(`(?i)application/x-sh`), 0.7},
	{regexp.MustCompile(`(?i)application/x-executable`), 0.8},
	// Unusual for typical web traffic
	{regexp.MustCompile(`(?i)application/hta`), 0.9},
	{regexp.MustCompile(`(?i)application/x-httpd-php`), 0.6},
	{regexp.MustCompile(`(?i)text/scriptlet`), 0.7},
	// Dangerous when unexpected
	{regexp.MustCompile(`(?i)multipart/x-mixed-replace`), 0.5},
	{regexp.MustCompile(`(?i)application/octet-stream`), 0.3},
	// Malformed or injection-looking
	{regexp.MustCompile(`(?i)^text/plain.*<script`), 0.9},
	{regexp.MustCompile(`(?i)[;\s].*[<>]`), 0.6},
	{regexp.MustCompile(`^$`), 0.4},
}

var (
	urlEncodedByte  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	base64Like      = regexp.MustCompile(`^[A-Za-z0-9+/]{20,}={0,2}$`)
	hexString       = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	injectionMarker = regexp.MustCompile(`[\r\n]|%0[dD]%0[aA]|%0[aA]|%0[dD]`)
)

// canonicalBrowserOrder is the header sequence mainstream browsers emit;
// deviation from it is the order-deviation slot.
var canonicalBrowserOrder = []string{
	"Host", "User-Agent", "Accept", "Accept-Language",
	"Accept-Encoding", "Referer", "Cookie",
}

// Extract maps a header set to its feature vector. It is total: any input,
// including the empty set, yields a finite Count-length vector.
func Extract(set headers.Set) []float64 {
	v := make([]float64, 0, Count)

	// Weighted presence of expected headers, then completeness.
	totalWeight := 0.0
	presentWeight := 0.0
	for _, eh := range expectedHeaders {
		totalWeight += eh.Weight
		if set.Has(eh.Name) {
			v = append(v, 1)
			presentWeight += eh.Weight
		} else {
			v = append(v, 0)
		}
	}
	if totalWeight > 0 {
		v = append(v, presentWeight/totalWeight)
	} else {
		v = append(v, 0)
	}

	// User-Agent slots.
	ua, _ := set.Get("User-Agent")
	v = append(v, float64(len(ua)))
	v = append(v, uaSuspicion(ua))
	v = append(v, uaLegitimacy(ua))
	v = append(v, entropy(ua))
	v = append(v, charDiversity(ua))

	// Count and value-length statistics.
	v = append(v, float64(set.Len()))
	v = append(v, valueLengthStats(set)...)

	// Entropy and encoding across all values.
	totalEntropy := 0.0
	maxEntropy := 0.0
	encodingScore := 0.0
	for _, value := range set.Values() {
		e := entropy(value)
		totalEntropy += e
		maxEntropy = math.Max(maxEntropy, e)
		encodingScore += encodingAnomaly(value)
	}
	n := float64(set.Len())
	if n == 0 {
		n = 1
	}
	v = append(v, totalEntropy/n)
	v = append(v, maxEntropy)
	v = append(v, encodingScore/n)

	// Structural slots.
	v = append(v, orderDeviation(set))
	v = append(v, caseConsistency(set))

	// Anomaly slots.
	v = append(v, float64(countXHeaders(set)))
	v = append(v, float64(DuplicateScore(set)))
	v = append(v, mimeSuspicion(set))
	v = append(v, injectionScore(set))

	return v
}

// Names returns the per-slot feature names, parallel to Extract's output.
func Names() []string {
	names := make([]string, 0, Count)
	for _, eh := range expectedHeaders {
		names = append(names, "has_"+strings.ReplaceAll(strings.ToLower(eh.Name), "-", "_"))
	}
	names = append(names, "weighted_header_completeness")
	names = append(names,
		"ua_length",
		"ua_suspicion_score",
		"ua_legitimate_score",
		"ua_entropy",
		"ua_char_diversity",
	)
	names = append(names,
		"header_count",
		"avg_value_length",
		"max_value_length",
		"min_value_length",
		"std_value_length",
	)
	names = append(names,
		"avg_entropy",
		"max_entropy",
		"encoding_anomaly_score",
	)
	names = append(names,
		"header_order_deviation",
		"case_consistency",
	)
	names = append(names,
		"x_header_count",
		"duplicate_header_score",
		"suspicious_mime_type",
		"injection_attempt_score",
	)
	return names
}

func uaSuspicion(ua string) float64 {
	if ua == "" {
		return 0
	}
	score := 0.0
	for _, p := range suspiciousUAPatterns {
		if p.re.MatchString(ua) {
			score = math.Max(score, p.severity)
		}
	}
	return score
}

func uaLegitimacy(ua string) float64 {
	matches := 0
	for _, re := range legitimateUAPatterns {
		if re.MatchString(ua) {
			matches++
		}
	}
	return float64(matches) / float64(len(legitimateUAPatterns))
}

// entropy is the Shannon entropy of the string in bits per character.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	e := 0.0
	n := float64(total)
	for _, count := range freq {
		p := float64(count) / n
		e -= p * math.Log2(p)
	}
	return e
}

func charDiversity(s string) float64 {
	if s == "" {
		return 0
	}
	seen := make(map[rune]struct{})
	total := 0
	for _, r := range s {
		seen[r] = struct{}{}
		total++
	}
	return float64(len(seen)) / float64(total)
}

func valueLengthStats(set headers.Set) []float64 {
	if set.Len() == 0 {
		return []float64{0, 0, 0, 0}
	}
	values := set.Values()
	sum := 0.0
	maxLen := float64(len(values[0]))
	minLen := maxLen
	for _, value := range values {
		l := float64(len(value))
		sum += l
		maxLen = math.Max(maxLen, l)
		minLen = math.Min(minLen, l)
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, value := range values {
		d := float64(len(value)) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(values)))
	return []float64{mean, maxLen, minLen, std}
}

// encodingAnomaly scores one value for suspicious encodings, capped at 1.
func encodingAnomaly(value string) float64 {
	score := 0.0

	length := len(value)
	if length == 0 {
		length = 1
	}
	encodedBytes := len(urlEncodedByte.FindAllString(value, -1)) * 3
	if float64(encodedBytes)/float64(length) > 0.3 {
		score += 0.5
	}
	if base64Like.MatchString(value) {
		score += 0.3
	}
	if hexString.MatchString(value) {
		score += 0.3
	}
	return math.Min(score, 1.0)
}

// orderDeviation measures how far the canonical browser headers sit from
// their canonical positions, normalized twice by the canonical length so a
// fully shuffled set stays small and comparable.
func orderDeviation(set headers.Set) float64 {
	n := float64(len(canonicalBrowserOrder))
	deviation := 0.0
	for i, name := range canonicalBrowserOrder {
		if pos := set.Index(name); pos >= 0 {
			deviation += math.Abs(float64(i)-float64(pos)) / n
		}
	}
	return deviation / n
}

// caseClass buckets a header name's casing convention. The branches mirror
// each other's precedence: a single-word name like "Host" classifies as
// title, not http-standard, and only hyphenated names with every segment
// capitalized count as http-standard.
func caseClass(name string) string {
	switch {
	case isLower(name):
		return "lower"
	case isUpper(name):
		return "upper"
	case len(name) > 1 && isUpperRune(rune(name[0])) && isLower(name[1:]):
		return "title"
	case strings.Contains(name, "-") && allSegmentsCapitalized(name):
		return "http_standard"
	default:
		return "mixed"
	}
}

func caseConsistency(set headers.Set) float64 {
	if set.Len() == 0 {
		return 0
	}
	standard := 0
	for _, name := range set.Names() {
		if caseClass(name) == "http_standard" {
			standard++
		}
	}
	return float64(standard) / float64(set.Len())
}

// isLower reports whether s contains at least one letter and no uppercase
// letters.
func isLower(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}
		if r >= 'a' && r <= 'z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isUpperRune(r rune) bool { return r >= 'A' && r <= 'Z' }

func allSegmentsCapitalized(name string) bool {
	for _, part := range strings.Split(name, "-") {
		if part == "" {
			continue
		}
		if !isUpperRune(rune(part[0])) {
			return false
		}
	}
	return true
}

func countXHeaders(set headers.Set) int {
	count := 0
	for _, name := range set.Names() {
		if strings.HasPrefix(name, "X-") {
			count++
		}
	}
	return count
}

// DuplicateScore counts unordered pairs of names that are equal when
// case-folded but differ as stored: genuine case-variant duplicates.
// Exported because the heuristic analyzer reports the same signal.
func DuplicateScore(set headers.Set) int {
	names := set.Names()
	score := 0
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[i] != names[j] && strings.EqualFold(names[i], names[j]) {
				score++
			}
		}
	}
	return score
}

// mimeSuspicion takes the first matching entry's severity, not the maximum:
// the table is ordered most-specific first and scanning stops there.
func mimeSuspicion(set headers.Set) float64 {
	contentType, ok := set.Get("Content-Type")
	if !ok {
		return 0
	}
	for _, p := range suspiciousMIMETypes {
		if p.re.MatchString(contentType) {
			return p.severity
		}
	}
	return 0
}

func injectionScore(set headers.Set) float64 {
	if set.Len() == 0 {
		return 0
	}
	hits := 0
	for _, value := range set.Values() {
		if injectionMarker.MatchString(value) {
			hits++
		}
	}
	return float64(hits) / float64(set.Len())
}
