// Package heuristics scores a header collection against known-bad patterns
// and produces an explainable risk report. It is the rule-based counterpart
// to the learned model: every point of risk maps to a recorded finding a
// human can review.
package heuristics

import (
	"fmt"
	"math"
	"strings"

	"github.com/hdrsift/hdrsift/internal/headers"
)

// Severity buckets findings for reporting and drives the score weight of
// suspicious-header hits.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Finding is one recorded observation. Type is set for anomaly categories
// (header_injection, private_ip, case_mismatch, ...) and empty for plain
// suspicious-header hits.
type Finding struct {
	Type     string   `json:"type,omitempty"`
	Header   string   `json:"header"`
	Value    string   `json:"value,omitempty"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

// RiskReport is the full assessment for one header set.
type RiskReport struct {
	RiskScore float64 `json:"risk_score"`
	RiskLevel string  `json:"risk_level"`

	MissingCriticalHeaders  []string  `json:"missing_critical_headers"`
	MissingImportantHeaders []string  `json:"missing_important_headers"`
	SuspiciousHeaders       []Finding `json:"suspicious_headers"`
	EncodingIssues          []Finding `json:"encoding_issues"`
	StructuralAnomalies     []Finding `json:"structural_anomalies"`
	ContentAnomalies        []Finding `json:"content_anomalies"`
	MutationIndicators      []Finding `json:"mutation_indicators"`
}

var criticalHeaders = []string{"Host", "User-Agent"}

var importantHeaders = []string{"Accept", "Accept-Encoding", "Accept-Language"}

type headerRisk struct {
	Severity Severity
	Reason   string
}

// suspiciousHeaderTable lists header names that legitimate clients have no
// business sending. Lookup is by exact name as received.
var suspiciousHeaderTable = map[string]headerRisk{
	"X-Forwarded-Host":       {SeverityHigh, "can poison caches and password-reset links"},
	"X-Original-URL":         {SeverityHigh, "can bypass path-based access controls"},
	"X-Rewrite-URL":          {SeverityHigh, "can bypass path-based access controls"},
	"X-Custom-IP-Authorization": {SeverityMedium, "nonstandard IP authorization header"},
	"X-Originating-IP":       {SeverityLow, "client-controlled source IP hint"},
	"X-Remote-IP":            {SeverityLow, "client-controlled source IP hint"},
	"X-Client-IP":            {SeverityLow, "client-controlled source IP hint"},
	"X-Test":                 {SeverityLow, "test header left enabled"},
	"X-Foo":                  {SeverityLow, "placeholder header"},
	"X-Debug":                {SeverityMedium, "debug header left enabled"},
}

var severityWeight = map[Severity]float64{
	SeverityHigh:   0.4,
	SeverityMedium: 0.2,
	SeverityLow:    0.1,
}

// automationKeywords are checked against the User-Agent as lowercase
// substrings; only the first match is recorded.
var automationKeywords = []string{
	"bot", "crawler", "spider", "scraper", "curl", "wget", "python", "java",
}

const (
	missingCriticalWeight  = 0.3
	missingImportantWeight = 0.1
	encodingIssueWeight    = 0.1
	ipAnomalyWeight        = 0.05
	injectionWeight        = 0.5
	nullByteWeight         = 0.4
	shortUAWeight          = 0.2
	automationWeight       = 0.15
	timingAnomalyWeight    = 0.1
	mutationFoldWeight     = 0.3
	maxValueLen            = 100
)

// Analyze produces the risk report for one header set. Deterministic, total,
// and free of side effects; safe for concurrent use.
func Analyze(set headers.Set) RiskReport {
	r := RiskReport{
		MissingCriticalHeaders:  []string{},
		MissingImportantHeaders: []string{},
		SuspiciousHeaders:       []Finding{},
		EncodingIssues:          []Finding{},
		StructuralAnomalies:     []Finding{},
		ContentAnomalies:        []Finding{},
		MutationIndicators:      []Finding{},
	}
	score := 0.0

	for _, name := range criticalHeaders {
		if !set.Has(name) {
			r.MissingCriticalHeaders = append(r.MissingCriticalHeaders, name)
			score += missingCriticalWeight
		}
	}
	for _, name := range importantHeaders {
		if !set.Has(name) {
			r.MissingImportantHeaders = append(r.MissingImportantHeaders, name)
			score += missingImportantWeight
		}
	}

	for _, p := range set.Pairs() {
		if risk, ok := suspiciousHeaderTable[p.Name]; ok {
			r.SuspiciousHeaders = append(r.SuspiciousHeaders, Finding{
				Header:   p.Name,
				Value:    truncate(p.Value),
				Severity: risk.Severity,
				Reason:   risk.Reason,
			})
			score += severityWeight[risk.Severity]
		}

		for _, issue := range encodingIssues(p.Name, p.Value) {
			r.EncodingIssues = append(r.EncodingIssues, issue)
			score += encodingIssueWeight
		}

		for _, anomaly := range ipAnomalies(p.Name, p.Value) {
			r.ContentAnomalies = append(r.ContentAnomalies, anomaly)
			score += ipAnomalyWeight
		}

		if strings.ContainsAny(p.Value, "\r\n") {
			r.StructuralAnomalies = append(r.StructuralAnomalies, Finding{
				Type:     "header_injection",
				Header:   p.Name,
				Value:    truncate(p.Value),
				Severity: SeverityHigh,
				Reason:   "raw CR/LF in header value",
			})
			score += injectionWeight
		}
		if strings.ContainsRune(p.Value, 0) {
			r.StructuralAnomalies = append(r.StructuralAnomalies, Finding{
				Type:     "null_byte",
				Header:   p.Name,
				Value:    truncate(p.Value),
				Severity: SeverityHigh,
				Reason:   "NUL byte in header value",
			})
			score += nullByteWeight
		}
	}

	if ua, ok := set.Get("User-Agent"); ok {
		uaFindings, uaScore := analyzeUserAgent(ua)
		r.SuspiciousHeaders = append(r.SuspiciousHeaders, uaFindings...)
		score += uaScore
	}

	mutations, mutationScore := mutationIndicators(set)
	r.MutationIndicators = mutations
	score += mutationFoldWeight * math.Min(mutationScore, 1.0)

	timing := timingAnomalies(set)
	r.ContentAnomalies = append(r.ContentAnomalies, timing...)
	score += timingAnomalyWeight * float64(len(timing))

	r.RiskScore = math.Min(score, 1.0)
	r.RiskLevel = levelFor(r.RiskScore)
	return r
}

func levelFor(score float64) string {
	switch {
	case score < 0.3:
		return "low"
	case score < 0.6:
		return "medium"
	default:
		return "high"
	}
}

func analyzeUserAgent(ua string) ([]Finding, float64) {
	var findings []Finding
	score := 0.0

	if len(ua) < 10 {
		findings = append(findings, Finding{
			Type:     "short_user_agent",
			Header:   "User-Agent",
			Value:    truncate(ua),
			Severity: SeverityMedium,
			Reason:   fmt.Sprintf("user agent is only %d characters", len(ua)),
		})
		score += shortUAWeight
	}

	lower := strings.ToLower(ua)
	for _, keyword := range automationKeywords {
		if strings.Contains(lower, keyword) {
			severity := SeverityMedium
			if keyword == "bot" || keyword == "crawler" {
				severity = SeverityLow
			}
			findings = append(findings, Finding{
				Type:     "automation_tool",
				Header:   "User-Agent",
				Value:    truncate(ua),
				Severity: severity,
				Reason:   fmt.Sprintf("automation keyword %q", keyword),
			})
			score += automationWeight
			break
		}
	}

	return findings, score
}

func truncate(value string) string {
	if len(value) > maxValueLen {
		return value[:maxValueLen]
	}
	return value
}
