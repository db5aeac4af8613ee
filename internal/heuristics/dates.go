package heuristics

import (
	"net/http"
	"strings"
	"time"

	"github.com/hdrsift/hdrsift/internal/headers"
)

// dateHeaders are the headers carrying HTTP dates worth sanity checking.
var dateHeaders = []string{
	"Date", "If-Modified-Since", "If-Unmodified-Since", "Last-Modified",
}

const (
	nearFutureWindow = 7 * 24 * time.Hour
	staleAge         = 3650 * 24 * time.Hour
)

// timingAnomalies flags date headers that no honest clock produces:
// sentinel values, unparseable strings, future dates, and decade-old dates.
func timingAnomalies(set headers.Set) []Finding {
	return timingAnomaliesAt(set, time.Now())
}

// timingAnomaliesAt is the clock-injected form used by tests.
func timingAnomaliesAt(set headers.Set, now time.Time) []Finding {
	var findings []Finding

	for _, name := range dateHeaders {
		value, ok := set.Get(name)
		if !ok {
			continue
		}

		if strings.Contains(value, "9999") || strings.Contains(value, "0000") || value == "1970-01-01" {
			findings = append(findings, Finding{
				Type:     "suspicious_date",
				Header:   name,
				Value:    truncate(value),
				Severity: SeverityMedium,
				Reason:   "Suspicious date value",
			})
			continue
		}

		t, err := http.ParseTime(value)
		if err != nil {
			findings = append(findings, Finding{
				Type:     "invalid_date",
				Header:   name,
				Value:    truncate(value),
				Severity: SeverityMedium,
				Reason:   "Invalid date format",
			})
			continue
		}

		switch {
		case t.After(now):
			severity := SeverityMedium
			if t.Sub(now) < nearFutureWindow {
				severity = SeverityLow
			}
			findings = append(findings, Finding{
				Type:     "future_date",
				Header:   name,
				Value:    truncate(value),
				Severity: severity,
				Reason:   "date is in the future",
			})
		case now.Sub(t) > staleAge:
			findings = append(findings, Finding{
				Type:     "stale_date",
				Header:   name,
				Value:    truncate(value),
				Severity: SeverityLow,
				Reason:   "date is more than ten years old",
			})
		}
	}

	return findings
}
