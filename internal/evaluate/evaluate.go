// Package evaluate scores model verdicts against labeled data.
package evaluate

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// Labels is the fixed class order used in reports and confusion matrices.
var Labels = []string{"normal", "suspicious"}

// ClassMetrics holds precision, recall, and F1 for one class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the evaluation result over a labeled set.
type Report struct {
	Classes   map[string]ClassMetrics `json:"classes"`
	Accuracy  float64                 `json:"accuracy"`
	Total     int                     `json:"total"`
	Confusion [2][2]int               `json:"confusion"` // rows true, cols predicted, in Labels order
	MeanScore map[string]float64      `json:"mean_score"`
}

func classIndex(label string) int {
	for i, l := range Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Evaluate compares predicted verdicts to true labels. scores may be nil;
// when present it must be parallel to the labels and feeds the per-class
// score means.
func Evaluate(truth, predicted []string, scores []float64) (Report, error) {
	if len(truth) != len(predicted) {
		return Report{}, fmt.Errorf("evaluate: %d labels but %d predictions", len(truth), len(predicted))
	}
	if scores != nil && len(scores) != len(truth) {
		return Report{}, fmt.Errorf("evaluate: %d labels but %d scores", len(truth), len(scores))
	}
	if len(truth) == 0 {
		return Report{}, fmt.Errorf("evaluate: empty input")
	}

	r := Report{
		Classes:   make(map[string]ClassMetrics, len(Labels)),
		Total:     len(truth),
		MeanScore: make(map[string]float64, len(Labels)),
	}

	classScores := make(map[string][]float64, len(Labels))
	correct := 0
	for i := range truth {
		ti, pi := classIndex(truth[i]), classIndex(predicted[i])
		if ti < 0 {
			return Report{}, fmt.Errorf("evaluate: unknown label %q", truth[i])
		}
		if pi >= 0 {
			r.Confusion[ti][pi]++
		}
		if truth[i] == predicted[i] {
			correct++
		}
		if scores != nil {
			classScores[truth[i]] = append(classScores[truth[i]], scores[i])
		}
	}
	r.Accuracy = float64(correct) / float64(len(truth))

	for ci, label := range Labels {
		tp := r.Confusion[ci][ci]
		var fp, fn int
		for other := range Labels {
			if other == ci {
				continue
			}
			fp += r.Confusion[other][ci]
			fn += r.Confusion[ci][other]
		}
		m := ClassMetrics{Support: r.Confusion[ci][0] + r.Confusion[ci][1]}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[label] = m

		if vals := classScores[label]; len(vals) > 0 {
			mean, err := stats.Mean(vals)
			if err != nil {
				return Report{}, fmt.Errorf("evaluate: mean score for %s: %w", label, err)
			}
			r.MeanScore[label] = mean
		}
	}

	return r, nil
}

// String renders the report in a fixed-width layout for terminal output.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %9s %9s %9s %9s\n", "", "precision", "recall", "f1", "support")
	for _, label := range Labels {
		m := r.Classes[label]
		fmt.Fprintf(&b, "%-12s %9.3f %9.3f %9.3f %9d\n", label, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "\naccuracy: %.3f (%d samples)\n", r.Accuracy, r.Total)
	fmt.Fprintf(&b, "\nconfusion matrix (rows true, cols predicted; %s):\n", strings.Join(Labels, ", "))
	for i := range Labels {
		fmt.Fprintf(&b, "  [%6d %6d]\n", r.Confusion[i][0], r.Confusion[i][1])
	}
	if len(r.MeanScore) > 0 {
		b.WriteString("\n")
		for _, label := range Labels {
			if mean, ok := r.MeanScore[label]; ok {
				fmt.Fprintf(&b, "mean score for %s: %.4f\n", label, mean)
			}
		}
	}
	return b.String()
}
