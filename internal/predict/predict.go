// Package predict combines model scores with the heuristic risk report into
// a final verdict. The heuristics enter the decision in exactly two places:
// the single-model override and the ensemble gray-zone tie-break. They never
// feed back into feature extraction or model scoring.
package predict

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/iforest"
)

// Verdict classifies one header set.
type Verdict string

const (
	VerdictNormal     Verdict = "normal"
	VerdictSuspicious Verdict = "suspicious"
	// VerdictGray marks an ensemble split that the heuristics could not
	// break either way.
	VerdictGray Verdict = "gray"
)

// Model is the scoring interface the aggregator consumes. Implementations
// must support concurrent read-only scoring.
type Model interface {
	DecisionFunction(v []float64) float64
	Predict(v []float64) iforest.Label
}

// NamedModel is one ensemble member.
type NamedModel struct {
	Name  string
	Model Model
}

// Vote is one member's independent opinion.
type Vote struct {
	Model      string  `json:"model"`
	Verdict    Verdict `json:"verdict"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Aggregate is the combined decision for one header set.
type Aggregate struct {
	ModelType    string  `json:"model_type"` // "single" or "ensemble"
	Verdict      Verdict `json:"verdict"`    // model-only verdict, before heuristics
	FinalVerdict Verdict `json:"final_verdict"`

	Score       float64 `json:"score,omitempty"`      // single mode: raw decision value
	AvgScore    float64 `json:"avg_score,omitempty"`  // ensemble score statistics
	MedianScore float64 `json:"median_score,omitempty"`
	ScoreStd    float64 `json:"score_std,omitempty"`

	Confidence  float64 `json:"confidence"`
	Votes       []Vote  `json:"votes,omitempty"`
	VoteSummary string  `json:"vote_summary,omitempty"`

	HeuristicRisk      float64 `json:"heuristic_risk"`
	HeuristicRiskLevel string  `json:"heuristic_risk_level"`
	TiebreakApplied    bool    `json:"tiebreak_applied,omitempty"`
}

const (
	// heuristicOverride flips a single model's normal verdict when the
	// rule-based risk is this high.
	heuristicOverride = 0.7
	// Gray-zone tie-break thresholds.
	tiebreakSuspicious = 0.5
	tiebreakNormal     = 0.2
)

// FromBundle scores a feature vector with whatever a loaded bundle holds.
func FromBundle(b *iforest.Bundle, vec []float64, report heuristics.RiskReport) Aggregate {
	if b.Type == "ensemble" {
		models := make([]NamedModel, len(b.Members))
		for i, m := range b.Members {
			models[i] = NamedModel{Name: m.Name, Model: m.Model}
		}
		return Ensemble(models, vec, report)
	}
	return Single(b.Single, vec, report)
}

// Single aggregates one model's output with the heuristic report.
func Single(m Model, vec []float64, report heuristics.RiskReport) Aggregate {
	score := m.DecisionFunction(vec)
	verdict := VerdictNormal
	if m.Predict(vec) == iforest.Outlier {
		verdict = VerdictSuspicious
	}

	final := verdict
	if verdict == VerdictSuspicious || report.RiskScore > heuristicOverride {
		final = VerdictSuspicious
	}

	return Aggregate{
		ModelType:          "single",
		Verdict:            verdict,
		FinalVerdict:       final,
		Score:              score,
		Confidence:         math.Abs(score),
		HeuristicRisk:      report.RiskScore,
		HeuristicRiskLevel: report.RiskLevel,
	}
}

// Ensemble aggregates independent member votes by majority, with the
// heuristic risk breaking gray splits.
func Ensemble(models []NamedModel, vec []float64, report heuristics.RiskReport) Aggregate {
	votes := make([]Vote, 0, len(models))
	scores := make([]float64, 0, len(models))
	suspicious := 0

	for _, nm := range models {
		score := nm.Model.DecisionFunction(vec)
		verdict := VerdictNormal
		if nm.Model.Predict(vec) == iforest.Outlier {
			verdict = VerdictSuspicious
			suspicious++
		}
		votes = append(votes, Vote{
			Model:      nm.Name,
			Verdict:    verdict,
			Score:      score,
			Confidence: math.Abs(score),
		})
		scores = append(scores, score)
	}

	total := len(votes)
	verdict := VerdictGray
	switch {
	case suspicious*2 > total:
		verdict = VerdictSuspicious
	case suspicious == 0:
		verdict = VerdictNormal
	}

	confidence := 1.0
	if suspicious != 0 && suspicious != total {
		half := float64(total) / 2
		confidence = math.Abs(float64(suspicious)-half) / half
	}

	agg := Aggregate{
		ModelType:          "ensemble",
		Verdict:            verdict,
		FinalVerdict:       verdict,
		Confidence:         confidence,
		Votes:              votes,
		VoteSummary:        fmt.Sprintf("%d/%d suspicious", suspicious, total),
		HeuristicRisk:      report.RiskScore,
		HeuristicRiskLevel: report.RiskLevel,
	}

	if len(scores) > 0 {
		agg.AvgScore, _ = stats.Mean(scores)
		agg.MedianScore, _ = stats.Median(scores)
		agg.ScoreStd, _ = stats.StdDevP(scores)
	}

	if verdict == VerdictGray {
		agg.TiebreakApplied = true
		switch {
		case report.RiskScore > tiebreakSuspicious:
			agg.FinalVerdict = VerdictSuspicious
		case report.RiskScore < tiebreakNormal:
			agg.FinalVerdict = VerdictNormal
		}
	}

	return agg
}
