package predict

import (
	"math"
	"testing"

	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/iforest"
)

// stubModel returns a fixed decision value; label follows its sign.
type stubModel struct {
	score float64
}

func (s stubModel) DecisionFunction(v []float64) float64 { return s.score }

func (s stubModel) Predict(v []float64) iforest.Label {
	if s.score < 0 {
		return iforest.Outlier
	}
	return iforest.Inlier
}

func report(risk float64) heuristics.RiskReport {
	level := "low"
	if risk >= 0.6 {
		level = "high"
	} else if risk >= 0.3 {
		level = "medium"
	}
	return heuristics.RiskReport{RiskScore: risk, RiskLevel: level}
}

func members(scores ...float64) []NamedModel {
	names := []string{"conservative", "balanced", "aggressive", "subsampled", "extra"}
	out := make([]NamedModel, len(scores))
	for i, s := range scores {
		out[i] = NamedModel{Name: names[i%len(names)], Model: stubModel{score: s}}
	}
	return out
}

func TestSingleModel(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		risk  float64
		want  Verdict
	}{
		{"inlier with low risk stays normal", 0.2, 0.1, VerdictNormal},
		{"outlier is suspicious", -0.2, 0.1, VerdictSuspicious},
		{"high heuristic risk overrides inlier", 0.2, 0.75, VerdictSuspicious},
		{"risk at the override threshold does not flip", 0.2, 0.7, VerdictNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Single(stubModel{score: tt.score}, nil, report(tt.risk))
			if agg.FinalVerdict != tt.want {
				t.Errorf("final verdict = %q, want %q", agg.FinalVerdict, tt.want)
			}
			if agg.Score != tt.score {
				t.Errorf("score = %v, want raw decision value %v", agg.Score, tt.score)
			}
			if agg.ModelType != "single" {
				t.Errorf("model type = %q", agg.ModelType)
			}
		})
	}
}

func TestEnsembleMajority(t *testing.T) {
	t.Run("majority suspicious", func(t *testing.T) {
		agg := Ensemble(members(-0.3, -0.2, -0.1, 0.4), nil, report(0))
		if agg.Verdict != VerdictSuspicious || agg.FinalVerdict != VerdictSuspicious {
			t.Errorf("verdict = %q/%q, want suspicious", agg.Verdict, agg.FinalVerdict)
		}
		if agg.Confidence != 0.5 {
			t.Errorf("confidence = %v, want 0.5 for a 3/4 split", agg.Confidence)
		}
		if agg.VoteSummary != "3/4 suspicious" {
			t.Errorf("vote summary = %q", agg.VoteSummary)
		}
	})

	t.Run("unanimous normal", func(t *testing.T) {
		agg := Ensemble(members(0.1, 0.2, 0.3, 0.4), nil, report(0.9))
		if agg.FinalVerdict != VerdictNormal {
			t.Errorf("final verdict = %q, want normal", agg.FinalVerdict)
		}
		if agg.Confidence != 1.0 {
			t.Errorf("confidence = %v, want 1.0 when unanimous", agg.Confidence)
		}
		if agg.TiebreakApplied {
			t.Error("tie-break should not run outside the gray zone")
		}
	})

	t.Run("unanimous suspicious", func(t *testing.T) {
		agg := Ensemble(members(-0.1, -0.2, -0.3, -0.4), nil, report(0))
		if agg.FinalVerdict != VerdictSuspicious || agg.Confidence != 1.0 {
			t.Errorf("verdict = %q confidence = %v", agg.FinalVerdict, agg.Confidence)
		}
	})
}

func TestEnsembleGrayTiebreak(t *testing.T) {
	split := []float64{-0.3, -0.2, 0.1, 0.4} // 2 suspicious, 2 normal

	tests := []struct {
		name string
		risk float64
		want Verdict
	}{
		{"high risk breaks to suspicious", 0.6, VerdictSuspicious},
		{"low risk breaks to normal", 0.1, VerdictNormal},
		{"middling risk stays gray", 0.35, VerdictGray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Ensemble(members(split...), nil, report(tt.risk))
			if agg.Verdict != VerdictGray {
				t.Fatalf("model verdict = %q, want gray for a 2/2 split", agg.Verdict)
			}
			if agg.Confidence != 0 {
				t.Errorf("confidence = %v, want 0 at an exact tie", agg.Confidence)
			}
			if !agg.TiebreakApplied {
				t.Error("tie-break should be marked applied")
			}
			if agg.FinalVerdict != tt.want {
				t.Errorf("final verdict = %q, want %q", agg.FinalVerdict, tt.want)
			}
		})
	}
}

func TestEnsembleScoreStatistics(t *testing.T) {
	agg := Ensemble(members(1, 2, 3, 4), nil, report(0))

	if agg.AvgScore != 2.5 {
		t.Errorf("avg = %v, want 2.5", agg.AvgScore)
	}
	if agg.MedianScore != 2.5 {
		t.Errorf("median = %v, want 2.5", agg.MedianScore)
	}
	want := math.Sqrt(1.25)
	if math.Abs(agg.ScoreStd-want) > 1e-12 {
		t.Errorf("std = %v, want %v", agg.ScoreStd, want)
	}
}

func TestVoteConfidenceIsScoreMagnitude(t *testing.T) {
	agg := Ensemble(members(-0.25, 0.4), nil, report(0.35))
	if agg.Votes[0].Confidence != 0.25 || agg.Votes[1].Confidence != 0.4 {
		t.Errorf("vote confidences = %v, %v", agg.Votes[0].Confidence, agg.Votes[1].Confidence)
	}
	if agg.Votes[0].Verdict != VerdictSuspicious || agg.Votes[1].Verdict != VerdictNormal {
		t.Errorf("vote verdicts = %q, %q", agg.Votes[0].Verdict, agg.Votes[1].Verdict)
	}
}
