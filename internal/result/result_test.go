package result

import (
	"testing"

	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/predict"
)

func TestNew(t *testing.T) {
	agg := predict.Aggregate{ModelType: "single", FinalVerdict: predict.VerdictSuspicious}
	report := heuristics.RiskReport{RiskScore: 0.9, RiskLevel: "high"}

	r := New(3, agg, report)

	if r.ID == "" {
		t.Error("ID not assigned")
	}
	if r.TS == "" {
		t.Error("TS not assigned")
	}
	if r.Index != 3 {
		t.Errorf("Index = %d, want 3", r.Index)
	}
	if r.FinalVerdict != predict.VerdictSuspicious {
		t.Errorf("FinalVerdict = %q", r.FinalVerdict)
	}
	if r.Heuristics.RiskLevel != "high" {
		t.Errorf("RiskLevel = %q", r.Heuristics.RiskLevel)
	}

	r2 := New(4, agg, report)
	if r2.ID == r.ID {
		t.Error("IDs should be unique per result")
	}
}

func TestTally(t *testing.T) {
	mk := func(v predict.Verdict) Result {
		return Result{FinalVerdict: v}
	}
	s := Tally([]Result{
		mk(predict.VerdictNormal),
		mk(predict.VerdictNormal),
		mk(predict.VerdictSuspicious),
		mk(predict.VerdictGray),
	})
	if s.Normal != 2 || s.Suspicious != 1 || s.Gray != 1 {
		t.Errorf("Tally = %+v", s)
	}
}

func TestTallyEmpty(t *testing.T) {
	s := Tally(nil)
	if s != (Summary{}) {
		t.Errorf("Tally(nil) = %+v, want zero", s)
	}
}
