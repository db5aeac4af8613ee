// Package result defines the envelope a finished analysis travels in: the
// unit emitted to sinks, returned by the HTTP API, and written by the CLI.
package result

import (
	"time"

	"github.com/google/uuid"

	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/predict"
)

// Result is one header set's complete assessment.
type Result struct {
	ID    string `json:"id"`
	TS    string `json:"ts"` // RFC3339
	Index int    `json:"index"`

	FinalVerdict predict.Verdict       `json:"final_verdict"`
	Prediction   predict.Aggregate     `json:"prediction"`
	Heuristics   heuristics.RiskReport `json:"heuristics"`
}

// New stamps an aggregate decision into a Result.
func New(index int, agg predict.Aggregate, report heuristics.RiskReport) Result {
	return Result{
		ID:           uuid.NewString(),
		TS:           time.Now().UTC().Format(time.RFC3339Nano),
		Index:        index,
		FinalVerdict: agg.FinalVerdict,
		Prediction:   agg,
		Heuristics:   report,
	}
}

// Summary tallies verdicts across a batch.
type Summary struct {
	Normal     int `json:"normal"`
	Suspicious int `json:"suspicious"`
	Gray       int `json:"gray"`
}

// Tally counts final verdicts.
func Tally(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.FinalVerdict {
		case predict.VerdictSuspicious:
			s.Suspicious++
		case predict.VerdictGray:
			s.Gray++
		default:
			s.Normal++
		}
	}
	return s
}

// Metadata describes a saved prediction batch.
type Metadata struct {
	Timestamp    string  `json:"timestamp"`
	ModelPath    string  `json:"model_path"`
	InputFile    string  `json:"input_file"`
	TotalSamples int     `json:"total_samples"`
	Summary      Summary `json:"summary"`
}

// Batch is the on-disk shape of a saved prediction run.
type Batch struct {
	Metadata    Metadata `json:"metadata"`
	Predictions []Result `json:"predictions"`
}
