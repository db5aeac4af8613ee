package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hdrsift/hdrsift/internal/dataset"
	"github.com/hdrsift/hdrsift/internal/features"
	"github.com/hdrsift/hdrsift/internal/headers"
	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/iforest"
	"github.com/hdrsift/hdrsift/internal/predict"
	"github.com/hdrsift/hdrsift/internal/result"
)

// loadHeaderSets reads an input file holding a single header object, an
// array of header objects, or a labeled dataset written by gen.
func loadHeaderSets(path string) ([]headers.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var set headers.Set
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return []headers.Set{set}, nil
	}

	// Labeled samples carry a "headers" key; fall back to raw header objects.
	var samples []dataset.Sample
	if err := json.Unmarshal(data, &samples); err == nil && len(samples) > 0 {
		labeled := true
		for _, s := range samples {
			if s.Headers.Len() == 0 {
				labeled = false
				break
			}
		}
		if labeled {
			sets := make([]headers.Set, len(samples))
			for i, s := range samples {
				sets[i] = s.Headers
			}
			return sets, nil
		}
	}

	var sets []headers.Set
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sets, nil
}

func loadBundle(path string) (*iforest.Bundle, error) {
	b, err := iforest.Load(path)
	if err != nil {
		return nil, err
	}
	if v := b.FeatureVersion(); v != features.Version {
		return nil, fmt.Errorf("model was trained with feature layout v%d, this build expects v%d", v, features.Version)
	}
	return b, nil
}

func cmdPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	input := fs.String("input", "", "path to header JSON file (required)")
	model := fs.String("model", "models/model.json", "path to model or ensemble")
	format := fs.String("format", "json", "output format: json or text")
	verbose := fs.Bool("verbose", false, "show detailed voting info")
	saveOutput := fs.String("save-output", "", "save predictions to file; \"auto\" picks a timestamped name")
	outputDir := fs.String("output-dir", "results/predictions", "directory for saved predictions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}
	if *format != "json" && *format != "text" {
		return fmt.Errorf("unknown format %q", *format)
	}

	sets, err := loadHeaderSets(*input)
	if err != nil {
		return err
	}
	bundle, err := loadBundle(*model)
	if err != nil {
		return err
	}

	results := make([]result.Result, 0, len(sets))
	for i, set := range sets {
		vec := features.Extract(set)
		report := heuristics.Analyze(set)
		agg := predict.FromBundle(bundle, vec, report)
		res := result.New(i, agg, report)
		results = append(results, res)

		switch *format {
		case "json":
			printed := res
			if !*verbose {
				printed.Prediction.Votes = nil
			}
			out, err := json.MarshalIndent(printed, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		case "text":
			printTextResult(res, *verbose)
		}
	}

	if *saveOutput != "" {
		path, err := savePredictions(*saveOutput, *outputDir, *model, *input, results)
		if err != nil {
			return err
		}
		summary := result.Tally(results)
		fmt.Printf("\n%s\n", strings.Repeat("=", 60))
		fmt.Printf("Predictions saved to: %s\n", path)
		fmt.Printf("Summary: %d normal, %d suspicious, %d gray\n",
			summary.Normal, summary.Suspicious, summary.Gray)
	}
	return nil
}

func printTextResult(res result.Result, verbose bool) {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))
	fmt.Printf("Sample %d: %s\n", res.Index, strings.ToUpper(string(res.FinalVerdict)))
	fmt.Printf("Model type: %s\n", res.Prediction.ModelType)

	if res.Prediction.ModelType == "ensemble" {
		fmt.Printf("ML Votes: %s\n", res.Prediction.VoteSummary)
		fmt.Printf("Confidence: %.1f%%\n", res.Prediction.Confidence*100)
		if verbose {
			fmt.Println("\nDetailed Votes:")
			for _, vote := range res.Prediction.Votes {
				fmt.Printf("  %-12s -> %-10s (score: %.3f)\n", vote.Model, vote.Verdict, vote.Score)
			}
		}
	} else {
		fmt.Printf("ML Score: %.3f\n", res.Prediction.Score)
	}

	fmt.Printf("Heuristic Risk: %.1f%% (%s)\n", res.Heuristics.RiskScore*100, res.Heuristics.RiskLevel)

	if len(res.Heuristics.MissingCriticalHeaders) > 0 {
		fmt.Printf("\nMissing Critical Headers: %s\n", strings.Join(res.Heuristics.MissingCriticalHeaders, ", "))
	}
	if len(res.Heuristics.SuspiciousHeaders) > 0 {
		fmt.Printf("Suspicious Headers: %d found\n", len(res.Heuristics.SuspiciousHeaders))
	}
}

func savePredictions(name, dir, modelPath, inputPath string, results []result.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if name == "auto" {
		name = fmt.Sprintf("predictions_%s.json", time.Now().Format("20060102_150405"))
	}
	path := filepath.Join(dir, name)

	batch := result.Batch{
		Metadata: result.Metadata{
			Timestamp:    time.Now().Format(time.RFC3339),
			ModelPath:    modelPath,
			InputFile:    inputPath,
			TotalSamples: len(results),
			Summary:      result.Tally(results),
		},
		Predictions: results,
	}
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
