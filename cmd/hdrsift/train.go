package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hdrsift/hdrsift/internal/dataset"
	"github.com/hdrsift/hdrsift/internal/evaluate"
	"github.com/hdrsift/hdrsift/internal/features"
	"github.com/hdrsift/hdrsift/internal/iforest"
	"github.com/hdrsift/hdrsift/internal/predict"
)

func extractAll(path string) ([][]float64, error) {
	sets, err := loadHeaderSets(path)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(sets))
	for i, set := range sets {
		vectors[i] = features.Extract(set)
	}
	return vectors, nil
}

func ensureParentDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func cmdTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	input := fs.String("input", "", "path to training data (required)")
	output := fs.String("output", "models/model.json", "output file")
	trees := fs.Int("trees", 100, "number of trees")
	sampleSize := fs.Int("sample-size", 0, "subsample size per tree (0 for default)")
	maxFeatures := fs.Float64("max-features", 1.0, "fraction of features per tree")
	contamination := fs.Float64("contamination", 0.1, "expected anomaly fraction")
	seed := fs.Int64("seed", 42, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}

	vectors, err := extractAll(*input)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted features from %d samples\n", len(vectors))

	f, err := iforest.Train(vectors, features.Version, iforest.Options{
		Trees:         *trees,
		SampleSize:    *sampleSize,
		MaxFeatures:   *maxFeatures,
		Contamination: *contamination,
		Seed:          *seed,
	})
	if err != nil {
		return err
	}

	if err := ensureParentDir(*output); err != nil {
		return err
	}
	if err := iforest.SaveSingle(*output, f); err != nil {
		return err
	}
	fmt.Printf("Model saved to %s\n", *output)
	return nil
}

func cmdTrainEnsemble(args []string) error {
	fs := flag.NewFlagSet("train-ensemble", flag.ExitOnError)
	input := fs.String("input", "", "path to training data (required)")
	output := fs.String("output", "models/ensemble.json", "output file")
	contamination := fs.Float64("contamination", 0.1, "base contamination rate")
	seed := fs.Int64("seed", 42, "random seed for the first member")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}

	vectors, err := extractAll(*input)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted features from %d samples\n", len(vectors))

	fmt.Println("Training ensemble models...")
	members, err := iforest.TrainEnsemble(vectors, features.Version, *contamination, *seed)
	if err != nil {
		return err
	}

	if err := ensureParentDir(*output); err != nil {
		return err
	}
	if err := iforest.SaveEnsemble(*output, members); err != nil {
		return err
	}
	fmt.Printf("Ensemble saved to %s\n", *output)
	for _, m := range members {
		fmt.Printf("  %s\n", m.Name)
	}
	return nil
}

// bundleScore reduces a bundle to one decision value per sample: the raw
// decision for a single model, the vote average for an ensemble.
func bundleScore(b *iforest.Bundle, vec []float64) float64 {
	if b.Type == "single" {
		return b.Single.DecisionFunction(vec)
	}
	sum := 0.0
	for _, m := range b.Members {
		sum += m.Model.DecisionFunction(vec)
	}
	return sum / float64(len(b.Members))
}

func cmdEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	model := fs.String("model", "models/model.json", "path to trained model")
	input := fs.String("input", "", "path to labeled eval data (required)")
	threshold := fs.Float64("threshold", 0.0, "score threshold for normal/suspicious")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return fmt.Errorf("-input is required")
	}

	samples, err := dataset.Load(*input)
	if err != nil {
		return err
	}
	bundle, err := loadBundle(*model)
	if err != nil {
		return err
	}

	truth := make([]string, len(samples))
	pred := make([]string, len(samples))
	scores := make([]float64, len(samples))
	for i, s := range samples {
		truth[i] = s.Label
		scores[i] = bundleScore(bundle, features.Extract(s.Headers))
		if scores[i] >= *threshold {
			pred[i] = string(predict.VerdictNormal)
		} else {
			pred[i] = string(predict.VerdictSuspicious)
		}
	}

	report, err := evaluate.Evaluate(truth, pred, scores)
	if err != nil {
		return err
	}
	fmt.Print(report.String())
	return nil
}

func cmdGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	output := fs.String("output", "data/evaluation/synthetic_eval.json", "output file path")
	samples := fs.Int("samples", 1000, "total number of samples")
	ratio := fs.Float64("ratio", 0.5, "proportion of normal samples (0.0 - 1.0)")
	seed := fs.Int64("seed", 0, "random seed for reproducibility")
	asJSON := fs.Bool("summary-json", false, "print a JSON summary instead of plain text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ratio < 0 || *ratio > 1 {
		return fmt.Errorf("-ratio must be between 0 and 1")
	}

	data := dataset.New(*seed).Dataset(*samples, *ratio)
	if err := dataset.Save(*output, data); err != nil {
		return err
	}

	if *asJSON {
		out, err := json.Marshal(map[string]any{
			"output":  *output,
			"samples": *samples,
			"ratio":   *ratio,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Printf("Wrote %d labeled samples to %s\n", *samples, *output)
	return nil
}
