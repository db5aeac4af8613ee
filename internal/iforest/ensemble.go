package iforest

import "fmt"

// ensembleProfile is one member's training recipe. The four profiles give
// deliberately different perspectives: a conservative member that flags
// little, a balanced member, an aggressive member, and one trained on
// smaller subsamples with a different tree structure.
type ensembleProfile struct {
	Name              string
	Trees             int
	ContaminationMult float64
	MaxFeatures       float64
	SampleFraction    float64 // 0 keeps the default subsample size
	SeedOffset        int64
}

var ensembleProfiles = []ensembleProfile{
	{Name: "conservative", Trees: 100, ContaminationMult: 0.5, MaxFeatures: 1.0, SeedOffset: 0},
	{Name: "balanced", Trees: 150, ContaminationMult: 1.0, MaxFeatures: 0.8, SeedOffset: 1},
	{Name: "aggressive", Trees: 200, ContaminationMult: 1.5, MaxFeatures: 0.6, SeedOffset: 2},
	{Name: "subsampled", Trees: 100, ContaminationMult: 1.0, MaxFeatures: 1.0, SampleFraction: 0.8, SeedOffset: 3},
}

// TrainEnsemble fits the four standard members on the same data.
// baseContamination scales each member's contamination rate.
func TrainEnsemble(vectors [][]float64, version int, baseContamination float64, seed int64) ([]NamedForest, error) {
	members := make([]NamedForest, 0, len(ensembleProfiles))
	for _, p := range ensembleProfiles {
		opts := Options{
			Trees:         p.Trees,
			MaxFeatures:   p.MaxFeatures,
			Contamination: baseContamination * p.ContaminationMult,
			Seed:          seed + p.SeedOffset,
		}
		if p.SampleFraction > 0 {
			opts.SampleSize = int(p.SampleFraction * float64(len(vectors)))
		}
		f, err := Train(vectors, version, opts)
		if err != nil {
			return nil, fmt.Errorf("iforest: train %s member: %w", p.Name, err)
		}
		members = append(members, NamedForest{Name: p.Name, Model: f})
	}
	return members, nil
}
