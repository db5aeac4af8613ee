package iforest

import (
	"encoding/json"
	"fmt"
	"os"
)

// NamedForest is one ensemble member with its training profile name.
type NamedForest struct {
	Name  string  `json:"name"`
	Model *Forest `json:"model"`
}

// Bundle is the on-disk model container. A file holds either a single
// forest or a named ensemble; Load tells them apart by the type tag.
type Bundle struct {
	Type    string        `json:"type"` // "single" or "ensemble"
	Single  *Forest       `json:"model,omitempty"`
	Members []NamedForest `json:"models,omitempty"`
}

// FeatureVersion returns the layout version the bundled models were
// trained against.
func (b *Bundle) FeatureVersion() int {
	if b.Type == "single" && b.Single != nil {
		return b.Single.FeatureVersion
	}
	if len(b.Members) > 0 && b.Members[0].Model != nil {
		return b.Members[0].Model.FeatureVersion
	}
	return 0
}

// SaveSingle writes a single-model bundle.
func SaveSingle(path string, f *Forest) error {
	return writeBundle(path, Bundle{Type: "single", Single: f})
}

// SaveEnsemble writes a named-ensemble bundle.
func SaveEnsemble(path string, members []NamedForest) error {
	if len(members) == 0 {
		return fmt.Errorf("iforest: refusing to save empty ensemble")
	}
	return writeBundle(path, Bundle{Type: "ensemble", Members: members})
}

func writeBundle(path string, b Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("iforest: encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("iforest: write model: %w", err)
	}
	return nil
}

// Load reads a bundle and validates its shape.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("iforest: read model: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("iforest: decode model: %w", err)
	}
	switch b.Type {
	case "single":
		if b.Single == nil || len(b.Single.Trees) == 0 {
			return nil, fmt.Errorf("iforest: single bundle has no model")
		}
	case "ensemble":
		if len(b.Members) == 0 {
			return nil, fmt.Errorf("iforest: ensemble bundle has no members")
		}
		for _, m := range b.Members {
			if m.Model == nil || len(m.Model.Trees) == 0 {
				return nil, fmt.Errorf("iforest: ensemble member %q has no model", m.Name)
			}
		}
	default:
		return nil, fmt.Errorf("iforest: unknown bundle type %q", b.Type)
	}
	return &b, nil
}
