package dataset

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalSamplesLookLikeBrowsers(t *testing.T) {
	g := New(1)
	for i := 0; i < 20; i++ {
		set := g.Normal()
		ua, ok := set.Get("User-Agent")
		if !ok || !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Fatalf("normal sample %d has user agent %q", i, ua)
		}
		for _, name := range []string{"Host", "Accept", "Accept-Encoding", "Connection"} {
			if !set.Has(name) {
				t.Errorf("normal sample %d missing %s", i, name)
			}
		}
	}
}

func TestSuspiciousSamplesCarryMarkers(t *testing.T) {
	g := New(2)
	for i := 0; i < 20; i++ {
		set := g.Suspicious()
		if set.Len() == 0 {
			t.Fatalf("suspicious sample %d is empty", i)
		}
		junk := 0
		for _, name := range set.Names() {
			if strings.HasPrefix(name, "X-") || name == "DNT" {
				junk++
			}
		}
		hasAutomationUA := false
		if ua, ok := set.Get("User-Agent"); ok && !strings.HasPrefix(ua, "Mozilla/5.0") {
			hasAutomationUA = true
		}
		if junk == 0 && !hasAutomationUA {
			t.Errorf("suspicious sample %d has no junk headers and no automation UA: %v", i, set.Names())
		}
	}
}

func TestDatasetRatioAndLabels(t *testing.T) {
	samples := New(3).Dataset(100, 0.7)
	if len(samples) != 100 {
		t.Fatalf("got %d samples, want 100", len(samples))
	}
	normal := 0
	for _, s := range samples {
		switch s.Label {
		case LabelNormal:
			normal++
		case LabelSuspicious:
		default:
			t.Fatalf("unexpected label %q", s.Label)
		}
	}
	if normal != 70 {
		t.Errorf("got %d normal samples, want 70", normal)
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := New(42).Dataset(10, 0.5)
	b := New(42).Dataset(10, 0.5)
	for i := range a {
		if a[i].Label != b[i].Label {
			t.Fatalf("sample %d label differs: %q vs %q", i, a[i].Label, b[i].Label)
		}
		an, bn := a[i].Headers.Names(), b[i].Headers.Names()
		if len(an) != len(bn) {
			t.Fatalf("sample %d header count differs", i)
		}
		for j := range an {
			if an[j] != bn[j] {
				t.Fatalf("sample %d header %d differs: %q vs %q", i, j, an[j], bn[j])
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	samples := New(4).Dataset(12, 0.5)
	path := filepath.Join(t.TempDir(), "nested", "eval.json")

	if err := Save(path, samples); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(samples) {
		t.Fatalf("loaded %d samples, want %d", len(loaded), len(samples))
	}
	for i := range samples {
		if loaded[i].Label != samples[i].Label {
			t.Errorf("sample %d label = %q, want %q", i, loaded[i].Label, samples[i].Label)
		}
		if loaded[i].Headers.Len() != samples[i].Headers.Len() {
			t.Errorf("sample %d header count = %d, want %d",
				i, loaded[i].Headers.Len(), samples[i].Headers.Len())
		}
	}
}
