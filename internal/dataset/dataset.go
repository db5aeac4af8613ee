// Package dataset generates labeled synthetic header sets for training and
// evaluation runs.
package dataset

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/hdrsift/hdrsift/internal/headers"
)

const (
	LabelNormal     = "normal"
	LabelSuspicious = "suspicious"
)

// Sample is one labeled header set.
type Sample struct {
	Headers headers.Set `json:"headers"`
	Label   string      `json:"label"`
}

var browserUAs = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/115.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 18_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/139.0.7258.60 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 15.5; rv:141.0) Gecko/20100101 Firefox/141.0",
	"Mozilla/5.0 (Linux; Android 10; HD1913) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.7204.158 Mobile Safari/537.36 EdgA/138.0.3351.98",
	"Mozilla/5.0 (Linux; Android 14; Pixel 9 Build/AD1A.240411.003.A5; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/124.0.6367.54 Mobile Safari/537.36",
}

var automationUAs = []string{
	"curl/7.68.0",
	"python-requests/2.25.1",
	"Go-http-client/1.1",
	"scrapy/1.0.0",
	"evil-bot",
	"malicious-spider",
	"wget",
}

var junkHeaderNames = []string{
	"X-Evil", "X-Test", "X-Custom-Foo", "DNT", "X-Obfuscate",
}

var hosts = []string{"example.com", "testsite.org", "mydomain.net"}
var referers = []string{"https://google.com", "https://bing.com", "https://yahoo.com"}

const (
	plainChars   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ "
	entropyChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+[]{}|;:,.<>?"
)

// Generator produces reproducible samples from a seeded source.
type Generator struct {
	rng *rand.Rand
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) randStr(n int, highEntropy bool) string {
	alphabet := plainChars
	if highEntropy {
		alphabet = entropyChars
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

// Normal builds a header set a real browser would plausibly send.
func (g *Generator) Normal() headers.Set {
	return headers.FromPairs([]headers.Pair{
		{Name: "User-Agent", Value: g.pick(browserUAs)},
		{Name: "Host", Value: g.pick(hosts)},
		{Name: "Accept", Value: "text/html,application/xhtml+xml,application/xml;q=0.9"},
		{Name: "Accept-Encoding", Value: "gzip, deflate"},
		{Name: "Connection", Value: "keep-alive"},
		{Name: "Referer", Value: g.pick(referers)},
		{Name: "X-Forwarded-For", Value: fmt.Sprintf("192.168.%d.%d", g.rng.Intn(256), g.rng.Intn(256))},
		{Name: "Content-Type", Value: "application/x-www-form-urlencoded"},
	})
}

// Suspicious builds a header set with the markers automation leaves behind:
// automation user agents, junk X- headers, high-entropy values, and the
// occasional bad MIME type.
func (g *Generator) Suspicious() headers.Set {
	var set headers.Set

	if g.rng.Float64() < 0.5 {
		set.Add("User-Agent", g.pick(automationUAs))
	} else {
		set.Add("X-Evil-UA", g.randStr(24, false))
	}

	if g.rng.Float64() < 0.7 {
		set.Add("X-Forwarded-For", g.randStr(32, true))
	}

	for i := g.rng.Intn(4) + 1; i > 0; i-- {
		name := g.pick(junkHeaderNames)
		length := g.rng.Intn(106) + 15
		set.Add(name, g.randStr(length, g.rng.Float64() < 0.5))
	}

	if g.rng.Float64() < 0.3 {
		set.Add("Content-Type", "application/x-bad-mime-type")
	}

	return set
}

// Dataset builds n shuffled samples, ratio of them normal.
func (g *Generator) Dataset(n int, ratio float64) []Sample {
	normal := int(float64(n) * ratio)
	samples := make([]Sample, 0, n)
	for i := 0; i < normal; i++ {
		samples = append(samples, Sample{Headers: g.Normal(), Label: LabelNormal})
	}
	for i := normal; i < n; i++ {
		samples = append(samples, Sample{Headers: g.Suspicious(), Label: LabelSuspicious})
	}
	g.rng.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})
	return samples
}

// Save writes samples as indented JSON, creating parent directories.
func Save(path string, samples []Sample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}

// Load reads a labeled sample file written by Save.
func Load(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	return samples, nil
}
