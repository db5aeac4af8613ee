package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hdrsift/hdrsift/internal/features"
	"github.com/hdrsift/hdrsift/internal/headers"
	"github.com/hdrsift/hdrsift/internal/heuristics"
	"github.com/hdrsift/hdrsift/internal/iforest"
	"github.com/hdrsift/hdrsift/internal/metrics"
	"github.com/hdrsift/hdrsift/internal/predict"
	"github.com/hdrsift/hdrsift/internal/result"
	cfg "github.com/hdrsift/hdrsift/pkg/config"
)

type Env struct {
	Cfg     cfg.Config
	Bundle  *iforest.Bundle     // loaded model; nil until ready
	Emit    func(result.Result) // injected sink fan-out
	Metrics *metrics.Metrics
}

func (e Env) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (e Env) Readyz(w http.ResponseWriter, r *http.Request) {
	if e.Bundle == nil {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// GET /model — describes the loaded bundle.
func (e Env) ModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if e.Bundle == nil {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		return
	}

	info := map[string]any{
		"type":            e.Bundle.Type,
		"feature_version": e.Bundle.FeatureVersion(),
		"feature_count":   features.Count,
	}
	if e.Bundle.Type == "ensemble" {
		names := make([]string, len(e.Bundle.Members))
		for i, m := range e.Bundle.Members {
			names[i] = m.Name
		}
		info["members"] = names
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}

func (e Env) analyzeOne(index int, set headers.Set) result.Result {
	start := time.Now()
	vec := features.Extract(set)
	report := heuristics.Analyze(set)
	agg := predict.FromBundle(e.Bundle, vec, report)
	res := result.New(index, agg, report)

	if e.Metrics != nil {
		e.Metrics.IncrementSetsAnalyzed(string(res.FinalVerdict))
		e.Metrics.ObserveAnalysisDuration(agg.ModelType, time.Since(start))
	}
	if e.Emit != nil {
		e.Emit(res)
	}
	return res
}

// POST /analyze — accepts a single JSON object of headers or an array of them.
func (e Env) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		http.Error(w, "content-type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	if e.Bundle == nil {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, e.Cfg.MaxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	trimmed := strings.TrimSpace(string(raw))
	w.Header().Set("Content-Type", "application/json")

	if strings.HasPrefix(trimmed, "[") {
		var sets []headers.Set
		if err := json.Unmarshal(raw, &sets); err != nil {
			http.Error(w, "invalid json array", http.StatusBadRequest)
			return
		}
		results := make([]result.Result, len(sets))
		for i, set := range sets {
			results[i] = e.analyzeOne(i, set)
		}
		w.Header().Set("X-Hdrsift-Analyzed", itoa(len(results)))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": results,
			"summary": result.Tally(results),
		})
		return
	}

	var set headers.Set
	if err := json.Unmarshal(raw, &set); err != nil {
		http.Error(w, "invalid json object", http.StatusBadRequest)
		return
	}
	res := e.analyzeOne(0, set)
	w.Header().Set("X-Hdrsift-Analyzed", "1")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(res)
}

func itoa(i int) string { return fmtInt(i) }

// tiny int->string to avoid fmt import in this file
func fmtInt(n int) string {
	if n == 0 {
		return "0"
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return sign + string(b[i:])
}
