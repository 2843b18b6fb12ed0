package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nxneeraj/phishwatch/pkg/classifier"
	"github.com/nxneeraj/phishwatch/pkg/features"
	"github.com/nxneeraj/phishwatch/pkg/types"
)

// APIHandler holds dependencies for API endpoints.
type APIHandler struct {
	Checks    *CheckLog
	Extractor *features.Extractor
	Model     *classifier.Model
	Verbose   bool
}

// NewAPIHandler creates a new handler instance.
func NewAPIHandler(checks *CheckLog, extractor *features.Extractor, model *classifier.Model) *APIHandler {
	return &APIHandler{Checks: checks, Extractor: extractor, Model: model}
}

// CheckURLHandler classifies one URL.
// POST /check_url
// Body: {"url": "http://..."}
func (h *APIHandler) CheckURLHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL *string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.URL == nil {
		http.Error(w, "Missing url field", http.StatusBadRequest)
		return
	}
	rawURL := *body.URL

	checkID := h.Checks.Begin(rawURL)
	w.Header().Set("X-Check-ID", checkID)

	vec, err := h.Extractor.Extract(r.Context(), rawURL)
	if err != nil {
		log.Printf("[API] [%s] Feature extraction failed for %q: %v", checkID, rawURL, err)
		h.finish(checkID, types.ResultError, 0, nil, err)
		writeJSON(w, http.StatusOK, types.CheckResponse{Result: types.ResultError})
		return
	}

	result, score := h.Model.Predict(vec)
	h.finish(checkID, result, score, vec.Map(), nil)
	if h.Verbose {
		log.Printf("[API] [%s] %s -> %s (score %.3f)", checkID, rawURL, result, score)
	}

	writeJSON(w, http.StatusOK, types.CheckResponse{Result: result})
}

// finish records the verdict. The check may already have been evicted from
// a small log, in which case its ID will answer 404.
func (h *APIHandler) finish(checkID, result string, score float64, feats map[string]float64, cause error) {
	if err := h.Checks.Finish(checkID, result, score, feats, cause); err != nil {
		log.Printf("[API] [%s] Verdict %q not recorded: %v", checkID, result, err)
	}
}

// CheckStatusHandler returns a stored verdict with its features.
// GET /checks/{id}
func (h *APIHandler) CheckStatusHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Checks.Get(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HealthHandler reports liveness and the loaded model.
// GET /healthz
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"model":  h.Model.Name,
		"checks": h.Checks.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to write response: %v", err)
	}
}
