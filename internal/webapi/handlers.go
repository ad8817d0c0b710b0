// Package webapi implements the JSON HTTP API over the benchmark store:
// experiments, rankings, consensus, weights, recommendations, and batch AI
// evaluations.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/prompt-bench/promptbench/internal/models"
	"github.com/prompt-bench/promptbench/internal/ranking"
	"github.com/prompt-bench/promptbench/internal/recommend"
	"github.com/prompt-bench/promptbench/internal/storage"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	store    Store
	engine   *recommend.Engine
	judge    BatchJudge
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandlers creates Handlers over the given store and recommendation
// engine. judge may be nil, which disables batch evaluation endpoints.
func NewHandlers(store Store, engine *recommend.Engine, judge BatchJudge, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:    store,
		engine:   engine,
		judge:    judge,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandlePrompts lists the prompts with stored experiments.
func (h *Handlers) HandlePrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.store.ListPrompts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if prompts == nil {
		prompts = []string{}
	}
	writeJSON(w, http.StatusOK, PromptListResponse{Prompts: prompts})
}

// HandleExperiments lists experiments, optionally filtered by ?prompt=.
func (h *Handlers) HandleExperiments(w http.ResponseWriter, r *http.Request) {
	promptName := r.URL.Query().Get("prompt")

	experiments, err := h.store.ListExperiments(r.Context(), promptName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if experiments == nil {
		experiments = []models.ExperimentResult{}
	}
	writeJSON(w, http.StatusOK, ExperimentListResponse{
		PromptName:  promptName,
		NumResults:  len(experiments),
		Experiments: experiments,
	})
}

// HandleExperimentDetail returns a single experiment result.
func (h *Handlers) HandleExperimentDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "experiment id is required")
		return
	}

	exp, err := h.store.GetExperiment(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "experiment not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// HandleSetAcceptability updates the acceptability flag on an experiment.
func (h *Handlers) HandleSetAcceptability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req AcceptabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.store.SetAcceptability(r.Context(), id, *req.IsAcceptable); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "experiment not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"experiment_id": id,
		"is_acceptable": *req.IsAcceptable,
	})
}

// HandleAgreement computes agreement metrics between two orderings.
func (h *Handlers) HandleAgreement(w http.ResponseWriter, r *http.Request) {
	var req AgreementRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ranking.CalculateAgreement(req.RankingA, req.RankingB))
}

// HandleSaveRanking stores a human ranking. When the ranking was built from
// an AI batch, agreement metrics against that batch are computed and stored
// with it.
func (h *Handlers) HandleSaveRanking(w http.ResponseWriter, r *http.Request) {
	var req SaveRankingRequest
	if !h.decode(w, r, &req) {
		return
	}

	hr := models.HumanRanking{
		RankingID:           uuid.NewString(),
		PromptName:          req.PromptName,
		EvaluatorName:       req.EvaluatorName,
		RankedExperimentIDs: req.RankedExperimentIDs,
		BasedOnAIBatchID:    req.BasedOnAIBatchID,
		Notes:               req.Notes,
		TimeSpentSeconds:    req.TimeSpentSeconds,
		CreatedAt:           time.Now().UTC(),
	}

	if req.BasedOnAIBatchID != "" {
		batch, err := h.store.GetAIBatch(r.Context(), req.BasedOnAIBatchID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if batch != nil && len(batch.RankedExperimentIDs) > 0 {
			agreement := ranking.CalculateAgreement(batch.RankedExperimentIDs, req.RankedExperimentIDs)
			hr.AIAgreementScore = &agreement.KendallTau
			hr.Top3Overlap = &agreement.Top3Overlap
			hr.ExactPositionMatches = &agreement.ExactPositionMatches
			hr.ChangesFromAI = agreement.Changes
		}
	}

	if err := h.store.SaveHumanRanking(r.Context(), hr); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("human ranking saved",
		"prompt", hr.PromptName, "evaluator", hr.EvaluatorName, "ranking_id", hr.RankingID)
	writeJSON(w, http.StatusCreated, hr)
}

// HandleRankings lists the stored human rankings for a prompt.
func (h *Handlers) HandleRankings(w http.ResponseWriter, r *http.Request) {
	promptName := r.PathValue("prompt")

	rankings, err := h.store.GetHumanRankings(r.Context(), promptName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rankings == nil {
		rankings = []models.HumanRanking{}
	}
	writeJSON(w, http.StatusOK, RankingListResponse{
		PromptName:  promptName,
		NumRankings: len(rankings),
		Rankings:    rankings,
	})
}

// HandleConsensus returns the Borda consensus across a prompt's rankings.
// An optional ?ai_batch_id= adds agreement against that batch's ordering.
func (h *Handlers) HandleConsensus(w http.ResponseWriter, r *http.Request) {
	promptName := r.PathValue("prompt")

	rankings, err := h.store.GetHumanRankings(r.Context(), promptName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rankings) == 0 {
		writeError(w, http.StatusNotFound, "no rankings for prompt")
		return
	}

	var aiRanking []string
	if batchID := r.URL.Query().Get("ai_batch_id"); batchID != "" {
		batch, err := h.store.GetAIBatch(r.Context(), batchID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if batch != nil {
			aiRanking = batch.RankedExperimentIDs
		}
	}

	writeJSON(w, http.StatusOK, ConsensusResponse{
		PromptName: promptName,
		Consensus:  ranking.CalculateConsensus(rankings, aiRanking),
	})
}

// HandleRecommendation generates and stores a fresh recommendation for a
// prompt using its stored (or default) weights.
func (h *Handlers) HandleRecommendation(w http.ResponseWriter, r *http.Request) {
	promptName := r.PathValue("prompt")

	rec, err := h.engine.Recommend(r.Context(), promptName, nil)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrNoExperiments):
			writeError(w, http.StatusNotFound, "no successful experiments for prompt")
		case errors.Is(err, models.ErrInvalidWeights):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if err := h.store.SaveRecommendation(r.Context(), *rec); err != nil {
		h.logger.Warn("failed to persist recommendation", "prompt", promptName, "error", err)
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleGetWeights returns the effective weight triple for a prompt.
func (h *Handlers) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	promptName := r.PathValue("prompt")

	weights, err := h.store.GetWeights(r.Context(), promptName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if weights == nil {
		defaults := models.DefaultWeights(promptName)
		weights = &defaults
	}
	writeJSON(w, http.StatusOK, weights)
}

// HandleSetWeights stores a weight triple for a prompt.
func (h *Handlers) HandleSetWeights(w http.ResponseWriter, r *http.Request) {
	promptName := r.PathValue("prompt")
	var req WeightsRequest
	if !h.decode(w, r, &req) {
		return
	}

	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = "api"
	}
	weights, err := models.NewRankingWeights(promptName, req.Quality, req.Speed, req.Cost, updatedBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveWeights(r.Context(), weights); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, weights)
}

// HandleStartBatch starts a batch AI evaluation in the background.
func (h *Handlers) HandleStartBatch(w http.ResponseWriter, r *http.Request) {
	if h.judge == nil {
		writeError(w, http.StatusServiceUnavailable, "AI evaluation is not configured")
		return
	}

	var req StartBatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	var reviewPrompt *models.ReviewPrompt
	if req.ReviewPromptID != "" {
		rp, err := h.store.GetReviewPrompt(r.Context(), req.ReviewPromptID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "review prompt not found")
			} else {
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		reviewPrompt = rp
	}

	batch, err := h.judge.StartBatch(r.Context(), req.PromptName, reviewPrompt)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	// The request context dies with the response; the evaluation keeps
	// running on its own context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := h.judge.Evaluate(ctx, *batch, reviewPrompt); err != nil {
			h.logger.Error("background batch evaluation failed",
				"batch_id", batch.BatchID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, StartBatchResponse{
		Status:         "started",
		BatchID:        batch.BatchID,
		PromptName:     batch.PromptName,
		NumExperiments: batch.NumExperiments,
	})
}

// HandleBatchStatus returns the state of a batch AI evaluation.
func (h *Handlers) HandleBatchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	batch, err := h.store.GetAIBatch(r.Context(), batchID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "batch not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

// RegisterRoutes registers all web API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/prompts", h.HandlePrompts)
	mux.HandleFunc("GET /api/experiments", h.HandleExperiments)
	mux.HandleFunc("GET /api/experiments/{id}", h.HandleExperimentDetail)
	mux.HandleFunc("PUT /api/experiments/{id}/acceptability", h.HandleSetAcceptability)
	mux.HandleFunc("POST /api/agreement", h.HandleAgreement)
	mux.HandleFunc("POST /api/rankings", h.HandleSaveRanking)
	mux.HandleFunc("GET /api/rankings/{prompt}", h.HandleRankings)
	mux.HandleFunc("GET /api/consensus/{prompt}", h.HandleConsensus)
	mux.HandleFunc("GET /api/recommendations/{prompt}", h.HandleRecommendation)
	mux.HandleFunc("GET /api/weights/{prompt}", h.HandleGetWeights)
	mux.HandleFunc("PUT /api/weights/{prompt}", h.HandleSetWeights)
	mux.HandleFunc("POST /api/evaluate/batch", h.HandleStartBatch)
	mux.HandleFunc("GET /api/evaluate/batch/{id}", h.HandleBatchStatus)
}

// decode unmarshals and validates a JSON request body, writing a 400 on
// failure. Returns false when the request was rejected.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
