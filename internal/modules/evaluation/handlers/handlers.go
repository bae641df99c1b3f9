// Package handlers provides HTTP handlers for portfolio evaluation.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/goaleval/internal/domain"
	"github.com/aristath/goaleval/internal/modules/evaluation"
	"github.com/aristath/goaleval/internal/modules/portfolio"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Handler handles evaluation HTTP requests
type Handler struct {
	service *evaluation.Service
	log     zerolog.Logger
}

// NewHandler creates a new evaluation handler
func NewHandler(service *evaluation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "evaluation").Logger(),
	}
}

// ValidationResponse is the result of POST /api/v1/portfolio/validate
type ValidationResponse struct {
	Portfolio *domain.Portfolio `json:"portfolio,omitempty"`
	Message   string            `json:"message"`
	Strategy  string            `json:"strategy,omitempty"`
	Valid     bool              `json:"valid"`
}

// HandleEvaluate handles POST /api/v1/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var request evaluation.Request
	if err := h.decode(w, r, &request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(request.Goal) == "" {
		h.writeError(w, http.StatusBadRequest, "Goal is required")
		return
	}
	if request.NumPaths < 0 {
		h.writeError(w, http.StatusBadRequest, "num_paths cannot be negative")
		return
	}

	report := h.service.Evaluate(r.Context(), request)
	h.writeJSON(w, http.StatusOK, report)
}

// HandleParseGoal handles POST /api/v1/goals/parse
func (h *Handler) HandleParseGoal(w http.ResponseWriter, r *http.Request) {
	var request evaluation.Request
	if err := h.decode(w, r, &request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.ParseGoal(request.Goal, request.Overrides()))
}

// HandleValidatePortfolio handles POST /api/v1/portfolio/validate.
// The body may be bare JSON or text that embeds a portfolio.
func (h *Handler) HandleValidatePortfolio(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to read request body: "+err.Error())
		return
	}

	p, strategy, err := portfolio.Extract(string(body))
	if err != nil {
		h.writeJSON(w, http.StatusOK, ValidationResponse{
			Message: "Portfolio parsing error: " + err.Error(),
		})
		return
	}

	valid, message := h.service.ValidatePortfolio(p)
	h.writeJSON(w, http.StatusOK, ValidationResponse{
		Portfolio: &p,
		Message:   message,
		Strategy:  strategy,
		Valid:     valid,
	})
}

// HandleTickerRisk handles GET /api/v1/tickers/{symbol}/risk
func (h *Handler) HandleTickerRisk(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimSpace(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.writeError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	risk, err := h.service.TickerRisk(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrClassificationUnavailable) {
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Ticker risk lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Ticker risk lookup failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, risk)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
