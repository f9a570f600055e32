package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/proctor/internal/domain/types"
	"github.com/okian/proctor/pkg/logger"
)

// ResultsHandler serves the latest result and stores submitted ones.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// HandleGetResults handles GET /get_results requests.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Latest(r.Context()))
}

// HandleSaveResult handles POST /api/results requests.
func (h *ResultsHandler) HandleSaveResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_result"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("body is not valid JSON")))
		return
	}

	if err := h.deps.SaveResult(r.Context(), json.RawMessage(body)); err != nil {
		logger.Get().Error(r.Context(), "save result failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "persist", WrapKind(op, ErrPersist, err))
		return
	}
	writeJSON(w, http.StatusOK, types.SaveAck{Status: "saved"})
}
