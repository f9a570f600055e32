package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/proctor/internal/adapters/mq/queue"
	"github.com/okian/proctor/internal/domain/model"
	"github.com/okian/proctor/pkg/logger"
)

// FramesHandler accepts landmark frames from the detector.
type FramesHandler struct {
	deps Dependencies
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps Dependencies) *FramesHandler {
	return &FramesHandler{deps: deps}
}

// HandlePostFrame handles POST /frames requests.
func (h *FramesHandler) HandlePostFrame(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_frame"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var frame model.LandmarkFrame
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&frame); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.Ingest(r.Context(), &frame)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidFrame):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	default:
		logger.Get().Error(r.Context(), "ingest failed", logger.String("frame_id", frame.FrameID), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrInternal, err))
		return
	}

	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}
