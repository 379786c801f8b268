package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/sentio/pkg/logger"
	"github.com/okian/sentio/pkg/metrics"
)

// PredictHandler handles sentiment prediction requests.
type PredictHandler struct {
	predictor    Predictor
	maxBodyBytes int64
	logger       logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(predictor Predictor, maxBodyBytes int64, log logger.Logger) *PredictHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &PredictHandler{predictor: predictor, maxBodyBytes: maxBodyBytes, logger: log}
}

// HandlePredict handles POST /predict requests.
//
// The body must be a JSON object with a string "text" member. Anything else
// is answered with 422 before the scorer is consulted. A scorer failure is
// answered with a generic 500; the cause is logged, never returned.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.RecordValidationError(reasonTooLarge)
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	text, verr := decodePredictRequest(body)
	if verr != nil {
		metrics.RecordValidationError(verr.reason)
		h.logger.Debug(r.Context(), "rejected prediction request",
			logger.String("reason", verr.reason),
			logger.Int("bodyBytes", len(body)),
		)
		writeJSON(w, http.StatusUnprocessableEntity, verr.response())
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), text)
	if err != nil {
		h.logger.Error(r.Context(), "prediction failed", logger.Error(WrapKind(op, ErrInternal, err)))
		metrics.RecordErrorByComponent("scoring", "scoring_failed")
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}
