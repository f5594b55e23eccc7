package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/jobtrack/internal/ingest"
	"github.com/sells-group/jobtrack/internal/provider"
)

const maxBodyBytes = 10 << 20

var errBadRequest = eris.New("api: bad request")

func badRequest(msg string) error {
	return eris.Wrap(errBadRequest, msg)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError maps err onto the boundary taxonomy: 401 for an expired
// provider credential, 400 for an oversized page or a malformed request,
// 500 for anything else.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *ingest.PageTooLargeError
	switch {
	case errors.Is(err, provider.ErrAuthExpired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "auth_expired", Message: err.Error()})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "page_too_large",
			Message: tooLarge.Error(),
			Count:   tooLarge.Count,
			Limit:   tooLarge.Limit,
		})
	case errors.Is(err, ingest.ErrInvalidRequest), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: err.Error()})
	default:
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
	}
}
