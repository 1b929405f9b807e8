package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/common"
)

// Error codes carried in api.Error.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeTooLarge     = "payload_too_large"
	codeInternal     = "internal"
)

type correlationKey struct{}

func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn(r.Context(), "error writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, r, status, api.Error{Code: code, Message: message, CorrelationID: correlationID(r.Context())})
}

// writeServiceError maps a service error to its HTTP status. Internal
// details are logged, never returned.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, common.ErrorEmailExists):
		s.writeError(w, r, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrorUnauthorized):
		s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		s.writeError(w, r, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		s.writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err, "correlation_id", correlationID(r.Context()))
		s.writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
