package httpapi

import (
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
)

// correlate tags every request with an id, taken from the caller when
// provided, and echoes it back.
func (s *Server) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.CorrelationIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(common.CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(withCorrelationID(r.Context(), id)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info(r.Context(), "handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
			"correlation_id", correlationID(r.Context()),
		)
	})
}

// authenticate rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeader)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "missing token")
			return
		}

		id, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, codeUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
