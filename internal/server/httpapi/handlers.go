package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/gophnotes/internal/api"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
)

// readBody reads a bounded request body. It writes the error response
// itself and returns false on failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, "request body too large")
			return nil, false
		}
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "error reading body")
		return nil, false
	}
	return body, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, ok := s.readBody(w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "malformed JSON")
		return false
	}
	return true
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, api.PingResponse{Status: "ok"})
}

func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := validate(s.syncSchema, body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	var req api.SyncRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "malformed JSON")
		return
	}

	id := identity(r)
	if req.DeviceID == "" {
		req.DeviceID = id.DeviceID
	}

	resp, err := s.backend.Sync.Sync(r.Context(), id.UserID, &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	list, err := s.backend.Notes.List(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) share(w http.ResponseWriter, r *http.Request) {
	var req api.ShareRequest
	if !s.decode(w, r, &req) {
		return
	}

	noteID := mux.Vars(r)["id"]
	if err := s.backend.Notes.Share(r.Context(), identity(r).UserID, noteID, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, api.Empty{})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	resp, err := s.backend.Export.Export(r.Context(), identity(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.backend.Users.Register(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.backend.Users.Login(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.backend.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req api.LogoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.backend.Users.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, api.Empty{})
}
