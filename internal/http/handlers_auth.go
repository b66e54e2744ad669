package http

import (
	"net/http"

	"ecobank/internal/core"
	applog "ecobank/internal/log"
	"ecobank/internal/session"
)

// handleLogin exchanges credentials for a session token. Unknown users and
// wrong passwords get the same answer.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decoder.Decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	acct, err := s.auth.Authenticate(r.Context(), req.Username, req.Password)
	s.events.LogAuth(r.Context(), applog.OpLogin, req.Username, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.startSession(w, r, acct, http.StatusOK)
}

// handleRegister creates a user account and logs it in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decoder.Decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	acct, err := s.auth.Register(r.Context(), req.Username, req.Password)
	s.events.LogAuth(r.Context(), applog.OpRegister, req.Username, err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.startSession(w, r, acct, http.StatusCreated)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, acct core.Account, status int) {
	token, claims, err := s.sessions.Issue(acct)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Account:   acct,
		State:     session.Next(session.LoggedOut, session.EventLogin, acct.Role),
	})
}

// handleLogout revokes the caller's token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	s.sessions.Revoke(claims)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Session closed",
		applog.FieldUsername, claims.Subject,
		applog.FieldOperation, applog.OpLogout)

	writeJSON(w, http.StatusOK, stateResponse{State: session.Next(session.Landing(claims.Role), session.EventLogout, claims.Role)})
}
