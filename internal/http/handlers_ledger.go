package http

import (
	"net/http"

	"ecobank/internal/core"
	"ecobank/internal/session"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	acct, err := s.auth.Lookup(claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Account: acct, State: session.Landing(acct.Role)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.ledger.Summary(claimsFrom(r.Context()).Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(sum))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Stats(claimsFrom(r.Context()).Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(st))
}

// handleListTransactions returns the caller's ledger in the order it was
// recorded.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	logs, err := s.ledger.Transactions(claimsFrom(r.Context()).Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: logs, Count: len(logs)})
}

// handleAppendTransaction records one transaction for the caller, stamped
// with the server clock.
func (s *Server) handleAppendTransaction(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req transactionRequest
	if err := s.decoder.Decode(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tx, err := s.ledger.Append(r.Context(), claims.Subject, kind, req.Amount.Value, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.events.LogTransaction(r.Context(), claims.Subject, string(tx.Kind), tx.Amount)

	sum, err := s.ledger.Summary(claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appendResponse{
		Transaction: tx,
		Summary:     newSummaryResponse(sum),
		State:       session.Next(session.UserTransactionEntry, session.EventCloseEntry, claims.Role),
	})
}
