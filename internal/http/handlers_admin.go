package http

import "net/http"

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accts := s.auth.Accounts()
	writeJSON(w, http.StatusOK, accountsResponse{Users: accts, Count: len(accts)})
}

// handleAllTransactions lists every user's transactions, newest first.
func (s *Server) handleAllTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newEntriesResponse(s.ledger.AllTransactions()))
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newRollupResponse(s.ledger.Rollup()))
}
