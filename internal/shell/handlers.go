package shell

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ziadkadry99/lexdraft/internal/backend"
	"github.com/ziadkadry99/lexdraft/internal/clauses"
)

// clauseSearchRequest is the body of POST /api/shell/clauses.
type clauseSearchRequest struct {
	Query      string `json:"query"`
	ClauseType string `json:"clause_type"`
	TopK       int    `json:"top_k"`
}

func (s *Shell) handleClauseSearch(w http.ResponseWriter, r *http.Request) {
	var req clauseSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rs, err := s.searcher.Search(r.Context(), req.Query, req.ClauseType, req.TopK)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	if rs == nil {
		// Blank query: nothing to search.
		writeJSON(w, http.StatusOK, clauses.ResultSet{Clauses: []clauses.Result{}})
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// statusFor maps backend failures to the status the shell reports.
func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, backend.ErrNetworkFailure), errors.Is(err, backend.ErrServerRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
