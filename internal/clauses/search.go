// Package clauses looks up reference clauses. A search is single-shot: no
// session, no history, and a new search replaces the previous result set.
package clauses

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

const (
	// AllTypes matches every clause category.
	AllTypes = "all"
	// DefaultTopK is the number of candidates requested when none is given.
	DefaultTopK = 5
)

// Backend is the subset of the backend client the searcher needs.
type Backend interface {
	SearchClauses(ctx context.Context, req backend.ClauseSearchRequest) (*backend.ClauseSearchResponse, error)
}

// Result is one ranked clause candidate.
type Result struct {
	Rank           int     `json:"rank"`
	ClauseType     string  `json:"clause_type"`
	ClauseText     string  `json:"clause_text"`
	RelevanceScore float64 `json:"relevance_score"`
	Source         string  `json:"source"`
}

// ResultSet is the immutable outcome of one search.
type ResultSet struct {
	Query      string   `json:"query"`
	ClauseType string   `json:"clause_type"`
	TotalFound int      `json:"total_found"`
	Clauses    []Result `json:"clauses"`
}

// Validate reports ranks that are not dense 1..n or scores outside [0,1].
// Ranks are shown as the server sent them, so this is diagnostic only.
func (rs *ResultSet) Validate() error {
	for i, r := range rs.Clauses {
		if r.Rank != i+1 {
			return fmt.Errorf("clause %d has rank %d, want %d", i, r.Rank, i+1)
		}
		if r.RelevanceScore < 0 || r.RelevanceScore > 1 {
			return fmt.Errorf("clause %d has relevance %.3f outside [0,1]", i, r.RelevanceScore)
		}
	}
	return nil
}

// Searcher issues clause searches against the backend.
type Searcher struct {
	client Backend
	topK   int
}

// NewSearcher creates a searcher. defaultTopK applies when a search passes
// a non-positive topK.
func NewSearcher(client Backend, defaultTopK int) *Searcher {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Searcher{client: client, topK: defaultTopK}
}

// Search looks up clauses matching query. A blank query is a no-op and
// returns (nil, nil) without a network call. An empty clauseType means
// AllTypes.
func (s *Searcher) Search(ctx context.Context, query, clauseType string, topK int) (*ResultSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if clauseType == "" {
		clauseType = AllTypes
	}
	if topK <= 0 {
		topK = s.topK
	}

	resp, err := s.client.SearchClauses(ctx, backend.ClauseSearchRequest{
		Query:      query,
		ClauseType: clauseType,
		TopK:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("searching clauses: %w", err)
	}

	rs := &ResultSet{
		Query:      resp.Query,
		ClauseType: resp.ClauseType,
		TotalFound: resp.TotalFound,
		Clauses:    make([]Result, 0, len(resp.Clauses)),
	}
	for _, c := range resp.Clauses {
		rs.Clauses = append(rs.Clauses, Result{
			Rank:           c.Rank,
			ClauseType:     c.ClauseType,
			ClauseText:     c.ClauseText,
			RelevanceScore: c.RelevanceScore,
			Source:         c.Source,
		})
	}
	if err := rs.Validate(); err != nil {
		log.Printf("clauses: unexpected result shape for %q: %v", query, err)
	}
	return rs, nil
}

// View holds the result set currently on display. A successful search
// replaces it wholesale; a blank query or a failure leaves it untouched.
type View struct {
	searcher *Searcher

	mu      sync.Mutex
	current *ResultSet
	alert   string
}

// NewView creates an empty view backed by searcher.
func NewView(searcher *Searcher) *View {
	return &View{searcher: searcher}
}

// Run performs a search and updates the view. On failure the alert text is
// set and the error returned.
func (v *View) Run(ctx context.Context, query, clauseType string, topK int) error {
	rs, err := v.searcher.Search(ctx, query, clauseType, topK)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.alert = "Clause search failed. Please try again."
		return err
	}
	if rs == nil {
		return nil
	}
	v.current = rs
	v.alert = ""
	return nil
}

// Current returns a copy of the displayed result set, or nil.
func (v *View) Current() *ResultSet {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.current == nil {
		return nil
	}
	rs := *v.current
	rs.Clauses = append([]Result(nil), v.current.Clauses...)
	return &rs
}

// Alert returns the last failure text, empty after a successful search.
func (v *View) Alert() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.alert
}
