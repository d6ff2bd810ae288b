package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps SearchTags when the caller passes limit <= 0.
const DefaultLimit = 20

// SearchResult holds matching tags, best first.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is one matching tag.
type SearchHit struct {
	TagID     int64   `json:"tag_id"`
	Label     string  `json:"label"`
	Score     float64 `json:"score"`
	Highlight string  `json:"highlight,omitempty"`
}

// SearchTags finds tags whose label matches q. Results combine a stemmed match,
// a prefix match for autocomplete and a fuzzy match for typos. An empty q
// lists tags by key.
func (s *SearchIndex) SearchTags(ctx context.Context, q string, limit int) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	q = strings.TrimSpace(q)

	req := bleve.NewSearchRequestOptions(buildTagQuery(q), limit, 0, false)
	if q == "" {
		req.SortBy([]string{"key"})
	} else {
		req.SortBy([]string{"-_score", "key"})
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("label")
	}
	req.Fields = []string{"label"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  q,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with malformed id", "id", hit.ID)
			continue
		}
		h := SearchHit{TagID: id, Score: hit.Score}
		if l, ok := hit.Fields["label"].(string); ok {
			h.Label = l
		}
		if frags := hit.Fragments["label"]; len(frags) > 0 {
			h.Highlight = frags[0]
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

// buildTagQuery ORs the label strategies together, restricted to tag documents.
func buildTagQuery(q string) query.Query {
	typeQuery := bleve.NewTermQuery(DocTypeTag)
	typeQuery.SetField("type")

	if q == "" {
		return typeQuery
	}

	lower := strings.ToLower(q)
	textQueries := []query.Query{}

	match := bleve.NewMatchQuery(q)
	match.SetField("label")
	match.SetBoost(3.0)
	textQueries = append(textQueries, match)

	// Fuzzy and prefix work on single terms; use the last word typed.
	words := strings.Fields(lower)
	last := words[len(words)-1]

	fuzzy := bleve.NewFuzzyQuery(last)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("label_raw")
	fuzzy.SetBoost(0.8)
	textQueries = append(textQueries, fuzzy)

	// Prefix needs at least 2 chars to stay selective.
	if len(last) >= 2 {
		prefix := bleve.NewPrefixQuery(last)
		prefix.SetField("label_raw")
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	return bleve.NewConjunctionQuery(typeQuery, bleve.NewDisjunctionQuery(textQueries...))
}
