package fact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/kolmobuild/kolmo/internal/embed"
)

// Search result limits.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// SearchResult pairs a fact with its retrieval scores. Degraded-mode
// (keyword) results carry the flat KeywordScore in both fields; the
// shape is identical either way so callers need no special-case branch.
type SearchResult struct {
	Fact       *Fact
	Similarity float64
	Relevance  float64
}

// Engine retrieves facts by meaning, with keyword matching as the
// designated degraded mode when no embedding can be produced.
type Engine struct {
	store    *Store
	provider embed.Provider
	logger   *slog.Logger
}

// NewEngine creates a search engine over the given store and embedding
// provider.
func NewEngine(store *Store, provider embed.Provider, logger *slog.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, provider: provider, logger: logger}, nil
}

// Search returns facts relevant to query, ranked by relevance.
//
// The query is embedded and matched by cosine similarity against facts
// that have a vector and satisfy the filter. Any provider failure —
// down, over quota, timed out — routes to the keyword fallback instead
// of surfacing an error. Caller cancellation is honored on both paths.
func (e *Engine) Search(ctx context.Context, query string, filter Filter, limit int) ([]SearchResult, error) {
	return e.search(ctx, query, filter, clampLimit(limit))
}

// search is Search without the limit clamp. FindSimilar over-fetches
// past MaxLimit by one row to absorb the source fact.
func (e *Engine) search(ctx context.Context, query string, filter Filter, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, embed.Timeout)
	vec, err := e.provider.Embed(embedCtx, query)
	cancel()
	if err != nil {
		// The caller going away is not provider unavailability.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Debug("embedding unavailable, using keyword fallback",
			"error", err, "query_len", len(query))
		return e.keywordSearch(ctx, query, filter, limit)
	}

	results, err := e.vectorSearch(ctx, vec, filter, limit)
	if err != nil {
		return nil, err
	}
	Rank(results)
	return results, nil
}

// FindSimilar searches with the target fact's own summary as the query,
// scoped to the same project, excluding the fact itself.
func (e *Engine) FindSimilar(ctx context.Context, factID int64, limit int) ([]SearchResult, error) {
	limit = clampLimit(limit)

	f, err := e.store.Get(ctx, factID)
	if err != nil {
		return nil, err
	}

	filter := Filter{ProjectID: f.ProjectID}
	// One extra row absorbs the source fact showing up in its own results.
	results, err := e.search(ctx, f.Summary, filter, limit+1)
	if err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.Fact.ID == factID {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// vectorSearch runs the similarity query: facts with a vector, filtered,
// nearest first. Similarity is 1 − cosine distance, normalized to [0,1]
// for the scorer.
func (e *Engine) vectorSearch(ctx context.Context, vec []float32, filter Filter, limit int) ([]SearchResult, error) {
	ctx, cancel := e.store.withTimeout(ctx)
	defer cancel()

	p := &predicate{
		conds: []string{"embedding IS NOT NULL"},
		args:  []any{pgvector.NewVector(vec)},
	}
	filter.apply(p)
	p.args = append(p.args, limit)

	rows, err := e.store.pool.Query(ctx,
		`SELECT `+factCols+`, 1 - (embedding <=> $1) AS similarity
		 FROM facts`+p.where()+`
		 ORDER BY embedding <=> $1
		 LIMIT $`+fmt.Sprint(len(p.args)),
		p.args...,
	)
	if err != nil {
		return nil, storeErr("similarity search", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		f := &Fact{}
		var similarity float64
		if err := scanFactWith(rows, f, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, SearchResult{Fact: f, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// keywordSearch is the degraded-mode path: case-insensitive substring
// matching of query tokens against the summary and serialized content.
// It never depends on embeddings and never treats their absence as an
// error. Every result carries the flat KeywordScore.
func (e *Engine) keywordSearch(ctx context.Context, query string, filter Filter, limit int) ([]SearchResult, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return []SearchResult{}, nil
	}

	ctx, cancel := e.store.withTimeout(ctx)
	defer cancel()

	p := &predicate{}
	filter.apply(p)

	matches := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		pattern := "%" + escapeLike(tok) + "%"
		p.args = append(p.args, pattern, pattern)
		matches = append(matches, fmt.Sprintf(
			"(fact_summary ILIKE $%d OR fact_content::text ILIKE $%d)",
			len(p.args)-1, len(p.args)))
	}
	p.conds = append(p.conds, "("+strings.Join(matches, " OR ")+")")
	p.args = append(p.args, limit)

	rows, err := e.store.pool.Query(ctx,
		`SELECT `+factCols+` FROM facts`+p.where()+`
		 ORDER BY updated_at DESC, id DESC
		 LIMIT $`+fmt.Sprint(len(p.args)),
		p.args...,
	)
	if err != nil {
		return nil, storeErr("keyword search", err)
	}
	defer rows.Close()

	facts, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(facts))
	for i, f := range facts {
		results[i] = SearchResult{Fact: f, Similarity: KeywordScore, Relevance: KeywordScore}
	}
	return results, nil
}

// scanFactWith scans the standard column set plus trailing extras.
func scanFactWith(rows interface{ Scan(dest ...any) error }, f *Fact, extras ...any) error {
	var vec *pgvector.Vector
	var currency *string
	dest := []any{
		&f.ID, &f.LineageID, &f.SessionID, &f.ProjectID, &f.UserID,
		&f.Type, &f.Content, &f.Summary, &vec,
		&f.Active, &f.SupersededBy, &f.ValidUntil, &f.Version,
		&f.AuthorRole, &f.Confidence, &f.VerificationStatus, &f.VerifiedBy, &f.VerifiedAt,
		&f.FinancialAmount, &currency, &f.FinancialCategory, &f.FinancialType,
		&f.Priority, &f.RequiresAction, &f.ActionDeadline,
		&f.SourceMessageID, &f.CreatedAt, &f.UpdatedAt,
	}
	dest = append(dest, extras...)
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	if vec != nil {
		f.Embedding = vec.Slice()
	}
	if currency != nil {
		f.Currency = *currency
	}
	return nil
}

// clampLimit applies the default and ceiling.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// escapeLike neutralizes LIKE metacharacters in user-supplied tokens.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
