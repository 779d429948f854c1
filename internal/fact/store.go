package fact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// factCols is the standard SELECT column list for scanFacts.
const factCols = `id, lineage_id, session_id, project_id, user_id,
	fact_type, fact_content, fact_summary, embedding,
	is_active, superseded_by, valid_until, version,
	author_role, confidence_score, verification_status, verified_by, verified_at,
	financial_amount, currency, financial_category, financial_type,
	priority, requires_action, action_deadline,
	source_message_id, created_at, updated_at`

// DefaultQueryTimeout bounds individual store queries.
const DefaultQueryTimeout = 10 * time.Second

// Store persists facts and owns the supersession chain invariant.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool         *pgxpool.Pool
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewStore creates a fact Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger, queryTimeout: DefaultQueryTimeout}, nil
}

// withTimeout derives the per-query deadline. Caller deadlines shorter
// than the store default win.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

// storeErr maps a query error onto the package sentinels.
func storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create inserts a new fact as the root of a fresh lineage: version 1,
// active, no predecessor. The lineage id is the fact's own id.
func (s *Store) Create(ctx context.Context, f *Fact) (*Fact, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storeErr("beginning create transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("create rollback", "error", rbErr)
		}
	}()

	created, err := insertFact(ctx, tx, f, 1, 0)
	if err != nil {
		return nil, err
	}

	// Root facts anchor their own lineage.
	if _, err := tx.Exec(ctx,
		`UPDATE facts SET lineage_id = id WHERE id = $1`, created.ID,
	); err != nil {
		return nil, storeErr("anchoring lineage", err)
	}
	created.LineageID = created.ID

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("committing create", err)
	}
	return created, nil
}

// Supersede atomically replaces the active fact oldID with next.
//
// Within one transaction: the predecessor row is locked and re-checked
// (it must still be active with no successor), then deactivated, then
// the new version is inserted with version = old + 1 on the same
// lineage and the old row linked forward. Deactivation must precede
// the insert: the one-active-per-lineage unique index is checked at
// insert time. A concurrent Supersede against the same predecessor
// blocks on the row lock and then fails with ErrConflict — latest info
// wins, lost updates don't happen silently.
func (s *Store) Supersede(ctx context.Context, oldID int64, next *Fact) (oldFact, newFact *Fact, err error) {
	next.Normalize()
	if err := next.Validate(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, storeErr("beginning supersede transaction", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("supersede rollback", "error", rbErr)
		}
	}()

	old, err := scanFact(tx.QueryRow(ctx,
		`SELECT `+factCols+` FROM facts WHERE id = $1 FOR UPDATE`, oldID,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil, fmt.Errorf("supersede target %d: %w", oldID, ErrNotFound)
	case err != nil:
		return nil, nil, storeErr("locking supersede target", err)
	}
	if !old.Active || old.SupersededBy != nil {
		return nil, nil, fmt.Errorf("supersede target %d: %w", oldID, ErrConflict)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE facts
		 SET is_active = false, updated_at = now()
		 WHERE id = $1 AND is_active AND superseded_by IS NULL`,
		oldID,
	)
	if err != nil {
		return nil, nil, storeErr("deactivating predecessor", err)
	}
	if tag.RowsAffected() == 0 {
		// Unreachable while the row lock is held; kept as a guard
		// against chain forks.
		return nil, nil, fmt.Errorf("supersede target %d: %w", oldID, ErrConflict)
	}

	created, err := insertFact(ctx, tx, next, old.Version+1, old.LineageID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE facts SET superseded_by = $2 WHERE id = $1`,
		oldID, created.ID,
	); err != nil {
		return nil, nil, storeErr("linking predecessor", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, storeErr("committing supersede", err)
	}

	now := time.Now()
	old.SupersededBy = &created.ID
	old.Active = false
	old.UpdatedAt = now
	return old, created, nil
}

// insertFact writes a fact row. version and lineageID come from the
// caller (Create passes 1/0 and anchors the lineage afterwards).
func insertFact(ctx context.Context, q querier, f *Fact, version int, lineageID int64) (*Fact, error) {
	var vec *pgvector.Vector
	if len(f.Embedding) > 0 {
		v := pgvector.NewVector(f.Embedding)
		vec = &v
	}

	row := q.QueryRow(ctx,
		`INSERT INTO facts (lineage_id, session_id, project_id, user_id,
		    fact_type, fact_content, fact_summary, embedding,
		    is_active, valid_until, version,
		    author_role, confidence_score, verification_status,
		    financial_amount, currency, financial_category, financial_type,
		    priority, requires_action, action_deadline, source_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, $9, $10,
		    $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		 RETURNING id, created_at, updated_at`,
		lineageID, f.SessionID, f.ProjectID, f.UserID,
		f.Type, f.Content, f.Summary, vec,
		f.ValidUntil, version,
		f.AuthorRole, f.Confidence, f.VerificationStatus,
		f.FinancialAmount, nullIfEmpty(f.Currency), f.FinancialCategory, f.FinancialType,
		f.Priority, f.RequiresAction, f.ActionDeadline, f.SourceMessageID,
	)

	created := *f
	created.LineageID = lineageID
	created.Version = version
	created.Active = true
	created.SupersededBy = nil
	if err := row.Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, storeErr("inserting fact", err)
	}
	return &created, nil
}

// nullIfEmpty maps "" to NULL for nullable text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Verify records a review decision on the active fact id. A rejected
// fact is also deactivated without replacement — the lineage ends there.
// Historical versions cannot be verified: ErrConflict.
func (s *Store) Verify(ctx context.Context, id, verifierID int64, decision VerificationStatus) (*Fact, error) {
	switch decision {
	case VerificationVerified, VerificationRejected, VerificationNeedsReview:
	default:
		return nil, fmt.Errorf("invalid verification decision: %q", decision)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := scanFact(s.pool.QueryRow(ctx,
		`UPDATE facts
		 SET verification_status = $2, verified_by = $3, verified_at = now(),
		     is_active = (is_active AND $2 <> 'rejected'),
		     updated_at = now()
		 WHERE id = $1 AND is_active
		 RETURNING `+factCols,
		id, decision, verifierID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish missing from inactive.
		var exists bool
		lookupErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM facts WHERE id = $1)`, id,
		).Scan(&exists)
		if lookupErr != nil {
			return nil, storeErr("looking up fact", lookupErr)
		}
		if !exists {
			return nil, fmt.Errorf("verify target %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("verify target %d: %w", id, ErrConflict)
	}
	if err != nil {
		return nil, storeErr("verifying fact", err)
	}
	return f, nil
}

// Get returns a fact by id, active or not.
func (s *Store) Get(ctx context.Context, id int64) (*Fact, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	f, err := scanFact(s.pool.QueryRow(ctx,
		`SELECT `+factCols+` FROM facts WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fact %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("getting fact", err)
	}
	return f, nil
}

// SetEmbedding backfills a vector computed after creation. A no-op if
// the fact already has one: embeddings are written once.
func (s *Store) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("embedding is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx,
		`UPDATE facts SET embedding = $2 WHERE id = $1 AND embedding IS NULL`,
		id, pgvector.NewVector(embedding),
	)
	if err != nil {
		return storeErr("setting embedding", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if lookupErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM facts WHERE id = $1)`, id,
		).Scan(&exists); lookupErr != nil {
			return storeErr("looking up fact", lookupErr)
		}
		if !exists {
			return fmt.Errorf("fact %d: %w", id, ErrNotFound)
		}
	}
	return nil
}

// Lineage returns every version of a lineage ordered oldest to newest.
// Audit path: includes superseded and deactivated versions.
func (s *Store) Lineage(ctx context.Context, lineageID int64) ([]*Fact, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+factCols+` FROM facts WHERE lineage_id = $1 ORDER BY version ASC`,
		lineageID,
	)
	if err != nil {
		return nil, storeErr("listing lineage", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// ActionableFacts returns active facts needing action, most urgent
// first: priority rank, then earliest deadline (facts without a
// deadline sort last within their priority).
func (s *Store) ActionableFacts(ctx context.Context, projectID *int64, limit int) ([]*Fact, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := &predicate{conds: []string{"is_active", "requires_action"}}
	if projectID != nil {
		p.add("project_id = %s", *projectID)
	}
	p.args = append(p.args, limit)

	rows, err := s.pool.Query(ctx,
		`SELECT `+factCols+` FROM facts`+p.where()+`
		 ORDER BY CASE priority
		     WHEN 'critical' THEN 0
		     WHEN 'high' THEN 1
		     WHEN 'normal' THEN 2
		     ELSE 3 END,
		   action_deadline ASC NULLS LAST, id ASC
		 LIMIT $`+fmt.Sprint(len(p.args)),
		p.args...,
	)
	if err != nil {
		return nil, storeErr("listing actionable facts", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// UnverifiedFinancialFacts returns the human review queue: active facts
// claiming at least minAmount that have not been verified, largest
// amounts first, newest first within equal amounts.
func (s *Store) UnverifiedFinancialFacts(ctx context.Context, projectID *int64, minAmount float64, limit int) ([]*Fact, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p := &predicate{conds: []string{
		"is_active",
		"verification_status IN ('pending_approval', 'needs_review')",
	}}
	p.add("financial_amount >= %s", minAmount)
	if projectID != nil {
		p.add("project_id = %s", *projectID)
	}
	p.args = append(p.args, limit)

	rows, err := s.pool.Query(ctx,
		`SELECT `+factCols+` FROM facts`+p.where()+`
		 ORDER BY financial_amount DESC, created_at DESC, id DESC
		 LIMIT $`+fmt.Sprint(len(p.args)),
		p.args...,
	)
	if err != nil {
		return nil, storeErr("listing unverified financial facts", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

// scanFact reads one Fact from a pgx.Row using the factCols order.
func scanFact(row pgx.Row) (*Fact, error) {
	f := &Fact{}
	if err := scanFactWith(row, f); err != nil {
		return nil, err
	}
	return f, nil
}

// scanFacts reads Fact structs from pgx.Rows (standard column set).
func scanFacts(rows pgx.Rows) ([]*Fact, error) {
	var facts []*Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fact: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating facts: %w", err)
	}
	return facts, nil
}
