package fact_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kolmobuild/kolmo/internal/embed"
	"github.com/kolmobuild/kolmo/internal/fact"
	"github.com/kolmobuild/kolmo/internal/log"
	"github.com/kolmobuild/kolmo/internal/testutil"
)

// basisVector maps text to a deterministic unit vector. Identical text
// gets cosine similarity 1, different text almost surely 0, which is
// enough to assert ordering without a real embedding model.
func basisVector(text string) []float32 {
	sum := 0
	for _, b := range []byte(text) {
		sum += int(b)
	}
	vec := make([]float32, embed.Dimension)
	vec[sum%embed.Dimension] = 1
	return vec
}

var workingProvider = embed.ProviderFunc(func(_ context.Context, text string) ([]float32, error) {
	return basisVector(text), nil
})

var downProvider = embed.ProviderFunc(func(context.Context, string) ([]float32, error) {
	return nil, embed.ErrUnavailable
})

type testStack struct {
	svc      *fact.Service
	store    *fact.Store
	degraded *fact.Engine
	pool     *pgxpool.Pool
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	container, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	logger := log.NewNop()

	store, err := fact.NewStore(container.Pool, logger)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	engine, err := fact.NewEngine(store, workingProvider, logger)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	degraded, err := fact.NewEngine(store, downProvider, logger)
	if err != nil {
		t.Fatalf("NewEngine(degraded) error: %v", err)
	}
	resolver, err := fact.NewResolver(store, workingProvider, logger)
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}
	svc, err := fact.NewService(store, resolver, engine)
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	return &testStack{svc: svc, store: store, degraded: degraded, pool: container.Pool}
}

// activeCount reads the number of active rows on a lineage straight
// from the database, bypassing the store.
func (ts *testStack) activeCount(ctx context.Context, t *testing.T, lineageID int64) int {
	t.Helper()
	var n int
	err := ts.pool.QueryRow(ctx,
		`SELECT count(*) FROM facts WHERE lineage_id = $1 AND is_active`, lineageID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting active rows: %v", err)
	}
	return n
}

func candidate(summary string) fact.Candidate {
	return fact.Candidate{
		SessionID:  uuid.New(),
		Type:       fact.TypeDecision,
		Summary:    summary,
		AuthorRole: fact.RoleUser,
	}
}

func TestFactIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ts := newTestStack(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := ts.svc.Resolve(ctx, candidate("use composite decking on the main deck"))
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if created.ID == 0 {
			t.Fatal("created fact has zero id")
		}
		if created.LineageID != created.ID {
			t.Errorf("LineageID = %d, want %d (root anchors its own lineage)", created.LineageID, created.ID)
		}
		if created.Version != 1 || !created.Active {
			t.Errorf("Version = %d, Active = %v, want 1/true", created.Version, created.Active)
		}
		if created.VerificationStatus != fact.VerificationPending {
			t.Errorf("VerificationStatus = %q, want pending_approval", created.VerificationStatus)
		}

		got, err := ts.svc.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if got.Summary != created.Summary {
			t.Errorf("Get() summary = %q", got.Summary)
		}
		if len(got.Embedding) != embed.Dimension {
			t.Errorf("embedding length = %d, want %d", len(got.Embedding), embed.Dimension)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if _, err := ts.svc.Get(ctx, 999999); !errors.Is(err, fact.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("supersession chain", func(t *testing.T) {
		root, err := ts.svc.Resolve(ctx, candidate("budget for the deck is 18000 dollars"))
		if err != nil {
			t.Fatalf("Resolve(root) error: %v", err)
		}

		update := candidate("budget for the deck is 21500 dollars")
		update.PreviousFactID = &root.ID
		v2, err := ts.svc.Resolve(ctx, update)
		if err != nil {
			t.Fatalf("Resolve(update) error: %v", err)
		}

		if v2.Version != 2 {
			t.Errorf("Version = %d, want 2", v2.Version)
		}
		if v2.LineageID != root.ID {
			t.Errorf("LineageID = %d, want %d", v2.LineageID, root.ID)
		}

		oldRoot, err := ts.svc.Get(ctx, root.ID)
		if err != nil {
			t.Fatalf("Get(root) error: %v", err)
		}
		if oldRoot.Active {
			t.Error("superseded fact still active")
		}
		if oldRoot.SupersededBy == nil || *oldRoot.SupersededBy != v2.ID {
			t.Errorf("SupersededBy = %v, want %d", oldRoot.SupersededBy, v2.ID)
		}

		// A second supersession inserts another active row on the same
		// lineage under the one-active unique index.
		v3upd := candidate("budget for the deck is 24000 dollars")
		v3upd.PreviousFactID = &v2.ID
		v3, err := ts.svc.Resolve(ctx, v3upd)
		if err != nil {
			t.Fatalf("Resolve(second update) error: %v", err)
		}
		if v3.Version != 3 || v3.LineageID != root.ID {
			t.Errorf("v3 = version %d lineage %d, want 3/%d", v3.Version, v3.LineageID, root.ID)
		}
		if n := ts.activeCount(ctx, t, root.ID); n != 1 {
			t.Errorf("active rows on lineage = %d, want 1", n)
		}

		chain, err := ts.svc.Lineage(ctx, root.ID)
		if err != nil {
			t.Fatalf("Lineage() error: %v", err)
		}
		if len(chain) != 3 {
			t.Fatalf("chain length = %d, want 3", len(chain))
		}
		for i, f := range chain {
			if f.Version != i+1 {
				t.Errorf("chain[%d].Version = %d, want %d", i, f.Version, i+1)
			}
		}
		if chain[0].SupersededBy == nil || *chain[0].SupersededBy != v2.ID {
			t.Errorf("chain[0].SupersededBy = %v, want %d", chain[0].SupersededBy, v2.ID)
		}
		if chain[2].SupersededBy != nil || !chain[2].Active {
			t.Errorf("chain terminus = superseded_by %v active %v, want nil/true",
				chain[2].SupersededBy, chain[2].Active)
		}

		// Superseding the stale predecessor again must conflict.
		stale := candidate("budget for the deck is 19000 dollars")
		stale.PreviousFactID = &root.ID
		if _, err := ts.svc.Resolve(ctx, stale); !errors.Is(err, fact.ErrConflict) {
			t.Errorf("Resolve(stale hint) error = %v, want ErrConflict", err)
		}
	})

	t.Run("concurrent supersede", func(t *testing.T) {
		root, err := ts.svc.Resolve(ctx, candidate("ledger attachment is direct to rim"))
		if err != nil {
			t.Fatalf("Resolve(root) error: %v", err)
		}

		const workers = 4
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _, errs[i] = ts.svc.Supersede(ctx, root.ID,
					candidate("ledger attachment changed to standoff brackets"))
			}(i)
		}
		wg.Wait()

		var succeeded, conflicted int
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, fact.ErrConflict):
				conflicted++
			default:
				t.Errorf("unexpected supersede error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("successful supersedes = %d, want exactly 1", succeeded)
		}
		if conflicted != workers-1 {
			t.Errorf("conflicts = %d, want %d", conflicted, workers-1)
		}
		if n := ts.activeCount(ctx, t, root.ID); n != 1 {
			t.Errorf("active rows on lineage = %d, want 1", n)
		}
	})

	t.Run("verify", func(t *testing.T) {
		created, err := ts.svc.Resolve(ctx, candidate("railing height set to 36 inches"))
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		verified, err := ts.svc.Verify(ctx, created.ID, 42, fact.VerificationVerified)
		if err != nil {
			t.Fatalf("Verify() error: %v", err)
		}
		if verified.VerificationStatus != fact.VerificationVerified {
			t.Errorf("status = %q, want verified", verified.VerificationStatus)
		}
		if verified.VerifiedBy == nil || *verified.VerifiedBy != 42 {
			t.Errorf("VerifiedBy = %v, want 42", verified.VerifiedBy)
		}
		if verified.VerifiedAt == nil {
			t.Error("VerifiedAt not set")
		}

		if _, err := ts.svc.Verify(ctx, 999999, 42, fact.VerificationRejected); !errors.Is(err, fact.ErrNotFound) {
			t.Errorf("Verify(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("vector search", func(t *testing.T) {
		target, err := ts.svc.Resolve(ctx, candidate("cedar pergola planned over the patio"))
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}
		if _, err := ts.svc.Resolve(ctx, candidate("driveway repaving scheduled for spring")); err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		results, err := ts.svc.Search(ctx, "cedar pergola planned over the patio", fact.Filter{}, 10)
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("no search results")
		}
		if results[0].Fact.ID != target.ID {
			t.Errorf("top result id = %d, want %d", results[0].Fact.ID, target.ID)
		}
		if results[0].Similarity < 0.99 {
			t.Errorf("top similarity = %v, want ~1", results[0].Similarity)
		}
	})

	t.Run("keyword fallback", func(t *testing.T) {
		if _, err := ts.svc.Resolve(ctx, candidate("skylight flashing needs inspection")); err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		results, err := ts.degraded.Search(ctx, "skylight", fact.Filter{}, 10)
		if err != nil {
			t.Fatalf("degraded Search() error: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("keyword fallback returned no results")
		}
		for _, r := range results {
			if r.Similarity != fact.KeywordScore || r.Relevance != fact.KeywordScore {
				t.Errorf("keyword result scores = %v/%v, want flat %v",
					r.Similarity, r.Relevance, fact.KeywordScore)
			}
		}
	})

	t.Run("find similar excludes self", func(t *testing.T) {
		a, err := ts.svc.Resolve(ctx, candidate("gutter replacement on north side"))
		if err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		results, err := ts.svc.FindSimilar(ctx, a.ID, 10)
		if err != nil {
			t.Fatalf("FindSimilar() error: %v", err)
		}
		for _, r := range results {
			if r.Fact.ID == a.ID {
				t.Error("FindSimilar returned the source fact")
			}
		}
	})

	t.Run("find similar full page", func(t *testing.T) {
		projectID := int64(111)
		ids := make([]int64, 0, fact.MaxLimit+1)
		for i := 0; i < fact.MaxLimit+1; i++ {
			c := candidate("window flashing detail pending at all openings")
			c.ProjectID = &projectID
			f, err := ts.svc.Resolve(ctx, c)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			ids = append(ids, f.ID)
		}

		// Excluding the source fact must not cost a result slot at the
		// page-size ceiling.
		results, err := ts.svc.FindSimilar(ctx, ids[0], fact.MaxLimit)
		if err != nil {
			t.Fatalf("FindSimilar() error: %v", err)
		}
		if len(results) != fact.MaxLimit {
			t.Errorf("results = %d, want a full page of %d", len(results), fact.MaxLimit)
		}
		for _, r := range results {
			if r.Fact.ID == ids[0] {
				t.Error("FindSimilar returned the source fact")
			}
		}
	})

	t.Run("actionable queue", func(t *testing.T) {
		projectID := int64(77)
		soon := time.Now().Add(24 * time.Hour)
		later := time.Now().Add(72 * time.Hour)
		urgent := time.Now().Add(time.Hour)

		add := func(summary string, p fact.Priority, deadline *time.Time) int64 {
			t.Helper()
			c := candidate(summary)
			c.ProjectID = &projectID
			c.RequiresAction = true
			c.Priority = p
			c.ActionDeadline = deadline
			f, err := ts.svc.Resolve(ctx, c)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", summary, err)
			}
			return f.ID
		}

		// Priority ranks first; within equal priority the deadline
		// sorts ascending with missing deadlines last.
		criticalLater := add("submit permit application to the city", fact.PriorityCritical, &later)
		criticalSoon := add("schedule footing inspection", fact.PriorityCritical, &soon)
		criticalOpen := add("resolve setback question with neighbor", fact.PriorityCritical, nil)
		highUrgent := add("confirm lumber delivery window", fact.PriorityHigh, &urgent)

		facts, err := ts.svc.ActionableFacts(ctx, &projectID, 10)
		if err != nil {
			t.Fatalf("ActionableFacts() error: %v", err)
		}
		if len(facts) != 4 {
			t.Fatalf("actionable facts = %d, want 4", len(facts))
		}
		want := []int64{criticalSoon, criticalLater, criticalOpen, highUrgent}
		for i, id := range want {
			if facts[i].ID != id {
				t.Errorf("queue[%d].ID = %d, want %d (%q)", i, facts[i].ID, id, facts[i].Summary)
			}
		}
	})

	t.Run("financial review queue", func(t *testing.T) {
		projectID := int64(88)
		big := 45000.0
		small := 200.0
		ft := fact.FinancialChangeOrder

		c := candidate("change order for the extended footing work")
		c.ProjectID = &projectID
		c.Type = fact.TypeFinancial
		c.FinancialAmount = &big
		c.FinancialType = &ft
		if _, err := ts.svc.Resolve(ctx, c); err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		c2 := candidate("small invoice for fasteners")
		c2.ProjectID = &projectID
		c2.Type = fact.TypeFinancial
		c2.FinancialAmount = &small
		c2.FinancialType = &ft
		if _, err := ts.svc.Resolve(ctx, c2); err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		facts, err := ts.svc.UnverifiedFinancialFacts(ctx, &projectID, 1000, 10)
		if err != nil {
			t.Fatalf("UnverifiedFinancialFacts() error: %v", err)
		}
		if len(facts) != 1 {
			t.Fatalf("financial queue = %d, want 1 (min amount filter)", len(facts))
		}
		if facts[0].FinancialAmount == nil || *facts[0].FinancialAmount != big {
			t.Errorf("queued amount = %v, want %v", facts[0].FinancialAmount, big)
		}
	})

	t.Run("historical search", func(t *testing.T) {
		root, err := ts.svc.Resolve(ctx, candidate("stair stringers cut from 2x12 cedar"))
		if err != nil {
			t.Fatalf("Resolve(root) error: %v", err)
		}
		upd := candidate("stair stringers switched to pressure treated")
		upd.PreviousFactID = &root.ID
		if _, err := ts.svc.Resolve(ctx, upd); err != nil {
			t.Fatalf("Resolve(update) error: %v", err)
		}

		// Default searches see only active versions.
		results, err := ts.svc.Search(ctx, "stair stringers cut from 2x12 cedar", fact.Filter{}, 10)
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		for _, r := range results {
			if r.Fact.ID == root.ID {
				t.Error("default search returned a superseded fact")
			}
		}

		// Opting out of the active filter surfaces the old version.
		includeInactive := false
		results, err = ts.svc.Search(ctx, "stair stringers cut from 2x12 cedar",
			fact.Filter{ActiveOnly: &includeInactive}, 10)
		if err != nil {
			t.Fatalf("Search(all versions) error: %v", err)
		}
		if len(results) == 0 || results[0].Fact.ID != root.ID {
			t.Fatalf("historical top result = %+v, want superseded fact %d", results, root.ID)
		}
		if results[0].Fact.Active {
			t.Error("superseded result reported active")
		}
	})

	t.Run("search with filter", func(t *testing.T) {
		projectID := int64(99)
		c := candidate("fence staining postponed to september")
		c.ProjectID = &projectID
		c.Type = fact.TypeSchedule
		if _, err := ts.svc.Resolve(ctx, c); err != nil {
			t.Fatalf("Resolve() error: %v", err)
		}

		results, err := ts.svc.Search(ctx, "fence staining postponed to september",
			fact.Filter{ProjectID: &projectID, Types: []fact.Type{fact.TypeSchedule}}, 10)
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("filtered results = %d, want 1", len(results))
		}

		other := int64(100)
		results, err = ts.svc.Search(ctx, "fence staining postponed to september",
			fact.Filter{ProjectID: &other}, 10)
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("wrong-project results = %d, want 0", len(results))
		}
	})
}
