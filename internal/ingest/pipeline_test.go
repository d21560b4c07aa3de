package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rentbeacon/internal/model"
	"github.com/sells-group/rentbeacon/internal/store"
	"github.com/sells-group/rentbeacon/pkg/rentcast"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func raw(id string, price int) rentcast.Listing {
	return rentcast.Listing{
		ID:    id,
		City:  strPtr("Pittsburgh"),
		State: strPtr("PA"),
		Price: intPtr(price),
	}
}

// failingStore rejects every upsert batch.
type failingStore struct {
	store.Store
	err error
}

func (f failingStore) UpsertListings(context.Context, []model.Listing) (store.UpsertResult, error) {
	return store.UpsertResult{}, f.err
}

func TestPipeline_EndToEnd(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	q := Query{Latitude: 40.44, Longitude: -79.94, Radius: 5}

	first, err := NewPipeline(NewFixtureSource([]rentcast.Listing{raw("A1", 1000), raw("A2", 2000)}), st).Run(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Fetched)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Updated)
	assert.Empty(t, first.Err)

	a2Before, err := st.GetListing(ctx, "A2")
	require.NoError(t, err)
	require.NotNil(t, a2Before)

	second, err := NewPipeline(NewFixtureSource([]rentcast.Listing{raw("A1", 1150), raw("A3", 900)}), st).Run(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 1, second.Updated)
	assert.NotEqual(t, first.RunID, second.RunID)

	a1, err := st.GetListing(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, a1)
	assert.Equal(t, 1150, *a1.Price)
	assert.Equal(t, model.ProviderRentCast, a1.Provider)

	a2After, err := st.GetListing(ctx, "A2")
	require.NoError(t, err)
	assert.Equal(t, a2Before, a2After)

	n, err := st.CountListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPipeline_IdenticalRunsAreIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := NewPipeline(NewFixtureSource([]rentcast.Listing{raw("A1", 1000), raw("A2", 2000), raw("A3", 3000)}), st)

	first, err := p.Run(ctx, Query{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	before, err := st.SampleListings(ctx, 10)
	require.NoError(t, err)

	second, err := p.Run(ctx, Query{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Updated)

	after, err := st.SampleListings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPipeline_SkipsRecordsWithoutID(t *testing.T) {
	st := newTestStore(t)

	summary, err := NewPipeline(NewFixtureSource([]rentcast.Listing{raw("", 700), raw("A1", 1000)}), st).
		Run(context.Background(), Query{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Inserted)
	assert.Equal(t, 1, summary.Skipped)
}

func TestPipeline_NoListings(t *testing.T) {
	st := newTestStore(t)

	summary, err := NewPipeline(NewFixtureSource(nil), st).Run(context.Background(), Query{Radius: 1})
	require.ErrorIs(t, err, ErrNoListings)
	assert.Equal(t, 0, summary.Fetched)
	_, parseErr := uuid.Parse(summary.RunID)
	assert.NoError(t, parseErr)
}

func TestPipeline_PersistenceErrorIsReported(t *testing.T) {
	st := failingStore{err: errors.New("sqlite: insert listing A2: disk I/O error")}

	summary, err := NewPipeline(NewFixtureSource([]rentcast.Listing{raw("A1", 1), raw("A2", 2)}), st).
		Run(context.Background(), Query{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Zero(t, summary.Inserted)
	assert.Zero(t, summary.Updated)
	assert.Contains(t, summary.Err, "disk I/O error")
}

func TestUpsert_CapturesError(t *testing.T) {
	got := Upsert(context.Background(), failingStore{err: errors.New("connection refused")}, []model.Listing{{ProviderID: "A1"}})
	assert.True(t, got.Failed())
	assert.Equal(t, UpsertSummary{Err: "connection refused"}, got)
}

func TestUpsert_Counts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	got := Upsert(ctx, st, model.NormalizeAll([]rentcast.Listing{raw("A1", 1), raw("", 2)}))
	assert.False(t, got.Failed())
	assert.Equal(t, UpsertSummary{Inserted: 1, Skipped: 1}, got)

	got = Upsert(ctx, st, model.NormalizeAll([]rentcast.Listing{raw("A1", 5)}))
	assert.Equal(t, UpsertSummary{Updated: 1}, got)
}

func TestPipeline_DefaultFixtureIntoStore(t *testing.T) {
	st := newTestStore(t)
	src, err := DefaultFixtureSource()
	require.NoError(t, err)

	summary, err := NewPipeline(src, st).Run(context.Background(), Query{Radius: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Inserted)

	l, err := st.GetListing(context.Background(), "212-S-Craig-St,-Pittsburgh,-PA-15213")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, 2300, *l.Price)
	assert.Equal(t, 1480, *l.SquareFeet)
	assert.Equal(t, "15213", *l.ZipCode)
}
