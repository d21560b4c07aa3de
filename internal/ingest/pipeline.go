package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentbeacon/internal/model"
	"github.com/sells-group/rentbeacon/internal/store"
)

// ErrNoListings is returned by Run when the source produced nothing. An
// upstream failure and a search with no hits look the same here.
var ErrNoListings = eris.New("ingest: no listings found or error occurred")

// Summary is the outcome of one pipeline run.
type Summary struct {
	RunID    string `json:"run_id"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Err      string `json:"error,omitempty"`
}

// Pipeline fetches listings from a Source, normalizes them and upserts them
// into a Store.
type Pipeline struct {
	source Source
	store  store.Store
}

// NewPipeline creates a Pipeline.
func NewPipeline(src Source, st store.Store) *Pipeline {
	return &Pipeline{source: src, store: st}
}

// Run executes one fetch, normalize and upsert cycle. A persistence failure
// is reported in Summary.Err with a nil error; only ErrNoListings is returned.
func (p *Pipeline) Run(ctx context.Context, q Query) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", summary.RunID))
	start := time.Now()

	raw := p.source.Fetch(ctx, q)
	summary.Fetched = len(raw)
	if len(raw) == 0 {
		log.Info("ingest: no listings returned",
			zap.Float64("latitude", q.Latitude),
			zap.Float64("longitude", q.Longitude),
			zap.Float64("radius", q.Radius),
		)
		return summary, ErrNoListings
	}

	listings := model.NormalizeAll(raw)
	us := Upsert(ctx, p.store, listings)
	summary.Inserted = us.Inserted
	summary.Updated = us.Updated
	summary.Skipped = us.Skipped
	summary.Err = us.Err

	log.Info("ingest: run complete",
		zap.Int("fetched", summary.Fetched),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("failed", us.Failed()),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return summary, nil
}
