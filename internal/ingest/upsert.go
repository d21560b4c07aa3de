package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/rentbeacon/internal/model"
	"github.com/sells-group/rentbeacon/internal/store"
)

// UpsertSummary reports one upsert batch. A failed batch has zero counts and
// the failure text in Err; nothing from it was written.
type UpsertSummary struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Err      string `json:"error,omitempty"`
}

// Failed reports whether the batch was rolled back.
func (s UpsertSummary) Failed() bool { return s.Err != "" }

// Upsert writes listings in one transaction and reports the outcome. Store
// errors are logged and returned as text rather than propagated.
func Upsert(ctx context.Context, st store.Store, listings []model.Listing) UpsertSummary {
	res, err := st.UpsertListings(ctx, listings)
	if err != nil {
		zap.L().Error("ingest: upsert rolled back",
			zap.Int("listings", len(listings)),
			zap.Error(err),
		)
		return UpsertSummary{Err: err.Error()}
	}
	return UpsertSummary{
		Inserted: res.Inserted,
		Updated:  res.Updated,
		Skipped:  res.Skipped,
	}
}
