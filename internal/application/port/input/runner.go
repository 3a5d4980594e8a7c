package input

import (
	"context"

	"signup-agent/internal/domain/entity"
)

// RunSummary is the terminal accounting of one bulk run.
type RunSummary struct {
	RunID     string
	Complete  int
	Errors    int
	Skipped   int
	Statuses  map[string]entity.JobStatusEntry
	Cancelled bool
}

// BulkRunner drives a bulk run over a set of retailers with one profile.
type BulkRunner interface {
	Run(ctx context.Context, retailers []entity.Retailer, profile entity.Profile) (*RunSummary, error)
	Cancel()
}
