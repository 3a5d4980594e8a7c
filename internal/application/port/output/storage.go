package output

import (
	"context"

	"signup-agent/internal/domain/entity"
)

// Store is the persisted key-value state. Implementations keep the exact
// storage keys (profiles, activeProfileId, customRetailerDatabase,
// webscrapedRetailersDb, failedRetailerIds) so existing data stays readable.
type Store interface {
	Profiles(ctx context.Context) (map[string]entity.Profile, error)
	SaveProfile(ctx context.Context, p entity.Profile) error
	ActiveProfileID(ctx context.Context) (string, error)
	SetActiveProfileID(ctx context.Context, id string) error

	BundledRetailers(ctx context.Context) ([]entity.Retailer, error)
	SeedBundledRetailers(ctx context.Context, retailers []entity.Retailer) error
	CustomRetailers(ctx context.Context) ([]entity.Retailer, error)
	SaveCustomRetailer(ctx context.Context, r entity.Retailer) error
	RemoveCustomRetailer(ctx context.Context, id string) error

	FailedRetailerIDs(ctx context.Context) ([]string, error)
	SetFailedRetailerIDs(ctx context.Context, ids []string) error

	Close() error
}
