// Package sqlite persists the agent's state as a key-value table in a local
// SQLite database. Values are JSON documents under the same keys earlier
// versions of the tooling used, so existing data stays readable.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"signup-agent/internal/application/port/output"
	"signup-agent/internal/domain/entity"
)

// Storage keys. Exact spelling matters for compatibility.
const (
	keyProfiles         = "profiles"
	keyActiveProfileID  = "activeProfileId"
	keyCustomRetailers  = "customRetailerDatabase"
	keyBundledRetailers = "webscrapedRetailersDb"
	keyFailedRetailers  = "failedRetailerIds"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

var _ output.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(raw))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Profiles(ctx context.Context) (map[string]entity.Profile, error) {
	profiles := make(map[string]entity.Profile)
	if _, err := s.get(ctx, keyProfiles, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *Store) SaveProfile(ctx context.Context, p entity.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is empty")
	}
	profiles, err := s.Profiles(ctx)
	if err != nil {
		return err
	}
	profiles[p.ID] = p
	return s.put(ctx, keyProfiles, profiles)
}

func (s *Store) ActiveProfileID(ctx context.Context) (string, error) {
	var id string
	if _, err := s.get(ctx, keyActiveProfileID, &id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetActiveProfileID(ctx context.Context, id string) error {
	return s.put(ctx, keyActiveProfileID, id)
}

func (s *Store) BundledRetailers(ctx context.Context) ([]entity.Retailer, error) {
	var retailers []entity.Retailer
	if _, err := s.get(ctx, keyBundledRetailers, &retailers); err != nil {
		return nil, err
	}
	return retailers, nil
}

// SeedBundledRetailers writes the built-in dataset once. An existing dataset
// is left untouched: built-in records change only when the bundled data
// itself is replaced.
func (s *Store) SeedBundledRetailers(ctx context.Context, retailers []entity.Retailer) error {
	var existing []entity.Retailer
	found, err := s.get(ctx, keyBundledRetailers, &existing)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	for i := range retailers {
		retailers[i].IsCustom = false
	}
	return s.put(ctx, keyBundledRetailers, retailers)
}

func (s *Store) CustomRetailers(ctx context.Context) ([]entity.Retailer, error) {
	var retailers []entity.Retailer
	if _, err := s.get(ctx, keyCustomRetailers, &retailers); err != nil {
		return nil, err
	}
	return retailers, nil
}

func (s *Store) SaveCustomRetailer(ctx context.Context, r entity.Retailer) error {
	if r.ID == "" {
		return fmt.Errorf("retailer id is empty")
	}
	r.IsCustom = true
	retailers, err := s.CustomRetailers(ctx)
	if err != nil {
		return err
	}
	for i := range retailers {
		if retailers[i].ID == r.ID {
			retailers[i] = r
			return s.put(ctx, keyCustomRetailers, retailers)
		}
	}
	return s.put(ctx, keyCustomRetailers, append(retailers, r))
}

// RemoveCustomRetailer deletes a user-added record. Built-in retailers are
// not user-deletable; asking for one is an error, not a silent no-op.
func (s *Store) RemoveCustomRetailer(ctx context.Context, id string) error {
	retailers, err := s.CustomRetailers(ctx)
	if err != nil {
		return err
	}
	for i := range retailers {
		if retailers[i].ID == id {
			return s.put(ctx, keyCustomRetailers, append(retailers[:i:i], retailers[i+1:]...))
		}
	}
	return fmt.Errorf("retailer %s is not a custom record", id)
}

func (s *Store) FailedRetailerIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := s.get(ctx, keyFailedRetailers, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) SetFailedRetailerIDs(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return s.put(ctx, keyFailedRetailers, ids)
}
