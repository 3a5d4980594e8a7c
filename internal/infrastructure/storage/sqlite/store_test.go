package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"signup-agent/internal/domain/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfiles_SaveAndReload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := entity.NewProfile("p1", "main")
	p.Set(entity.AttrEmail, "jo@example.com")
	p.Set(entity.AttrBirthday, "1990-01-05")
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveProfileID(ctx, "p1"); err != nil {
		t.Fatal(err)
	}

	profiles, err := s.Profiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := profiles["p1"]
	if !ok {
		t.Fatalf("profile p1 missing, have %d profiles", len(profiles))
	}
	if got.Value(entity.AttrEmail) != "jo@example.com" {
		t.Errorf("email = %q", got.Value(entity.AttrEmail))
	}
	if got.Value(entity.AttrBirthday) != "1990-01-05" {
		t.Errorf("birthday = %q", got.Value(entity.AttrBirthday))
	}

	active, err := s.ActiveProfileID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != "p1" {
		t.Errorf("active profile = %q", active)
	}
}

func TestSaveProfile_RejectsEmptyID(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveProfile(context.Background(), entity.Profile{}); err == nil {
		t.Fatal("expected an error for an empty profile id")
	}
}

func TestSeedBundledRetailers_OnlyOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []entity.Retailer{{ID: "alpha", SignupURL: "https://alpha.example.com", IsCustom: true}}
	if err := s.SeedBundledRetailers(ctx, first); err != nil {
		t.Fatal(err)
	}
	// a second seed with different content must not overwrite
	second := []entity.Retailer{{ID: "beta", SignupURL: "https://beta.example.com"}}
	if err := s.SeedBundledRetailers(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.BundledRetailers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "alpha" {
		t.Fatalf("seed was overwritten: %+v", got)
	}
	if got[0].IsCustom {
		t.Errorf("bundled records must never be flagged custom")
	}
}

func TestCustomRetailers_CRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := entity.Retailer{ID: "shop-1", Name: "Shop One", SignupURL: "https://one.example.com/signup"}
	if err := s.SaveCustomRetailer(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.CustomRetailers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[0].IsCustom {
		t.Fatalf("save must flag the record custom: %+v", got)
	}

	// update in place
	r.Name = "Shop One Renamed"
	if err := s.SaveCustomRetailer(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ = s.CustomRetailers(ctx)
	if len(got) != 1 || got[0].Name != "Shop One Renamed" {
		t.Fatalf("update duplicated or lost the record: %+v", got)
	}

	if err := s.RemoveCustomRetailer(ctx, "shop-1"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.CustomRetailers(ctx)
	if len(got) != 0 {
		t.Fatalf("remove left %d records", len(got))
	}
}

func TestRemoveCustomRetailer_RejectsUnknownID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SeedBundledRetailers(ctx, []entity.Retailer{{ID: "builtin", SignupURL: "https://b.example.com"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveCustomRetailer(ctx, "builtin"); err == nil {
		t.Fatal("removing a built-in must error, not no-op")
	}
}

func TestFailedRetailerIDs_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.FailedRetailerIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("fresh store has %d failed ids", len(ids))
	}

	if err := s.SetFailedRetailerIDs(ctx, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	ids, _ = s.FailedRetailerIDs(ctx)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("registry = %v", ids)
	}

	// clearing with nil stores an empty list, not a null
	if err := s.SetFailedRetailerIDs(ctx, nil); err != nil {
		t.Fatal(err)
	}
	ids, err = s.FailedRetailerIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("cleared registry = %v", ids)
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetActiveProfileID(ctx, "p9"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	active, err := s2.ActiveProfileID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != "p9" {
		t.Errorf("active profile lost across reopen: %q", active)
	}
}
