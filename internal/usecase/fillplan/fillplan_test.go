package fillplan

import (
	"testing"

	"signup-agent/internal/domain/entity"
)

func TestNormalizeDate_CanonicalIsIdempotent(t *testing.T) {
	if got := NormalizeDate("1990-01-15"); got != "1990-01-15" {
		t.Errorf("canonical input must come back unchanged, got %q", got)
	}
	if got := NormalizeDate(NormalizeDate("01/15/1990")); got != "1990-01-15" {
		t.Errorf("double normalization drifted: %q", got)
	}
}

func TestNormalizeDate_SlashDelimited(t *testing.T) {
	cases := map[string]string{
		"01/15/1990": "1990-01-15",
		"1/5/90":     "1990-01-05",
		"12/31/2001": "2001-12-31",
		"1/5/05":     "2005-01-05",
	}
	for in, want := range cases {
		if got := NormalizeDate(in); got != want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeDate_InvalidFallsBackToRaw(t *testing.T) {
	for _, raw := range []string{"02/30/1990", "13/01/1990", "next tuesday", "1990-2-3", ""} {
		if got := NormalizeDate(raw); got != raw {
			t.Errorf("invalid input %q must pass through, got %q", raw, got)
		}
	}
}

func TestMatchOption_ExactBeforeSubstring(t *testing.T) {
	options := []entity.Option{
		{Value: "USA", Label: "United States of America"},
		{Value: "US", Label: "United States"},
	}
	opt, ok := MatchOption(options, "us")
	if !ok || opt.Value != "US" {
		t.Fatalf("exact match must win over substring, got %+v ok=%v", opt, ok)
	}
}

func TestMatchOption_SubstringFallback(t *testing.T) {
	options := []entity.Option{
		{Value: "CA", Label: "California"},
		{Value: "NY", Label: "New York"},
	}
	opt, ok := MatchOption(options, "california resident")
	if !ok || opt.Value != "CA" {
		t.Fatalf("expected substring fallback to CA, got %+v ok=%v", opt, ok)
	}
}

func TestMatchOption_NoMatchLeavesUnset(t *testing.T) {
	// case/format mismatch with no shared substring: stays unset, no error
	options := []entity.Option{
		{Value: "US", Label: "US"},
		{Value: "Canada", Label: "Canada"},
	}
	if _, ok := MatchOption(options, "united states"); ok {
		t.Errorf("expected no match for %q", "united states")
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"yes", "true", "1", "anything"} {
		if !Truthy(v) {
			t.Errorf("Truthy(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "no", "off", "  NO "} {
		if Truthy(v) {
			t.Errorf("Truthy(%q) = true", v)
		}
	}
}

func TestValueFor_BirthdaySubFields(t *testing.T) {
	p := entity.NewProfile("p1", "test")
	p.Set(entity.AttrBirthday, "01/05/1990")

	cases := map[entity.ProfileAttribute]string{
		entity.AttrBirthDay:   "5",
		entity.AttrBirthMonth: "1",
		entity.AttrBirthYear:  "1990",
		entity.AttrBirthday:   "1990-01-05",
	}
	for fieldType, want := range cases {
		got, ok := ValueFor(p, entity.ClassificationResult{
			FieldType:  fieldType,
			ProfileKey: fieldType.ProfileKey(),
		})
		if !ok {
			t.Fatalf("%s: expected a value", fieldType)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", fieldType, got, want)
		}
	}
}

func TestValueFor_UnsetAttributeSkipped(t *testing.T) {
	p := entity.NewProfile("p1", "test")
	if _, ok := ValueFor(p, entity.ClassificationResult{
		FieldType:  entity.AttrPhone,
		ProfileKey: entity.AttrPhone,
	}); ok {
		t.Errorf("unset attribute must not produce a value")
	}
}

func TestValueFor_UnknownSkipped(t *testing.T) {
	p := entity.NewProfile("p1", "test")
	p.Set(entity.AttrEmail, "a@b.c")
	if _, ok := ValueFor(p, entity.ClassificationResult{FieldType: entity.AttrUnknown}); ok {
		t.Errorf("unknown field must not produce a value")
	}
}
