// Package fillplan holds the pure value-coercion rules of the fill executor:
// date canonicalisation, select-option matching, checkbox truthiness, and the
// mapping from a classified field to the profile value that feeds it.
package fillplan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"signup-agent/internal/domain/entity"
)

// centuryPivot decides the century of 2-digit years: below it 20YY, at or
// above it 19YY. Birth years overwhelmingly land in the 1900s, sign-up
// expiry style dates in the 2000s.
const centuryPivot = 50

// NormalizeDate canonicalises a date string to YYYY-MM-DD. Already-canonical
// input comes back unchanged. Slash-delimited input is read as MM/DD/YYYY
// with the century of 2-digit years inferred. When the canonicalised string
// is not a valid calendar date the original input is returned untouched so
// the fill can still write something rather than block.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}

	if isCanonical(s) {
		return s
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return raw
	}
	month, errM := strconv.Atoi(strings.TrimSpace(parts[0]))
	day, errD := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, errY := strconv.Atoi(strings.TrimSpace(parts[2]))
	if errM != nil || errD != nil || errY != nil {
		return raw
	}
	if year < 100 {
		if year < centuryPivot {
			year += 2000
		} else {
			year += 1900
		}
	}

	canon := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if !isCanonical(canon) {
		return raw
	}
	return canon
}

// isCanonical reports whether s is a valid YYYY-MM-DD calendar date.
func isCanonical(s string) bool {
	t, err := time.Parse("2006-01-02", s)
	return err == nil && t.Format("2006-01-02") == s
}

// MatchOption finds the option a target value should select: exact
// case-insensitive match on value or label first, then substring containment
// in either direction. ok is false when nothing matches; the caller leaves
// the control unset in that case, it never errors.
func MatchOption(options []entity.Option, target string) (entity.Option, bool) {
	want := strings.ToLower(strings.TrimSpace(target))
	if want == "" {
		return entity.Option{}, false
	}

	for _, o := range options {
		if strings.ToLower(o.Value) == want || strings.ToLower(strings.TrimSpace(o.Label)) == want {
			return o, true
		}
	}
	for _, o := range options {
		v := strings.ToLower(o.Value)
		l := strings.ToLower(o.Label)
		if v != "" && (strings.Contains(v, want) || strings.Contains(want, v)) {
			return o, true
		}
		if l != "" && (strings.Contains(l, want) || strings.Contains(want, l)) {
			return o, true
		}
	}
	return entity.Option{}, false
}

// Truthy maps a profile value to a checkbox state.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// ValueFor resolves the string to write for a classified field. Birth-date
// sub-fields are carved out of the profile's single birthday value. ok is
// false when the profile has nothing to offer for the field.
func ValueFor(profile entity.Profile, result entity.ClassificationResult) (string, bool) {
	if result.Unknown() {
		return "", false
	}
	stored := profile.Value(result.ProfileKey)
	if stored == "" {
		return "", false
	}

	switch result.FieldType {
	case entity.AttrBirthDay, entity.AttrBirthMonth, entity.AttrBirthYear:
		t, err := time.Parse("2006-01-02", NormalizeDate(stored))
		if err != nil {
			return "", false
		}
		switch result.FieldType {
		case entity.AttrBirthDay:
			return strconv.Itoa(t.Day()), true
		case entity.AttrBirthMonth:
			return strconv.Itoa(int(t.Month())), true
		default:
			return strconv.Itoa(t.Year()), true
		}
	case entity.AttrBirthday:
		return NormalizeDate(stored), true
	default:
		return stored, true
	}
}
