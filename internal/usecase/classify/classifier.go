// Package classify maps arbitrary form-field descriptors to profile
// attributes using layered heuristics and confidence scoring. It is pure:
// input is a structured FieldCandidate, output a ClassificationResult, no
// page or DOM anywhere in reach.
package classify

import (
	"strings"

	"signup-agent/internal/domain/entity"
)

// Layer confidences, in descending reliability order. A running score only
// ever takes the max of what the layers report, never an average.
const (
	confTypeHint    = 0.95
	confExactAttr   = 0.90
	confNameSubstr  = 0.90
	confPlaceholder = 0.80
	confLabel       = 0.85
	confClass       = 0.70
	confNearby      = 0.65
)

// DefaultThreshold is the minimum confidence for a field to be filled.
const DefaultThreshold = 0.7

// Classifier scores field candidates against a keyword table.
type Classifier struct {
	table     KeywordTable
	threshold float64
}

// New builds a classifier over the given table. A nil table means the
// built-in one; a non-positive threshold means DefaultThreshold.
func New(table KeywordTable, threshold float64) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{table: table, threshold: threshold}
}

// Classify returns the best-scoring attribute for the candidate, or the
// unknown result when nothing reaches the threshold. Ties are broken by
// table order, first entry wins.
func (c *Classifier) Classify(f entity.FieldCandidate) entity.ClassificationResult {
	bestAttr := entity.AttrUnknown
	bestConf := 0.0

	for _, entry := range c.table {
		conf := c.score(f, entry)
		if conf > bestConf {
			bestConf = conf
			bestAttr = entry.Attr
		}
	}

	if bestConf < c.threshold {
		return entity.ClassificationResult{FieldType: entity.AttrUnknown}
	}
	return entity.ClassificationResult{
		FieldType:  bestAttr,
		Confidence: bestConf,
		ProfileKey: bestAttr.ProfileKey(),
	}
}

func (c *Classifier) score(f entity.FieldCandidate, entry attributeKeywords) float64 {
	conf := 0.0

	if hint, ok := typeHint(f.Kind); ok && hint == entry.Attr {
		conf = confTypeHint
	}

	id := normalize(f.RawID)
	name := normalize(f.RawName)
	class := strings.ToLower(f.RawClass)
	placeholder := strings.ToLower(f.RawPlaceholder)
	label := strings.ToLower(f.LabelText)
	nearby := strings.ToLower(f.NearbyText)

	for _, kw := range entry.Keywords {
		norm := normalize(kw)
		if norm == "" {
			continue
		}
		lower := strings.ToLower(kw)

		if id == norm || name == norm {
			conf = max(conf, confExactAttr)
		}
		if strings.Contains(id, norm) || strings.Contains(name, norm) {
			conf = max(conf, confNameSubstr)
		}
		if class != "" && strings.Contains(class, lower) {
			conf = max(conf, confClass)
		}
		if placeholder != "" && strings.Contains(placeholder, lower) {
			conf = max(conf, confPlaceholder)
		}
		if label != "" && strings.Contains(label, lower) {
			conf = max(conf, confLabel)
		}
		if nearby != "" && strings.Contains(nearby, lower) {
			conf = max(conf, confNearby)
		}
	}

	return conf
}

// typeHint maps a control's semantic type straight to an attribute.
func typeHint(kind entity.ControlKind) (entity.ProfileAttribute, bool) {
	switch kind {
	case entity.ControlEmail:
		return entity.AttrEmail, true
	case entity.ControlPassword:
		return entity.AttrPassword, true
	case entity.ControlTel:
		return entity.AttrPhone, true
	case entity.ControlDate:
		return entity.AttrBirthday, true
	default:
		return "", false
	}
}

// normalize lowercases and strips everything outside [a-z0-9] so that
// "First_Name", "first-name" and "firstName" all compare equal.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
