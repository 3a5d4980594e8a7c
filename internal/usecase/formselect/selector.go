// Package formselect scores candidate forms and picks the one most likely to
// be the sign-up target. Pure, operates on extracted FormCandidates only.
package formselect

import (
	"strings"

	"signup-agent/internal/domain/entity"
)

// Control and keyword weights for the sign-up likelihood score.
const (
	weightEmail    = 3
	weightDate     = 3
	weightPassword = 2
	weightSubmit   = 2
	weightText     = 1
	weightKeyword  = 3
)

// intentKeywords are sign-up intent markers counted in the container's
// visible text, once per keyword.
var intentKeywords = []string{
	"sign up", "signup", "join", "register", "create account",
	"loyalty", "rewards", "subscribe", "newsletter", "member",
}

// Score rates one candidate by its control mix and sign-up wording.
func Score(form entity.FormCandidate) int {
	score := 0
	for _, f := range form.Fields {
		switch f.Kind {
		case entity.ControlEmail:
			score += weightEmail
		case entity.ControlDate:
			score += weightDate
		case entity.ControlPassword:
			score += weightPassword
		case entity.ControlText, entity.ControlTextarea:
			score += weightText
		}
	}
	score += form.SubmitCount * weightSubmit

	text := strings.ToLower(form.VisibleText)
	for _, kw := range intentKeywords {
		if strings.Contains(text, kw) {
			score += weightKeyword
		}
	}
	return score
}

// SelectBest picks the highest-scoring candidate. A single candidate is
// returned as-is without scoring; ties resolve to the earliest in document
// order. ok is false only when there are no candidates at all.
func SelectBest(candidates []entity.FormCandidate) (entity.FormCandidate, bool) {
	switch len(candidates) {
	case 0:
		return entity.FormCandidate{}, false
	case 1:
		return candidates[0], true
	}

	best := 0
	bestScore := Score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := Score(candidates[i]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return candidates[best], true
}
