package formselect

import (
	"testing"

	"signup-agent/internal/domain/entity"
)

func textField() entity.FieldCandidate {
	return entity.FieldCandidate{Kind: entity.ControlText}
}

func TestSelectBest_NoCandidates(t *testing.T) {
	if _, ok := SelectBest(nil); ok {
		t.Fatalf("no candidates must yield ok=false")
	}
}

func TestSelectBest_SingleCandidateSkipsScoring(t *testing.T) {
	only := entity.FormCandidate{Selector: "#login"} // would score zero
	got, ok := SelectBest([]entity.FormCandidate{only})
	if !ok || got.Selector != "#login" {
		t.Fatalf("single candidate must be returned as-is, got %+v", got)
	}
}

func TestSelectBest_SignupBeatsLogin(t *testing.T) {
	login := entity.FormCandidate{
		Selector: "#login",
		Fields: []entity.FieldCandidate{
			textField(),
			{Kind: entity.ControlPassword},
		},
		SubmitCount: 1,
	}
	signup := entity.FormCandidate{
		Selector: "#signup",
		Fields: []entity.FieldCandidate{
			textField(), textField(),
			{Kind: entity.ControlEmail},
			{Kind: entity.ControlPassword},
			{Kind: entity.ControlDate},
		},
		SubmitCount: 1,
		VisibleText: "Join our rewards program",
	}

	got, ok := SelectBest([]entity.FormCandidate{login, signup})
	if !ok || got.Selector != "#signup" {
		t.Fatalf("expected #signup to win, got %q", got.Selector)
	}
}

func TestSelectBest_TieResolvesToDocumentOrder(t *testing.T) {
	a := entity.FormCandidate{Selector: "#a", Fields: []entity.FieldCandidate{{Kind: entity.ControlEmail}}}
	b := entity.FormCandidate{Selector: "#b", Fields: []entity.FieldCandidate{{Kind: entity.ControlEmail}}}

	got, _ := SelectBest([]entity.FormCandidate{a, b})
	if got.Selector != "#a" {
		t.Fatalf("tie must resolve to the earlier candidate, got %q", got.Selector)
	}
}

func TestScore_Weights(t *testing.T) {
	form := entity.FormCandidate{
		Fields: []entity.FieldCandidate{
			{Kind: entity.ControlEmail},    // +3
			{Kind: entity.ControlDate},     // +3
			{Kind: entity.ControlPassword}, // +2
			textField(),                    // +1
			{Kind: entity.ControlCheckbox}, // +0
		},
		SubmitCount: 1,                                // +2
		VisibleText: "Register for loyalty rewards.",  // register, loyalty, rewards: +9
	}

	if got := Score(form); got != 20 {
		t.Errorf("Score = %d, want 20", got)
	}
}
