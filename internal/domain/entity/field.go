package entity

// ControlKind is the coarse shape of a form control, driving how a value is
// written into it.
type ControlKind string

const (
	ControlText     ControlKind = "text"
	ControlEmail    ControlKind = "email"
	ControlPassword ControlKind = "password"
	ControlTel      ControlKind = "tel"
	ControlNumber   ControlKind = "number"
	ControlDate     ControlKind = "date"
	ControlSelect   ControlKind = "select"
	ControlCheckbox ControlKind = "checkbox"
	ControlRadio    ControlKind = "radio"
	ControlTextarea ControlKind = "textarea"
	ControlSubmit   ControlKind = "submit"
	ControlButton   ControlKind = "button"
	ControlHidden   ControlKind = "hidden"
)

// Fillable reports whether the control kind accepts a profile value at all.
func (k ControlKind) Fillable() bool {
	switch k {
	case ControlSubmit, ControlButton, ControlHidden:
		return false
	default:
		return true
	}
}

// Option is one choice of a single-select control.
type Option struct {
	Value string
	Label string
}

// FieldCandidate is the structured descriptor of one control, extracted from
// the page so classification can run without any DOM in reach. Ephemeral,
// scoped to a single visit.
type FieldCandidate struct {
	Selector       string // write-back locator inside the execution context
	Kind           ControlKind
	RawID          string
	RawName        string
	RawClass       string
	RawPlaceholder string
	LabelText      string // text of the associated <label>, if any
	NearbyText     string // previous-sibling or preceding-cell text fallback
	RadioValue     string // the control's own value, for radio groups
	Options        []Option
}

// FormCandidate is one form or form-like container on the page.
type FormCandidate struct {
	Selector    string
	IsForm      bool // true for a real <form>, false for a qualifying container
	Fields      []FieldCandidate
	SubmitCount int
	VisibleText string
}

// ClassificationResult is the classifier's verdict for one candidate. It is
// consumed immediately by the fill executor and never persisted.
type ClassificationResult struct {
	FieldType  ProfileAttribute
	Confidence float64
	ProfileKey ProfileAttribute
}

// Unknown reports whether the field stays unfilled.
func (r ClassificationResult) Unknown() bool {
	return r.FieldType == AttrUnknown
}
