package entity

// Commands form a closed union: the execution-context agent switches over
// the concrete types exhaustively, so adding an action is a compile-time
// visible change rather than a new magic string.

// Command is a request sent into an execution context.
type Command interface {
	Action() string
	isCommand()
}

// Response is the agent's reply to a Command.
type Response interface {
	isResponse()
}

// PingCommand is the handshake liveness probe.
type PingCommand struct{}

// FillFormCommand asks the agent to classify the page's fields and fill them
// from the profile. Overrides pin specific selectors to attributes ahead of
// heuristic classification.
type FillFormCommand struct {
	Profile   Profile
	Overrides map[string]ProfileAttribute
}

// SubmitFormCommand asks the agent to submit the previously selected form.
type SubmitFormCommand struct{}

// FormStatusCommand asks whether a fillable form is present at all.
type FormStatusCommand struct{}

func (PingCommand) Action() string       { return "ping" }
func (FillFormCommand) Action() string   { return "fillForm" }
func (SubmitFormCommand) Action() string { return "submitForm" }
func (FormStatusCommand) Action() string { return "getFormStatus" }

func (PingCommand) isCommand()       {}
func (FillFormCommand) isCommand()   {}
func (SubmitFormCommand) isCommand() {}
func (FormStatusCommand) isCommand() {}

// Fill outcome statuses.
const (
	FillStatusSuccess = "success"
	FillStatusWarning = "warning"
	FillStatusError   = "error"
)

// PingResponse acknowledges a PingCommand with status "pong".
type PingResponse struct {
	Status string `json:"status"`
}

// FillFormResponse reports the fill outcome. Warning means the page loaded
// and the agent ran but nothing could be filled.
type FillFormResponse struct {
	Status            string `json:"status"`
	FieldsFilledCount int    `json:"fieldsFilledCount"`
	Message           string `json:"message"`
}

// SubmitFormResponse reports the submit attempt.
type SubmitFormResponse struct {
	Success          bool `json:"success"`
	HasBirthdayField bool `json:"hasBirthdayField"`
	CaptchaDetected  bool `json:"captchaDetected"`
}

// FormStatusResponse reports form presence on the current page.
type FormStatusResponse struct {
	FormDetected bool `json:"formDetected"`
	FieldCount   int  `json:"fieldCount"`
}

func (PingResponse) isResponse()       {}
func (FillFormResponse) isResponse()   {}
func (SubmitFormResponse) isResponse() {}
func (FormStatusResponse) isResponse() {}
