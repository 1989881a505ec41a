// Package form implements the contact form pipeline: the per-field
// model, the form state machine, validation, and the submission client
// that posts to the contact endpoint. The server handler reuses the
// same Data type and Validator so client and server agree on what a
// valid submission is.
package form

// Field names accepted by UpdateField and TouchField.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// FieldNames lists the form's fields in display order.
func FieldNames() []string {
	return []string{FieldName, FieldEmail, FieldSubject, FieldMessage}
}

// Data is the contact form payload. One definition serves the
// validator, the controller, the submission client, and the server
// handler. Website is the honeypot: it is rendered as a hidden input
// and must stay empty for human submissions.
type Data struct {
	Name      string `json:"name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Subject   string `json:"subject" validate:"required,max=200"`
	Message   string `json:"message" validate:"required,max=4000"`
	Website   string `json:"website,omitempty"`
	CSRFToken string `json:"csrfToken,omitempty"`
}

// State aggregates the four contact fields plus submission progress.
// Each rendered form owns exactly one State; nothing is shared across
// instances.
type State struct {
	Fields         map[string]*Field
	IsSubmitting   bool
	SubmitAttempts int

	// Outcome of the last completed submit.
	Succeeded   bool
	SubmitError string   // user-visible, empty unless the last submit failed
	Errors      []string // validation messages from the last failed submit
}

// NewState creates a form with all fields empty and untouched.
func NewState() *State {
	s := &State{Fields: make(map[string]*Field, 4)}
	for _, name := range FieldNames() {
		f := NewField("")
		s.Fields[name] = &f
	}
	return s
}

// Reset clears values, errors, and interaction flags, and discards any
// previous submit outcome. SubmitAttempts is reset too.
func (s *State) Reset() {
	for _, f := range s.Fields {
		f.Reset()
	}
	s.IsSubmitting = false
	s.SubmitAttempts = 0
	s.Succeeded = false
	s.SubmitError = ""
	s.Errors = nil
}
