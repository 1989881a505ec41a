package form

import (
	"context"
	"errors"
	"sync"
)

// Submitter sends a validated submission. Satisfied by *Client.
type Submitter interface {
	Submit(ctx context.Context, d Data) error
}

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission is still running. The call counts as an attempt but never
// reaches the network.
var ErrSubmitInFlight = errors.New("submission already in flight")

// ErrInvalid is returned when Submit aborts on validation failure.
var ErrInvalid = errors.New("form failed validation")

const genericSubmitFailed = "Something went wrong sending your message. Please try again."

// Controller owns one form instance's state transitions. The form runs
// on a single event-driven flow; the mutex only guards against a second
// Submit racing an in-flight one. Network and validation failures leave
// the form editable for a retry.
type Controller struct {
	mu        sync.Mutex
	state     *State
	validator *Validator
	submitter Submitter

	honeypot  string
	csrfToken string
}

func NewController(submitter Submitter) *Controller {
	return &Controller{
		state:     NewState(),
		validator: NewValidator(),
		submitter: submitter,
	}
}

// SetCSRFToken records the server-issued token for the next submission.
func (c *Controller) SetCSRFToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrfToken = token
}

// SetHoneypot mirrors the hidden website field. Anything but "" marks
// the submission as spam at validation time.
func (c *Controller) SetHoneypot(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.honeypot = value
}

// UpdateField sets a field's value, recomputes its dirty flag, and
// re-validates that field only.
func (c *Controller) UpdateField(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.state.Fields[name]
	if !ok {
		return
	}
	f.Set(value)
	f.Error = c.validator.ValidateField(c.data(), name)
}

// TouchField marks a field as blurred.
func (c *Controller) TouchField(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.state.Fields[name]; ok {
		f.Touch()
	}
}

// Submit runs one submission attempt. Validation failures abort before
// any network contact; while a submission is in flight, further calls
// return ErrSubmitInFlight without touching the network.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.state.SubmitAttempts++

	if c.state.IsSubmitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	d := c.data()
	res := c.validator.Validate(d)
	if !res.IsValid {
		c.applyValidationErrors(d, res)
		c.mu.Unlock()
		return ErrInvalid
	}

	c.state.IsSubmitting = true
	c.state.Succeeded = false
	c.state.SubmitError = ""
	c.state.Errors = nil
	c.mu.Unlock()

	err := c.submitter.Submit(ctx, d)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.IsSubmitting = false
	if err != nil {
		var serr *SubmitError
		if errors.As(err, &serr) {
			c.state.SubmitError = serr.Message()
		} else {
			c.state.SubmitError = genericSubmitFailed
		}
		return err
	}
	c.state.Succeeded = true
	return nil
}

// Reset discards all state, returning the form to pristine.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Reset()
	c.honeypot = ""
	c.csrfToken = ""
}

// State returns a snapshot of the current form state. Fields are
// copied so callers cannot mutate the controller's own state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := *c.state
	snap.Fields = make(map[string]*Field, len(c.state.Fields))
	for name, f := range c.state.Fields {
		cp := *f
		snap.Fields[name] = &cp
	}
	snap.Errors = append([]string(nil), c.state.Errors...)
	return snap
}

// data assembles the payload from current field values. Caller holds
// the lock.
func (c *Controller) data() Data {
	return Data{
		Name:      c.state.Fields[FieldName].Value,
		Email:     c.state.Fields[FieldEmail].Value,
		Subject:   c.state.Fields[FieldSubject].Value,
		Message:   c.state.Fields[FieldMessage].Value,
		Website:   c.honeypot,
		CSRFToken: c.csrfToken,
	}
}

// applyValidationErrors surfaces all errors from a failed pass: the
// per-field messages land on the fields, the full list on the state.
// Caller holds the lock.
func (c *Controller) applyValidationErrors(d Data, res Result) {
	for name, f := range c.state.Fields {
		f.Error = c.validator.ValidateField(d, name)
	}
	c.state.Errors = append([]string(nil), res.Errors...)
	c.state.SubmitError = GenericInvalidMessage
}
