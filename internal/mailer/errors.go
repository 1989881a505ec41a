package mailer

import "fmt"

type ErrDisabled struct{}

func (e ErrDisabled) Error() string { return "mail sending is disabled" }

type ErrInvalidMessage struct{ Reason string }

func (e ErrInvalidMessage) Error() string { return "invalid mail message: " + e.Reason }

type ErrSend struct{ Err error }

func (e ErrSend) Error() string { return fmt.Sprintf("smtp send failed: %v", e.Err) }
func (e ErrSend) Unwrap() error { return e.Err }
