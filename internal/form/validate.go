package form

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GenericInvalidMessage is the catch-all shown when a submission fails
// validation for a reason we don't spell out (notably the honeypot —
// bots get no hint about what tripped them).
const GenericInvalidMessage = "Your message could not be sent. Please check the form and try again."

// Result reports one validation pass. Built fresh on every call and
// never mutated afterwards.
type Result struct {
	IsValid bool
	Errors  []string
}

// Validator checks contact submissions. It is pure: no network, no
// storage, same input always yields the same Result.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks the whole submission. The honeypot rule runs first:
// a non-empty Website field fails the pass with only the generic
// message, regardless of the other fields.
func (va *Validator) Validate(d Data) Result {
	if strings.TrimSpace(d.Website) != "" {
		return Result{Errors: []string{GenericInvalidMessage}}
	}

	err := va.v.Struct(d)
	if err == nil {
		return Result{IsValid: true}
	}

	var ferrs validator.ValidationErrors
	if !errors.As(err, &ferrs) {
		return Result{Errors: []string{GenericInvalidMessage}}
	}

	res := Result{Errors: make([]string, 0, len(ferrs))}
	for _, fe := range ferrs {
		res.Errors = append(res.Errors, fieldMessage(fe))
	}
	return res
}

// ValidateField checks a single field by form name and returns its
// error message, or "" if the field is fine. Unknown names validate
// clean.
func (va *Validator) ValidateField(d Data, name string) string {
	structField, ok := structFieldFor(name)
	if !ok {
		return ""
	}

	err := va.v.StructPartial(d, structField)
	if err == nil {
		return ""
	}

	var ferrs validator.ValidationErrors
	if errors.As(err, &ferrs) && len(ferrs) > 0 {
		return fieldMessage(ferrs[0])
	}
	return GenericInvalidMessage
}

func structFieldFor(name string) (string, bool) {
	switch name {
	case FieldName:
		return "Name", true
	case FieldEmail:
		return "Email", true
	case FieldSubject:
		return "Subject", true
	case FieldMessage:
		return "Message", true
	}
	return "", false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "max" {
			return "Your name is too long (100 characters max)."
		}
		return "Please enter your name."
	case "Email":
		if fe.Tag() == "required" {
			return "Please enter your email address."
		}
		return "Please enter a valid email address."
	case "Subject":
		if fe.Tag() == "max" {
			return "Your subject is too long (200 characters max)."
		}
		return "Please enter a subject."
	case "Message":
		if fe.Tag() == "max" {
			return "Your message is too long (4000 characters max)."
		}
		return "Please enter a message."
	}
	return GenericInvalidMessage
}
