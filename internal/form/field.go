package form

// Field holds one form input's value plus its interaction metadata.
type Field struct {
	Value   string
	Error   string
	Touched bool
	Dirty   bool

	initial string
}

// NewField creates a pristine field with the given initial value.
func NewField(initial string) Field {
	return Field{Value: initial, initial: initial}
}

// Set updates the value and recomputes the dirty flag. Dirty is true
// exactly when the current value differs from the initial one, so
// typing something and deleting it again leaves the field clean.
func (f *Field) Set(value string) {
	f.Value = value
	f.Dirty = value != f.initial
}

// Touch marks the field as interacted with (focused then blurred).
// Touched never reverts except through Reset.
func (f *Field) Touch() {
	f.Touched = true
}

// Reset returns the field to its pristine state.
func (f *Field) Reset() {
	f.Value = f.initial
	f.Error = ""
	f.Touched = false
	f.Dirty = false
}
