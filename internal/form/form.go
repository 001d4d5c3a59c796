// Package form holds the per-field validation state of operator forms.
//
// A Form is an immutable value: HandleInput returns a new Form with exactly
// one field replaced, so callers can keep the previous value for change
// detection and never share field state between two forms.
package form

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned by HandleInput for a name the form was not
// created with.
var ErrUnknownField = errors.New("form: unknown field")

// DefaultMessage is the helper text of a failed rule that has none.
const DefaultMessage = "invalid value"

// FieldSpec describes one field at creation time.
type FieldSpec struct {
	Name  string
	Label string
	Rule  Rule
}

// FieldState is the current value and validation status of one field.
type FieldState struct {
	Name       string
	Label      string
	Value      string
	Rule       Rule
	IsValid    bool
	Touched    bool
	HelperText string
}

// ShowError reports whether the helper text should be displayed. Errors
// stay hidden until the operator has edited the field.
func (f FieldState) ShowError() bool {
	return f.Touched && !f.IsValid
}

func (f FieldState) evaluate(value string) FieldState {
	f.Value = value
	f.Touched = true
	f.IsValid, f.HelperText = false, ""
	if f.Rule == nil {
		f.IsValid = true
		return f
	}
	ok, msg := f.Rule.Evaluate(value)
	f.IsValid = ok
	if !ok {
		f.HelperText = msg
		if msg == "" {
			f.HelperText = DefaultMessage
		}
	}
	return f
}

type Form struct {
	order       []string
	fields      map[string]FieldState
	submittable bool
}

// New builds a form with every field empty, invalid and untouched.
func New(specs ...FieldSpec) Form {
	f := Form{
		order:  make([]string, 0, len(specs)),
		fields: make(map[string]FieldState, len(specs)),
	}
	for _, s := range specs {
		if _, dup := f.fields[s.Name]; !dup {
			f.order = append(f.order, s.Name)
		}
		f.fields[s.Name] = FieldState{Name: s.Name, Label: s.Label, Rule: s.Rule}
	}
	f.submittable = computeSubmittable(f.fields)
	return f
}

// HandleInput records raw as the value of name, marks it touched and
// re-validates that field only.
func (f Form) HandleInput(name, raw string) (Form, error) {
	cur, ok := f.fields[name]
	if !ok {
		return f, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	next := Form{
		order:  f.order,
		fields: make(map[string]FieldState, len(f.fields)),
	}
	for k, v := range f.fields {
		next.fields[k] = v
	}
	next.fields[name] = cur.evaluate(raw)
	next.submittable = computeSubmittable(next.fields)
	return next, nil
}

// Submittable is true iff every field currently passes its rule.
func (f Form) Submittable() bool {
	return f.submittable
}

func computeSubmittable(fields map[string]FieldState) bool {
	if len(fields) == 0 {
		return false
	}
	for _, s := range fields {
		if !s.IsValid {
			return false
		}
	}
	return true
}

// Serialize flattens the form into a name → value payload.
func (f Form) Serialize() map[string]string {
	out := make(map[string]string, len(f.fields))
	for name, s := range f.fields {
		out[name] = s.Value
	}
	return out
}

func (f Form) Field(name string) (FieldState, bool) {
	s, ok := f.fields[name]
	return s, ok
}

// Fields returns the field states in creation order.
func (f Form) Fields() []FieldState {
	out := make([]FieldState, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.fields[name])
	}
	return out
}

// Len returns the number of fields.
func (f Form) Len() int {
	return len(f.order)
}
