package form_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
)

func loginForm() form.Form {
	return form.New(
		form.FieldSpec{Name: "email", Label: "Email Address", Rule: form.EmailRule()},
		form.FieldSpec{Name: "password", Label: "Password", Rule: form.PasswordRule(6)},
	)
}

func TestNewStartsEmptyAndInvalid(t *testing.T) {
	f := loginForm()
	if f.Submittable() {
		t.Fatal("fresh form must not be submittable")
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 fields, got %d", f.Len())
	}
	for _, s := range f.Fields() {
		if s.Value != "" || s.IsValid || s.Touched || s.HelperText != "" {
			t.Fatalf("field %s not in initial state: %+v", s.Name, s)
		}
		if s.ShowError() {
			t.Fatalf("field %s shows an error before being touched", s.Name)
		}
	}
}

func TestFieldsKeepCreationOrder(t *testing.T) {
	var names []string
	for _, s := range loginForm().Fields() {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"email", "password"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestEmailValidation(t *testing.T) {
	f, err := loginForm().HandleInput("email", "bad-email")
	if err != nil {
		t.Fatalf("handle input: %v", err)
	}
	s, _ := f.Field("email")
	if s.IsValid {
		t.Fatal("bad-email accepted")
	}
	if s.HelperText != "Invalid email address" {
		t.Fatalf("unexpected helper text %q", s.HelperText)
	}
	if !s.Touched || !s.ShowError() {
		t.Fatal("edited field must be touched and show its error")
	}

	f, _ = f.HandleInput("email", "a@b.co")
	s, _ = f.Field("email")
	if !s.IsValid || s.HelperText != "" {
		t.Fatalf("a@b.co rejected: %+v", s)
	}
}

func TestEmailPatternCases(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":             true,
		"first.last@mail.io": true,
		"x-y@sub.domain.com": true,
		"bad-email":          false,
		"a@b":                false,
		"a@b.c":              false,
		"@b.co":              false,
		"a b@c.de":           false,
		"":                   false,
	}
	rule := form.EmailRule()
	for in, want := range cases {
		if ok, _ := rule.Evaluate(in); ok != want {
			t.Fatalf("email %q: expected %v, got %v", in, want, ok)
		}
	}
}

func TestPasswordMinLength(t *testing.T) {
	f, _ := loginForm().HandleInput("password", "12345")
	s, _ := f.Field("password")
	if s.IsValid {
		t.Fatal("5 characters accepted")
	}
	if s.HelperText != "Password is required (min. length is 6)" {
		t.Fatalf("unexpected helper text %q", s.HelperText)
	}

	f, _ = f.HandleInput("password", "123456")
	s, _ = f.Field("password")
	if !s.IsValid || s.HelperText != "" {
		t.Fatalf("6 characters rejected: %+v", s)
	}
}

func TestMinLengthCountsRunes(t *testing.T) {
	rule := form.MinLengthRule{Min: 3, Message: "short"}
	if ok, _ := rule.Evaluate("äöü"); !ok {
		t.Fatal("three runes should satisfy min 3")
	}
	if ok, _ := rule.Evaluate("äö"); ok {
		t.Fatal("two runes should not satisfy min 3")
	}
}

func TestHandleInputIsCopyOnWrite(t *testing.T) {
	before := loginForm()
	after, err := before.HandleInput("email", "a@b.co")
	if err != nil {
		t.Fatalf("handle input: %v", err)
	}
	s, _ := before.Field("email")
	if s.Value != "" || s.Touched {
		t.Fatal("HandleInput modified the receiver")
	}
	pw, _ := after.Field("password")
	if pw.Touched {
		t.Fatal("untouched sibling field was modified")
	}
}

func TestSubmittableRequiresEveryField(t *testing.T) {
	f, _ := loginForm().HandleInput("email", "a@b.co")
	if f.Submittable() {
		t.Fatal("submittable with untouched password")
	}
	f, _ = f.HandleInput("password", "secret1")
	if !f.Submittable() {
		t.Fatal("expected submittable once both fields pass")
	}
	f, _ = f.HandleInput("email", "nope")
	if f.Submittable() {
		t.Fatal("invalid email must disable submission")
	}
}

func TestAddingInvalidFieldFlipsSubmittable(t *testing.T) {
	single := form.New(form.FieldSpec{Name: "email", Rule: form.EmailRule()})
	single, _ = single.HandleInput("email", "a@b.co")
	if !single.Submittable() {
		t.Fatal("single valid field should be submittable")
	}
	double := form.New(
		form.FieldSpec{Name: "email", Rule: form.EmailRule()},
		form.FieldSpec{Name: "label", Rule: form.RequiredRule{Message: "required"}},
	)
	double, _ = double.HandleInput("email", "a@b.co")
	if double.Submittable() {
		t.Fatal("extra invalid field must keep the form unsubmittable")
	}
}

func TestEmptyFormNotSubmittable(t *testing.T) {
	if form.New().Submittable() {
		t.Fatal("empty form should not be submittable")
	}
}

func TestUnknownField(t *testing.T) {
	f := loginForm()
	got, err := f.HandleInput("username", "x")
	if !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if got.Len() != f.Len() {
		t.Fatal("unknown field changed the form")
	}
}

func TestSerialize(t *testing.T) {
	f, _ := loginForm().HandleInput("email", "a@b.co")
	f, _ = f.HandleInput("password", "secret1")
	want := map[string]string{"email": "a@b.co", "password": "secret1"}
	if diff := cmp.Diff(want, f.Serialize()); diff != "" {
		t.Fatalf("serialize mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesAreDeterministic(t *testing.T) {
	rules := []form.Rule{
		form.EmailRule(),
		form.PasswordRule(6),
		form.RequiredRule{Message: "required"},
		form.IPRule{Message: "bad ip"},
	}
	for _, r := range rules {
		for _, in := range []string{"", "a@b.co", "10.0.0.1", "  ", "12345678"} {
			ok1, msg1 := r.Evaluate(in)
			ok2, msg2 := r.Evaluate(in)
			if ok1 != ok2 || msg1 != msg2 {
				t.Fatalf("%T not deterministic for %q", r, in)
			}
		}
	}
}

func TestIPRule(t *testing.T) {
	rule := form.IPRule{Message: "Invalid IP address"}
	for _, in := range []string{"172.0.0.1", "10.1.2.3", "::1", "2001:db8::68"} {
		if ok, _ := rule.Evaluate(in); !ok {
			t.Fatalf("%q rejected", in)
		}
	}
	for _, in := range []string{"", "172.0.0", "256.1.1.1", "BC2 server"} {
		ok, msg := rule.Evaluate(in)
		if ok {
			t.Fatalf("%q accepted", in)
		}
		if msg != "Invalid IP address" {
			t.Fatalf("unexpected message %q", msg)
		}
	}
}

func TestRequiredRule(t *testing.T) {
	rule := form.RequiredRule{Message: "Label is required"}
	if ok, _ := rule.Evaluate("   "); ok {
		t.Fatal("whitespace accepted")
	}
	if ok, _ := rule.Evaluate("BC2 server"); !ok {
		t.Fatal("label rejected")
	}
}

func TestValidate(t *testing.T) {
	if err := form.Validate(form.EmailRule(), "a@b.co"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := form.Validate(form.EmailRule(), "nope")
	if err == nil || err.Error() != "Invalid email address" {
		t.Fatalf("expected helper text as error, got %v", err)
	}
}

func TestRuleWithoutMessageStillExplainsFailure(t *testing.T) {
	f := form.New(form.FieldSpec{Name: "code", Rule: form.PatternRule{Pattern: regexp.MustCompile(`^a$`)}})
	f, err := f.HandleInput("code", "b")
	if err != nil {
		t.Fatalf("handle input: %v", err)
	}
	st, _ := f.Field("code")
	if !st.ShowError() || st.HelperText != form.DefaultMessage {
		t.Fatalf("touched invalid field without helper text: %+v", st)
	}

	f, _ = f.HandleInput("code", "a")
	if st, _ = f.Field("code"); st.HelperText != "" || !st.IsValid {
		t.Fatalf("valid field kept helper text: %+v", st)
	}
	if err := form.Validate(form.PatternRule{Pattern: regexp.MustCompile(`^a$`)}, "b"); err == nil || err.Error() != form.DefaultMessage {
		t.Fatalf("Validate fallback: %v", err)
	}
}
