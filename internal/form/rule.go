package form

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule validates a single raw field value. Implementations must be pure:
// the same value always yields the same result and message.
type Rule interface {
	Evaluate(value string) (ok bool, helperText string)
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// PatternRule requires the whole value to match Pattern.
type PatternRule struct {
	Pattern *regexp.Regexp
	Message string
}

func (r PatternRule) Evaluate(value string) (bool, string) {
	if r.Pattern != nil && r.Pattern.MatchString(value) {
		return true, ""
	}
	return false, r.Message
}

// MinLengthRule requires at least Min characters (runes, not bytes).
type MinLengthRule struct {
	Min     int
	Message string
}

func (r MinLengthRule) Evaluate(value string) (bool, string) {
	if utf8.RuneCountInString(value) >= r.Min {
		return true, ""
	}
	return false, r.Message
}

// RequiredRule rejects empty or whitespace-only values.
type RequiredRule struct {
	Message string
}

func (r RequiredRule) Evaluate(value string) (bool, string) {
	if strings.TrimSpace(value) != "" {
		return true, ""
	}
	return false, r.Message
}

var ipValidate = validator.New()

// IPRule accepts an IPv4 or IPv6 literal.
type IPRule struct {
	Message string
}

func (r IPRule) Evaluate(value string) (bool, string) {
	if err := ipValidate.Var(value, "required,ip"); err != nil {
		return false, r.Message
	}
	return true, ""
}

// EmailRule is the syntactic email check used by the sign-in form.
func EmailRule() PatternRule {
	return PatternRule{Pattern: emailPattern, Message: "Invalid email address"}
}

func PasswordRule(min int) MinLengthRule {
	return MinLengthRule{
		Min:     min,
		Message: fmt.Sprintf("Password is required (min. length is %d)", min),
	}
}

// Validate runs rule against value and reports a failure as an error
// carrying the helper text.
func Validate(rule Rule, value string) error {
	if rule == nil {
		return nil
	}
	ok, msg := rule.Evaluate(value)
	if ok {
		return nil
	}
	if msg == "" {
		msg = DefaultMessage
	}
	return errors.New(msg)
}
