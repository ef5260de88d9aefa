package validation

import (
	"context"
	"regexp"

	"github.com/roach88/formstate/pkg/value"
)

// Rule names reported in Error.Rule.
const (
	RuleRequired = "required"
	RulePattern  = "pattern"
	RuleValidate = "validate"
)

// Default messages used when a rule declares none.
const (
	DefaultRequiredMessage = "This field is required"
	DefaultPatternMessage  = "Invalid format"
	DefaultCustomMessage   = "Invalid value"
)

// Required fails on null, empty strings, false and empty containers.
// Integers always satisfy it.
type Required struct {
	Value   bool
	Message string
}

// Pattern fails when a non-empty string value does not match Value.
type Pattern struct {
	Value   *regexp.Regexp
	Message string
}

// Predicate inspects a candidate value and the whole current value tree.
// It returns ok=true to accept, or a failure message.
type Predicate func(v value.Value, values value.Object) (msg string, ok bool)

// AsyncPredicate is a Predicate that may block on external data.
// A returned error is reported as a failure carrying the error text.
type AsyncPredicate func(ctx context.Context, v value.Value, values value.Object) (msg string, ok bool, err error)

// Custom is one named predicate. Exactly one of Check and Async is set.
type Custom struct {
	Name  string
	Check Predicate
	Async AsyncPredicate
}

// IsAsync reports whether evaluating c may block.
func (c Custom) IsAsync() bool {
	return c.Check == nil && c.Async != nil
}

func (c Custom) name() string {
	if c.Name == "" {
		return RuleValidate
	}
	return c.Name
}

// Rules is the rule set registered for one field.
type Rules struct {
	Required *Required
	Pattern  *Pattern
	Validate []Custom

	// ValueAsNumber and ValueAsDate control how raw UI input is coerced
	// before it is stored. See Coerce.
	ValueAsNumber bool
	ValueAsDate   bool
}

// IsZero reports whether no rule is declared.
func (r Rules) IsZero() bool {
	return r.Required == nil && r.Pattern == nil && len(r.Validate) == 0 &&
		!r.ValueAsNumber && !r.ValueAsDate
}

// HasAsync reports whether any custom predicate is asynchronous.
func (r Rules) HasAsync() bool {
	for _, c := range r.Validate {
		if c.IsAsync() {
			return true
		}
	}
	return false
}

// RequiredRule is shorthand for a required rule with a message.
func RequiredRule(msg string) *Required {
	return &Required{Value: true, Message: msg}
}

// PatternRule compiles expr into a pattern rule. It panics on an invalid
// expression and is meant for literals.
func PatternRule(expr, msg string) *Pattern {
	return &Pattern{Value: regexp.MustCompile(expr), Message: msg}
}

// Check wraps a synchronous predicate as a named custom rule.
func Check(name string, p Predicate) Custom {
	return Custom{Name: name, Check: p}
}

// Async wraps an asynchronous predicate as a named custom rule.
func Async(name string, p AsyncPredicate) Custom {
	return Custom{Name: name, Async: p}
}
