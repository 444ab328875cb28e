package validation

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// RuleKind identifies how a rule checks a value
type RuleKind string

const (
	RuleRequired  RuleKind = "required"
	RuleMinLength RuleKind = "minLength"
	RuleMaxLength RuleKind = "maxLength"
	RulePattern   RuleKind = "pattern"
	RuleEmail     RuleKind = "email"
	RuleCustom    RuleKind = "custom"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form is the context a rule sees besides its own value.
type Form struct {
	Values       map[registration.FieldName]string
	PlanSelected bool
}

// Value returns the form value for name
func (f Form) Value(name registration.FieldName) string {
	if f.Values == nil {
		return ""
	}
	return f.Values[name]
}

// CustomFunc is a predicate that may block on remote I/O.
// A returned error makes the rule pass.
type CustomFunc func(ctx context.Context, value string, form Form) (registration.ValidationResult, error)

// Rule is one check in a field's ordered rule list.
type Rule struct {
	Kind    RuleKind
	Length  int
	Pattern *regexp.Regexp
	Check   CustomFunc
	Message string
}

func Required(message string) Rule {
	return Rule{Kind: RuleRequired, Message: message}
}

func MinLength(n int, message string) Rule {
	return Rule{Kind: RuleMinLength, Length: n, Message: message}
}

func MaxLength(n int, message string) Rule {
	return Rule{Kind: RuleMaxLength, Length: n, Message: message}
}

func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{Kind: RulePattern, Pattern: re, Message: message}
}

func Email(message string) Rule {
	return Rule{Kind: RuleEmail, Message: message}
}

func Custom(fn CustomFunc, message string) Rule {
	return Rule{Kind: RuleCustom, Check: fn, Message: message}
}

// apply evaluates the rule. The error is non-nil only for custom rules that failed to run.
func (r Rule) apply(ctx context.Context, value string, form Form) (registration.ValidationResult, error) {
	var ok bool
	switch r.Kind {
	case RuleRequired:
		ok = strings.TrimSpace(value) != ""
	case RuleMinLength:
		ok = utf8.RuneCountInString(value) >= r.Length
	case RuleMaxLength:
		ok = utf8.RuneCountInString(value) <= r.Length
	case RulePattern:
		ok = r.Pattern != nil && r.Pattern.MatchString(value)
	case RuleEmail:
		ok = emailPattern.MatchString(value)
	case RuleCustom:
		if r.Check == nil {
			return registration.Valid(), nil
		}
		res, err := r.Check(ctx, value, form)
		if err != nil {
			return registration.Valid(), err
		}
		if !res.IsValid && res.Message == "" {
			res.Message = r.Message
		}
		return res, nil
	default:
		ok = true
	}
	if ok {
		return registration.Valid(), nil
	}
	return registration.Invalid(r.Message), nil
}
