package validation

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// Step-level messages
const (
	MsgPlanRequired     = "يرجى اختيار خطة اشتراك"
	MsgTermsRequired    = "يجب الموافقة على الشروط والأحكام"
	MsgPasswordTooShort = "كلمة المرور يجب أن تكون 8 أحرف على الأقل"
	MsgPasswordMismatch = "كلمة المرور وتأكيدها غير متطابقتين"
)

// Validator checks field values against ordered rule lists. It holds no UI state.
type Validator struct {
	rules  map[registration.FieldName][]Rule
	logger *zap.Logger
}

// Option configures a Validator
type Option func(*Validator)

// WithRules replaces the rule list of a single field
func WithRules(name registration.FieldName, rules ...Rule) Option {
	return func(v *Validator) {
		v.rules[name] = rules
	}
}

// WithLogger sets the logger used for degraded custom checks
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// NewValidator creates a validator with the default rule set.
// A nil checker accepts every value that is not on the reserved lists.
func NewValidator(checker AvailabilityChecker, opts ...Option) *Validator {
	if checker == nil {
		checker = &ReservedChecker{}
	}
	v := &Validator{
		rules:  DefaultRules(checker),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// HasRules reports whether name has any rules
func (v *Validator) HasRules(name registration.FieldName) bool {
	return len(v.rules[name]) > 0
}

// ValidateField runs the rules for name in order and returns the first failure.
// Fields without rules are valid. A custom rule that errors is treated as passing.
func (v *Validator) ValidateField(ctx context.Context, name registration.FieldName, value string, form Form) registration.ValidationResult {
	rules := v.rules[name]
	if len(rules) == 0 {
		return registration.Valid()
	}
	if registration.IsOptional(name) && strings.TrimSpace(value) == "" {
		return registration.Valid()
	}

	for _, rule := range rules {
		res, err := rule.apply(ctx, value, form)
		if err != nil {
			v.logger.Warn("custom validation degraded to valid",
				zap.String("field", name.String()),
				zap.Error(err),
			)
			continue
		}
		if !res.IsValid {
			return res
		}
	}
	return registration.Valid()
}

// ValidateStep validates every field of step concurrently and waits for all of
// them before applying the step's cross-field checks.
func (v *Validator) ValidateStep(ctx context.Context, step registration.Step, form Form) *registration.StepResult {
	result := registration.NewStepResult(step)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, name := range registration.FieldsForStep(step) {
		if !v.HasRules(name) {
			continue
		}
		name := name
		g.Go(func() error {
			res := v.ValidateField(ctx, name, form.Value(name), form)
			mu.Lock()
			result.SetField(name, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, msg := range crossFieldErrors(step, form) {
		result.AddError(msg)
	}
	return result
}

func crossFieldErrors(step registration.Step, form Form) []string {
	if step != registration.StepPlan {
		return nil
	}
	var errs []string
	if !form.PlanSelected {
		errs = append(errs, MsgPlanRequired)
	}
	if !registration.IsAccepted(form.Value(registration.FieldAgreeTerms)) {
		errs = append(errs, MsgTermsRequired)
	}
	password := form.Value(registration.FieldPassword)
	if utf8.RuneCountInString(password) < 8 {
		errs = append(errs, MsgPasswordTooShort)
	}
	if password != form.Value(registration.FieldConfirmPassword) {
		errs = append(errs, MsgPasswordMismatch)
	}
	return errs
}
