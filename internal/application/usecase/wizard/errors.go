package wizard

import (
	"errors"
	"fmt"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

var (
	// ErrStepMismatch is returned when an operation names a step other than the current one
	ErrStepMismatch = errors.New("step is not the current step")
	// ErrPlanNotFound is returned when selecting an id missing from the catalogue
	ErrPlanNotFound = errors.New("plan not found")
	// ErrAlreadySubmitted is returned for operations after the terminal submission
	ErrAlreadySubmitted = errors.New("registration already submitted")
	// ErrNotInitialized is returned when the controller is used before Init
	ErrNotInitialized = errors.New("wizard not initialized")
)

const (
	msgUnknownError  = "حدث خطأ غير معروف"
	msgPaymentFailed = "❌ فشل في معالجة الطلب"
)

// StepErrorKind classifies why a step could not be completed
type StepErrorKind string

const (
	// KindValidation means one or more fields failed validation
	KindValidation StepErrorKind = "validation"
	// KindTransition means the upstream rejected the step's side effect
	KindTransition StepErrorKind = "transition"
	// KindTransport means the upstream could not be reached or answered garbage
	KindTransport StepErrorKind = "transport"
	// KindSubmission means the final payment request failed
	KindSubmission StepErrorKind = "submission"
)

// StepError reports a failed Advance or Submit. The wizard stays on Step and
// keeps every entered value.
type StepError struct {
	Kind    StepErrorKind
	Step    registration.Step
	Message string
	Result  *registration.StepResult
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d %s failed: %s", int(e.Step), e.Kind, e.UserMessage())
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show in the error banner
func (e *StepError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Result != nil {
		return e.Result.FirstMessage()
	}
	return ""
}
