package output

import (
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// Presenter defines the interface for presenting output to users
// Different implementations can format output for CLI, JSON, or other formats
type Presenter interface {
	// PresentSuccess presents a successful result
	PresentSuccess(message string, data interface{}) error

	// PresentError presents an error
	PresentError(err error) error

	// PresentProgress presents progress through the wizard steps
	PresentProgress(message string, progress int, total int) error
}

// WizardPresenter adds the wizard-specific views
type WizardPresenter interface {
	Presenter

	// PresentValidation shows field and step errors of a failed validation
	PresentValidation(result *registration.StepResult) error

	// PresentPlans lists the plan catalogue, marking the selected plan
	PresentPlans(plans []registration.Plan, selectedID string) error

	// PresentRedirect shows where the user goes next
	PresentRedirect(url string) error
}
