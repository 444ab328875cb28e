package registration

import "fmt"

// Step is a wizard page. Steps 1-3 collect data; StepSubmitted is terminal.
type Step int

const (
	StepCustomer  Step = 1
	StepBusiness  Step = 2
	StepPlan      Step = 3
	StepSubmitted Step = 4
)

// String returns a display label for the step
func (s Step) String() string {
	switch s {
	case StepCustomer:
		return "customer"
	case StepBusiness:
		return "business"
	case StepPlan:
		return "plan"
	case StepSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// IsValid checks if the step is one of the known steps
func (s Step) IsValid() bool {
	return s >= StepCustomer && s <= StepSubmitted
}

// IsEditable reports whether the step collects input.
func (s Step) IsEditable() bool {
	return s >= StepCustomer && s <= StepPlan
}

// Next returns the step after s. It does not move past StepPlan.
func (s Step) Next() Step {
	if s < StepPlan {
		return s + 1
	}
	return s
}

// Previous returns the step before s, floored at StepCustomer.
func (s Step) Previous() Step {
	if s > StepCustomer {
		return s - 1
	}
	return StepCustomer
}
