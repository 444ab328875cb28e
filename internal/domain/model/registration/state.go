package registration

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownField is returned when a key outside the recognized set is written
	ErrUnknownField = errors.New("unknown field")
	// ErrSystemField is returned when user input targets a controller-owned field
	ErrSystemField = errors.New("field is maintained by the wizard")
	// ErrInvalidTransition is returned for step moves the state machine does not allow
	ErrInvalidTransition = errors.New("invalid step transition")
)

// ExternalEntityRefs holds identifiers returned by upstream creation calls.
// Either may be empty; the payment request tolerates their absence.
type ExternalEntityRefs struct {
	CustomerID string `json:"customer_id,omitempty"`
	BusinessID string `json:"business_id,omitempty"`
}

// WizardState is the in-memory state of one registration session.
type WizardState struct {
	currentStep  Step
	fields       map[FieldName]string
	selectedPlan *Plan
}

// NewWizardState creates a fresh state positioned on the first step
func NewWizardState() *WizardState {
	return &WizardState{
		currentStep: StepCustomer,
		fields:      make(map[FieldName]string),
	}
}

// CurrentStep returns the active step
func (s *WizardState) CurrentStep() Step {
	return s.currentStep
}

// Get returns the value of a field, empty when unset
func (s *WizardState) Get(name FieldName) string {
	return s.fields[name]
}

// Set stores a field value. Unknown keys are rejected.
func (s *WizardState) Set(name FieldName, value string) error {
	if !IsRecognized(name) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	s.fields[name] = value
	return nil
}

// Delete removes a field value
func (s *WizardState) Delete(name FieldName) {
	delete(s.fields, name)
}

// Fields returns a copy of all field values
func (s *WizardState) Fields() map[FieldName]string {
	out := make(map[FieldName]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// SelectedPlan returns the chosen plan, or nil
func (s *WizardState) SelectedPlan() *Plan {
	if s.selectedPlan == nil {
		return nil
	}
	p := s.selectedPlan.Clone()
	return &p
}

// SelectPlan records the chosen plan and mirrors its id into the plan_id field
func (s *WizardState) SelectPlan(p Plan) {
	c := p.Clone()
	s.selectedPlan = &c
	s.fields[FieldPlanID] = p.ID
}

// ClearPlan drops the selected plan
func (s *WizardState) ClearPlan() {
	s.selectedPlan = nil
	delete(s.fields, FieldPlanID)
}

// Refs returns the upstream identifiers collected so far
func (s *WizardState) Refs() ExternalEntityRefs {
	return ExternalEntityRefs{
		CustomerID: s.fields[FieldCustomerID],
		BusinessID: s.fields[FieldBusinessID],
	}
}

// Advance moves to the next data step. It never passes StepPlan.
func (s *WizardState) Advance() error {
	if s.currentStep >= StepPlan {
		return fmt.Errorf("%w: cannot advance past %s", ErrInvalidTransition, s.currentStep)
	}
	s.currentStep = s.currentStep.Next()
	return nil
}

// Retreat moves back one step, floored at the first. Field values are untouched.
func (s *WizardState) Retreat() {
	s.currentStep = s.currentStep.Previous()
}

// MarkSubmitted moves the state into the terminal step
func (s *WizardState) MarkSubmitted() {
	s.currentStep = StepSubmitted
}

// Clone returns a deep copy
func (s *WizardState) Clone() *WizardState {
	out := &WizardState{
		currentStep: s.currentStep,
		fields:      s.Fields(),
	}
	if s.selectedPlan != nil {
		p := s.selectedPlan.Clone()
		out.selectedPlan = &p
	}
	return out
}

// Snapshot is the persisted form of a WizardState.
type Snapshot struct {
	CurrentStep  Step              `json:"currentStep"`
	FormData     map[string]string `json:"formData"`
	SelectedPlan *Plan             `json:"selectedPlan"`
	SavedAt      time.Time         `json:"timestamp"`
}

// Sanitized returns a snapshot with credential and unknown keys removed.
func (s *WizardState) Sanitized(now time.Time) Snapshot {
	data := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		if !IsRecognized(k) || IsCredential(k) {
			continue
		}
		data[string(k)] = v
	}
	snap := Snapshot{
		CurrentStep: s.currentStep,
		FormData:    data,
		SavedAt:     now,
	}
	if s.selectedPlan != nil {
		p := s.selectedPlan.Clone()
		snap.SelectedPlan = &p
	}
	return snap
}

// StateFromSnapshot rebuilds a WizardState. Unknown and credential keys are dropped;
// an out-of-range step is rejected.
func StateFromSnapshot(snap Snapshot) (*WizardState, error) {
	if !snap.CurrentStep.IsEditable() {
		return nil, fmt.Errorf("%w: restored step %d", ErrInvalidTransition, int(snap.CurrentStep))
	}
	st := NewWizardState()
	st.currentStep = snap.CurrentStep
	for k, v := range snap.FormData {
		name := FieldName(k)
		if !IsRecognized(name) || IsCredential(name) {
			continue
		}
		st.fields[name] = v
	}
	if snap.SelectedPlan != nil {
		p := snap.SelectedPlan.Clone()
		st.selectedPlan = &p
	}
	return st, nil
}
