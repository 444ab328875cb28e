package dto

import (
	"sort"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// PlanDTO represents a plan for display
type PlanDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	PeriodLabel string   `json:"period_label"`
	Features    []string `json:"features,omitempty"`
	Free        bool     `json:"free"`
	Selected    bool     `json:"selected,omitempty"`
}

// FieldDTO is one entered form value
type FieldDTO struct {
	Name  string `json:"name"`
	Step  int    `json:"step"`
	Value string `json:"value"`
}

// WizardStatusDTO represents the wizard progress for the status command
type WizardStatusDTO struct {
	CurrentStep  int        `json:"current_step"`
	StepName     string     `json:"step_name"`
	TotalSteps   int        `json:"total_steps"`
	Submitted    bool       `json:"submitted"`
	Fields       []FieldDTO `json:"fields"`
	SelectedPlan *PlanDTO   `json:"selected_plan,omitempty"`
	CustomerID   string     `json:"customer_id,omitempty"`
	BusinessID   string     `json:"business_id,omitempty"`
}

// SubmitResultDTO is the outcome of the final step
type SubmitResultDTO struct {
	RedirectURL string  `json:"redirect_url"`
	FreePlan    bool    `json:"free_plan"`
	Plan        PlanDTO `json:"plan"`
}

const maskedValue = "********"

// NewPlanDTO converts a plan for display
func NewPlanDTO(p registration.Plan) PlanDTO {
	return PlanDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.StringFixed(2),
		PeriodLabel: p.PeriodLabel,
		Features:    append([]string(nil), p.Features...),
		Free:        p.IsFree(),
	}
}

// NewPlanListDTO converts the catalogue, marking selectedID
func NewPlanListDTO(plans []registration.Plan, selectedID string) []PlanDTO {
	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		d := NewPlanDTO(p)
		d.Selected = selectedID != "" && p.ID == selectedID
		out = append(out, d)
	}
	return out
}

// NewWizardStatusDTO converts the state. Credentials are masked and
// controller-owned ids are reported separately.
func NewWizardStatusDTO(st *registration.WizardState) *WizardStatusDTO {
	step := st.CurrentStep()
	d := &WizardStatusDTO{
		CurrentStep: int(step),
		StepName:    step.String(),
		TotalSteps:  int(registration.StepPlan),
		Submitted:   step == registration.StepSubmitted,
		Fields:      []FieldDTO{},
	}

	for name, value := range st.Fields() {
		if registration.IsSystem(name) || value == "" {
			continue
		}
		if registration.IsCredential(name) {
			value = maskedValue
		}
		d.Fields = append(d.Fields, FieldDTO{Name: name.String(), Step: int(registration.StepOf(name)), Value: value})
	}
	sort.Slice(d.Fields, func(i, j int) bool {
		if d.Fields[i].Step != d.Fields[j].Step {
			return d.Fields[i].Step < d.Fields[j].Step
		}
		return d.Fields[i].Name < d.Fields[j].Name
	})

	if plan := st.SelectedPlan(); plan != nil {
		p := NewPlanDTO(*plan)
		p.Selected = true
		d.SelectedPlan = &p
	}
	refs := st.Refs()
	d.CustomerID = refs.CustomerID
	d.BusinessID = refs.BusinessID
	return d
}

// NewSubmitResultDTO converts the outcome of the final step
func NewSubmitResultDTO(redirectURL string, free bool, plan registration.Plan) *SubmitResultDTO {
	return &SubmitResultDTO{RedirectURL: redirectURL, FreePlan: free, Plan: NewPlanDTO(plan)}
}
