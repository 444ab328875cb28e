package presenter

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/YoshitsuguKoike/regwiz/internal/application/dto"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// CLIWizardPresenter implements output.WizardPresenter for terminal output
type CLIWizardPresenter struct {
	output io.Writer
	now    func() time.Time
}

// NewCLIWizardPresenter creates a new CLI presenter
func NewCLIWizardPresenter(output io.Writer) output.WizardPresenter {
	return &CLIWizardPresenter{output: output, now: time.Now}
}

// PresentSuccess presents a successful result
func (p *CLIWizardPresenter) PresentSuccess(message string, data interface{}) error {
	fmt.Fprintf(p.output, "✓ %s\n", message)

	switch v := data.(type) {
	case nil:
	case *dto.WizardStatusDTO:
		p.presentStatus(v)
	case []dto.PlanDTO:
		p.presentPlanList(v)
	case *dto.SubmitResultDTO:
		p.presentSubmit(v)
	case validation.Strength:
		p.presentStrength(v)
	default:
		fmt.Fprintf(p.output, "%+v\n", data)
	}
	return nil
}

// PresentError presents an error as a banner and returns it
func (p *CLIWizardPresenter) PresentError(err error) error {
	if err == nil {
		return nil
	}
	banner := ErrorBanner(err, p.now())
	fmt.Fprintln(p.output, banner.Text())

	var se *wizard.StepError
	if errors.As(err, &se) && se.Result != nil {
		p.writeValidation(se.Result)
	}
	return err
}

// PresentProgress presents the step indicator
func (p *CLIWizardPresenter) PresentProgress(message string, progress int, total int) error {
	if total <= 0 {
		total = 1
	}
	if progress > total {
		progress = total
	}
	percentage := float64(progress) / float64(total) * 100
	bar := strings.Repeat("█", progress) + strings.Repeat("░", total-progress)
	fmt.Fprintf(p.output, "%s [%s] %.1f%%\n", message, bar, percentage)
	return nil
}

// PresentValidation lists the messages of a failed validation
func (p *CLIWizardPresenter) PresentValidation(result *registration.StepResult) error {
	if result == nil {
		return nil
	}
	if result.IsValid {
		fmt.Fprintf(p.output, "✓ Step %d is valid\n", int(result.Step))
		return nil
	}
	fmt.Fprintf(p.output, "✗ Step %d has errors\n", int(result.Step))
	p.writeValidation(result)
	return nil
}

func (p *CLIWizardPresenter) writeValidation(result *registration.StepResult) {
	for _, name := range registration.FieldsForStep(result.Step) {
		if res, ok := result.Fields[name]; ok && !res.IsValid {
			fmt.Fprintf(p.output, "  - %s: %s\n", name, res.Message)
		}
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(p.output, "  - %s\n", msg)
	}
}

// PresentPlans lists the catalogue
func (p *CLIWizardPresenter) PresentPlans(plans []registration.Plan, selectedID string) error {
	if len(plans) == 0 {
		fmt.Fprintf(p.output, "No plans available\n")
		return nil
	}
	p.presentPlanList(dto.NewPlanListDTO(plans, selectedID))
	return nil
}

// PresentRedirect shows the next destination
func (p *CLIWizardPresenter) PresentRedirect(url string) error {
	fmt.Fprintf(p.output, "→ Continue at: %s\n", url)
	return nil
}

func (p *CLIWizardPresenter) presentPlanList(plans []dto.PlanDTO) {
	for _, plan := range plans {
		marker := " "
		if plan.Selected {
			marker = "*"
		}
		price := plan.Price + " " + plan.PeriodLabel
		if plan.Free {
			price = plan.PeriodLabel
		}
		fmt.Fprintf(p.output, "%s [%s] %s  %s\n", marker, plan.ID, plan.Name, price)
		for _, f := range plan.Features {
			fmt.Fprintf(p.output, "      • %s\n", f)
		}
	}
}

func (p *CLIWizardPresenter) presentStatus(s *dto.WizardStatusDTO) {
	if s.Submitted {
		fmt.Fprintf(p.output, "Registration submitted\n")
	} else {
		_ = p.PresentProgress(fmt.Sprintf("Step %d/%d (%s)", s.CurrentStep, s.TotalSteps, s.StepName), s.CurrentStep, s.TotalSteps)
	}

	step := 0
	for _, f := range s.Fields {
		if f.Step != step {
			step = f.Step
			fmt.Fprintf(p.output, "\n%s:\n", registration.Step(step))
		}
		fmt.Fprintf(p.output, "  %s: %s\n", f.Name, f.Value)
	}

	if s.SelectedPlan != nil {
		fmt.Fprintf(p.output, "\nPlan: %s (%s)\n", s.SelectedPlan.Name, s.SelectedPlan.ID)
	}
	if s.CustomerID != "" {
		fmt.Fprintf(p.output, "Customer ID: %s\n", s.CustomerID)
	}
	if s.BusinessID != "" {
		fmt.Fprintf(p.output, "Business ID: %s\n", s.BusinessID)
	}
}

func (p *CLIWizardPresenter) presentSubmit(r *dto.SubmitResultDTO) {
	fmt.Fprintf(p.output, "Plan: %s\n", r.Plan.Name)
	if r.FreePlan {
		fmt.Fprintf(p.output, "Free plan, no payment needed\n")
	}
	_ = p.PresentRedirect(r.RedirectURL)
}

func (p *CLIWizardPresenter) presentStrength(s validation.Strength) {
	if s.Level == validation.StrengthNone {
		return
	}
	fmt.Fprintf(p.output, "Password strength: %s (%s)\n", s.Text, s.Level)
	for _, f := range s.Feedback {
		fmt.Fprintf(p.output, "  - %s\n", f)
	}
}
