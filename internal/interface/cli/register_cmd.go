package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/dto"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

const (
	choiceContinue = "Continue"
	choiceBack     = "Back"
	choiceQuit     = "Save and quit"
)

// errQuit ends the interactive session at the user's request
var errQuit = errors.New("quit")

func newRegisterCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Run the registration wizard interactively",
		Long: "Walk through customer, business and plan steps. Progress is saved after\n" +
			"each step and when you quit, so running register again resumes where you left.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)
			check := newFieldCheck(s.container.GetValidator())
			defer check.Close()

			err := s.runWizard(ctx, ctrl, check)
			if errors.Is(err, ErrInterrupted) || errors.Is(err, errQuit) {
				if perr := ctrl.Persist(ctx); perr != nil {
					s.logger.Warn("failed to save progress", zap.Error(perr))
				}
				return s.presenter().PresentSuccess("Progress saved; run register again to continue", nil)
			}
			return err
		},
	}
}

func (s *session) runWizard(ctx context.Context, ctrl *wizard.Controller, check *fieldCheck) error {
	for {
		st, err := ctrl.State()
		if err != nil {
			return s.fail(err)
		}
		step := st.CurrentStep()
		if step == registration.StepSubmitted {
			return s.presenter().PresentSuccess("Registration already submitted", nil)
		}

		total := int(registration.StepPlan)
		if err := s.presenter().PresentProgress(fmt.Sprintf("Step %d/%d (%s)", int(step), total, step), int(step), total); err != nil {
			return err
		}

		if step > registration.StepCustomer {
			choice, err := s.opts.Prompter.Choose(s.promptLabel("Next"), []string{choiceContinue, choiceBack, choiceQuit})
			if err != nil {
				return err
			}
			switch choice {
			case 1:
				if err := ctrl.Retreat(step); err != nil {
					return s.fail(err)
				}
				continue
			case 2:
				return errQuit
			}
		}

		if step == registration.StepPlan {
			done, err := s.runPlanStep(ctx, ctrl, check)
			if err != nil || done {
				return err
			}
			continue
		}

		for _, name := range registration.FieldsForStep(step) {
			if err := s.askField(ctx, ctrl, check, name); err != nil {
				return err
			}
		}
		if err := ctrl.Advance(ctx, step); err != nil {
			if err := s.retryAfter(err); err != nil {
				return err
			}
		}
	}
}

// retryAfter shows err and asks whether to try again
func (s *session) retryAfter(err error) error {
	_ = s.fail(err)
	again, cerr := s.opts.Prompter.Confirm(s.promptLabel("Try again"))
	if cerr != nil {
		return cerr
	}
	if !again {
		return errQuit
	}
	return nil
}

// askField reads name until it passes its field rules. Edits are checked
// live; the submitted value is checked again and its verdict decides.
func (s *session) askField(ctx context.Context, ctrl *wizard.Controller, check *fieldCheck, name registration.FieldName) error {
	secret := registration.IsCredential(name)
	for {
		st, err := ctrl.State()
		if err != nil {
			return err
		}
		def := ""
		if !secret {
			def = st.Get(name)
		}
		form := validation.Form{Values: st.Fields(), PlanSelected: st.SelectedPlan() != nil}

		value, err := s.opts.Prompter.Ask(s.promptLabel(name.String()), def, secret, check.keystroke(name, form))
		if err != nil {
			return err
		}

		res, err := check.settle(ctx, name, value, form)
		if err != nil {
			return err
		}
		if err := ctrl.SetField(name, value); err != nil {
			return err
		}
		if name == registration.FieldPassword {
			_ = s.presenter().PresentSuccess("Password strength", validation.MeasureStrength(value))
		}
		if res.IsValid {
			s.dismissBanner()
			return nil
		}
		_ = s.fail(errors.New(res.Message))
	}
}

// runPlanStep picks a plan, collects the account fields and submits.
// It reports whether registration finished.
func (s *session) runPlanStep(ctx context.Context, ctrl *wizard.Controller, check *fieldCheck) (bool, error) {
	plans := ctrl.Plans()
	if len(plans) == 0 {
		loaded, err := ctrl.LoadPlans(ctx)
		if err != nil {
			return false, s.retryAfter(err)
		}
		if len(loaded) == 0 {
			_ = s.presenter().PresentPlans(nil, "")
			return false, errQuit
		}
		plans = loaded
	}

	st, err := ctrl.State()
	if err != nil {
		return false, err
	}
	selected := ""
	if p := st.SelectedPlan(); p != nil {
		selected = p.ID
	}
	views := dto.NewPlanListDTO(plans, selected)
	items := make([]string, len(views))
	for i, p := range views {
		items[i] = fmt.Sprintf("%s  %s %s", p.Name, p.Price, p.PeriodLabel)
	}
	idx, err := s.opts.Prompter.Choose(s.promptLabel("Plan"), items)
	if err != nil {
		return false, err
	}
	if _, err := ctrl.SelectPlan(plans[idx].ID); err != nil {
		return false, s.fail(err)
	}

	for _, name := range []registration.FieldName{registration.FieldPassword, registration.FieldConfirmPassword} {
		if err := s.askField(ctx, ctrl, check, name); err != nil {
			return false, err
		}
	}
	agree, err := s.opts.Prompter.Confirm(s.promptLabel("I agree to the terms and conditions"))
	if err != nil {
		return false, err
	}
	if err := ctrl.SetField(registration.FieldAgreeTerms, fmt.Sprint(agree)); err != nil {
		return false, err
	}

	res, err := ctrl.Submit(ctx)
	if err != nil {
		return false, s.retryAfter(err)
	}
	return true, s.presenter().PresentSuccess("Registration submitted", dto.NewSubmitResultDTO(res.RedirectURL, res.FreePlan, res.Plan))
}
