package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/dto"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// ErrCredentialNotSaved is returned when a password is passed to set
var ErrCredentialNotSaved = errors.New("passwords are never saved; pass them to submit")

func (s *session) presenter() output.WizardPresenter {
	return s.container.GetPresenter()
}

// wizard returns the controller with saved progress restored. A missing
// plan catalogue is logged; commands that need plans ask again.
func (s *session) wizard(ctx context.Context) *wizard.Controller {
	ctrl := s.container.GetWizard()
	if err := ctrl.Init(ctx); err != nil {
		s.logger.Warn("plan catalogue unavailable", zap.Error(err))
	}
	return ctrl
}

func (s *session) presentStatus(ctrl *wizard.Controller, message string) error {
	st, err := ctrl.State()
	if err != nil {
		return s.fail(err)
	}
	if err := s.presenter().PresentSuccess(message, dto.NewWizardStatusDTO(st)); err != nil {
		return err
	}
	if step := st.CurrentStep(); step.IsEditable() {
		total := int(registration.StepPlan)
		return s.presenter().PresentProgress(fmt.Sprintf("Step %d/%d", int(step), total), int(step), total)
	}
	return nil
}

func newStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show saved registration progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := s.wizard(cmd.Context())
			return s.presentStatus(ctrl, "Registration progress")
		},
	}
}

func newPlansCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the available plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			plans := ctrl.Plans()
			if len(plans) == 0 {
				loaded, err := ctrl.LoadPlans(ctx)
				if err != nil {
					return s.fail(err)
				}
				plans = loaded
			}

			selected := ""
			if st, err := ctrl.State(); err == nil && st.SelectedPlan() != nil {
				selected = st.SelectedPlan().ID
			}
			return s.presenter().PresentPlans(plans, selected)
		},
	}
}

// parseAssignment splits key=value
func parseAssignment(arg string) (registration.FieldName, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", arg)
	}
	name := registration.FieldName(strings.TrimSpace(key))
	if !registration.IsRecognized(name) {
		return "", "", fmt.Errorf("%w: %s", registration.ErrUnknownField, name)
	}
	if registration.IsCredential(name) {
		return "", "", ErrCredentialNotSaved
	}
	return name, value, nil
}

func newSetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Fill in form fields",
		Long: "Set one or more form fields, for example:\n" +
			"  regwiz set firstName=Sara lastName=Adel email=sara@example.com\n" +
			"Values are checked as they are entered; the step is validated as a whole by next.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			for _, arg := range args {
				name, value, err := parseAssignment(arg)
				if err != nil {
					return s.fail(err)
				}
				if err := ctrl.SetField(name, value); err != nil {
					return s.fail(err)
				}
			}

			if err := ctrl.Persist(ctx); err != nil {
				s.logger.Warn("failed to save progress", zap.Error(err))
			}

			st, err := ctrl.State()
			if err != nil {
				return s.fail(err)
			}
			form := validation.Form{Values: st.Fields(), PlanSelected: st.SelectedPlan() != nil}
			results := make(map[registration.Step]*registration.StepResult)
			var order []registration.Step
			for _, arg := range args {
				name, value, _ := parseAssignment(arg)
				step := registration.StepOf(name)
				if results[step] == nil {
					results[step] = registration.NewStepResult(step)
					order = append(order, step)
				}
				results[step].SetField(name, s.container.GetValidator().ValidateField(ctx, name, value, form))
			}

			if err := s.presenter().PresentSuccess(fmt.Sprintf("Saved %d field(s)", len(args)), nil); err != nil {
				return err
			}
			for _, step := range order {
				if !results[step].IsValid {
					if err := s.presenter().PresentValidation(results[step]); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func newSelectPlanCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "select-plan ID",
		Short: "Choose a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			if len(ctrl.Plans()) == 0 {
				if _, err := ctrl.LoadPlans(ctx); err != nil {
					return s.fail(err)
				}
			}
			plan, err := ctrl.SelectPlan(args[0])
			if err != nil {
				return s.fail(err)
			}
			if err := ctrl.Persist(ctx); err != nil {
				s.logger.Warn("failed to save progress", zap.Error(err))
			}
			return s.presenter().PresentPlans(ctrl.Plans(), plan.ID)
		},
	}
}

func newNextCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Validate the current step and move on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			st, err := ctrl.State()
			if err != nil {
				return s.fail(err)
			}
			step := st.CurrentStep()
			if step == registration.StepPlan {
				return s.fail(fmt.Errorf("%w: run submit to finish", registration.ErrInvalidTransition))
			}
			if err := ctrl.Advance(ctx, step); err != nil {
				return s.fail(err)
			}
			return s.presentStatus(ctrl, fmt.Sprintf("Step %d complete", int(step)))
		},
	}
}

func newBackCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Return to the previous step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			st, err := ctrl.State()
			if err != nil {
				return s.fail(err)
			}
			if err := ctrl.Retreat(st.CurrentStep()); err != nil {
				return s.fail(err)
			}
			if err := ctrl.Persist(ctx); err != nil {
				s.logger.Warn("failed to save progress", zap.Error(err))
			}
			return s.presentStatus(ctrl, "Moved back")
		},
	}
}

type submitOptions struct {
	password        string
	confirmPassword string
	agreeTerms      bool
}

func newSubmitCmd(s *session) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Finish registration and get the payment link",
		Long: "Submit the last step. Passwords are never saved, so they are given here\n" +
			"or asked for interactively when omitted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := s.wizard(ctx)

			if opts.password == "" {
				pw, err := s.opts.Prompter.Ask("Password", "", true, nil)
				if err != nil {
					return s.fail(err)
				}
				opts.password = pw
			}
			if opts.confirmPassword == "" {
				pw, err := s.opts.Prompter.Ask("Confirm password", "", true, nil)
				if err != nil {
					return s.fail(err)
				}
				opts.confirmPassword = pw
			}

			if err := s.setCredentials(ctrl, opts.password, opts.confirmPassword, opts.agreeTerms); err != nil {
				return s.fail(err)
			}
			return s.submit(ctx, ctrl)
		},
	}
	cmd.Flags().StringVar(&opts.password, "password", "", "account password")
	cmd.Flags().StringVar(&opts.confirmPassword, "confirm-password", "", "password confirmation")
	cmd.Flags().BoolVar(&opts.agreeTerms, "agree-terms", false, "accept the terms and conditions")
	return cmd
}

func (s *session) setCredentials(ctrl *wizard.Controller, password, confirm string, agree bool) error {
	if err := ctrl.SetField(registration.FieldPassword, password); err != nil {
		return err
	}
	if err := ctrl.SetField(registration.FieldConfirmPassword, confirm); err != nil {
		return err
	}
	return ctrl.SetField(registration.FieldAgreeTerms, fmt.Sprint(agree))
}

// submit runs the final step and shows where to pay
func (s *session) submit(ctx context.Context, ctrl *wizard.Controller) error {
	res, err := ctrl.Submit(ctx)
	if err != nil {
		return s.fail(err)
	}
	return s.presenter().PresentSuccess("Registration submitted", dto.NewSubmitResultDTO(res.RedirectURL, res.FreePlan, res.Plan))
}

func newResetCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all saved progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.container.GetWizard().Reset(cmd.Context()); err != nil {
				return s.fail(err)
			}
			return s.presenter().PresentSuccess("Saved progress cleared", nil)
		},
	}
}
