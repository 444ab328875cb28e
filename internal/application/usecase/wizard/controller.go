package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// StepValidator validates a whole step
type StepValidator interface {
	ValidateStep(ctx context.Context, step registration.Step, form validation.Form) *registration.StepResult
}

// Dependencies are the collaborators of a Controller
type Dependencies struct {
	Plans      output.PlanCatalog
	Customers  output.CustomerGateway
	Businesses output.BusinessGateway
	Payments   output.PaymentGateway
	Store      output.SnapshotStore
	Validator  StepValidator
	Logger     *zap.Logger

	// SuccessURL is where free plans are sent after submission
	SuccessURL string
}

// SubmitResult is the outcome of a successful submission
type SubmitResult struct {
	RedirectURL string
	FreePlan    bool
	Plan        registration.Plan
}

// Controller drives one registration session through its steps.
// Operations are serialized; remote calls never overlap.
type Controller struct {
	deps   Dependencies
	logger *zap.Logger

	mu    sync.Mutex
	state *registration.WizardState
	plans []registration.Plan
}

// NewController creates a controller. Call Init before any other operation.
func NewController(deps Dependencies) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{deps: deps, logger: logger}
}

// Init restores saved progress and loads the plan catalogue. A catalogue
// failure is returned but leaves the controller usable.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = registration.NewWizardState()
	restored, err := c.deps.Store.Restore(ctx)
	if err != nil {
		c.logger.Warn("could not restore saved progress", zap.Error(err))
	}
	if restored != nil {
		c.state = restored
		c.logger.Info("restored saved progress", zap.Int("step", int(restored.CurrentStep())))
	}

	if err := c.loadPlansLocked(ctx); err != nil {
		return err
	}
	c.reconcilePlanLocked()
	return nil
}

// reconcilePlanLocked swaps a restored plan for its fresh catalogue entry and
// drops it when the catalogue no longer offers it.
func (c *Controller) reconcilePlanLocked() {
	selected := c.state.SelectedPlan()
	if selected == nil {
		return
	}
	if fresh, ok := registration.FindPlan(c.plans, selected.ID); ok {
		c.state.SelectPlan(fresh)
		return
	}
	c.logger.Info("saved plan is no longer offered", zap.String("plan_id", selected.ID))
	c.state.ClearPlan()
}

// LoadPlans refreshes the plan catalogue
func (c *Controller) LoadPlans(ctx context.Context) ([]registration.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.loadPlansLocked(ctx); err != nil {
		return nil, err
	}
	return clonePlans(c.plans), nil
}

func (c *Controller) loadPlansLocked(ctx context.Context) error {
	plans, err := c.deps.Plans.FetchPlans(ctx)
	if err != nil {
		c.logger.Warn("failed to load plans", zap.Error(err))
		return err
	}
	c.plans = plans
	return nil
}

// Plans returns the loaded catalogue
func (c *Controller) Plans() []registration.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePlans(c.plans)
}

func clonePlans(plans []registration.Plan) []registration.Plan {
	out := make([]registration.Plan, len(plans))
	for i, p := range plans {
		out[i] = p.Clone()
	}
	return out
}

// State returns a copy of the current state
func (c *Controller) State() (*registration.WizardState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil, ErrNotInitialized
	}
	return c.state.Clone(), nil
}

// SelectPlan chooses a plan from the loaded catalogue
func (c *Controller) SelectPlan(id string) (registration.Plan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkEditableLocked(); err != nil {
		return registration.Plan{}, err
	}
	plan, ok := registration.FindPlan(c.plans, id)
	if !ok {
		return registration.Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	c.state.SelectPlan(plan)
	return plan.Clone(), nil
}

// SetField records user input. Controller-owned and unknown fields are rejected.
func (c *Controller) SetField(name registration.FieldName, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkEditableLocked(); err != nil {
		return err
	}
	if registration.IsSystem(name) {
		return fmt.Errorf("%w: %s", registration.ErrSystemField, name)
	}
	return c.state.Set(name, value)
}

func (c *Controller) checkEditableLocked() error {
	if c.state == nil {
		return ErrNotInitialized
	}
	if c.state.CurrentStep() == registration.StepSubmitted {
		return ErrAlreadySubmitted
	}
	return nil
}

func (c *Controller) checkCurrentLocked(step registration.Step) error {
	if err := c.checkEditableLocked(); err != nil {
		return err
	}
	if current := c.state.CurrentStep(); step != current {
		return fmt.Errorf("%w: requested %d, current %d", ErrStepMismatch, int(step), int(current))
	}
	return nil
}

func (c *Controller) formLocked() validation.Form {
	return validation.Form{
		Values:       c.state.Fields(),
		PlanSelected: c.state.SelectedPlan() != nil,
	}
}

// Advance completes step: validate, persist, run the step's remote side
// effect, then move forward. On any failure the step is unchanged.
func (c *Controller) Advance(ctx context.Context, step registration.Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkCurrentLocked(step); err != nil {
		return err
	}
	if step == registration.StepPlan {
		return fmt.Errorf("%w: the last step is completed by Submit", registration.ErrInvalidTransition)
	}

	result := c.deps.Validator.ValidateStep(ctx, step, c.formLocked())
	if !result.IsValid {
		return &StepError{Kind: KindValidation, Step: step, Result: result}
	}
	c.persistLocked(ctx)

	switch step {
	case registration.StepCustomer:
		res, err := c.deps.Customers.CreateCustomer(ctx, customerRequest(c.state))
		if err != nil {
			return upstreamStepError(step, KindTransition, err)
		}
		c.recordRef(registration.FieldCustomerID, res)
	case registration.StepBusiness:
		if c.state.Get(registration.FieldCustomerID) == "" {
			c.logger.Warn("creating business without a customer id")
		}
		res, err := c.deps.Businesses.CreateBusiness(ctx, businessRequest(c.state))
		if err != nil {
			return upstreamStepError(step, KindTransition, err)
		}
		c.recordRef(registration.FieldBusinessID, res)
	}

	if err := c.state.Advance(); err != nil {
		return err
	}
	c.persistLocked(ctx)
	return nil
}

// recordRef stores a returned id. A missing id is tolerated.
func (c *Controller) recordRef(field registration.FieldName, res *output.CreationResult) {
	if !res.HasID() {
		c.logger.Warn("upstream returned no id; continuing without it", zap.String("field", field.String()))
		return
	}
	_ = c.state.Set(field, res.ID)
}

func upstreamStepError(step registration.Step, kind StepErrorKind, err error) *StepError {
	se := &StepError{Kind: kind, Step: step, Message: msgUnknownError, Err: err}
	var upErr *output.UpstreamError
	if errors.As(err, &upErr) {
		se.Message = upErr.Message
		if upErr.Err != nil {
			se.Kind = KindTransport
		}
	}
	return se
}

// Retreat goes back from step without validating or calling anything remote.
func (c *Controller) Retreat(step registration.Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkCurrentLocked(step); err != nil {
		return err
	}
	c.state.Retreat()
	return nil
}

// Submit completes the last step. Free plans go straight to the success URL;
// paid plans create an invoice and return the gateway URL. Saved progress is
// cleared only on success.
func (c *Controller) Submit(ctx context.Context) (*SubmitResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkCurrentLocked(registration.StepPlan); err != nil {
		return nil, err
	}

	result := c.deps.Validator.ValidateStep(ctx, registration.StepPlan, c.formLocked())
	if !result.IsValid {
		return nil, &StepError{Kind: KindValidation, Step: registration.StepPlan, Result: result}
	}
	c.persistLocked(ctx)

	plan := c.state.SelectedPlan()
	if plan.IsFree() {
		target, err := FreePlanURL(c.deps.SuccessURL, plan.ID)
		if err != nil {
			return nil, err
		}
		c.finishLocked(ctx)
		c.logger.Info("free plan selected; skipping invoice", zap.String("plan_id", plan.ID))
		return &SubmitResult{RedirectURL: target, FreePlan: true, Plan: *plan}, nil
	}

	refs := c.state.Refs()
	if refs.CustomerID == "" || refs.BusinessID == "" {
		c.logger.Warn("submitting payment with missing entity ids",
			zap.Bool("customer_id", refs.CustomerID != ""),
			zap.Bool("business_id", refs.BusinessID != ""),
		)
	}

	payment, err := c.deps.Payments.CreatePayment(ctx, paymentRequest(c.state, *plan))
	if err != nil {
		return nil, upstreamStepError(registration.StepPlan, KindSubmission, err)
	}
	if !payment.IsSuccess() || payment.URL == "" {
		msg := payment.Message
		if msg == "" {
			msg = msgPaymentFailed
		}
		return nil, &StepError{Kind: KindSubmission, Step: registration.StepPlan, Message: msg}
	}

	c.finishLocked(ctx)
	return &SubmitResult{RedirectURL: payment.URL, Plan: *plan}, nil
}

func (c *Controller) finishLocked(ctx context.Context) {
	if err := c.deps.Store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear saved progress", zap.Error(err))
	}
	c.state.MarkSubmitted()
}

// Persist saves progress, as done when the user leaves mid-way.
func (c *Controller) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil || c.state.CurrentStep() == registration.StepSubmitted {
		return nil
	}
	return c.deps.Store.Snapshot(ctx, c.state)
}

func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.deps.Store.Snapshot(ctx, c.state); err != nil {
		c.logger.Warn("failed to save progress", zap.Error(err))
	}
}

// Reset discards all progress, saved and in memory
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = registration.NewWizardState()
	return c.deps.Store.Clear(ctx)
}

// FreePlanURL builds the success redirect for a free plan
func FreePlanURL(successURL, planID string) (string, error) {
	u, err := url.Parse(successURL)
	if err != nil {
		return "", fmt.Errorf("invalid success url: %w", err)
	}
	q := u.Query()
	q.Set("free_plan", "1")
	q.Set("plan_id", planID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
