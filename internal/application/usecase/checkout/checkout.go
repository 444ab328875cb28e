package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// Checkout messages
const (
	MsgFieldRequired    = "❌ الحقل مطلوب: "
	MsgInvalidSubdomain = "❌ اسم النطاق الفرعي غير صالح. استخدم حروف إنجليزية، أرقام، أو شرطات فقط."
	MsgPlansFailed      = "❌ فشل في جلب بيانات الخطط من API."
	MsgPlanNotFound     = "❌ الخطة غير موجودة"
	MsgMissingUserData  = "❌ لم يتم العثور على البيانات المشفرة."
	MsgInvalidUserData  = "❌ البيانات غير صالحة."
	MsgInvoiceFailed    = "❌ فشل في إنشاء الفاتورة"
	MsgTenantFailed     = "❌ فشل إنشاء الحساب"
)

// requiredFields are checked in this order; the first missing one is reported
var requiredFields = []string{
	"plan_id", "first_name", "last_name", "email", "phone", "address",
	"business_type", "subdomain", "password", "password_confirmation",
}

// Sealer protects user data carried through the hosted payment page
type Sealer interface {
	Seal(v interface{}) (string, error)
	Open(token string, v interface{}) error
}

// RejectedError is a checkout failure with a user-facing message
type RejectedError struct {
	Message string
	Err     error
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout rejected: %s: %v", e.Message, e.Err)
	}
	return "checkout rejected: " + e.Message
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func reject(msg string, err error) *RejectedError {
	return &RejectedError{Message: msg, Err: err}
}

// UserData is what the success page needs to provision the tenant
type UserData struct {
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Address              string `json:"address"`
	BusinessType         string `json:"business_type"`
	Subdomain            string `json:"subdomain"`
	PlanID               string `json:"plan_id"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Completion is the outcome of the success page
type Completion struct {
	Subdomain string
	TenantURL string
	Message   string
}

// Dependencies are the collaborators of a Service
type Dependencies struct {
	Plans      output.PlanCatalog
	Invoices   output.InvoiceGateway
	Tenants    output.TenantRegistrar
	Sealer     Sealer
	SuccessURL string
	FailURL    string
	Logger     *zap.Logger
}

// Service turns a payment request into a redirect and completes the
// registration once payment succeeded.
type Service struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewService creates a checkout service
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deps: deps, logger: logger}
}

func fieldValues(req output.PaymentRequest) map[string]string {
	return map[string]string{
		"plan_id":               req.PlanID,
		"first_name":            req.FirstName,
		"last_name":             req.LastName,
		"email":                 req.Email,
		"phone":                 req.Phone,
		"address":               req.Address,
		"business_type":         req.BusinessType,
		"subdomain":             req.Subdomain,
		"password":              req.Password,
		"password_confirmation": req.PasswordConfirmation,
	}
}

// Checkout validates req and returns where the user pays. Free plans skip the
// invoice and go straight to the success page.
func (s *Service) Checkout(ctx context.Context, req output.PaymentRequest) (*output.PaymentResult, error) {
	values := fieldValues(req)
	for _, name := range requiredFields {
		if strings.TrimSpace(values[name]) == "" {
			return nil, reject(MsgFieldRequired+name, nil)
		}
	}
	if !validation.SubdomainPattern().MatchString(req.Subdomain) {
		return nil, reject(MsgInvalidSubdomain, nil)
	}

	plans, err := s.deps.Plans.FetchPlans(ctx)
	if err != nil {
		return nil, reject(MsgPlansFailed, err)
	}
	plan, ok := registration.FindPlan(plans, req.PlanID)
	if !ok {
		return nil, reject(MsgPlanNotFound, nil)
	}

	token, err := s.deps.Sealer.Seal(UserData{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		Phone:                req.Phone,
		Address:              req.Address,
		BusinessType:         req.BusinessType,
		Subdomain:            req.Subdomain,
		PlanID:               plan.ID,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seal user data: %w", err)
	}

	if plan.IsFree() {
		target, err := withQuery(s.deps.SuccessURL, map[string]string{
			"free_plan": "1",
			"plan_id":   plan.ID,
			"user_data": token,
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("free plan checkout", zap.String("plan_id", plan.ID))
		return &output.PaymentResult{Status: "success", URL: target}, nil
	}

	successURL, err := withQuery(s.deps.SuccessURL, map[string]string{"user_data": token})
	if err != nil {
		return nil, err
	}
	invoice, err := s.deps.Invoices.CreateInvoice(ctx, output.InvoiceRequest{
		Plan: plan,
		Customer: output.InvoiceCustomer{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			Phone:        req.Phone,
			Address:      req.Address,
			BusinessType: req.BusinessType,
			Subdomain:    req.Subdomain,
		},
		SuccessURL: successURL,
		FailURL:    s.deps.FailURL,
	})
	if err != nil {
		msg := MsgInvoiceFailed
		var upErr *output.UpstreamError
		if errors.As(err, &upErr) && upErr.Message != "" {
			msg = upErr.Message
		}
		return nil, reject(msg, err)
	}
	return &output.PaymentResult{Status: "success", URL: invoice.RedirectURL}, nil
}

// Complete opens the sealed user data and registers the tenant
func (s *Service) Complete(ctx context.Context, token string) (*Completion, error) {
	if token == "" {
		return nil, reject(MsgMissingUserData, nil)
	}
	var data UserData
	if err := s.deps.Sealer.Open(token, &data); err != nil {
		return nil, reject(MsgInvalidUserData, err)
	}

	res, err := s.deps.Tenants.RegisterTenant(ctx, output.TenantRequest{
		Name:                 data.FirstName + " " + data.LastName,
		Email:                data.Email,
		Phone:                data.Phone,
		Address:              data.Address,
		Password:             data.Password,
		PasswordConfirmation: data.PasswordConfirmation,
		PlanID:               data.PlanID,
		BusinessType:         data.BusinessType,
		Subdomain:            data.Subdomain,
	})
	if err != nil {
		msg := MsgTenantFailed
		var upErr *output.UpstreamError
		if errors.As(err, &upErr) && upErr.Message != "" {
			msg = upErr.Message
		}
		return nil, reject(msg, err)
	}

	subdomain := res.Subdomain
	if subdomain == "" {
		subdomain = data.Subdomain
	}
	s.logger.Info("tenant registered", zap.String("subdomain", subdomain), zap.String("plan_id", data.PlanID))
	return &Completion{Subdomain: subdomain, TenantURL: "https://" + subdomain, Message: res.Message}, nil
}

func withQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url %q: %w", base, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
