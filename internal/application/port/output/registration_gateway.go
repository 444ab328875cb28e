package output

import (
	"context"
	"errors"
	"fmt"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// PlanCatalog lists the subscription plans on offer
type PlanCatalog interface {
	FetchPlans(ctx context.Context) ([]registration.Plan, error)
}

// CustomerGateway creates the customer record for step 1
type CustomerGateway interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*CreationResult, error)
}

// BusinessGateway creates the business record for step 2
type BusinessGateway interface {
	CreateBusiness(ctx context.Context, req BusinessRequest) (*CreationResult, error)
}

// PaymentGateway creates the invoice for the final submission
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// TenantRegistrar provisions the tenant once payment has completed
type TenantRegistrar interface {
	RegisterTenant(ctx context.Context, req TenantRequest) (*TenantResult, error)
}

// CustomerRequest is the body of the create-customer call
type CustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	Address   string `json:"address"`
}

// BusinessRequest is the body of the create-business call. Empty values are omitted.
type BusinessRequest struct {
	CustomerID          string `json:"customer_id,omitempty"`
	BusinessName        string `json:"business_name,omitempty"`
	BusinessType        string `json:"business_type,omitempty"`
	BusinessSize        string `json:"business_size,omitempty"`
	Subdomain           string `json:"subdomain,omitempty"`
	ExpectedRevenue     string `json:"expected_revenue,omitempty"`
	BusinessDescription string `json:"business_description,omitempty"`
	Branches            int    `json:"branches"`
}

// PaymentRequest is the flat body of the payment call
type PaymentRequest struct {
	PlanID               string `json:"plan_id"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	Email                string `json:"email,omitempty"`
	Phone                string `json:"phone,omitempty"`
	Address              string `json:"address,omitempty"`
	Country              string `json:"country,omitempty"`
	BusinessName         string `json:"business_name,omitempty"`
	BusinessType         string `json:"business_type,omitempty"`
	BusinessSize         string `json:"business_size,omitempty"`
	Subdomain            string `json:"subdomain,omitempty"`
	Branches             string `json:"branches,omitempty"`
	ExpectedRevenue      string `json:"expected_revenue,omitempty"`
	BusinessDescription  string `json:"business_description,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
	CustomerID           string `json:"customer_id,omitempty"`
	BusinessID           string `json:"business_id,omitempty"`
}

// TenantRequest is the body of the tenant registration call
type TenantRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	Address              string `json:"address"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	PlanID               string `json:"plan_id"`
	BusinessType         string `json:"business_type"`
	Subdomain            string `json:"subdomain"`
}

// CreationResult reports a successful creation call. ID is empty when the
// upstream did not return one.
type CreationResult struct {
	ID string
}

// HasID reports whether the upstream returned an identifier
func (r *CreationResult) HasID() bool {
	return r != nil && r.ID != ""
}

// PaymentResult reports the outcome of the payment call
type PaymentResult struct {
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsSuccess reports whether the payment call produced a redirect
func (r *PaymentResult) IsSuccess() bool {
	return r != nil && r.Status == "success"
}

// TenantResult reports the outcome of tenant registration
type TenantResult struct {
	Subdomain string
	Message   string
}

// ErrUpstream marks failures reported by or while talking to a remote service
var ErrUpstream = errors.New("upstream call failed")

// UpstreamError carries a user-facing message for a failed remote call.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUpstream
}

// Is lets errors.Is match ErrUpstream for every UpstreamError
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
