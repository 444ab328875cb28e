package output

import (
	"context"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// InvoiceGateway creates a hosted payment invoice for a paid plan
type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*InvoiceResult, error)
}

// InvoiceCustomer is the customer block printed on the invoice
type InvoiceCustomer struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	BusinessType string `json:"business_type"`
	Subdomain    string `json:"subdomain"`
}

// InvoiceRequest describes one plan purchase
type InvoiceRequest struct {
	Plan       registration.Plan
	Customer   InvoiceCustomer
	SuccessURL string
	FailURL    string
}

// InvoiceResult is a created invoice
type InvoiceResult struct {
	InvoiceNumber string
	InvoiceID     string
	RedirectURL   string
}
