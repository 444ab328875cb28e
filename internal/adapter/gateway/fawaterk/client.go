package fawaterk

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/gateway/upstream"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
)

const (
	// MsgInvoiceFailed is shown when the gateway refuses the invoice
	MsgInvoiceFailed = "❌ فشل في إنشاء الفاتورة"
	// MsgGatewayConnection prefixes transport failures
	MsgGatewayConnection = "❌ خطأ أثناء الاتصال بـ Fawaterk: "

	invoicePath = "/invoiceInitPay"
)

// Options configures a Client
type Options struct {
	BaseURL         string
	APIKey          string
	Currency        string
	PaymentMethodID int
	Logger          *zap.Logger
}

// Client creates invoices through the invoiceInitPay API
type Client struct {
	http            *upstream.Client
	url             string
	currency        string
	paymentMethodID int
	logger          *zap.Logger

	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var _ output.InvoiceGateway = (*Client)(nil)

// NewClient creates a gateway client on top of an upstream client
func NewClient(hc *upstream.Client, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIKey != "" {
		hc = hc.WithHeader("Authorization", "Bearer "+opts.APIKey)
	}
	return &Client{
		http:            hc,
		url:             strings.TrimRight(opts.BaseURL, "/") + invoicePath,
		currency:        opts.Currency,
		paymentMethodID: opts.PaymentMethodID,
		logger:          logger,
		entropy:         ulid.Monotonic(rand.Reader, 0),
		now:             time.Now,
	}
}

type cartItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type redirectionURLs struct {
	SuccessURL string `json:"successUrl"`
	FailURL    string `json:"failUrl"`
}

type invoicePayload struct {
	PaymentMethodID int                    `json:"payment_method_id"`
	CartTotal       decimal.Decimal        `json:"cartTotal"`
	Currency        string                 `json:"currency"`
	InvoiceNumber   string                 `json:"invoice_number"`
	Customer        output.InvoiceCustomer `json:"customer"`
	RedirectionURLs redirectionURLs        `json:"redirectionUrls"`
	CartItems       []cartItem             `json:"cartItems"`
}

type invoiceResponse struct {
	Status string `json:"status"`
	Data   struct {
		InvoiceID   json.RawMessage `json:"invoice_id"`
		PaymentData struct {
			RedirectTo string `json:"redirectTo"`
		} `json:"payment_data"`
	} `json:"data"`
}

// NewInvoiceNumber returns a unique, time-ordered invoice number
func (c *Client) NewInvoiceNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return "INV_" + ulid.MustNew(ulid.Timestamp(c.now()), c.entropy).String()
}

// CreateInvoice implements output.InvoiceGateway
func (c *Client) CreateInvoice(ctx context.Context, req output.InvoiceRequest) (*output.InvoiceResult, error) {
	const op = "create invoice"
	number := c.NewInvoiceNumber()
	payload := invoicePayload{
		PaymentMethodID: c.paymentMethodID,
		CartTotal:       req.Plan.Price,
		Currency:        c.currency,
		InvoiceNumber:   number,
		Customer:        req.Customer,
		RedirectionURLs: redirectionURLs{SuccessURL: req.SuccessURL, FailURL: req.FailURL},
		CartItems:       []cartItem{{Name: req.Plan.Name, Price: req.Plan.Price, Quantity: 1}},
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.url, payload)
	if err != nil {
		return nil, &output.UpstreamError{Op: op, Message: MsgGatewayConnection + err.Error(), Err: err}
	}

	var body invoiceResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Warn("invoice response is not json", zap.Int("status", resp.Status))
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgInvoiceFailed}
	}
	if body.Status != "success" || body.Data.PaymentData.RedirectTo == "" {
		c.logger.Warn("invoice rejected",
			zap.Int("status", resp.Status),
			zap.String("invoice_number", number),
			zap.ByteString("details", resp.Body),
		)
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgInvoiceFailed}
	}

	c.logger.Info("invoice created", zap.String("invoice_number", number), zap.String("plan_id", req.Plan.ID))
	return &output.InvoiceResult{
		InvoiceNumber: number,
		InvoiceID:     strings.Trim(string(body.Data.InvoiceID), `"`),
		RedirectURL:   body.Data.PaymentData.RedirectTo,
	}, nil
}
