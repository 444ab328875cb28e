package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
)

// RegistrationClient talks to the customer, business and payment endpoints
type RegistrationClient struct {
	Client      *Client
	CustomerURL string
	BusinessURL string
	PaymentURL  string
	Logger      *zap.Logger
}

var (
	_ output.CustomerGateway = (*RegistrationClient)(nil)
	_ output.BusinessGateway = (*RegistrationClient)(nil)
	_ output.PaymentGateway  = (*RegistrationClient)(nil)
)

// CreateCustomer implements output.CustomerGateway
func (c *RegistrationClient) CreateCustomer(ctx context.Context, req output.CustomerRequest) (*output.CreationResult, error) {
	return c.create(ctx, "create customer", c.CustomerURL, req, CustomerIDPaths)
}

// CreateBusiness implements output.BusinessGateway
func (c *RegistrationClient) CreateBusiness(ctx context.Context, req output.BusinessRequest) (*output.CreationResult, error) {
	if req.Branches <= 0 {
		req.Branches = 1
	}
	return c.create(ctx, "create business", c.BusinessURL, req, BusinessIDPaths)
}

func (c *RegistrationClient) create(ctx context.Context, op, url string, payload interface{}, paths []KeyPath) (*output.CreationResult, error) {
	resp, err := c.Client.Do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, &output.UpstreamError{Op: op, Message: MsgConnection, Err: err}
	}

	outcome, err := Interpret(resp.Status, resp.Body)
	if err != nil {
		c.logger().Warn("unparsable upstream response", zap.String("op", op), zap.Int("status", resp.Status))
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgInvalidResponse, Err: err}
	}
	if !outcome.Success {
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: ExtractErrorMessage(resp.Body)}
	}

	id, ok := ExtractID(resp.Body, paths)
	if !ok {
		c.logger().Warn("creation succeeded without an id", zap.String("op", op), zap.Int("status", resp.Status))
	}
	return &output.CreationResult{ID: id}, nil
}

// CreatePayment implements output.PaymentGateway. A non-2xx status, a
// transport failure or an unreadable body all map to the connection message.
func (c *RegistrationClient) CreatePayment(ctx context.Context, req output.PaymentRequest) (*output.PaymentResult, error) {
	const op = "create payment"
	resp, err := c.Client.Do(ctx, http.MethodPost, c.PaymentURL, req)
	if err != nil {
		return nil, &output.UpstreamError{Op: op, Message: MsgConnection, Err: err}
	}
	if !resp.OK() {
		c.logger().Warn("payment endpoint returned an error status", zap.Int("status", resp.Status))
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgConnection}
	}

	var result output.PaymentResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgConnection, Err: ErrInvalidJSON}
	}
	return &result, nil
}

func (c *RegistrationClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
