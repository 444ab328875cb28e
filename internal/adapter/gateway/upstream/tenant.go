package upstream

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
)

// MsgTenantFailed prefixes the reason a tenant could not be registered
const MsgTenantFailed = "❌ فشل إنشاء الحساب: "

// TenantClient registers the paid tenant
type TenantClient struct {
	Client *Client
	URL    string
}

var _ output.TenantRegistrar = (*TenantClient)(nil)

type tenantResponse struct {
	Status    json.RawMessage `json:"status"`
	Subdomain string          `json:"subdomain"`
	Message   string          `json:"message"`
}

// RegisterTenant implements output.TenantRegistrar
func (c *TenantClient) RegisterTenant(ctx context.Context, req output.TenantRequest) (*output.TenantResult, error) {
	const op = "register tenant"
	resp, err := c.Client.Do(ctx, http.MethodPost, c.URL, req)
	if err != nil {
		return nil, &output.UpstreamError{Op: op, Message: MsgConnection, Err: err}
	}

	var body tenantResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgInvalidResponse, Err: ErrInvalidJSON}
	}
	if !truthy(body.Status) {
		return nil, &output.UpstreamError{Op: op, Status: resp.Status, Message: MsgTenantFailed + body.Message}
	}
	return &output.TenantResult{Subdomain: body.Subdomain, Message: body.Message}, nil
}
