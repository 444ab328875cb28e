package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// Plan catalogue messages
const (
	MsgPlansUnavailable = "فشل في تحميل خطط التسعير"
	MsgPlansConnection  = "خطأ في الاتصال بالخادم"
)

// PlanCatalogClient fetches the plan catalogue
type PlanCatalogClient struct {
	Client *Client
	URL    string
	Logger *zap.Logger
}

var _ output.PlanCatalog = (*PlanCatalogClient)(nil)

// looseString accepts a JSON string, number or bool and keeps its text
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(b)
	return nil
}

type planFeature struct {
	Item string `json:"item"`
}

type planRecord struct {
	ID           looseString   `json:"id"`
	Name         string        `json:"name"`
	Price        looseString   `json:"price"`
	Duration     looseString   `json:"duration"`
	DurationType string        `json:"duration_type"`
	Description  []planFeature `json:"description"`
}

type plansResponse struct {
	Status  json.RawMessage `json:"status"`
	Message string          `json:"message"`
	Plans   []planRecord    `json:"plans"`
}

// truthy mirrors a loose status flag: true, "success", 1
func truthy(raw json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false" && t != "0" && t != "error"
	case float64:
		return t != 0
	}
	return false
}

// FetchPlans implements output.PlanCatalog. Plans whose price cannot be read are skipped.
func (c *PlanCatalogClient) FetchPlans(ctx context.Context) ([]registration.Plan, error) {
	resp, err := c.Client.Do(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, &output.UpstreamError{Op: "fetch plans", Message: MsgPlansConnection, Err: err}
	}

	var body plansResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, &output.UpstreamError{Op: "fetch plans", Status: resp.Status, Message: MsgPlansConnection, Err: ErrInvalidJSON}
	}
	if !truthy(body.Status) || body.Plans == nil {
		c.logger().Warn("plan catalogue rejected", zap.String("message", body.Message), zap.Int("status", resp.Status))
		return nil, &output.UpstreamError{Op: "fetch plans", Status: resp.Status, Message: MsgPlansUnavailable}
	}

	plans := make([]registration.Plan, 0, len(body.Plans))
	for _, rec := range body.Plans {
		price, err := decimal.NewFromString(strings.TrimSpace(string(rec.Price)))
		if err != nil {
			c.logger().Warn("skipping plan with unreadable price",
				zap.String("plan_id", string(rec.ID)),
				zap.String("price", string(rec.Price)),
			)
			continue
		}
		features := make([]string, 0, len(rec.Description))
		for _, f := range rec.Description {
			features = append(features, f.Item)
		}
		plans = append(plans, registration.Plan{
			ID:          string(rec.ID),
			Name:        rec.Name,
			Price:       price,
			PeriodLabel: registration.PeriodLabel(string(rec.Duration), rec.DurationType),
			Features:    features,
		})
	}
	return plans, nil
}

func (c *PlanCatalogClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// FetchRaw returns the catalogue answer untouched, for proxying
func (c *PlanCatalogClient) FetchRaw(ctx context.Context) (*Response, error) {
	return c.Client.Do(ctx, http.MethodGet, c.URL, nil)
}
