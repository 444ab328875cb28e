package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// AvailabilityClient asks a uniqueness endpoint whether a value is free.
// Every failure is returned as an error so the validator can fail open.
type AvailabilityClient struct {
	Client *Client
	URL    string
}

var _ validation.AvailabilityChecker = (*AvailabilityClient)(nil)

type availabilityResponse struct {
	Available *bool  `json:"available"`
	Message   string `json:"message"`
}

// CheckAvailability implements validation.AvailabilityChecker
func (c *AvailabilityClient) CheckAvailability(ctx context.Context, field registration.FieldName, value string) (registration.ValidationResult, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return registration.Valid(), fmt.Errorf("parse availability url: %w", err)
	}
	q := u.Query()
	q.Set("field", field.String())
	q.Set("value", value)
	u.RawQuery = q.Encode()

	resp, err := c.Client.Do(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return registration.Valid(), err
	}
	if !resp.OK() {
		return registration.Valid(), fmt.Errorf("availability check: status %d", resp.Status)
	}

	var body availabilityResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return registration.Valid(), fmt.Errorf("availability check: %w", ErrInvalidJSON)
	}
	if body.Available == nil {
		return registration.Valid(), fmt.Errorf("availability check: missing available flag")
	}
	if *body.Available {
		return registration.Valid(), nil
	}
	return registration.Invalid(body.Message), nil
}
