package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

type capturedRequest struct {
	Method  string
	Path    string
	Header  http.Header
	Payload map[string]interface{}
}

func newUpstream(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			captured.Method = r.Method
			captured.Path = r.URL.Path
			captured.Header = r.Header.Clone()
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &captured.Payload)
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRegistrationClient(url string) *RegistrationClient {
	return &RegistrationClient{
		Client:      NewClient(5*time.Second, zap.NewNop()),
		CustomerURL: url + "/create-customer",
		BusinessURL: url + "/create-business",
		PaymentURL:  url + "/payment",
	}
}

func TestRegistrationClient_CreateCustomer(t *testing.T) {
	var got capturedRequest
	srv := newUpstream(t, http.StatusCreated, `{"data":{"customer_id":55}}`, &got)
	c := newRegistrationClient(srv.URL)

	res, err := c.CreateCustomer(context.Background(), output.CustomerRequest{
		FirstName: "Sara", LastName: "Ali", Email: "sara@example.com",
		Phone: "01001234567", Country: "EG", Address: "Cairo",
	})

	require.NoError(t, err)
	assert.Equal(t, "55", res.ID)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/create-customer", got.Path)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "XMLHttpRequest", got.Header.Get("X-Requested-With"))
	assert.Equal(t, map[string]interface{}{
		"first_name": "Sara", "last_name": "Ali", "email": "sara@example.com",
		"phone": "01001234567", "country": "EG", "address": "Cairo",
	}, got.Payload)
}

func TestRegistrationClient_CreateCustomer_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"validation errors", 422, `{"errors":{"email":["already used"]}}`, "already used"},
		{"html error page", 500, `<html>oops</html>`, MsgInvalidResponse},
		{"empty error body", 500, ``, MsgUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, tt.status, tt.body, nil)
			c := newRegistrationClient(srv.URL)

			_, err := c.CreateCustomer(context.Background(), output.CustomerRequest{})

			var upErr *output.UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, tt.wantMsg, upErr.Message)
			assert.ErrorIs(t, err, output.ErrUpstream)
		})
	}
}

func TestRegistrationClient_CreateCustomer_MessageFallbackSuccess(t *testing.T) {
	srv := newUpstream(t, http.StatusNotFound, `{"message":"تم إنشاء العميل","id":"c1"}`, nil)
	c := newRegistrationClient(srv.URL)

	res, err := c.CreateCustomer(context.Background(), output.CustomerRequest{})
	require.NoError(t, err)
	assert.Equal(t, "c1", res.ID)
}

func TestRegistrationClient_CreateCustomer_StatusDecides(t *testing.T) {
	t.Run("created with a false success flag", func(t *testing.T) {
		srv := newUpstream(t, http.StatusCreated, `{"success":false,"id":"c-9"}`, nil)
		c := newRegistrationClient(srv.URL)

		res, err := c.CreateCustomer(context.Background(), output.CustomerRequest{})
		require.NoError(t, err)
		assert.Equal(t, "c-9", res.ID)
	})

	t.Run("server error with a true success flag", func(t *testing.T) {
		srv := newUpstream(t, http.StatusInternalServerError, `{"success":true,"message":"boom"}`, nil)
		c := newRegistrationClient(srv.URL)

		_, err := c.CreateCustomer(context.Background(), output.CustomerRequest{})
		var upErr *output.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, "boom", upErr.Message)
	})
}

func TestRegistrationClient_CreateBusiness(t *testing.T) {
	t.Run("omits empty values and defaults branches", func(t *testing.T) {
		var got capturedRequest
		srv := newUpstream(t, http.StatusOK, `{"business":{"id":"b-1"}}`, &got)
		c := newRegistrationClient(srv.URL)

		res, err := c.CreateBusiness(context.Background(), output.BusinessRequest{
			BusinessName: "Acme", BusinessType: "retail", BusinessSize: "small", Subdomain: "acme",
		})

		require.NoError(t, err)
		assert.Equal(t, "b-1", res.ID)
		assert.Equal(t, map[string]interface{}{
			"business_name": "Acme", "business_type": "retail", "business_size": "small",
			"subdomain": "acme", "branches": float64(1),
		}, got.Payload)
	})

	t.Run("empty 2xx body is success without id", func(t *testing.T) {
		srv := newUpstream(t, http.StatusNoContent, ``, nil)
		c := newRegistrationClient(srv.URL)

		res, err := c.CreateBusiness(context.Background(), output.BusinessRequest{Branches: 3})
		require.NoError(t, err)
		assert.False(t, res.HasID())
	})
}

func TestRegistrationClient_TransportFailure(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, `{}`, nil)
	srv.Close()
	c := newRegistrationClient(srv.URL)

	_, err := c.CreateCustomer(context.Background(), output.CustomerRequest{})

	var upErr *output.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, MsgConnection, upErr.Message)
}

func TestRegistrationClient_CreatePayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got capturedRequest
		srv := newUpstream(t, http.StatusOK, `{"status":"success","url":"https://pay.example/inv/1"}`, &got)
		c := newRegistrationClient(srv.URL)

		res, err := c.CreatePayment(context.Background(), output.PaymentRequest{
			PlanID: "2", Email: "sara@example.com", Password: "Strong#Pass9", PasswordConfirmation: "Strong#Pass9",
		})

		require.NoError(t, err)
		assert.True(t, res.IsSuccess())
		assert.Equal(t, "https://pay.example/inv/1", res.URL)
		assert.Equal(t, "2", got.Payload["plan_id"])
		assert.NotContains(t, got.Payload, "customer_id")
	})

	t.Run("error status in body", func(t *testing.T) {
		srv := newUpstream(t, http.StatusOK, `{"status":"error","message":"plan closed"}`, nil)
		c := newRegistrationClient(srv.URL)

		res, err := c.CreatePayment(context.Background(), output.PaymentRequest{PlanID: "2"})
		require.NoError(t, err)
		assert.False(t, res.IsSuccess())
		assert.Equal(t, "plan closed", res.Message)
	})

	t.Run("non-2xx maps to connection message", func(t *testing.T) {
		srv := newUpstream(t, http.StatusBadGateway, `{"status":"error","message":"upstream"}`, nil)
		c := newRegistrationClient(srv.URL)

		_, err := c.CreatePayment(context.Background(), output.PaymentRequest{PlanID: "2"})
		var upErr *output.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, MsgConnection, upErr.Message)
		assert.Equal(t, http.StatusBadGateway, upErr.Status)
	})
}

func TestAvailabilityClient(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		if r.URL.Query().Get("value") == "taken" {
			_, _ = io.WriteString(w, `{"available":false,"message":"in use"}`)
			return
		}
		if r.URL.Query().Get("value") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"available":true}`)
	}))
	defer srv.Close()

	c := &AvailabilityClient{Client: NewClient(time.Second, nil), URL: srv.URL + "/check?v=1"}
	ctx := context.Background()

	res, err := c.CheckAvailability(ctx, registration.FieldSubdomain, "acme")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Contains(t, query, "field=subdomain")
	assert.Contains(t, query, "v=1")

	res, err = c.CheckAvailability(ctx, registration.FieldSubdomain, "taken")
	require.NoError(t, err)
	assert.Equal(t, registration.Invalid("in use"), res)

	_, err = c.CheckAvailability(ctx, registration.FieldSubdomain, "broken")
	assert.Error(t, err)
}

func TestTenantClient(t *testing.T) {
	var got capturedRequest
	srv := newUpstream(t, http.StatusOK, `{"status":true,"subdomain":"acme.cashierthru.com"}`, &got)
	c := &TenantClient{Client: NewClient(time.Second, nil), URL: srv.URL + "/tenant-register"}

	res, err := c.RegisterTenant(context.Background(), output.TenantRequest{Name: "Sara Ali", Subdomain: "acme", PlanID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "acme.cashierthru.com", res.Subdomain)
	assert.Equal(t, "Sara Ali", got.Payload["name"])

	failing := newUpstream(t, http.StatusOK, `{"status":false,"message":"subdomain exists"}`, nil)
	c.URL = failing.URL
	_, err = c.RegisterTenant(context.Background(), output.TenantRequest{})
	var upErr *output.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, MsgTenantFailed+"subdomain exists", upErr.Message)
}
