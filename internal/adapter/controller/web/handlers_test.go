package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/gateway/upstream"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/checkout"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockCheckout is a mock CheckoutService
type MockCheckout struct {
	CheckoutFunc func(ctx context.Context, req output.PaymentRequest) (*output.PaymentResult, error)
	CompleteFunc func(ctx context.Context, token string) (*checkout.Completion, error)
}

func (m *MockCheckout) Checkout(ctx context.Context, req output.PaymentRequest) (*output.PaymentResult, error) {
	return m.CheckoutFunc(ctx, req)
}

func (m *MockCheckout) Complete(ctx context.Context, token string) (*checkout.Completion, error) {
	return m.CompleteFunc(ctx, token)
}

// MockPlanSource is a mock PlanSource
type MockPlanSource struct {
	FetchRawFunc func(ctx context.Context) (*upstream.Response, error)
}

func (m *MockPlanSource) FetchRaw(ctx context.Context) (*upstream.Response, error) {
	return m.FetchRawFunc(ctx)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandlePlansProxy(t *testing.T) {
	tests := []struct {
		name       string
		resp       *upstream.Response
		err        error
		wantStatus int
		wantBody   string
		wantMsg    string
	}{
		{
			name:       "passes catalogue through",
			resp:       &upstream.Response{Status: 200, Body: []byte(`{"status":true,"data":[]}`)},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":true,"data":[]}`,
		},
		{
			name:       "upstream status is reported",
			resp:       &upstream.Response{Status: 503, Body: []byte("down")},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "❌ HTTP Error: 503",
		},
		{
			name:       "transport error",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "❌ Proxy Error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := &MockPlanSource{FetchRawFunc: func(context.Context) (*upstream.Response, error) {
				return tt.resp, tt.err
			}}
			s := NewServer(&MockCheckout{}, plans, nil)

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
				return
			}
			body := decodeBody(t, w)
			assert.Equal(t, false, body["status"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestHandlePayment(t *testing.T) {
	var got output.PaymentRequest
	svc := &MockCheckout{CheckoutFunc: func(_ context.Context, req output.PaymentRequest) (*output.PaymentResult, error) {
		got = req
		return &output.PaymentResult{Status: "success", URL: "https://pay.example.com/1"}, nil
	}}
	s := NewServer(svc, &MockPlanSource{}, nil)

	t.Run("form post", func(t *testing.T) {
		form := url.Values{"plan_id": {"2"}, "first_name": {"Sara"}, "password_confirmation": {"x"}}
		req := httptest.NewRequest(http.MethodPost, "/api/payment", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://pay.example.com/1", decodeBody(t, w)["url"])
		assert.Equal(t, "2", got.PlanID)
		assert.Equal(t, "Sara", got.FirstName)
		assert.Equal(t, "x", got.PasswordConfirmation)
	})

	t.Run("json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/payment", strings.NewReader(`{"plan_id":"3","subdomain":"shop"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", got.PlanID)
		assert.Equal(t, "shop", got.Subdomain)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/payment", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, MsgMethodNotAllowed, decodeBody(t, w)["message"])
	})
}

func TestHandlePayment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"rejected", &checkout.RejectedError{Message: checkout.MsgPlanNotFound}, http.StatusBadRequest, checkout.MsgPlanNotFound},
		{
			"upstream",
			&checkout.RejectedError{Message: checkout.MsgInvoiceFailed, Err: &output.UpstreamError{Op: "invoice", Message: "x"}},
			http.StatusBadGateway,
			checkout.MsgInvoiceFailed,
		},
		{"unexpected", errors.New("seal failed"), http.StatusInternalServerError, "❌ حدث خطأ غير متوقع"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockCheckout{CheckoutFunc: func(context.Context, output.PaymentRequest) (*output.PaymentResult, error) {
				return nil, tt.err
			}}
			s := NewServer(svc, &MockPlanSource{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/payment", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestHandlePaymentSuccess(t *testing.T) {
	svc := &MockCheckout{CompleteFunc: func(_ context.Context, token string) (*checkout.Completion, error) {
		switch token {
		case "":
			return nil, &checkout.RejectedError{Message: checkout.MsgMissingUserData}
		case "good":
			return &checkout.Completion{Subdomain: "shop", TenantURL: "https://shop", Message: "ok"}, nil
		default:
			return nil, &checkout.RejectedError{Message: checkout.MsgInvalidUserData}
		}
	}}
	s := NewServer(svc, &MockPlanSource{}, nil)

	serve := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	t.Run("redirects to tenant", func(t *testing.T) {
		w := serve("/payment-success?user_data=good")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://shop", w.Header().Get("Location"))
	})

	t.Run("json format", func(t *testing.T) {
		w := serve("/payment-success?user_data=good&format=json")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://shop", decodeBody(t, w)["url"])
	})

	t.Run("free plan without data", func(t *testing.T) {
		w := serve("/payment-success?free_plan=1&plan_id=1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, MsgFreePlanAccepted, decodeBody(t, w)["message"])
	})

	t.Run("missing data", func(t *testing.T) {
		w := serve("/payment-success")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, checkout.MsgMissingUserData, decodeBody(t, w)["message"])
	})

	t.Run("tampered data", func(t *testing.T) {
		w := serve("/payment-success?user_data=forged")
		assert.Equal(t, checkout.MsgInvalidUserData, decodeBody(t, w)["message"])
	})
}

func TestHandlePaymentFail(t *testing.T) {
	s := NewServer(&MockCheckout{}, &MockPlanSource{}, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/payment-fail", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, MsgPaymentFailTitle, body["title"])
	assert.Equal(t, MsgPaymentFailBody, body["message"])
}

func TestServerRun_StopsOnCancel(t *testing.T) {
	s := NewServer(&MockCheckout{}, &MockPlanSource{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
