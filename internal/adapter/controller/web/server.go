package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/gateway/upstream"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/checkout"
	"github.com/YoshitsuguKoike/regwiz/internal/buildinfo"
)

const shutdownTimeout = 10 * time.Second

// CheckoutService is the checkout use case as seen by the handlers
type CheckoutService interface {
	Checkout(ctx context.Context, req output.PaymentRequest) (*output.PaymentResult, error)
	Complete(ctx context.Context, token string) (*checkout.Completion, error)
}

// PlanSource returns the raw plan catalogue for the proxy route
type PlanSource interface {
	FetchRaw(ctx context.Context) (*upstream.Response, error)
}

// Server is the checkout web server
type Server struct {
	checkout CheckoutService
	plans    PlanSource
	logger   *zap.Logger
	router   *gin.Engine
}

// NewServer creates a new web server
func NewServer(svc CheckoutService, plans PlanSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		checkout: svc,
		plans:    plans,
		logger:   logger,
		router:   router,
	}

	router.NoMethod(s.handleMethodNotAllowed)

	// Pages the payment provider redirects to
	router.GET("/payment-success", s.handlePaymentSuccess)
	router.GET("/payment-fail", s.handlePaymentFail)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/plans", s.handlePlansProxy)
		api.POST("/payment", s.handlePayment)
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("checkout server listening", zap.String("addr", addr), zap.String("version", buildinfo.Summary()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
