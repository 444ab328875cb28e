package di

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/controller/web"
	"github.com/YoshitsuguKoike/regwiz/internal/adapter/gateway/fawaterk"
	"github.com/YoshitsuguKoike/regwiz/internal/adapter/gateway/upstream"
	"github.com/YoshitsuguKoike/regwiz/internal/adapter/presenter"
	appconfig "github.com/YoshitsuguKoike/regwiz/internal/app/config"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/checkout"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
	"github.com/YoshitsuguKoike/regwiz/internal/infrastructure/handoff"
	"github.com/YoshitsuguKoike/regwiz/internal/infrastructure/persistence/snapshot"
)

// Container is the DI container that holds all dependencies
// This implements manual dependency injection for Clean Architecture
type Container struct {
	// Infrastructure Layer - Persistence
	fs       afero.Fs
	sqlite   *snapshot.SQLiteBackend
	snapshot *snapshot.Store

	// Adapter Layer - Gateways
	httpClient   *upstream.Client
	planClient   *upstream.PlanCatalogClient
	registration *upstream.RegistrationClient
	tenantClient *upstream.TenantClient

	// Domain Layer - Validation
	validator *validation.Validator

	// Application Layer - Use Cases
	wizard   *wizard.Controller
	checkout *checkout.Service

	// Adapter Layer - Presenters
	presenter output.WizardPresenter

	logger *zap.Logger
	config Config
}

// Config holds configuration for the container
type Config struct {
	App          appconfig.Config
	OutputFormat string // Output format (cli, json)
	OutputWriter io.Writer
	Logger       *zap.Logger

	// Optional overrides, mostly for tests
	FS         afero.Fs
	HTTPClient *http.Client
	KDFParams  *handoff.KDFParams
}

// NewContainer creates and initializes the DI container
func NewContainer(config Config) (*Container, error) {
	if config.App == nil {
		return nil, fmt.Errorf("application config is required")
	}

	c := &Container{
		config: config,
		logger: config.Logger,
		fs:     config.FS,
	}

	if c.config.OutputWriter == nil {
		c.config.OutputWriter = os.Stdout
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}

	// Initialize dependencies in dependency order
	if err := c.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	c.initializeGateways()
	c.initializeDomain()
	c.initializeApplication()
	c.initializeAdapters()

	return c, nil
}

// initializeInfrastructure opens the snapshot backend selected by config
func (c *Container) initializeInfrastructure() error {
	app := c.config.App
	var backend output.KeyValueStore

	switch app.StoreBackend() {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(app.StorePath()), 0o700); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := snapshot.OpenSQLite(context.Background(), app.StorePath())
		if err != nil {
			return fmt.Errorf("failed to open snapshot database: %w", err)
		}
		c.sqlite = db
		backend = db
	case "file", "":
		backend = snapshot.NewFileBackend(c.fs, app.StorePath())
	default:
		return fmt.Errorf("unknown store backend: %s", app.StoreBackend())
	}

	c.snapshot = snapshot.NewStore(backend, c.logger.Named("snapshot"))
	return nil
}

// initializeGateways builds the upstream API clients
func (c *Container) initializeGateways() {
	app := c.config.App
	logger := c.logger.Named("upstream")

	if c.config.HTTPClient != nil {
		c.httpClient = upstream.NewClientWithHTTP(c.config.HTTPClient, logger)
	} else {
		c.httpClient = upstream.NewClient(app.Timeout(), logger)
	}

	c.planClient = &upstream.PlanCatalogClient{Client: c.httpClient, URL: app.PlansURL(), Logger: logger}
	c.registration = &upstream.RegistrationClient{
		Client:      c.httpClient,
		CustomerURL: app.CustomerURL(),
		BusinessURL: app.BusinessURL(),
		PaymentURL:  app.PaymentURL(),
		Logger:      logger,
	}
	c.tenantClient = &upstream.TenantClient{Client: c.httpClient, URL: app.TenantRegisterURL()}
}

// initializeDomain builds the validator and its availability chain
func (c *Container) initializeDomain() {
	reserved := &validation.ReservedChecker{}
	if u := c.config.App.AvailabilityURL(); u != "" {
		reserved.Next = &upstream.AvailabilityClient{Client: c.httpClient, URL: u}
	}
	checker := &validation.CachedChecker{
		Next:  reserved,
		Cache: validation.NewAvailabilityCache(validation.DefaultCacheLimit),
	}
	c.validator = validation.NewValidator(checker, validation.WithLogger(c.logger.Named("validation")))
}

// initializeApplication builds the wizard use case
func (c *Container) initializeApplication() {
	c.wizard = wizard.NewController(wizard.Dependencies{
		Plans:      c.planClient,
		Customers:  c.registration,
		Businesses: c.registration,
		Payments:   c.registration,
		Store:      c.snapshot,
		Validator:  c.validator,
		Logger:     c.logger.Named("wizard"),
		SuccessURL: c.config.App.SuccessURL(),
	})
}

// initializeAdapters picks the presenter for the output format
func (c *Container) initializeAdapters() {
	switch c.config.OutputFormat {
	case "json":
		c.presenter = presenter.NewJSONPresenter(c.config.OutputWriter)
	default: // "cli"
		c.presenter = presenter.NewCLIWizardPresenter(c.config.OutputWriter)
	}
}

// GetWizard returns the wizard controller
func (c *Container) GetWizard() *wizard.Controller {
	return c.wizard
}

// GetValidator returns the field validator
func (c *Container) GetValidator() *validation.Validator {
	return c.validator
}

// GetPresenter returns the presenter
func (c *Container) GetPresenter() output.WizardPresenter {
	return c.presenter
}

// GetSnapshotStore returns the progress store
func (c *Container) GetSnapshotStore() output.SnapshotStore {
	return c.snapshot
}

// GetLogger returns the root logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// GetCheckout returns the checkout service, building it on first use.
// It needs a handoff secret, which the wizard alone does not.
func (c *Container) GetCheckout() (*checkout.Service, error) {
	if c.checkout != nil {
		return c.checkout, nil
	}
	app := c.config.App

	params := handoff.DefaultKDFParams()
	if c.config.KDFParams != nil {
		params = *c.config.KDFParams
	}
	sealer, err := handoff.NewSealer(app.HandoffSecret(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to create handoff sealer: %w", err)
	}

	invoices := fawaterk.NewClient(c.httpClient, fawaterk.Options{
		BaseURL:         app.GatewayBaseURL(),
		APIKey:          app.GatewayAPIKey(),
		Currency:        app.GatewayCurrency(),
		PaymentMethodID: app.GatewayPaymentMethod(),
		Logger:          c.logger.Named("fawaterk"),
	})

	c.checkout = checkout.NewService(checkout.Dependencies{
		Plans:      c.planClient,
		Invoices:   invoices,
		Tenants:    c.tenantClient,
		Sealer:     sealer,
		SuccessURL: app.SuccessURL(),
		FailURL:    app.FailURL(),
		Logger:     c.logger.Named("checkout"),
	})
	return c.checkout, nil
}

// GetWebServer returns the checkout web server
func (c *Container) GetWebServer() (*web.Server, error) {
	svc, err := c.GetCheckout()
	if err != nil {
		return nil, err
	}
	return web.NewServer(svc, c.planClient, c.logger.Named("web")), nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.sqlite != nil {
		if err := c.sqlite.Close(); err != nil {
			return fmt.Errorf("failed to close snapshot database: %w", err)
		}
	}
	_ = c.logger.Sync()
	return nil
}
