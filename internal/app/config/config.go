package config

import "time"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	// Core settings
	Home() string           // Base directory for saved progress (REGWIZ_HOME)
	TimeoutSec() int        // Upstream request timeout in seconds (REGWIZ_TIMEOUT_SEC)
	Timeout() time.Duration // Upstream request timeout as Duration

	// Upstream endpoints
	PlansURL() string          // Plan catalogue (REGWIZ_PLANS_URL)
	CustomerURL() string       // Create-customer endpoint (REGWIZ_CUSTOMER_URL)
	BusinessURL() string       // Create-business endpoint (REGWIZ_BUSINESS_URL)
	PaymentURL() string        // Payment endpoint (REGWIZ_PAYMENT_URL)
	AvailabilityURL() string   // Optional availability endpoint (REGWIZ_AVAILABILITY_URL)
	TenantRegisterURL() string // Tenant registration endpoint (REGWIZ_TENANT_URL)

	// Redirects
	SuccessURL() string // Payment success page (REGWIZ_SUCCESS_URL)
	FailURL() string    // Payment failure page (REGWIZ_FAIL_URL)

	// Persistence
	StoreBackend() string // "file" or "sqlite" (REGWIZ_STORE_BACKEND)
	StorePath() string    // Directory or database file (REGWIZ_STORE_PATH)

	// Payment gateway
	GatewayBaseURL() string    // Invoice API base URL (REGWIZ_GATEWAY_URL)
	GatewayAPIKey() string     // Bearer token (REGWIZ_GATEWAY_API_KEY)
	GatewayCurrency() string   // Invoice currency (REGWIZ_GATEWAY_CURRENCY)
	GatewayPaymentMethod() int // Payment method id (REGWIZ_GATEWAY_PAYMENT_METHOD)

	// Checkout server
	ServerAddr() string    // Listen address (REGWIZ_SERVER_ADDR)
	HandoffSecret() string // Secret sealing user data between pages (REGWIZ_HANDOFF_SECRET)

	// Logging
	LogLevel() string  // debug, info, warn or error (REGWIZ_LOG_LEVEL)
	LogFormat() string // console or json (REGWIZ_LOG_FORMAT)

	// Metadata
	ConfigSource() string // Source of configuration: "yaml", "env", or "default"
	SettingPath() string  // Path to setting.yml if loaded from file
}

// Values carries every setting used to build an AppConfig
type Values struct {
	Home       string
	TimeoutSec int

	PlansURL          string
	CustomerURL       string
	BusinessURL       string
	PaymentURL        string
	AvailabilityURL   string
	TenantRegisterURL string

	SuccessURL string
	FailURL    string

	StoreBackend string
	StorePath    string

	GatewayBaseURL       string
	GatewayAPIKey        string
	GatewayCurrency      string
	GatewayPaymentMethod int

	ServerAddr    string
	HandoffSecret string

	LogLevel  string
	LogFormat string
}

// AppConfig is the concrete implementation of Config interface.
// It holds all configuration values loaded from various sources.
type AppConfig struct {
	v Values

	configSource string
	settingPath  string
}

// NewAppConfig creates a new AppConfig
func NewAppConfig(v Values, configSource, settingPath string) *AppConfig {
	return &AppConfig{v: v, configSource: configSource, settingPath: settingPath}
}

// Home returns the base directory for saved progress
func (c *AppConfig) Home() string {
	return c.v.Home
}

// TimeoutSec returns the timeout in seconds
func (c *AppConfig) TimeoutSec() int {
	return c.v.TimeoutSec
}

// Timeout returns the timeout as a Duration
func (c *AppConfig) Timeout() time.Duration {
	return time.Duration(c.v.TimeoutSec) * time.Second
}

// PlansURL returns the plan catalogue endpoint
func (c *AppConfig) PlansURL() string {
	return c.v.PlansURL
}

// CustomerURL returns the create-customer endpoint
func (c *AppConfig) CustomerURL() string {
	return c.v.CustomerURL
}

// BusinessURL returns the create-business endpoint
func (c *AppConfig) BusinessURL() string {
	return c.v.BusinessURL
}

// PaymentURL returns the payment endpoint
func (c *AppConfig) PaymentURL() string {
	return c.v.PaymentURL
}

// AvailabilityURL returns the availability endpoint, empty when disabled
func (c *AppConfig) AvailabilityURL() string {
	return c.v.AvailabilityURL
}

// TenantRegisterURL returns the tenant registration endpoint
func (c *AppConfig) TenantRegisterURL() string {
	return c.v.TenantRegisterURL
}

// SuccessURL returns the payment success page
func (c *AppConfig) SuccessURL() string {
	return c.v.SuccessURL
}

// FailURL returns the payment failure page
func (c *AppConfig) FailURL() string {
	return c.v.FailURL
}

// StoreBackend returns the snapshot backend name
func (c *AppConfig) StoreBackend() string {
	return c.v.StoreBackend
}

// StorePath returns the snapshot location
func (c *AppConfig) StorePath() string {
	return c.v.StorePath
}

// GatewayBaseURL returns the invoice API base URL
func (c *AppConfig) GatewayBaseURL() string {
	return c.v.GatewayBaseURL
}

// GatewayAPIKey returns the invoice API token
func (c *AppConfig) GatewayAPIKey() string {
	return c.v.GatewayAPIKey
}

// GatewayCurrency returns the invoice currency
func (c *AppConfig) GatewayCurrency() string {
	return c.v.GatewayCurrency
}

// GatewayPaymentMethod returns the payment method id
func (c *AppConfig) GatewayPaymentMethod() int {
	return c.v.GatewayPaymentMethod
}

// ServerAddr returns the checkout server listen address
func (c *AppConfig) ServerAddr() string {
	return c.v.ServerAddr
}

// HandoffSecret returns the secret for sealed user data
func (c *AppConfig) HandoffSecret() string {
	return c.v.HandoffSecret
}

// LogLevel returns the log level
func (c *AppConfig) LogLevel() string {
	return c.v.LogLevel
}

// LogFormat returns the log encoding
func (c *AppConfig) LogFormat() string {
	return c.v.LogFormat
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.yml if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}
