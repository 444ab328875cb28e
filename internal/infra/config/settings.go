package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/regwiz/internal/app/config"
)

// SettingFile is the settings file name inside the base directory
const SettingFile = "setting.yml"

// RawSettings represents the structure of setting.yml.
// Pointer fields distinguish "unset" from zero values.
type RawSettings struct {
	// Core settings
	Home       *string `yaml:"home"`
	TimeoutSec *int    `yaml:"timeout_sec"`

	Endpoints RawEndpoints `yaml:"endpoints"`
	Redirect  RawRedirect  `yaml:"redirect"`
	Store     RawStore     `yaml:"store"`
	Gateway   RawGateway   `yaml:"gateway"`
	Server    RawServer    `yaml:"server"`

	// Logging
	LogLevel  *string `yaml:"log_level"`
	LogFormat *string `yaml:"log_format"`
}

// RawEndpoints are the upstream API endpoints
type RawEndpoints struct {
	Plans          *string `yaml:"plans"`
	CreateCustomer *string `yaml:"create_customer"`
	CreateBusiness *string `yaml:"create_business"`
	Payment        *string `yaml:"payment"`
	Availability   *string `yaml:"availability"`
	TenantRegister *string `yaml:"tenant_register"`
}

// RawRedirect are the pages the user lands on after payment
type RawRedirect struct {
	SuccessURL *string `yaml:"success_url"`
	FailURL    *string `yaml:"fail_url"`
}

// RawStore selects where progress is saved
type RawStore struct {
	Backend *string `yaml:"backend"`
	Path    *string `yaml:"path"`
}

// RawGateway configures the invoice API
type RawGateway struct {
	BaseURL         *string `yaml:"base_url"`
	APIKey          *string `yaml:"api_key"`
	Currency        *string `yaml:"currency"`
	PaymentMethodID *int    `yaml:"payment_method_id"`
}

// RawServer configures the checkout server
type RawServer struct {
	Addr          *string `yaml:"addr"`
	HandoffSecret *string `yaml:"handoff_secret"`
}

// LoadSettings loads configuration from setting.yml and REGWIZ_* variables.
// Priority: environment > setting.yml > defaults
func LoadSettings(baseDir string) (*config.AppConfig, error) {
	return LoadSettingsFS(afero.NewOsFs(), baseDir, os.LookupEnv)
}

// LoadSettingsFS is LoadSettings with an explicit filesystem and environment
func LoadSettingsFS(fs afero.Fs, baseDir string, lookupEnv func(string) (string, bool)) (*config.AppConfig, error) {
	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	ymlPath := filepath.Join(baseDir, SettingFile)
	data, err := afero.ReadFile(fs, ymlPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ymlPath, err)
		}
		configSource = "yaml"
		settingPath = ymlPath
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", ymlPath, err)
	}

	overridden, err := applyEnv(settings, lookupEnv)
	if err != nil {
		return nil, err
	}
	if overridden && configSource == "default" {
		configSource = "env"
	}

	applyDefaults(settings)

	if err := validate(settings); err != nil {
		return nil, err
	}
	return buildAppConfig(settings, configSource, settingPath), nil
}

// applyEnv overrides settings from REGWIZ_* variables and reports whether any was set
func applyEnv(s *RawSettings, lookupEnv func(string) (string, bool)) (bool, error) {
	set := false
	str := func(key string, dst **string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			v := v
			*dst = &v
			set = true
		}
	}
	num := func(key string, dst **int) error {
		v, ok := lookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		*dst = &n
		set = true
		return nil
	}

	str("REGWIZ_HOME", &s.Home)
	str("REGWIZ_PLANS_URL", &s.Endpoints.Plans)
	str("REGWIZ_CUSTOMER_URL", &s.Endpoints.CreateCustomer)
	str("REGWIZ_BUSINESS_URL", &s.Endpoints.CreateBusiness)
	str("REGWIZ_PAYMENT_URL", &s.Endpoints.Payment)
	str("REGWIZ_AVAILABILITY_URL", &s.Endpoints.Availability)
	str("REGWIZ_TENANT_URL", &s.Endpoints.TenantRegister)
	str("REGWIZ_SUCCESS_URL", &s.Redirect.SuccessURL)
	str("REGWIZ_FAIL_URL", &s.Redirect.FailURL)
	str("REGWIZ_STORE_BACKEND", &s.Store.Backend)
	str("REGWIZ_STORE_PATH", &s.Store.Path)
	str("REGWIZ_GATEWAY_URL", &s.Gateway.BaseURL)
	str("REGWIZ_GATEWAY_API_KEY", &s.Gateway.APIKey)
	str("REGWIZ_GATEWAY_CURRENCY", &s.Gateway.Currency)
	str("REGWIZ_SERVER_ADDR", &s.Server.Addr)
	str("REGWIZ_HANDOFF_SECRET", &s.Server.HandoffSecret)
	str("REGWIZ_LOG_LEVEL", &s.LogLevel)
	str("REGWIZ_LOG_FORMAT", &s.LogFormat)

	if err := num("REGWIZ_TIMEOUT_SEC", &s.TimeoutSec); err != nil {
		return false, err
	}
	if err := num("REGWIZ_GATEWAY_PAYMENT_METHOD", &s.Gateway.PaymentMethodID); err != nil {
		return false, err
	}
	return set, nil
}

func setDefault(dst **string, v string) {
	if *dst == nil {
		*dst = &v
	}
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(s *RawSettings) {
	setDefault(&s.Home, ".regwiz")
	if s.TimeoutSec == nil {
		v := 30
		s.TimeoutSec = &v
	}

	setDefault(&s.Endpoints.Plans, "https://admin.cashierthru.com/api/plans")
	setDefault(&s.Endpoints.CreateCustomer, "https://admin.cashierthru.com/api/create-customer")
	setDefault(&s.Endpoints.CreateBusiness, "https://admin.cashierthru.com/api/create-business")
	setDefault(&s.Endpoints.Payment, "https://admin.cashierthru.com/api/payment")
	setDefault(&s.Endpoints.Availability, "") // disabled: reserved lists only
	setDefault(&s.Endpoints.TenantRegister, "https://admin.cashierthru.com/api/tenant-register")

	setDefault(&s.Redirect.SuccessURL, "https://cashierthru.com/payment-success.php")
	setDefault(&s.Redirect.FailURL, "https://cashierthru.com/payment-fail.php")

	setDefault(&s.Store.Backend, "file")
	setDefault(&s.Store.Path, "")

	setDefault(&s.Gateway.BaseURL, "https://staging.fawaterk.com/api/v2")
	setDefault(&s.Gateway.APIKey, "")
	setDefault(&s.Gateway.Currency, "EGP")
	if s.Gateway.PaymentMethodID == nil {
		v := 2 // Visa
		s.Gateway.PaymentMethodID = &v
	}

	setDefault(&s.Server.Addr, "127.0.0.1:8080")
	setDefault(&s.Server.HandoffSecret, "")

	setDefault(&s.LogLevel, "warn")
	setDefault(&s.LogFormat, "console")
}

func validate(s *RawSettings) error {
	switch *s.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q (want file or sqlite)", *s.Store.Backend)
	}
	if *s.TimeoutSec <= 0 {
		return fmt.Errorf("timeout_sec must be positive, got %d", *s.TimeoutSec)
	}
	return nil
}

// buildAppConfig converts RawSettings to AppConfig
func buildAppConfig(s *RawSettings, configSource, settingPath string) *config.AppConfig {
	storePath := *s.Store.Path
	if storePath == "" {
		storePath = filepath.Join(*s.Home, "state")
		if *s.Store.Backend == "sqlite" {
			storePath = filepath.Join(*s.Home, "regwiz.db")
		}
	}

	return config.NewAppConfig(config.Values{
		Home:                 *s.Home,
		TimeoutSec:           *s.TimeoutSec,
		PlansURL:             *s.Endpoints.Plans,
		CustomerURL:          *s.Endpoints.CreateCustomer,
		BusinessURL:          *s.Endpoints.CreateBusiness,
		PaymentURL:           *s.Endpoints.Payment,
		AvailabilityURL:      *s.Endpoints.Availability,
		TenantRegisterURL:    *s.Endpoints.TenantRegister,
		SuccessURL:           *s.Redirect.SuccessURL,
		FailURL:              *s.Redirect.FailURL,
		StoreBackend:         *s.Store.Backend,
		StorePath:            storePath,
		GatewayBaseURL:       *s.Gateway.BaseURL,
		GatewayAPIKey:        *s.Gateway.APIKey,
		GatewayCurrency:      *s.Gateway.Currency,
		GatewayPaymentMethod: *s.Gateway.PaymentMethodID,
		ServerAddr:           *s.Server.Addr,
		HandoffSecret:        *s.Server.HandoffSecret,
		LogLevel:             *s.LogLevel,
		LogFormat:            *s.LogFormat,
	}, configSource, settingPath)
}

// CreateDefaultSettings creates a default setting.yml content
func CreateDefaultSettings() []byte {
	settings := &RawSettings{}
	applyDefaults(settings)

	data, _ := yaml.Marshal(settings)
	return data
}
