package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoadSettings(t *testing.T) {
	const yml = `
home: /yaml/home
timeout_sec: 45
endpoints:
  plans: https://yaml.example.com/plans
store:
  backend: sqlite
gateway:
  currency: USD
`

	tests := []struct {
		name         string
		file         string
		envVars      map[string]string
		wantHome     string
		wantTimeout  int
		wantPlans    string
		wantBackend  string
		wantPath     string
		wantCurrency string
		wantSource   string
	}{
		{
			name:         "Default values only",
			wantHome:     ".regwiz",
			wantTimeout:  30,
			wantPlans:    "https://admin.cashierthru.com/api/plans",
			wantBackend:  "file",
			wantPath:     ".regwiz/state",
			wantCurrency: "EGP",
			wantSource:   "default",
		},
		{
			name: "Environment variables only",
			envVars: map[string]string{
				"REGWIZ_HOME":        "/custom/home",
				"REGWIZ_TIMEOUT_SEC": "120",
				"REGWIZ_PLANS_URL":   "http://localhost:9000/plans",
			},
			wantHome:     "/custom/home",
			wantTimeout:  120,
			wantPlans:    "http://localhost:9000/plans",
			wantBackend:  "file",
			wantPath:     "/custom/home/state",
			wantCurrency: "EGP",
			wantSource:   "env",
		},
		{
			name:         "YAML file only",
			file:         yml,
			wantHome:     "/yaml/home",
			wantTimeout:  45,
			wantPlans:    "https://yaml.example.com/plans",
			wantBackend:  "sqlite",
			wantPath:     "/yaml/home/regwiz.db",
			wantCurrency: "USD",
			wantSource:   "yaml",
		},
		{
			name: "YAML with ENV override",
			file: yml,
			envVars: map[string]string{
				"REGWIZ_STORE_BACKEND": "file",
				"REGWIZ_STORE_PATH":    "/var/lib/regwiz",
			},
			wantHome:     "/yaml/home",
			wantTimeout:  45,
			wantPlans:    "https://yaml.example.com/plans",
			wantBackend:  "file",
			wantPath:     "/var/lib/regwiz",
			wantCurrency: "USD",
			wantSource:   "yaml", // Source is still YAML since it was loaded
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.file != "" {
				require.NoError(t, afero.WriteFile(fs, "/cfg/setting.yml", []byte(tt.file), 0644))
			}

			cfg, err := LoadSettingsFS(fs, "/cfg", envFrom(tt.envVars))
			require.NoError(t, err)

			assert.Equal(t, tt.wantHome, cfg.Home())
			assert.Equal(t, tt.wantTimeout, cfg.TimeoutSec())
			assert.Equal(t, tt.wantPlans, cfg.PlansURL())
			assert.Equal(t, tt.wantBackend, cfg.StoreBackend())
			assert.Equal(t, tt.wantPath, cfg.StorePath())
			assert.Equal(t, tt.wantCurrency, cfg.GatewayCurrency())
			assert.Equal(t, tt.wantSource, cfg.ConfigSource())
		})
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	cfg, err := LoadSettingsFS(afero.NewMemMapFs(), "/none", envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "https://cashierthru.com/payment-success.php", cfg.SuccessURL())
	assert.Equal(t, "https://cashierthru.com/payment-fail.php", cfg.FailURL())
	assert.Empty(t, cfg.AvailabilityURL(), "remote availability is opt-in")
	assert.Equal(t, 2, cfg.GatewayPaymentMethod())
	assert.Equal(t, "warn", cfg.LogLevel())
	assert.Equal(t, "console", cfg.LogFormat())
	assert.Empty(t, cfg.SettingPath())
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		envVars map[string]string
		wantErr string
	}{
		{"malformed yaml", "home: [unclosed", nil, "failed to parse"},
		{"bad timeout env", "", map[string]string{"REGWIZ_TIMEOUT_SEC": "soon"}, "invalid REGWIZ_TIMEOUT_SEC"},
		{"unknown backend", "store:\n  backend: redis\n", nil, "unknown store backend"},
		{"non-positive timeout", "timeout_sec: 0\n", nil, "timeout_sec must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.file != "" {
				require.NoError(t, afero.WriteFile(fs, "/cfg/setting.yml", []byte(tt.file), 0644))
			}
			_, err := LoadSettingsFS(fs, "/cfg", envFrom(tt.envVars))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateDefaultSettings(t *testing.T) {
	data := CreateDefaultSettings()

	var settings RawSettings
	require.NoError(t, yaml.Unmarshal(data, &settings))

	require.NotNil(t, settings.Home)
	assert.Equal(t, ".regwiz", *settings.Home)
	require.NotNil(t, settings.TimeoutSec)
	assert.Equal(t, 30, *settings.TimeoutSec)
	require.NotNil(t, settings.Store.Backend)
	assert.Equal(t, "file", *settings.Store.Backend)
}
