// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/ecosystem-trading/ibconnect/pkg/gateway"
	"github.com/ecosystem-trading/ibconnect/pkg/httpserver"
	"github.com/ecosystem-trading/ibconnect/pkg/logger"
	"github.com/ecosystem-trading/ibconnect/pkg/telemetry"
)

// Config holds every setting of the connector service.
type Config struct {
	ServiceName    string            `mapstructure:"service_name"`
	ServiceVersion string            `mapstructure:"service_version"`
	Gateway        gateway.Config    `mapstructure:"gateway"`
	Telemetry      telemetry.Config  `mapstructure:"telemetry"`
	Logging        logger.Config     `mapstructure:"logging"`
	HTTP           httpserver.Config `mapstructure:"http"`
}

// Load reads defaults, an optional YAML file and IBCONNECT_* environment
// variables, then decodes and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ---------- 1) Defaults ----------
	v.SetDefault("service_name", "ibconnect")
	v.SetDefault("service_version", "v1.0.0")

	v.SetDefault("gateway.url", "ws://127.0.0.1:7497/ws")
	v.SetDefault("gateway.client_id", "ibconnect")
	v.SetDefault("gateway.read_timeout", "30s")
	v.SetDefault("gateway.write_timeout", "5s")
	v.SetDefault("gateway.login_timeout", "10s")

	v.SetDefault("telemetry.otel_endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.insecure", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.shutdown_timeout", "5s")
	v.SetDefault("http.metrics_path", "/metrics")
	v.SetDefault("http.healthz_path", "/healthz")
	v.SetDefault("http.readyz_path", "/readyz")

	// ---------- 2) ENV ----------
	v.SetEnvPrefix("IBCONNECT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ---------- 3) Optional file ----------
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// ---------- 4) Decode ----------
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ---------- 5) Validation ----------
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// stringToBoolHook parses true/false, otherwise passes data through.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	if err := c.Gateway.Validate(); err != nil {
		return err
	}

	if c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error]")
	}

	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	for k, p := range map[string]string{
		"http.metrics_path": c.HTTP.MetricsPath,
		"http.healthz_path": c.HTTP.HealthzPath,
		"http.readyz_path":  c.HTTP.ReadyzPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/'", k)
		}
	}

	return nil
}

// Print dumps the effective config as JSON (useful in DevMode). The gateway
// API key is masked.
func (c *Config) Print() {
	masked := *c
	if masked.Gateway.APIKey != "" {
		masked.Gateway.APIKey = "***"
	}
	b, _ := json.MarshalIndent(masked, "", "  ")
	fmt.Println("Loaded configuration:\n", string(b))
}
