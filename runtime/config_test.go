package runtime

import (
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

// Test configs for various scenarios

type BasicConfig struct {
	UserAgent string `default:"netflow"`
	Redirects int    `default:"10"`
	Headless  bool   `default:"true"`
}

type RequiredFieldConfig struct {
	Required string `validate:"required"`
}

type RetryValidationConfig struct {
	Retries int `validate:"gte=0,lte=10"`
}

type LevelValidationConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

type DurationConfig struct {
	Timeout    time.Duration `default:"30s"`
	Navigation time.Duration `default:"1m"`
	LoadDelay  time.Duration `default:"500ms"`
}

type AccessorConfig struct {
	Proxy      string        `yaml:"proxy" validate:"omitempty,url_format"`
	Remote     string        `yaml:"remote" default:"localhost:9222" validate:"required,hostname_port"`
	MaxRetries int           `yaml:"max_retries" default:"0" validate:"gte=0,lte=10"`
	Timeout    time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
	Debug      bool          `yaml:"debug"`
}

type HostnamePortValidatorConfig struct {
	HostPort string `validate:"hostname_port"`
}

type URLValidatorConfig struct {
	URL string `validate:"url_format"`
}

// Tests for ApplyDefaults

func TestApplyDefaults_BasicTypes(t *testing.T) {
	config := BasicConfig{}

	err := ApplyDefaults(&config)
	if err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}

	if config.UserAgent != "netflow" {
		t.Errorf("Expected UserAgent='netflow', got '%s'", config.UserAgent)
	}
	if config.Redirects != 10 {
		t.Errorf("Expected Redirects=10, got %d", config.Redirects)
	}
	if !config.Headless {
		t.Errorf("Expected Headless=true, got false")
	}
}

func TestApplyDefaults_Durations(t *testing.T) {
	config := DurationConfig{}

	err := ApplyDefaults(&config)
	if err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}

	if config.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout=30s, got %v", config.Timeout)
	}
	if config.Navigation != time.Minute {
		t.Errorf("Expected Navigation=1m, got %v", config.Navigation)
	}
	if config.LoadDelay != 500*time.Millisecond {
		t.Errorf("Expected LoadDelay=500ms, got %v", config.LoadDelay)
	}
}

func TestApplyDefaults_NonZeroValuesUnchanged(t *testing.T) {
	config := BasicConfig{
		UserAgent: "custom",
		Redirects: 3,
		Headless:  false,
	}

	err := ApplyDefaults(&config)
	if err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}

	if config.UserAgent != "custom" {
		t.Errorf("Expected UserAgent='custom', got '%s'", config.UserAgent)
	}
	if config.Redirects != 3 {
		t.Errorf("Expected Redirects=3, got %d", config.Redirects)
	}
	// false is the zero value for bool, so the default wins
	if !config.Headless {
		t.Errorf("Expected bool default to override zero value")
	}
}

func TestApplyDefaults_NilConfig(t *testing.T) {
	err := ApplyDefaults(nil)
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

// Tests for ValidateStruct

func TestValidateStruct_RequiredField(t *testing.T) {
	if err := ValidateStruct(RequiredFieldConfig{Required: "value"}); err != nil {
		t.Errorf("ValidateStruct failed for valid config: %v", err)
	}

	err := ValidateStruct(RequiredFieldConfig{})
	if err == nil {
		t.Fatal("Expected validation error for missing required field, got nil")
	}
	if !strings.Contains(err.Error(), "RequiredFieldConfig.Required") {
		t.Errorf("Expected error to name the field namespace, got: %v", err)
	}
}

func TestValidateStruct_NumericRange(t *testing.T) {
	tests := []struct {
		name      string
		retries   int
		shouldErr bool
	}{
		{"valid minimum", 0, false},
		{"valid middle", 3, false},
		{"valid maximum", 10, false},
		{"invalid too low", -1, true},
		{"invalid too high", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(RetryValidationConfig{Retries: tt.retries})
			if tt.shouldErr && err == nil {
				t.Errorf("Expected validation error for retries %d, got nil", tt.retries)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("Expected no error for retries %d, got: %v", tt.retries, err)
			}
		})
	}
}

func TestValidateStruct_OneOf(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := ValidateStruct(LevelValidationConfig{Level: level}); err != nil {
			t.Errorf("Expected no error for level '%s', got: %v", level, err)
		}
	}

	if err := ValidateStruct(LevelValidationConfig{Level: "invalid"}); err == nil {
		t.Error("Expected validation error for invalid level, got nil")
	}
}

func TestValidateStruct_NilConfig(t *testing.T) {
	if err := ValidateStruct(nil); err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

// Tests for custom validators

func TestCustomValidator_HostnamePort(t *testing.T) {
	tests := []struct {
		name      string
		hostPort  string
		shouldErr bool
	}{
		{"valid localhost", "localhost:4317", false},
		{"valid IP", "192.168.1.1:8080", false},
		{"valid hostname", "collector.example.com:4317", false},
		{"valid IPv6", "[::1]:8080", false},
		{"invalid no port", "localhost", true},
		{"invalid no host", ":8080", true},
		{"invalid format", "localhost:port", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(HostnamePortValidatorConfig{HostPort: tt.hostPort})
			if tt.shouldErr && err == nil {
				t.Errorf("Expected validation error for '%s', got nil", tt.hostPort)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("Expected no error for '%s', got: %v", tt.hostPort, err)
			}
		})
	}
}

func TestCustomValidator_URLFormat(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		shouldErr bool
	}{
		{"valid HTTP", "http://example.com", false},
		{"valid HTTPS", "https://example.com/path", false},
		{"valid with port", "http://proxy.local:3128", false},
		{"valid websocket", "ws://127.0.0.1:9222/devtools/browser/abc", false},
		{"invalid no scheme", "example.com", true},
		{"invalid no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(URLValidatorConfig{URL: tt.url})
			if tt.shouldErr && err == nil {
				t.Errorf("Expected validation error for '%s', got nil", tt.url)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("Expected no error for '%s', got: %v", tt.url, err)
			}
		})
	}
}

func TestRegisterCustomValidator(t *testing.T) {
	type csrfConfig struct {
		Token string `validate:"csrf_token"`
	}

	err := RegisterCustomValidator("csrf_token", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "token-")
	})
	if err != nil {
		t.Fatalf("RegisterCustomValidator failed: %v", err)
	}

	if err := ValidateStruct(csrfConfig{Token: "token-123"}); err != nil {
		t.Errorf("Expected custom rule to accept token, got: %v", err)
	}
	if err := ValidateStruct(csrfConfig{Token: "abc"}); err == nil {
		t.Error("Expected custom rule to reject token")
	}
}

// Tests for InitializeConfig

func TestInitializeConfig_Defaults(t *testing.T) {
	config := AccessorConfig{}

	if err := InitializeConfig(&config, nil); err != nil {
		t.Fatalf("InitializeConfig failed: %v", err)
	}

	if config.Remote != "localhost:9222" {
		t.Errorf("Expected Remote='localhost:9222', got '%s'", config.Remote)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout=30s, got %v", config.Timeout)
	}
}

func TestInitializeConfig_RawValues(t *testing.T) {
	config := AccessorConfig{}

	err := InitializeConfig(&config, map[string]any{
		"proxy":       "http://proxy.local:3128",
		"max_retries": "2",
		"timeout":     "5s",
		"debug":       "true",
	})
	if err != nil {
		t.Fatalf("InitializeConfig failed: %v", err)
	}

	if config.Proxy != "http://proxy.local:3128" {
		t.Errorf("Expected Proxy from raw values, got '%s'", config.Proxy)
	}
	if config.MaxRetries != 2 {
		t.Errorf("Expected MaxRetries=2, got %d", config.MaxRetries)
	}
	if config.Timeout != 5*time.Second {
		t.Errorf("Expected Timeout=5s, got %v", config.Timeout)
	}
	if !config.Debug {
		t.Error("Expected Debug=true from string value")
	}
	// untouched fields keep their defaults
	if config.Remote != "localhost:9222" {
		t.Errorf("Expected default Remote, got '%s'", config.Remote)
	}
}

func TestInitializeConfig_ValidationFailsAfterValues(t *testing.T) {
	config := AccessorConfig{}

	err := InitializeConfig(&config, map[string]any{
		"proxy":       "not a url",
		"max_retries": 50,
	})
	if err == nil {
		t.Fatal("Expected InitializeConfig to fail validation, got nil")
	}

	if !strings.Contains(err.Error(), "validation") {
		t.Errorf("Expected error to mention 'validation', got: %v", err)
	}
}

func TestInitializeConfig_BadValue(t *testing.T) {
	config := AccessorConfig{}

	if err := InitializeConfig(&config, map[string]any{"timeout": "soon"}); err == nil {
		t.Error("Expected error for unparsable duration, got nil")
	}
}

// Benchmark tests

func BenchmarkApplyDefaults(b *testing.B) {
	for i := 0; i < b.N; i++ {
		config := AccessorConfig{}
		ApplyDefaults(&config)
	}
}

func BenchmarkInitializeConfig(b *testing.B) {
	raw := map[string]any{"timeout": "5s", "max_retries": 1}
	for i := 0; i < b.N; i++ {
		config := AccessorConfig{}
		InitializeConfig(&config, raw)
	}
}
