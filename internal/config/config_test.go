package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `help:"Config file path"`

	StringField   string        `toml:"test.string_field" env:"SIDECAR_TEST_STRING"`
	BoolField     bool          `toml:"test.bool_field" env:"SIDECAR_TEST_BOOL"`
	IntField      int           `toml:"test.int_field" env:"SIDECAR_TEST_INT"`
	SliceField    []string      `toml:"test.slice_field" env:"SIDECAR_TEST_SLICE"`
	DurationField time.Duration `toml:"test.duration_field" env:"SIDECAR_TEST_DURATION"`

	NestedString string `toml:"nested.value" env:"SIDECAR_TEST_NESTED"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
slice_field = ["item1", "item2", "item3"]
duration_field = "750ms"

[nested]
value = "nested value"
`)

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "hello world" {
		t.Errorf("Expected StringField to be 'hello world', got '%s'", config.StringField)
	}
	if !config.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", config.BoolField)
	}
	if config.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", config.IntField)
	}
	expectedSlice := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}
	if config.DurationField != 750*time.Millisecond {
		t.Errorf("Expected DurationField to be 750ms, got %v", config.DurationField)
	}
	if config.NestedString != "nested value" {
		t.Errorf("Expected NestedString to be 'nested value', got '%s'", config.NestedString)
	}
}

func TestLoadConfigDurationSeconds(t *testing.T) {
	path := writeConfig(t, `
[test]
duration_field = 3
`)

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.DurationField != 3*time.Second {
		t.Errorf("Expected 3s, got %v", config.DurationField)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("SIDECAR_TEST_STRING", "env string")
	t.Setenv("SIDECAR_TEST_BOOL", "false")
	t.Setenv("SIDECAR_TEST_INT", "123")
	t.Setenv("SIDECAR_TEST_SLICE", "a,b,c")
	t.Setenv("SIDECAR_TEST_DURATION", "2s")
	t.Setenv("SIDECAR_TEST_NESTED", "env nested")

	config := &TestConfig{BoolField: true}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "env string" {
		t.Errorf("Expected StringField to be 'env string', got '%s'", config.StringField)
	}
	if config.BoolField {
		t.Errorf("Expected BoolField to be false, got %v", config.BoolField)
	}
	if config.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", config.IntField)
	}
	if !reflect.DeepEqual(config.SliceField, []string{"a", "b", "c"}) {
		t.Errorf("Expected SliceField to be [a b c], got %v", config.SliceField)
	}
	if config.DurationField != 2*time.Second {
		t.Errorf("Expected DurationField to be 2s, got %v", config.DurationField)
	}
	if config.NestedString != "env nested" {
		t.Errorf("Expected NestedString to be 'env nested', got '%s'", config.NestedString)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "toml value"
bool_field = true
int_field = 100
slice_field = ["toml1", "toml2"]
`)

	t.Setenv("SIDECAR_TEST_STRING", "env override")
	t.Setenv("SIDECAR_TEST_BOOL", "false")

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "env override" {
		t.Errorf("Expected StringField to be 'env override', got '%s'", config.StringField)
	}
	if config.BoolField {
		t.Errorf("Expected BoolField to be false (env override), got %v", config.BoolField)
	}
	if config.IntField != 100 {
		t.Errorf("Expected IntField to be 100 (from TOML), got %d", config.IntField)
	}
	if !reflect.DeepEqual(config.SliceField, []string{"toml1", "toml2"}) {
		t.Errorf("Expected SliceField to be [toml1 toml2] (from TOML), got %v", config.SliceField)
	}
}

func TestLoadConfigChangedFlagWins(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "toml value"
int_field = 7
`)
	t.Setenv("SIDECAR_TEST_STRING", "env value")

	config := &TestConfig{Config: path}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&config.StringField, "string-field", "", "")
	cmd.Flags().IntVar(&config.IntField, "int-field", 0, "")
	if err := cmd.Flags().Parse([]string{"--string-field=flag value"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if err := LoadConfig(config, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.StringField != "flag value" {
		t.Errorf("Expected flag value to win, got '%s'", config.StringField)
	}
	if config.IntField != 7 {
		t.Errorf("Expected unset flag to take TOML value 7, got %d", config.IntField)
	}
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	t.Setenv("SIDECAR_TEST_DURATION", "five seconds")

	err := LoadConfig(&TestConfig{}, nil)
	if err == nil {
		t.Fatal("Expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "SIDECAR_TEST_DURATION") {
		t.Errorf("Expected env name in error, got %v", err)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
		{"root.child", nil},
	}

	for _, test := range tests {
		result := getNestedValue(data, test.path)
		if result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":              "port",
		"LoggingLevel":      "logging-level",
		"FfmpegGracePeriod": "ffmpeg-grace-period",
		"TriggerURL":        "trigger-url",
		"URLPath":           "url-path",
		"URL":               "url",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{Config: filepath.Join(t.TempDir(), "nonexistent.toml")}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, `
[test
invalid toml syntax
`)

	if err := LoadConfig(&TestConfig{Config: path}, nil); err == nil {
		t.Error("Expected LoadConfig to fail with invalid TOML")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
supervisor = "debug"
ffmpeg = "error"
`)

	cfg := LoadLoggingConfig(path)

	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("Unexpected level/format: %q/%q", cfg.Level, cfg.Format)
	}
	want := map[string]string{"supervisor": "debug", "ffmpeg": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	def := LoadLoggingConfig("")
	if def.Level != "info" || def.Format != "text" || len(def.Modules) != 0 {
		t.Errorf("Unexpected default config: %+v", def)
	}
}

func TestDestinationWarning(t *testing.T) {
	tests := []struct {
		dest    string
		wantMsg bool
	}{
		{"rtmp://owncast:1935/live/key", false},
		{DefaultDestination, false},
		{"", true},
		{"http://owncast/live", true},
		{"RTMP://owncast/live", true},
	}
	for _, tt := range tests {
		msg := DestinationWarning(tt.dest)
		if (msg != "") != tt.wantMsg {
			t.Errorf("DestinationWarning(%q) = %q, wantMsg %v", tt.dest, msg, tt.wantMsg)
		}
		if tt.dest != "" && strings.Contains(msg, tt.dest) {
			t.Errorf("warning leaks destination: %q", msg)
		}
	}
}
