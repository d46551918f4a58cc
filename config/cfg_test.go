package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"stylec/sheet"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if !cfg.Sheet.Named {
		t.Error("sheets must be named by default")
	}
	if cfg.Sheet.ClassNameTemplate != sheet.DefaultClassNameTemplate {
		t.Errorf("ClassNameTemplate = %q, want %q", cfg.Sheet.ClassNameTemplate, sheet.DefaultClassNameTemplate)
	}
	if cfg.Sheet.Verify || cfg.Sheet.Strict {
		t.Error("verify and strict must be off by default")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	logDest := filepath.Join(t.TempDir(), "test.log")
	path := writeConfig(t, `version: 1
sheet:
  named: false
  class_name_template: "{{ .Name }}_{{ .Index }}"
  verify: true
  strict: true
logging:
  console:
    level: normal
  file:
    level: debug
    destination: `+logDest+`
    mode: append
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Sheet.Named || !cfg.Sheet.Verify || !cfg.Sheet.Strict {
		t.Errorf("Sheet = %+v", cfg.Sheet)
	}
	if cfg.Sheet.ClassNameTemplate != "{{ .Name }}_{{ .Index }}" {
		t.Errorf("ClassNameTemplate = %q", cfg.Sheet.ClassNameTemplate)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("FileLogger.Mode = %q", cfg.Logging.FileLogger.Mode)
	}
	// defaults are kept for sections not mentioned
	if len(cfg.Reporting.Destination) == 0 {
		t.Error("Reporting.Destination lost default value")
	}

	namer, err := cfg.Sheet.ClassNamer()
	if err != nil {
		t.Fatalf("ClassNamer() error = %v", err)
	}
	if got, err := namer(sheet.ClassData{Name: "a", Index: 3}); err != nil || got != "a_3" {
		t.Errorf("namer() = %q, %v", got, err)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nsheet:\n  named: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"wrong version", "version: 2\n"},
		{"broken class template", "version: 1\nsheet:\n  class_name_template: \"{{ .Name \"\n"},
		{"empty class template", "version: 1\nsheet:\n  class_name_template: \"\"\n"},
		{"bad log level", "version: 1\nlogging:\n  console:\n    level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfiguration_ClassTemplateNotExpanded(t *testing.T) {
	path := writeConfig(t, "version: 1\nsheet:\n  class_name_template: \"{{ .Name | upper }}\"\n")
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !strings.Contains(cfg.Sheet.ClassNameTemplate, "{{") {
		t.Errorf("class name template was expanded: %q", cfg.Sheet.ClassNameTemplate)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Prepared config is not valid: %v", err)
	}
	if cfg.Sheet.ClassNameTemplate != sheet.DefaultClassNameTemplate {
		t.Errorf("prepared configuration changed class name template: %q", cfg.Sheet.ClassNameTemplate)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Sheet.Strict = true

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	cfg2, err := unmarshalConfig(data, &Config{}, true)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Sheet != cfg.Sheet {
		t.Errorf("Sheet after dump/load = %+v, want %+v", cfg2.Sheet, cfg.Sheet)
	}
}

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"styles.css", "styles.css"},
		{"a" + string(os.PathSeparator) + "b", "ab"},
		{"", badFileName},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
