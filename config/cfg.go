package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"stylec/sheet"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	SheetConfig struct {
		Named             bool   `yaml:"named"`
		ClassNameTemplate string `yaml:"class_name_template" validate:"required"`
		Verify            bool   `yaml:"verify"`
		Strict            bool   `yaml:"strict"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Sheet     SheetConfig    `yaml:"sheet"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// classNameTemplateField is yaml name of SheetConfig.ClassNameTemplate. Class
// names are rendered per rule, the template is kept verbatim while
// configuration template is expanded.
const classNameTemplateField = "class_name_template"

func expandOptions(extra ...func(*gencfg.ProcessingOptions)) []func(*gencfg.ProcessingOptions) {
	return append([]func(*gencfg.ProcessingOptions){gencfg.WithDoNotExpandField(classNameTemplateField)}, extra...)
}

// checkClassNameTemplate makes sure class name template could be used to
// name rules.
func checkClassNameTemplate(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if _, err := sheet.ParseClassNameTemplate(cfg.Sheet.ClassNameTemplate); err != nil {
		sl.ReportError(cfg.Sheet.ClassNameTemplate, "ClassNameTemplate", classNameTemplateField, "class_template", err.Error())
	}
}

// unmarshalConfig decodes data over cfg rejecting unknown keys. When process
// is set the result is sanitized and validated.
func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !process {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, err
	}
	if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkClassNameTemplate)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfiguration expands built-in configuration template into defaults,
// puts values from the file at path (if any) on top of them and validates
// the result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	defaults, err := gencfg.Process(ConfigTmpl, expandOptions(options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if len(path) == 0 {
		cfg, err := unmarshalConfig(defaults, &Config{}, true)
		if err != nil {
			return nil, fmt.Errorf("failed to process configuration template: %w", err)
		}
		return cfg, nil
	}

	cfg, err := unmarshalConfig(defaults, &Config{}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = unmarshalConfig(data, cfg, true); err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns expanded configuration template, which is also the
// default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, expandOptions()...)
}

// Dump returns cfg as yaml.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// ClassNamer returns class namer configured for sheets.
func (conf *SheetConfig) ClassNamer() (sheet.ClassNamer, error) {
	return sheet.TemplateClassNamer(conf.ClassNameTemplate)
}
