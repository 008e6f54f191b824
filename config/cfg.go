package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	TableConfig struct {
		DefaultRows        int     `yaml:"default_rows" validate:"min=1"`
		DefaultColumns     int     `yaml:"default_columns" validate:"min=1"`
		MinColumnWidth     float64 `yaml:"min_column_width" validate:"gt=0"`
		DefaultColumnWidth float64 `yaml:"default_column_width" validate:"gtefield=MinColumnWidth"`
		HandleWidth        float64 `yaml:"handle_width" validate:"gt=0"`
		IndicatorWidth     float64 `yaml:"indicator_width" validate:"gt=0"`
	}

	ToolbarConfig struct {
		Offset         float64       `yaml:"offset" validate:"gte=0"`
		RequiredClass  string        `yaml:"required_class"`
		ScrollInterval time.Duration `yaml:"scroll_interval" validate:"gt=0"`
	}

	ImagesConfig struct {
		PreviewMaxSize int           `yaml:"preview_max_size" validate:"min=16"`
		PreviewFormat  PreviewFormat `yaml:"preview_format"`
		JPEGQuality    int           `yaml:"jpeq_quality_level" validate:"min=40,max=100"`
	}

	SuggestionConfig struct {
		Title        string         `yaml:"title" validate:"required"`
		Description  string         `yaml:"description"`
		IconName     string         `yaml:"icon"`
		BlockType    string         `yaml:"block_type" validate:"required,oneof=paragraph heading list image quote code table divider"`
		BlockOptions map[string]any `yaml:"block_options,omitempty"`
	}

	EditorConfig struct {
		OutputNameTemplate string                    `yaml:"output_name_template"`
		DocumentTitle      string                    `yaml:"document_title"`
		Defaults           map[string]map[string]any `yaml:"defaults"`
		Table              TableConfig               `yaml:"table"`
		Toolbar            ToolbarConfig             `yaml:"toolbar"`
		Images             ImagesConfig              `yaml:"images"`
		Palette            []SuggestionConfig        `yaml:"palette" validate:"dive"`
	}

	StoreConfig struct {
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Editor    EditorConfig   `yaml:"editor"`
		Store     StoreConfig    `yaml:"store"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, template is expanded by
	// export when output file name is known
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

// expansion options every template processing needs: output name template
// is expanded later, per exported document.
func templateOptions(extra ...func(*gencfg.ProcessingOptions)) []func(*gencfg.ProcessingOptions) {
	return append([]func(*gencfg.ProcessingOptions){
		gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	}, extra...)
}

// decodeInto applies YAML document on top of cfg. Unknown keys are errors,
// so typos in user configuration do not go unnoticed.
func decodeInto(cfg *Config, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("unable to decode configuration: %w", err)
	}
	return nil
}

func check(cfg *Config) error {
	if err := gencfg.Sanitize(cfg); err != nil {
		return fmt.Errorf("unable to sanitize configuration: %w", err)
	}
	if err := gencfg.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfiguration expands embedded template to get defaults, applies
// configuration file (when path is not empty) over them and validates
// result.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	defaults, err := gencfg.Process(ConfigTmpl, templateOptions(options...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to expand configuration template: %w", err)
	}
	cfg := &Config{}
	if err := decodeInto(cfg, defaults); err != nil {
		return nil, fmt.Errorf("embedded template: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read configuration file: %w", err)
		}
		if err := decodeInto(cfg, data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare returns expanded embedded configuration template.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, templateOptions()...)
}

// Dump returns YAML of actual configuration values.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal configuration: %w", err)
	}
	return data, nil
}

// BlockDefaults returns document level default options for a block type,
// nil when none are configured.
func (conf *EditorConfig) BlockDefaults(blockType string) map[string]any {
	if conf == nil || conf.Defaults == nil {
		return nil
	}
	return conf.Defaults[blockType]
}
