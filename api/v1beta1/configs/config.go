// Package configs provides the Configuration type read from .ruletokens.yaml.
package configs

import (
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/ruletokens/api"
	"github.com/macropower/ruletokens/api/v1beta1"
	"github.com/macropower/ruletokens/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -o configs.v1beta1.json

const (
	Kind = "Configuration"

	DefaultRulesDir  = ".cursor/rules"
	DefaultExtension = ".mdc"
	DefaultModel     = "gpt-4"
	DefaultOutput    = "text"
)

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	// FileNames are the config file names searched for, in order.
	FileNames = []string{".ruletokens.yaml", ".ruletokens.yml"}

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{Kind}

	// DefaultValidator validates configuration against the JSON schema
	// reflected from [Config].
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", mustSchema())

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config holds the settings a project can pin for ruletokens. Command-line
// flags and environment variables take precedence over these values.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	v1beta1.TypeMeta `json:",inline"`

	// RulesDir is the directory holding the rule documents.
	RulesDir string `json:"rulesDir,omitempty" jsonschema:"title=Rules Directory"`
	// Extension selects which files in RulesDir are rule documents.
	Extension string `json:"extension,omitempty" jsonschema:"title=Extension,pattern=^\\.[A-Za-z0-9._-]+$"`
	// Model picks the tiktoken encoding by model name.
	Model string `json:"model,omitempty" jsonschema:"title=Model"`
	// Encoding names a tiktoken encoding directly and overrides Model.
	Encoding string `json:"encoding,omitempty" jsonschema:"title=Encoding"`
	// CacheDir is where tiktoken BPE ranks are cached.
	CacheDir string `json:"cacheDir,omitempty" jsonschema:"title=Cache Directory"`
	// Match is a CEL expression selecting which documents to count.
	Match string `json:"match,omitempty" jsonschema:"title=Match Expression"`
	// Output is the report format.
	Output string `json:"output,omitempty" jsonschema:"title=Output,enum=text,enum=json,enum=yaml"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills empty fields with their default values.
func (c *Config) EnsureDefaults() {
	if c.RulesDir == "" {
		c.RulesDir = DefaultRulesDir
	}

	if c.Extension == "" {
		c.Extension = DefaultExtension
	}

	if c.Model == "" && c.Encoding == "" {
		c.Model = DefaultModel
	}

	if c.Output == "" {
		c.Output = DefaultOutput
	}
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// Schema returns the JSON schema for [Config].
func Schema() ([]byte, error) {
	b, err := yaml.NewSchemaGenerator(&Config{}).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate config schema: %w", err)
	}

	return b, nil
}

// WriteDefault writes the default configuration to path. It returns false
// when a file already existed and force was not set.
func WriteDefault(path string, force bool) (bool, error) {
	wrote, err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}

	return wrote, nil
}

func mustSchema() []byte {
	b, err := Schema()
	if err != nil {
		panic(err)
	}

	return b
}
