// Package config loads run settings and application connection strings.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/toyz/serupd/internal/annotations"
	"github.com/toyz/serupd/internal/engine"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/parser"
	"github.com/toyz/serupd/internal/utils"
)

// EnvPrefix prefixes every environment variable read by the tool
const EnvPrefix = "SERUPD"

// Settings holds every run option. Values come from defaults, an optional
// serupd.yaml, SERUPD_* environment variables and command line flags, in
// increasing precedence.
type Settings struct {
	Backend         string        `mapstructure:"backend"`
	Placement       string        `mapstructure:"placement"`
	Order           string        `mapstructure:"order"`
	ClassAttributes bool          `mapstructure:"class_attributes"`
	DryRun          bool          `mapstructure:"dry_run"`
	Jobs            int           `mapstructure:"jobs"`
	Pattern         string        `mapstructure:"pattern"`
	Exclude         []string      `mapstructure:"exclude"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Report          string        `mapstructure:"report"`

	Naming Naming `mapstructure:"naming"`
}

// Naming holds the conventions the engine matches against
type Naming struct {
	RowSuffix               string `mapstructure:"row_suffix"`
	FieldsBaseSuffix        string `mapstructure:"fields_base_suffix"`
	FallbackExclude         string `mapstructure:"fallback_exclude"`
	KeyAnnotation           string `mapstructure:"key_annotation"`
	DisplayAnnotation       string `mapstructure:"display_annotation"`
	ConnectionKeyAnnotation string `mapstructure:"connection_key_annotation"`
	TableNameAnnotation     string `mapstructure:"table_name_annotation"`
	AuditInterface          string `mapstructure:"audit_interface"`
	SupportNamespace        string `mapstructure:"support_namespace"`
	ReadSuffix              string `mapstructure:"read_suffix"`
	ModifySuffix            string `mapstructure:"modify_suffix"`
	LookupSuffix            string `mapstructure:"lookup_suffix"`
}

// NewViper returns a viper instance with every default registered and the
// environment bound.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every setting
func SetDefaults(v *viper.Viper) {
	d := engine.DefaultOptions()

	v.SetDefault("backend", parser.BackendTree)
	v.SetDefault("placement", d.Placement.String())
	v.SetDefault("order", d.Order.String())
	v.SetDefault("class_attributes", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("jobs", 4)
	v.SetDefault("pattern", "*Row.cs")
	v.SetDefault("exclude", []string{"LoggingRow"})
	v.SetDefault("query_timeout", 30*time.Second)
	v.SetDefault("report", "")

	v.SetDefault("naming.row_suffix", d.RowSuffix)
	v.SetDefault("naming.fields_base_suffix", d.FieldsBaseSuffix)
	v.SetDefault("naming.fallback_exclude", d.FallbackExclude)
	v.SetDefault("naming.key_annotation", d.KeyAnnotation)
	v.SetDefault("naming.display_annotation", d.DisplayAnnotation)
	v.SetDefault("naming.connection_key_annotation", d.ConnectionKeyAnnotation)
	v.SetDefault("naming.table_name_annotation", d.TableNameAnnotation)
	v.SetDefault("naming.audit_interface", d.AuditInterface)
	v.SetDefault("naming.support_namespace", d.SupportNamespace)
	v.SetDefault("naming.read_suffix", d.ReadSuffix)
	v.SetDefault("naming.modify_suffix", d.ModifySuffix)
	v.SetDefault("naming.lookup_suffix", d.LookupSuffix)
}

// Load reads configFile (when not empty) into v and decodes the result.
// A missing serupd.yaml in the working directory is not an error; a
// missing explicit file is.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("serupd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configFile != "" {
			return nil, errors.WrapConfigurationError("settings", "read config file", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.WrapConfigurationError("settings", "decode", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the enumerated settings and the naming conventions
func (s *Settings) Validate() error {
	if _, err := parser.NewBackend(s.Backend); err != nil {
		return errors.WrapConfigurationError("settings", "backend", err)
	}
	if _, err := engine.ParsePlacement(s.Placement); err != nil {
		return errors.WrapConfigurationError("settings", "placement", err)
	}
	if _, err := annotations.ParseOrderPolicy(s.Order); err != nil {
		return errors.WrapConfigurationError("settings", "order", err)
	}
	if err := utils.AtLeast("jobs", 1)(s.Jobs); err != nil {
		return errors.WrapConfigurationError("settings", "jobs", err)
	}
	if s.QueryTimeout < 0 {
		return errors.ConfigurationError("settings", "query_timeout must not be negative")
	}
	if err := utils.NewValidatorChain(utils.NotBlank("pattern")).Validate(s.Pattern); err != nil {
		return errors.WrapConfigurationError("settings", "pattern", err)
	}
	return s.Naming.validate()
}

// validate checks the names that end up in generated C#. Empty values are
// allowed and fall back to the engine defaults.
func (n Naming) validate() error {
	identifiers := map[string]string{
		"naming.row_suffix":                n.RowSuffix,
		"naming.fields_base_suffix":        n.FieldsBaseSuffix,
		"naming.key_annotation":            n.KeyAnnotation,
		"naming.display_annotation":        n.DisplayAnnotation,
		"naming.connection_key_annotation": n.ConnectionKeyAnnotation,
		"naming.table_name_annotation":     n.TableNameAnnotation,
		"naming.audit_interface":           n.AuditInterface,
	}
	for _, field := range utils.SortedMapKeys(identifiers) {
		value := identifiers[field]
		if value == "" {
			continue
		}
		if err := utils.IsIdentifier(field)(value); err != nil {
			return errors.WrapConfigurationError("settings", field, err)
		}
	}
	if n.SupportNamespace != "" {
		if err := utils.IsQualifiedName("naming.support_namespace")(n.SupportNamespace); err != nil {
			return errors.WrapConfigurationError("settings", "naming.support_namespace", err)
		}
	}
	return nil
}

// EngineOptions converts the settings to engine options
func (s *Settings) EngineOptions() (engine.Options, error) {
	placement, err := engine.ParsePlacement(s.Placement)
	if err != nil {
		return engine.Options{}, errors.WrapConfigurationError("settings", "placement", err)
	}
	order, err := annotations.ParseOrderPolicy(s.Order)
	if err != nil {
		return engine.Options{}, errors.WrapConfigurationError("settings", "order", err)
	}

	n := s.Naming
	return engine.Options{
		RowSuffix:               n.RowSuffix,
		FieldsBaseSuffix:        n.FieldsBaseSuffix,
		FallbackExclude:         n.FallbackExclude,
		KeyAnnotation:           n.KeyAnnotation,
		DisplayAnnotation:       n.DisplayAnnotation,
		ConnectionKeyAnnotation: n.ConnectionKeyAnnotation,
		TableNameAnnotation:     n.TableNameAnnotation,
		AuditInterface:          n.AuditInterface,
		SupportNamespace:        n.SupportNamespace,
		ReadSuffix:              n.ReadSuffix,
		ModifySuffix:            n.ModifySuffix,
		LookupSuffix:            n.LookupSuffix,
		Placement:               placement,
		Order:                   order,
	}, nil
}
