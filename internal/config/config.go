// Package config loads idlbind settings with viper.
//
// Sources, lowest precedence first: defaults, the idlbind.toml file (given
// explicitly or found by searching upward from the working directory),
// IDLBIND_* environment variables, and command-line flags. The loaded Config
// is passed explicitly to the generator; nothing here is process-global.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
)

// Config is the resolved configuration of one invocation.
type Config struct {
	OutputDirectory                string `mapstructure:"output_directory" json:"output_directory"`
	NamespacePrefix                string `mapstructure:"namespace_prefix" json:"namespace_prefix"`
	UseCollectionForSequences      bool   `mapstructure:"use_collection_for_sequences" json:"use_collection_for_sequences"`
	DisableCodecGeneration         bool   `mapstructure:"disable_codec_generation" json:"disable_codec_generation"`
	GenerateCompactDeclarationForm bool   `mapstructure:"generate_compact_declaration_form" json:"generate_compact_declaration_form"`
	Manifest                       string `mapstructure:"manifest" json:"manifest"`
	LogLevel                       string `mapstructure:"log_level" json:"log_level"`
	LogJSON                        bool   `mapstructure:"log_json" json:"log_json"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-" json:"file,omitempty"`
}

// EmitOptions returns the emitter settings.
func (c *Config) EmitOptions() emit.Options {
	return emit.Options{
		NamespacePrefix: strings.Trim(c.NamespacePrefix, "."),
		UseArrays:       !c.UseCollectionForSequences,
		DisableCodec:    c.DisableCodecGeneration,
		Compact:         c.GenerateCompactDeclarationForm,
	}
}

// Loader builds a Config from its sources.
type Loader struct {
	v    *viper.Viper
	file string
}

// NewLoader prepares a loader. file names an explicit configuration file; when
// empty, FileName is searched for upward from dir (the working directory if
// dir is empty). An explicit file that does not exist is an error; a missing
// searched file is not.
func NewLoader(file, dir string) (*Loader, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if file == "" {
		file = FindProjectConfig(dir)
	} else if _, err := os.Stat(file); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrNotFound, "config file %s", file),
			"check the --config path")
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "reading config file "+file+": "+err.Error())
		}
	}
	return &Loader{v: v, file: file}, nil
}

// BindFlags makes the named flags override their keys when set on the
// command line. keys maps configuration keys to flag names; flags missing from
// fs are ignored.
func (l *Loader) BindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding flag --%s", name)
		}
	}
	return nil
}

// Set overrides a key with the highest precedence. Used for flags whose
// meaning is inverted relative to the key, such as --arrays.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// Load resolves every source into a Config and validates it.
func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	cfg.File = l.file
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks values that would otherwise fail later in the run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OutputDirectory) == "" {
		return errors.WithHint(
			errors.NewInvalidInputf("%s must not be empty", KeyOutputDirectory),
			"use \".\" for the current directory")
	}
	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range logLevels {
		if l == level {
			valid = true
		}
	}
	if !valid {
		return errors.WithHintf(
			errors.NewInvalidInputf("%s %q", KeyLogLevel, c.LogLevel),
			"use one of %s", strings.Join(logLevels, ", "))
	}
	for _, part := range strings.Split(strings.Trim(c.NamespacePrefix, "."), ".") {
		if strings.ContainsAny(part, " /\\") {
			return errors.NewInvalidInputf("%s %q is not a dotted package name", KeyNamespacePrefix, c.NamespacePrefix)
		}
	}
	return nil
}

// FindProjectConfig searches for FileName by walking up from dir. Returns the
// path to the first file found, or "" when none exists.
func FindProjectConfig(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
