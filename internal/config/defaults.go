package config

import "github.com/spf13/viper"

// Configuration keys. They double as TOML keys and, upper-cased with the
// IDLBIND_ prefix, as environment variables.
const (
	KeyOutputDirectory = "output_directory"
	KeyNamespacePrefix = "namespace_prefix"
	KeyUseCollections  = "use_collection_for_sequences"
	KeyDisableCodec    = "disable_codec_generation"
	KeyCompactForm     = "generate_compact_declaration_form"
	KeyManifest        = "manifest"
	KeyLogLevel        = "log_level"
	KeyLogJSON         = "log_json"
)

// FileName is the project configuration file searched for upward from the
// working directory.
const FileName = "idlbind.toml"

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "IDLBIND"

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputDirectory, ".")
	v.SetDefault(KeyNamespacePrefix, "")
	v.SetDefault(KeyUseCollections, true)
	v.SetDefault(KeyDisableCodec, false)
	v.SetDefault(KeyCompactForm, false)
	v.SetDefault(KeyManifest, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogJSON, false)
}
