package config

import (
	"fmt"
	"strings"

	"github.com/atikulmunna/logformat/internal/render"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g. LOGFORMAT_INDENT.
const EnvPrefix = "LOGFORMAT"

// Config holds all logformat settings after flags, environment and config
// file have been merged.
type Config struct {
	Output      string      // "text" or "json"
	Mode        render.Mode // entity rendering
	Indent      int
	Field       string // JSON field holding the message
	EntitiesKey string // JSON field receiving rendered entities
	LogLevel    string
	Checkpoint  string // watch offsets file
	DB          string // SQLite path, empty disables the store
	Serve       string // HTTP port, empty disables the server
	NoColor     bool
}

// SetDefaults registers default values and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", "text")
	v.SetDefault("mode", string(render.ModeJSON))
	v.SetDefault("indent", 2)
	v.SetDefault("field", "message")
	v.SetDefault("entities-key", "log_entities")
	v.SetDefault("log-level", "info")
	v.SetDefault("checkpoint", ".logformat-state.json")
	v.SetDefault("db", "")
	v.SetDefault("serve", "")
	v.SetDefault("no-color", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Output:      strings.ToLower(strings.TrimSpace(v.GetString("output"))),
		Indent:      v.GetInt("indent"),
		Field:       v.GetString("field"),
		EntitiesKey: v.GetString("entities-key"),
		LogLevel:    v.GetString("log-level"),
		Checkpoint:  v.GetString("checkpoint"),
		DB:          v.GetString("db"),
		Serve:       v.GetString("serve"),
		NoColor:     v.GetBool("no-color"),
	}

	if cfg.Output != "text" && cfg.Output != "json" {
		return Config{}, fmt.Errorf("invalid output %q (want text or json)", cfg.Output)
	}
	mode, err := render.ParseMode(v.GetString("mode"))
	if err != nil {
		return Config{}, err
	}
	cfg.Mode = mode
	if cfg.Indent < 0 {
		return Config{}, fmt.Errorf("invalid indent %d (must be >= 0)", cfg.Indent)
	}
	if cfg.Field == "" {
		return Config{}, fmt.Errorf("field must not be empty")
	}
	if cfg.EntitiesKey == "" {
		return Config{}, fmt.Errorf("entities-key must not be empty")
	}
	if cfg.EntitiesKey == cfg.Field {
		return Config{}, fmt.Errorf("entities-key %q must differ from field", cfg.EntitiesKey)
	}
	return cfg, nil
}
