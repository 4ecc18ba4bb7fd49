package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the effective daemon configuration, merged from defaults, the
// optional YAML config file, environment variables and CLI flags.
type Config struct {
	BindAddress string `mapstructure:"bind-address" yaml:"bind-address" validate:"required"`
	Port        int    `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`
	ListenAddr  string `mapstructure:"-" yaml:"-"`

	LogLevel string `mapstructure:"log-level" yaml:"log-level" validate:"oneof=debug info warn error"`
	LogFile  string `mapstructure:"log-file" yaml:"log-file"`

	// Upstream is the backend application this daemon fronts.
	Upstream string `mapstructure:"upstream" yaml:"upstream" validate:"required,url"`
	// PrefixHeader carries the mount prefix set by the ingress proxy.
	PrefixHeader string `mapstructure:"prefix-header" yaml:"prefix-header" validate:"required"`

	StatsFile string `mapstructure:"stats-file" yaml:"stats-file"`

	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Rewrite RewriteConfig `mapstructure:"rewrite" yaml:"rewrite"`
}

type APIConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
	Secret  string `mapstructure:"secret" yaml:"secret"`
}

// RewriteConfig exposes the rewrite vocabulary as configuration. The
// defaults match the fronted application; deployments fronting something
// else override them instead of patching code.
type RewriteConfig struct {
	Attributes        []string `mapstructure:"attributes" yaml:"attributes" validate:"min=1"`
	PathPrefixes      []string `mapstructure:"path-prefixes" yaml:"path-prefixes" validate:"min=1"`
	JSONFields        []string `mapstructure:"json-fields" yaml:"json-fields" validate:"min=1"`
	InjectBaseTag     bool     `mapstructure:"inject-base-tag" yaml:"inject-base-tag"`
	InjectClientPatch bool     `mapstructure:"inject-client-patch" yaml:"inject-client-patch"`
}

// SetDefaults installs the default values into viper. Called from command
// initialization and from tests.
func SetDefaults() {
	viper.SetDefault("bind-address", "0.0.0.0")
	viper.SetDefault("port", 8099)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-file", "")
	viper.SetDefault("upstream", "http://127.0.0.1:8088")
	viper.SetDefault("prefix-header", "X-Ingress-Path")
	viper.SetDefault("stats-file", "")
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.address", "127.0.0.1:8098")
	viper.SetDefault("rewrite.attributes", []string{"href", "src", "action", "data-src", "poster"})
	viper.SetDefault("rewrite.path-prefixes", []string{
		"static", "api", "superset", "login", "logout", "dashboard",
		"chart", "explore", "sqllab", "tablemodelview", "databaseview",
		"savedqueryview", "favicon", "assets", "users", "roles",
		"csstemplatemodelview", "annotationlayermodelview", "welcome",
	})
	viper.SetDefault("rewrite.json-fields", []string{"url", "path", "href", "src", "redirect", "next", "location"})
	viper.SetDefault("rewrite.inject-base-tag", true)
	viper.SetDefault("rewrite.inject-client-patch", true)
}

// BuildConfigFromViper decodes and validates the merged viper state.
func BuildConfigFromViper() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.ListenAddr = fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("Log Level", c.LogLevel),
		slog.String("Listen Address", c.ListenAddr),
		slog.String("Upstream", c.Upstream),
		slog.String("Prefix Header", c.PrefixHeader),
		slog.Bool("API Enabled", c.API.Enabled),
		slog.String("Rewrite Attributes", strings.Join(c.Rewrite.Attributes, ",")),
		slog.Bool("Inject Base Tag", c.Rewrite.InjectBaseTag),
		slog.Bool("Inject Client Patch", c.Rewrite.InjectClientPatch),
	)
}
