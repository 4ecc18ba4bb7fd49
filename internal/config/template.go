package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// GenerateTemplateConfig builds a fully populated example config and
// optionally writes it to config.yaml in the working directory.
func GenerateTemplateConfig(writeToFile bool) (Config, error) {
	cfg := Config{
		BindAddress: "0.0.0.0",
		Port:        8099,

		LogLevel: "info",
		LogFile:  "",

		Upstream:     "http://127.0.0.1:8088",
		PrefixHeader: "X-Ingress-Path",

		StatsFile: "",

		API: APIConfig{
			Enabled: false,
			Address: "127.0.0.1:8098",
			Secret:  "",
		},

		Rewrite: RewriteConfig{
			Attributes: []string{"href", "src", "action", "data-src", "poster"},
			PathPrefixes: []string{
				"static", "api", "superset", "login", "logout", "dashboard",
				"chart", "explore", "sqllab", "tablemodelview", "databaseview",
				"savedqueryview", "favicon", "assets", "users", "roles",
				"csstemplatemodelview", "annotationlayermodelview", "welcome",
			},
			JSONFields:        []string{"url", "path", "href", "src", "redirect", "next", "location"},
			InjectBaseTag:     true,
			InjectClientPatch: true,
		},
	}

	if writeToFile {
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to marshal template config to YAML: %w", err)
		}
		if err := os.WriteFile("config.yaml", data, 0644); err != nil {
			return Config{}, fmt.Errorf("failed to write template config to file: %w", err)
		}
	}
	return cfg, nil
}
