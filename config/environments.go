package config

import (
	"sort"
	"strings"
)

// Environment names
const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// Environment is one deployment of the API under test.
type Environment struct {
	Name    string
	BaseURL string
	// TokenVar names the variable holding this environment's auth token
	TokenVar string
}

var environments = map[string]Environment{
	EnvDev: {
		Name:     EnvDev,
		BaseURL:  "https://d3g8su2w1x0h24.cloudfront.net",
		TokenVar: "DEV_AUTH_TOKEN",
	},
	EnvStaging: {
		Name:     EnvStaging,
		BaseURL:  "https://staging-d3g8su2w1x0h24.cloudfront.net",
		TokenVar: "STAGING_AUTH_TOKEN",
	},
	EnvProd: {
		Name:     EnvProd,
		BaseURL:  "https://prod-d3g8su2w1x0h24.cloudfront.net",
		TokenVar: "PROD_AUTH_TOKEN",
	},
}

// LookupEnvironment returns the environment registered under name.
func LookupEnvironment(name string) (Environment, bool) {
	env, ok := environments[strings.ToLower(strings.TrimSpace(name))]
	return env, ok
}

// EnvironmentNames returns the known environment names in sorted order.
func EnvironmentNames() []string {
	names := make([]string, 0, len(environments))
	for name := range environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
