package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/gaborage/apitest/dispatch"
	"github.com/gaborage/apitest/observability"
)

const (
	// DefaultFile is the optional YAML file read from the working directory.
	DefaultFile = "apitest.yaml"

	// DefaultDotEnvFile is the optional dotenv file read from the working directory.
	DefaultDotEnvFile = ".env"

	// EnvPrefix marks environment variables that map onto config keys,
	// e.g. APITEST_DISPATCH_MAXATTEMPTS sets dispatch.maxattempts.
	EnvPrefix = "APITEST_"

	// Legacy unprefixed variables.
	legacyEnvironment = "ENVIRONMENT"
	legacyBaseURL     = "BASE_URL"
)

// Options controls where Load reads from. Zero values select the defaults.
type Options struct {
	File       string
	DotEnvFile string
	// Environ replaces os.Environ, mainly for tests.
	Environ func() []string
	// Env overrides every other environment selection (e.g. a -env flag).
	Env string
}

// Load loads configuration from multiple sources with priority:
// 1. Options.Env (highest priority)
// 2. APITEST_* variables from the process environment, then from .env
// 3. ENVIRONMENT, BASE_URL and <ENV>_AUTH_TOKEN
// 4. apitest.<env>.yaml, then apitest.yaml
// 5. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions is Load with explicit sources.
func LoadWithOptions(opts Options) (*Config, error) {
	if opts.File == "" {
		opts.File = DefaultFile
	}
	if opts.DotEnvFile == "" {
		opts.DotEnvFile = DefaultDotEnvFile
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}

	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := loadYAMLFile(k, opts.File); err != nil {
		return nil, err
	}

	dotenvVars, err := readDotEnv(opts.DotEnvFile)
	if err != nil {
		return nil, err
	}
	environ, vars := mergeEnviron(dotenvVars, opts.Environ())

	envName := selectEnvironment(k, vars, opts.Env)
	if err := loadYAMLFile(k, envFileName(opts.File, envName)); err != nil {
		return nil, err
	}

	legacy := map[string]any{"env": envName}
	if baseURL := vars[legacyBaseURL]; baseURL != "" {
		legacy["baseurl"] = baseURL
	}
	if target, ok := LookupEnvironment(envName); ok {
		if token := vars[target.TokenVar]; token != "" {
			legacy["authtoken"] = token
		}
	}
	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy variables: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
		EnvironFunc:   func() []string { return environ },
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if opts.Env != "" {
		if err := k.Set("env", opts.Env); err != nil {
			return nil, fmt.Errorf("failed to apply environment override: %w", err)
		}
	}

	return finish(k)
}

// LoadBytes builds a Config from defaults and an in-memory YAML document.
// The process environment is not consulted.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, NewLoadError("yaml", err)
	}
	return finish(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"live": false,

		"dispatch.timeout":          dispatch.DefaultTimeout.String(),
		"dispatch.maxattempts":      dispatch.DefaultMaxAttempts,
		"dispatch.ratelimit":        0,
		"dispatch.logpayloads":      false,
		"dispatch.backoff.strategy": string(dispatch.BackoffNone),
		"dispatch.backoff.delay":    "0s",
		"dispatch.backoff.maxdelay": dispatch.DefaultMaxBackoff.String(),

		"log.level":  "info",
		"log.pretty": false,
		"log.dir":    "logs",

		"observability.enabled":      false,
		"observability.service.name": observability.DefaultServiceName,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// finish fills the base URL from the environment table, unmarshals and validates.
func finish(k *koanf.Koanf) (*Config, error) {
	envName := strings.ToLower(strings.TrimSpace(k.String("env")))
	if envName == "" {
		envName = EnvDev
	}
	if err := k.Set("env", envName); err != nil {
		return nil, fmt.Errorf("failed to normalize environment: %w", err)
	}
	if k.String("baseurl") == "" {
		if target, ok := LookupEnvironment(envName); ok {
			if err := k.Set("baseurl", target.BaseURL); err != nil {
				return nil, fmt.Errorf("failed to set base URL: %w", err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadYAMLFile loads path when it exists. A missing file is not an error.
func loadYAMLFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return NewLoadError(path, err)
	}
	return nil
}

// readDotEnv returns the variables of a dotenv file, or nil when it is absent.
func readDotEnv(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, NewLoadError(path, err)
	}

	parsed, err := dotenv.Parser().Unmarshal(data)
	if err != nil {
		return nil, NewLoadError(path, err)
	}
	vars := make(map[string]string, len(parsed))
	for key, value := range parsed {
		vars[key] = fmt.Sprint(value)
	}
	return vars, nil
}

// mergeEnviron overlays the process environment on the dotenv variables and
// returns the result both as KEY=value pairs and as a map.
func mergeEnviron(dotenvVars map[string]string, environ []string) ([]string, map[string]string) {
	vars := make(map[string]string, len(dotenvVars)+len(environ))
	for key, value := range dotenvVars {
		vars[key] = value
	}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}

	merged := make([]string, 0, len(vars))
	for key, value := range vars {
		merged = append(merged, key+"="+value)
	}
	return merged, vars
}

// selectEnvironment picks the target environment name before the
// environment-specific file is read.
func selectEnvironment(k *koanf.Koanf, vars map[string]string, override string) string {
	for _, candidate := range []string{override, vars[EnvPrefix+"ENV"], vars[legacyEnvironment], k.String("env")} {
		if name := strings.ToLower(strings.TrimSpace(candidate)); name != "" {
			return name
		}
	}
	return EnvDev
}

// envFileName turns apitest.yaml into apitest.<env>.yaml.
func envFileName(base, envName string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + envName + ext
}

// transformEnvKey maps APITEST_LOG_LEVEL to log.level.
func transformEnvKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
}
