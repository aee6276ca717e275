package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		expected string
	}{
		{
			name:     "missing_field",
			err:      NewMissingFieldError("log.dir"),
			expected: "config_missing: log.dir required set APITEST_LOG_DIR env var or add log.dir to apitest.yaml",
		},
		{
			name:     "invalid_with_options",
			err:      NewInvalidFieldError("env", `unknown environment "qa"`, EnvironmentNames()),
			expected: `config_invalid: env unknown environment "qa" must be one of: dev, prod, staging`,
		},
		{
			name:     "invalid_without_options",
			err:      NewInvalidFieldError("dispatch.timeout", "must be greater than 0, got 0s", nil),
			expected: "config_invalid: dispatch.timeout must be greater than 0, got 0s",
		},
		{
			name:     "load",
			err:      NewLoadError("apitest.yaml", errors.New("yaml: line 1: did not find expected node content")),
			expected: "config_load: apitest.yaml yaml: line 1: did not find expected node content fix or remove the file",
		},
		{
			name:     "message_only",
			err:      &ConfigError{Message: "something odd"},
			expected: "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestEnvironmentTable(t *testing.T) {
	assert.Equal(t, []string{EnvDev, EnvProd, EnvStaging}, EnvironmentNames())

	for _, name := range EnvironmentNames() {
		env, ok := LookupEnvironment(name)
		assert.True(t, ok)
		assert.Equal(t, name, env.Name)
		assert.NotEmpty(t, env.TokenVar)
	}

	staging, ok := LookupEnvironment(" Staging ")
	assert.True(t, ok)
	assert.Contains(t, staging.BaseURL, "staging")

	_, ok = LookupEnvironment("qa")
	assert.False(t, ok)
}
