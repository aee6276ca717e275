package apitests

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/apitest/config"
	"github.com/gaborage/apitest/harness"
)

// expectedHostFragment is what each environment's base URL must contain.
var expectedHostFragment = map[string]string{
	config.EnvDev:     "d3g8su2w1x0h24.cloudfront.net",
	config.EnvStaging: "staging",
	config.EnvProd:    "prod",
}

func TestSwitchEnvironments(t *testing.T) {
	for _, name := range config.EnvironmentNames() {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfg, err := config.LoadWithOptions(config.Options{
				File:       filepath.Join(dir, config.DefaultFile),
				DotEnvFile: filepath.Join(dir, config.DefaultDotEnvFile),
				Environ:    func() []string { return nil },
				Env:        name,
			})
			require.NoError(t, err)

			assert.Equal(t, name, cfg.Env)
			assert.Contains(t, cfg.BaseURL, expectedHostFragment[name])
		})
	}
}

func TestSelectedEnvironment(t *testing.T) {
	h := harness.New(t)

	env := h.Config.Environment()
	require.Contains(t, expectedHostFragment, env.Name)
	assert.Contains(t, env.BaseURL, expectedHostFragment[env.Name])
	h.Log.Info().Str("env", env.Name).Str("base_url", h.Endpoints.BaseURL()).Msgf("running tests in %s environment", env.Name)
}
