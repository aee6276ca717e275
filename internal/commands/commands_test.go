package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/apitest/testing/fakeapi"
)

// probeEnv points the configuration at baseURL through the process
// environment, which outranks every file.
func probeEnv(t *testing.T, baseURL, token string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APITEST_BASEURL", baseURL)
	t.Setenv("APITEST_AUTHTOKEN", token)
	t.Setenv("APITEST_LIVE", "true")
	t.Setenv("APITEST_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("APITEST_DISPATCH_MAXATTEMPTS", "2")
	t.Setenv("APITEST_DISPATCH_TIMEOUT", "2s")
	return filepath.Join(dir, "apitest.yaml")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewProbeCommand("test")
	root.AddCommand(NewDoctorCommand(), NewVersionCommand("test"))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestProbeAgainstFakeAPI(t *testing.T) {
	fake := fakeapi.Start()
	t.Cleanup(fake.Close)
	cfgFile := probeEnv(t, fake.URL, fake.Token)

	out, err := execute(t, "--config", cfgFile)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Probing "+fake.URL)
	for _, name := range []string{"valuation list", "eula", "privacy policy", "terms", "help", "factors", "dealer radius factor"} {
		assert.Contains(t, out, name)
	}
	assert.Equal(t, 7, strings.Count(out, " 200 "))
	assert.NotContains(t, out, "FAILED")
}

func TestProbeReportsStatusesWithoutToken(t *testing.T) {
	fake := fakeapi.Start()
	t.Cleanup(fake.Close)
	cfgFile := probeEnv(t, fake.URL, "")

	out, err := execute(t, "--config", cfgFile)
	require.NoError(t, err, "application statuses are not failures")
	assert.Contains(t, out, " 401 ")
	assert.Contains(t, out, " 500 ")
}

func TestProbeFailsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()
	cfgFile := probeEnv(t, baseURL, "abc")

	out, err := execute(t, "--config", cfgFile)
	require.Error(t, err)
	assert.Equal(t, 7, strings.Count(out, "FAILED"))
	assert.Contains(t, err.Error(), "dealer radius factor")
}

func TestProbeRejectsInvalidConfig(t *testing.T) {
	cfgFile := probeEnv(t, "http://127.0.0.1:1", "")
	t.Setenv("APITEST_DISPATCH_MAXATTEMPTS", "0")

	_, err := execute(t, "--config", cfgFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch.maxattempts")
}

func TestDoctor(t *testing.T) {
	cfgFile := probeEnv(t, "http://127.0.0.1:1", "abc")

	out, err := execute(t, "doctor", "--config", cfgFile, "--env", "staging")
	require.NoError(t, err, out)
	assert.Contains(t, out, "environment: staging")
	assert.Contains(t, out, "base url:    http://127.0.0.1:1")
	assert.Contains(t, out, "auth token:  present")

	t.Setenv("APITEST_AUTHTOKEN", "")
	out, err = execute(t, "doctor", "--config", cfgFile, "--env", "staging")
	require.ErrorIs(t, err, errDoctorFailed)
	assert.Contains(t, out, "missing (set STAGING_AUTH_TOKEN)")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "apiprobe version test\nBuilt with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH+"\n", out)
}
