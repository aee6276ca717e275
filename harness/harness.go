// Package harness wires configuration, logging, the dispatcher and the
// endpoint builder for a single test.
package harness

import (
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/apitest/config"
	"github.com/gaborage/apitest/dispatch"
	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/fixtures"
	"github.com/gaborage/apitest/logger"
	"github.com/gaborage/apitest/testing/fakeapi"
)

// Harness is the per-test context.
type Harness struct {
	T          testing.TB
	Config     *config.Config
	Log        logger.Logger
	Dispatcher *dispatch.Dispatcher
	Endpoints  *endpoints.Builder
	// Token is a valid Authorization value for the target
	Token string
	// Fake is the in-process API, nil when running live
	Fake *fakeapi.Server
}

// Options overrides what New would load.
type Options struct {
	// Config replaces config.Load
	Config *config.Config
	// Logger replaces the shared run log file
	Logger logger.Logger
}

var (
	runLogOnce sync.Once
	runLog     logger.Logger
	runLogErr  error
)

// sharedLogger opens one log file per test binary run.
func sharedLogger(cfg *config.Config) (logger.Logger, error) {
	runLogOnce.Do(func() {
		var f *os.File
		runLog, f, runLogErr = logger.NewFile(cfg.Log.Dir, cfg.Log.Level, cfg.Log.Pretty, time.Now())
		if runLogErr == nil {
			runLog.Info().Str("env", cfg.Env).Str("base_url", cfg.BaseURL).Msgf("log file %s", f.Name())
		}
	})
	return runLog, runLogErr
}

// New loads the configuration and builds a Harness for t.
func New(t testing.TB) *Harness {
	return NewWithOptions(t, Options{})
}

// NewWithOptions builds a Harness. Unless the configuration selects a live
// target, a fake API is started for the test and stopped on cleanup.
func NewWithOptions(t testing.TB, opts Options) *Harness {
	t.Helper()

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		require.NoError(t, err, "failed to load configuration")
		cfg = loaded
	}

	log := opts.Logger
	if log == nil {
		shared, err := sharedLogger(cfg)
		require.NoError(t, err, "failed to open log file")
		log = shared
	}

	h := &Harness{T: t, Config: cfg, Log: log, Token: cfg.AuthToken}
	baseURL := cfg.BaseURL
	if !cfg.Live {
		h.Fake = fakeapi.Start(fakeapi.WithLogger(log))
		t.Cleanup(h.Fake.Close)
		baseURL = h.Fake.URL
		h.Token = h.Fake.Token
	}
	h.Endpoints = endpoints.New(baseURL)

	d, err := dispatch.New(cfg.DispatchConfig(fixtures.DefaultHeaders()), log)
	require.NoError(t, err, "failed to build dispatcher")
	h.Dispatcher = d

	log.Info().Str("test", t.Name()).Msgf("starting test: %s", t.Name())
	t.Cleanup(func() {
		log.Info().Str("test", t.Name()).Msgf("completed test: %s", t.Name())
	})
	return h
}

// RequireToken skips the test when no token is configured for a live target.
func (h *Harness) RequireToken() {
	h.T.Helper()
	if h.Token == "" {
		h.T.Skipf("no auth token configured for environment %s", h.Config.Env)
	}
}

// Send dispatches spec and fails the test on a transport-level failure.
func (h *Harness) Send(spec *dispatch.RequestSpec) *dispatch.Response {
	h.T.Helper()
	resp, err := h.Dispatcher.Dispatch(h.T.Context(), spec)
	require.NoError(h.T, err, "%s %s", spec.Method, spec.URL)
	return resp
}

// Get sends a GET with the given headers and query.
func (h *Harness) Get(url string, headers, query map[string]string) *dispatch.Response {
	h.T.Helper()
	return h.Send(&dispatch.RequestSpec{Method: http.MethodGet, URL: url, Headers: headers, Query: query})
}

// Post sends a POST with a JSON body.
func (h *Harness) Post(url string, headers map[string]string, body any) *dispatch.Response {
	h.T.Helper()
	return h.Send(&dispatch.RequestSpec{Method: http.MethodPost, URL: url, Headers: headers, Body: body})
}

// Auth returns an Authorization header carrying the harness token.
func (h *Harness) Auth() map[string]string {
	return map[string]string{"Authorization": h.Token}
}
