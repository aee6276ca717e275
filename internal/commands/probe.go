// Package commands implements the apiprobe subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/apitest/config"
	"github.com/gaborage/apitest/dispatch"
	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/fixtures"
	"github.com/gaborage/apitest/logger"
	"github.com/gaborage/apitest/observability"
)

// ProbeOptions holds options for the probe command
type ProbeOptions struct {
	ConfigFile string
	Env        string
}

// Target is one reference endpoint probed by apiprobe.
type Target struct {
	Name string
	Spec *dispatch.RequestSpec
}

// Result is the outcome of probing one Target.
type Result struct {
	Target   Target
	Response *dispatch.Response
	Err      error
}

// NewProbeCommand creates the root probe command
func NewProbeCommand(version string) *cobra.Command {
	opts := &ProbeOptions{}

	cmd := &cobra.Command{
		Use:   "apiprobe",
		Short: "Probe the reference endpoints of an environment",
		Long: `Loads the test configuration, sends one request to each reference
endpoint of the selected environment concurrently and prints the status codes.

The exit code is non-zero when any endpoint could not be reached.`,
		Example: `  # Probe dev using ./apitest.yaml
  apiprobe

  # Probe staging
  apiprobe --env staging --config ./apitest.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProbe(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "Configuration file")
	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Target environment (dev, staging, prod)")

	return cmd
}

func loadConfig(opts *ProbeOptions) (*config.Config, error) {
	return config.LoadWithOptions(config.Options{
		File:       opts.ConfigFile,
		DotEnvFile: filepath.Join(filepath.Dir(opts.ConfigFile), config.DefaultDotEnvFile),
		Env:        opts.Env,
	})
}

func runProbe(ctx context.Context, out io.Writer, opts *ProbeOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, f, err := logger.NewFile(cfg.Log.Dir, cfg.Log.Level, cfg.Log.Pretty, time.Now())
	if err != nil {
		return err
	}
	defer f.Close()

	provider, err := observability.NewProvider(cfg.ObservabilityConfig(), log)
	if err != nil {
		return fmt.Errorf("failed to set up observability: %w", err)
	}
	defer func() {
		if shutdownErr := observability.Shutdown(provider, observability.DefaultShutdownTimeout); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("observability shutdown failed")
		}
	}()

	d, err := dispatch.New(cfg.DispatchConfig(fixtures.DefaultHeaders()), log,
		dispatch.WithTracerProvider(provider.TracerProvider()),
		dispatch.WithMeterProvider(provider.MeterProvider()),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Probing %s (%s)\n", cfg.BaseURL, cfg.Env)
	results := Probe(ctx, d, Targets(endpoints.New(cfg.BaseURL), cfg.AuthToken))

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  %-20s FAILED  %v\n", r.Target.Name, r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Target.Name, r.Err))
			continue
		}
		fmt.Fprintf(out, "  %-20s %d     %s\n", r.Target.Name, r.Response.StatusCode, r.Response.Stats.Elapsed.Round(time.Millisecond))
	}

	log.Info().Int("targets", len(results)).Int("failures", len(errs)).Msg("probe finished")
	return errors.Join(errs...)
}

// Targets returns one GET per reference endpoint.
func Targets(b *endpoints.Builder, token string) []Target {
	var auth map[string]string
	if token != "" {
		auth = map[string]string{"Authorization": token}
	}
	get := func(url string, query map[string]string) *dispatch.RequestSpec {
		return &dispatch.RequestSpec{Method: http.MethodGet, URL: url, Headers: auth, Query: query}
	}

	return []Target{
		{Name: "valuation list", Spec: get(b.ValuationList(endpoints.DefaultListQuery()), nil)},
		{Name: "eula", Spec: get(b.DocumentsBySection(), map[string]string{"section": endpoints.SectionEULA})},
		{Name: "privacy policy", Spec: get(b.DocumentsBySection(), map[string]string{"section": endpoints.SectionPrivacy})},
		{Name: "terms", Spec: get(b.DocumentsBySection(), map[string]string{"section": endpoints.SectionTerms})},
		{Name: "help", Spec: get(b.DocumentsBySection(), map[string]string{"section": endpoints.SectionHelp})},
		{Name: "factors", Spec: get(b.Factors(), nil)},
		{Name: "dealer radius factor", Spec: get(b.DealerRadiusFactor(), map[string]string{"type": endpoints.DealerRadiusStepsOptions})},
	}
}

// Probe dispatches every target concurrently. Results keep the target order.
func Probe(ctx context.Context, d *dispatch.Dispatcher, targets []Target) []Result {
	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			resp, err := d.Dispatch(gctx, target.Spec)
			results[i] = Result{Target: target, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
