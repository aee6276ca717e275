package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/apitest/config"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand() *cobra.Command {
	opts := &ProbeOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the test configuration",
		Long: `Loads the configuration the suites and the probe would use and reports
the selected environment, the base URL, whether an auth token is present and
whether the log directory is writable.`,
		Example: `  # Check the staging configuration
  apiprobe doctor --env staging`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "Configuration file")
	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Target environment (dev, staging, prod)")

	return cmd
}

var errDoctorFailed = errors.New("configuration check failed")

func runDoctor(out io.Writer, opts *ProbeOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(out, "config: %v\n", err)
		return errDoctorFailed
	}

	fmt.Fprintf(out, "environment: %s\n", cfg.Env)
	fmt.Fprintf(out, "base url:    %s\n", cfg.BaseURL)
	fmt.Fprintf(out, "live:        %t\n", cfg.Live)
	fmt.Fprintf(out, "attempts:    %d, timeout %s\n", cfg.Dispatch.MaxAttempts, cfg.Dispatch.Timeout)

	var hasErrors bool
	if cfg.AuthToken == "" {
		fmt.Fprintf(out, "auth token:  missing (set %s)\n", cfg.Environment().TokenVar)
		hasErrors = cfg.Live
	} else {
		fmt.Fprintln(out, "auth token:  present")
	}

	if err := checkWritable(cfg.Log.Dir); err != nil {
		fmt.Fprintf(out, "log dir:     %v\n", err)
		hasErrors = true
	} else {
		fmt.Fprintf(out, "log dir:     %s\n", cfg.Log.Dir)
	}

	if hasErrors {
		return errDoctorFailed
	}
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("cannot write to %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
