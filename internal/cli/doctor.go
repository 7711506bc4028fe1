package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GeneralBots/botcoder/internal/executor"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Provider: %s, model: %s\n", cfg.Provider.Type, cfg.Provider.Model)
			fmt.Fprintf(out, "Limiter: %d tokens/min, min interval %s\n", cfg.Limiter.TokensPerMinute, cfg.MinInterval())
			fmt.Fprintf(out, "Metrics enabled: %v\n", cfg.Metrics.Enabled)

			exec, err := executor.New(cfg.Project.Root, executor.Options{
				MaxFileBytes:   cfg.Tools.MaxFileBytes,
				CommandTimeout: cfg.CommandTimeout(),
			}, nil)
			if err != nil {
				return fmt.Errorf("project root %q: %w", cfg.Project.Root, err)
			}

			info, err := os.Stat(exec.Root())
			if err != nil {
				return fmt.Errorf("project root %q: %w", exec.Root(), err)
			}
			if !info.IsDir() {
				return fmt.Errorf("project root %q is not a directory", exec.Root())
			}
			fmt.Fprintf(out, "Project root OK: %s\n", exec.Root())
			return nil
		},
	}
}
