package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantmind-br/sri-ingest/internal/app"
	"github.com/quantmind-br/sri-ingest/internal/config"
	"github.com/quantmind-br/sri-ingest/internal/ingest"
	"github.com/quantmind-br/sri-ingest/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli holds the state shared by all commands of one invocation
type cli struct {
	v       *viper.Viper
	cfgFile string
	target  string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "sri-ingest",
		Short: "Incrementally ingest the SRI vehicle registration datasets",
		Long: `sri-ingest downloads the yearly SRI new-vehicle CSV files published on the
Ecuadorian open data portal, keeps only versions it has not stored before,
and records what it did in a state file and a per-run manifest.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.sri-ingest/config.yaml)")
	flags.StringVar(&c.target, "target", "", "storage target: a directory or gs://bucket/prefix")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	flags.String("log-format", "", "Log format: pretty or json")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("dataset", "", "Dataset name used in storage paths")

	// Bind flags to viper
	_ = c.v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("dataset.name", flags.Lookup("dataset"))

	// Add subcommands
	rootCmd.AddCommand(c.runCmd())
	rootCmd.AddCommand(c.stateCmd())
	rootCmd.AddCommand(c.manifestsCmd())
	rootCmd.AddCommand(c.configCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig reads .env, the config file, environment and flags
func (c *cli) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.target != "" {
		if err := app.ApplyTarget(&cfg.Storage, c.target); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *cli) orchestrator(ctx context.Context, cmd *cobra.Command, cfg *config.Config, progress io.Writer) (*app.Orchestrator, error) {
	o, err := app.NewOrchestrator(ctx, app.OrchestratorOptions{
		Config:    cfg,
		Verbose:   c.verbose,
		LogOutput: cmd.ErrOrStderr(),
		Progress:  progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return o, nil
}

func (c *cli) runCmd() *cobra.Command {
	var opts app.RunOptions
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check every year in the range and store new versions",
		Example: `  sri-ingest run --start 2017 --end 2025
  sri-ingest run --metadata-only
  sri-ingest run --force --target gs://datalake/bronze`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Create context with cancellation
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			var progress io.Writer
			if !quiet && cfg.Logging.Format == "pretty" {
				progress = cmd.ErrOrStderr()
			}

			o, err := c.orchestrator(ctx, cmd, cfg, progress)
			if err != nil {
				return err
			}
			defer o.Close()

			// Handle graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				select {
				case <-sigCh:
					o.Logger().Info().Msg("Shutting down gracefully...")
					cancel()
				case <-ctx.Done():
				}
			}()

			summary, err := o.Run(ctx, opts)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "First year to check (default run.default_start)")
	cmd.Flags().IntVar(&opts.End, "end", 0, "Last year to check (default current year)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Download even when the portal reports no change")
	cmd.Flags().BoolVar(&opts.MetadataOnly, "metadata-only", false, "Record freshness markers without downloading")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	cmd.Flags().String("dedup", "", "Duplicate detection: auto, last_hash or scan")
	_ = c.v.BindPFlag("dedup.policy", cmd.Flags().Lookup("dedup"))

	return cmd
}

// printSummary writes one line per year and a totals line
func printSummary(w io.Writer, s *ingest.Summary) {
	for _, o := range s.Outcomes {
		line := fmt.Sprintf("%d  %-10s %-18s", o.Year, o.Kind, o.Status)
		if o.Location != "" {
			line += "  " + o.Location
		}
		if o.Err != nil {
			line += "  (" + o.Err.Error() + ")"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "run %s: %d processed, %d new files\n", s.RunTS, s.Processed(), s.NewFiles)
	if s.ManifestLocation != "" {
		fmt.Fprintf(w, "manifest: %s\n", s.ManifestLocation)
	}
	if s.Trigger != nil {
		fmt.Fprintf(w, "trigger: %s\n", s.Trigger.Message)
	}
	if s.TriggerErr != nil {
		fmt.Fprintf(w, "trigger failed: %v\n", s.TriggerErr)
	}
}

func (c *cli) stateCmd() *cobra.Command {
	var start, end int

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the recorded state for a range of years as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			o, err := c.orchestrator(cmd.Context(), cmd, cfg, nil)
			if err != nil {
				return err
			}
			defer o.Close()

			records, err := o.State(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "First year (default run.default_start)")
	cmd.Flags().IntVar(&end, "end", 0, "Last year (default current year)")
	return cmd
}

func (c *cli) manifestsCmd() *cobra.Command {
	var runTS string

	cmd := &cobra.Command{
		Use:   "manifests",
		Short: "List run manifests, or print the entries of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			o, err := c.orchestrator(cmd.Context(), cmd, cfg, nil)
			if err != nil {
				return err
			}
			defer o.Close()

			out := cmd.OutOrStdout()
			if runTS != "" {
				entries, err := o.Manifest(cmd.Context(), runTS)
				if err != nil {
					return fmt.Errorf("failed to read manifest %s: %w", runTS, err)
				}
				return writeJSON(out, entries)
			}

			objects, err := o.Manifests(cmd.Context())
			if err != nil {
				return err
			}
			if len(objects) == 0 {
				fmt.Fprintln(out, "no manifests")
				return nil
			}
			for _, obj := range objects {
				fmt.Fprintf(out, "%s  %d bytes\n", o.Backend().Location(obj.Key), obj.Size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runTS, "run", "", "Run timestamp (YYYYMMDD_HHMMSS) to print")
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	var initFile bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the effective configuration after defaults, config file, environment
and flags are applied. Secrets are masked. With --init, write the default
configuration to the config file path instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initFile {
				path := c.cfgFile
				if path == "" {
					if err := config.EnsureConfigDir(); err != nil {
						return err
					}
					path = config.ConfigFilePath()
				}
				if err := config.WriteDefault(path); err != nil {
					if errors.Is(err, os.ErrExist) {
						return fmt.Errorf("config file already exists: %s", path)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "Write the default configuration file")
	return cmd
}

func versionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), version.Get())
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
