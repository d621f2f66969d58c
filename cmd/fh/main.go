package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// globals are the persistent flags shared by every command, plus the logger
// built from them.
type globals struct {
	configPath string
	envPath    string
	verbose    bool
	log        *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:          "fh",
		Short:        "Farmhand: crop cycles, field tasks and pest scouting",
		Long:         "Farmhand manages fields, crop cycles, tasks, harvests and pest reports, synced to a cloud document store or kept on this machine.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(g.verbose)
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.log.Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "farmhand.yaml", "path to Farmhand config file")
	cmd.PersistentFlags().StringVar(&g.envPath, "env", ".env", "optional dotenv file with secrets")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newStatusCmd(g))
	cmd.AddCommand(newSeedCmd(g))
	cmd.AddCommand(newLoginCmd(g))
	cmd.AddCommand(newLogoutCmd(g))
	cmd.AddCommand(newAdviseCmd(g))
	cmd.AddCommand(newReportCmd(g))
	cmd.AddCommand(newDigestCmd(g))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fh %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// newLogger builds the production JSON logger on stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
