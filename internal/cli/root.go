package cli

import (
	"curriculum-rag-be/internal/bootstrap"
	"curriculum-rag-be/internal/config"
	"curriculum-rag-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	noColor bool

	headline = color.New(color.FgCyan, color.Bold)
	success  = color.New(color.FgGreen)
	warning  = color.New(color.FgYellow)
	failure  = color.New(color.FgRed)
	faint    = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Operate the curriculum RAG backend",
	Long: `ragctl runs the curriculum pipeline from a terminal: create the
schema, ingest documents from the bucket, ask questions and tail
ingestion events.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

// buildContainer loads and validates configuration, then wires the same
// container the HTTP server uses.
func buildContainer() (*config.Config, *bootstrap.Container, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		return nil, nil, err
	}

	container, err := bootstrap.NewContainer(db, cfg, bootstrap.WithQuietConsole())
	if err != nil {
		return nil, nil, err
	}
	return cfg, container, nil
}
