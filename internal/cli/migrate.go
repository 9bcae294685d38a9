package cli

import (
	"curriculum-rag-be/internal/config"
	"curriculum-rag-be/internal/model"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the vector schema and the ingestion run table",
	Long: `Creates the pgvector extension, the curriculum_chunks table and the
match_curriculum_chunks function sized to EMBEDDING_DIMENSIONS, then
migrates the ingestion run history table.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return apperror.New(apperror.KindConfiguration, "missing configuration: DB_CONNECTION_STRING")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	headline.Fprintf(out, "Migrating schema (vector(%d))\n", cfg.Ai.EmbeddingDimensions)

	err = database.Migrate(db, database.MigrationOptions{
		Dimensions: cfg.Ai.EmbeddingDimensions,
		Models:     []interface{}{&model.IngestionRun{}},
		Logf: func(format string, args ...interface{}) {
			faint.Fprintf(out, format+"\n", args...)
		},
	})
	if err != nil {
		return err
	}

	success.Fprintln(out, "Migration complete")
	return nil
}
