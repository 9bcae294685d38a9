package database

import (
	"fmt"

	"gorm.io/gorm"
)

type MigrationOptions struct {
	// Dimensions of the embedding column and match function argument.
	Dimensions int
	// Models migrated with AutoMigrate after the extensions exist.
	Models []interface{}
	Logf   func(format string, args ...interface{})
}

// SetupStatements must succeed before AutoMigrate.
func SetupStatements() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
}

// ChunkStatements create the curriculum_chunks table and its similarity
// function. The vector width is fixed at creation time.
func ChunkStatements(dimensions int) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS curriculum_chunks (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			document_name text NOT NULL,
			chunk_index integer NOT NULL DEFAULT 0,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			embedding_model text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		);`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_curriculum_chunks_document_name ON curriculum_chunks (document_name);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_curriculum_chunks_position ON curriculum_chunks (document_name, chunk_index, embedding_model);`,
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION match_curriculum_chunks(
			query_embedding vector(%d),
			match_threshold float,
			match_count int,
			model_name text
		)
		RETURNS TABLE (
			id uuid,
			document_name text,
			chunk_index integer,
			content text,
			embedding_model text,
			created_at timestamptz,
			similarity float
		)
		LANGUAGE sql STABLE AS $$
			SELECT c.id, c.document_name, c.chunk_index, c.content, c.embedding_model, c.created_at,
				1 - (c.embedding <=> query_embedding) AS similarity
			FROM curriculum_chunks c
			WHERE c.embedding_model = model_name
				AND 1 - (c.embedding <=> query_embedding) >= match_threshold
			ORDER BY c.embedding <=> query_embedding
			LIMIT match_count;
		$$;`, dimensions),
	}
}

// OptionalStatements may fail on older pgvector builds or wide vectors;
// search still works without them, only slower.
func OptionalStatements() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_curriculum_chunks_embedding ON curriculum_chunks USING hnsw (embedding vector_cosine_ops);`,
	}
}

func Migrate(db *gorm.DB, opts MigrationOptions) error {
	if opts.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", opts.Dimensions)
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	logf("Step 1: extensions")
	for _, sql := range SetupStatements() {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	logf("Step 2: curriculum_chunks (vector(%d)) and match_curriculum_chunks", opts.Dimensions)
	for _, sql := range ChunkStatements(opts.Dimensions) {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("chunk schema: %w", err)
		}
	}

	if len(opts.Models) > 0 {
		logf("Step 3: AutoMigrate %d model(s)", len(opts.Models))
		if err := db.AutoMigrate(opts.Models...); err != nil {
			return fmt.Errorf("automigrate: %w", err)
		}
	}

	for _, sql := range OptionalStatements() {
		if err := db.Exec(sql).Error; err != nil {
			logf("Warn: optional statement failed: %v. Continuing...", err)
		}
	}
	return nil
}
