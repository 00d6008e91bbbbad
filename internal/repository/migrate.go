package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"entgo.io/ent/dialect"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{uuid}} PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS tax_returns (
		id {{uuid}} PRIMARY KEY,
		user_id {{uuid}} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		tax_year INTEGER NOT NULL,
		filing_status TEXT NOT NULL DEFAULT 'SINGLE',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		spouse_first_name TEXT NOT NULL DEFAULT '',
		spouse_last_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		total_income {{money}} NOT NULL DEFAULT 0,
		adjusted_gross_income {{money}} NOT NULL DEFAULT 0,
		standard_deduction {{money}} NOT NULL DEFAULT 0,
		itemized_deduction {{money}} NOT NULL DEFAULT 0,
		taxable_income {{money}} NOT NULL DEFAULT 0,
		tax_liability {{money}} NOT NULL DEFAULT 0,
		total_credits {{money}} NOT NULL DEFAULT 0,
		refund_amount {{money}} NOT NULL DEFAULT 0,
		amount_owed {{money}} NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id {{uuid}} PRIMARY KEY,
		tax_return_id {{uuid}} NOT NULL REFERENCES tax_returns(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		processing_status TEXT NOT NULL DEFAULT 'PENDING',
		ocr_text TEXT,
		extracted_data {{json}},
		confidence {{float}},
		error_message TEXT,
		updated_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS documents_tax_return_id_idx ON documents (tax_return_id)`,
	`CREATE TABLE IF NOT EXISTS income_entries (
		id {{uuid}} PRIMARY KEY,
		tax_return_id {{uuid}} NOT NULL REFERENCES tax_returns(id) ON DELETE CASCADE,
		income_type TEXT NOT NULL,
		amount {{money}} NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS income_entries_tax_return_id_idx ON income_entries (tax_return_id)`,
	`CREATE TABLE IF NOT EXISTS extracted_entries (
		id {{uuid}} PRIMARY KEY,
		income_entry_id {{uuid}} NOT NULL REFERENCES income_entries(id) ON DELETE CASCADE,
		document_id {{uuid}} REFERENCES documents(id) ON DELETE SET NULL,
		position INTEGER NOT NULL DEFAULT 0,
		extracted_data {{json}} NOT NULL,
		created_at {{ts}} NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	// a document backs at most one extracted entry; manual entries carry NULL
	`CREATE UNIQUE INDEX IF NOT EXISTS extracted_entries_document_id_idx ON extracted_entries (document_id)`,
	`CREATE TABLE IF NOT EXISTS dependents (
		id {{uuid}} PRIMARY KEY,
		tax_return_id {{uuid}} NOT NULL REFERENCES tax_returns(id) ON DELETE CASCADE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		ssn TEXT NOT NULL DEFAULT '',
		relationship TEXT NOT NULL DEFAULT '',
		qualifies_for_ctc BOOLEAN NOT NULL DEFAULT FALSE,
		qualifies_for_eitc BOOLEAN NOT NULL DEFAULT FALSE
	)`,
}

var columnTypes = map[string]*strings.Replacer{
	dialect.Postgres: strings.NewReplacer(
		"{{uuid}}", "UUID",
		"{{money}}", "NUMERIC(14,2)",
		"{{json}}", "JSONB",
		"{{float}}", "DOUBLE PRECISION",
		"{{ts}}", "TIMESTAMPTZ",
	),
	dialect.SQLite: strings.NewReplacer(
		"{{uuid}}", "TEXT",
		"{{money}}", "NUMERIC",
		"{{json}}", "TEXT",
		"{{float}}", "REAL",
		"{{ts}}", "TIMESTAMP",
	),
}

// Migrate creates any missing tables and indexes. It is idempotent.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	r, ok := columnTypes[db.Dialect]
	if !ok {
		return fmt.Errorf("migrate: unsupported dialect %q", db.Dialect)
	}
	for i, stmt := range schemaStatements {
		if _, err := db.SQL.ExecContext(ctx, r.Replace(stmt)); err != nil {
			logger.Error("migration statement failed", "index", i, "error", err)
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	logger.Info("schema migrated", "dialect", db.Dialect, "statements", len(schemaStatements))
	return nil
}
