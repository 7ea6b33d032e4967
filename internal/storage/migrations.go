package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS settings (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS partners (
					id TEXT PRIMARY KEY,
					company_name TEXT NOT NULL,
					country TEXT,
					description TEXT,
					contact_title TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS profiles (
					id TEXT PRIMARY KEY,
					role TEXT NOT NULL,
					full_name TEXT NOT NULL,
					country TEXT,
					title TEXT,
					bio TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS kyc_verifications (
					id TEXT PRIMARY KEY,
					entity_type TEXT NOT NULL,
					entity_id TEXT NOT NULL,
					verification_level TEXT NOT NULL,
					status TEXT NOT NULL,
					pep_status TEXT,
					sanctions_status TEXT,
					documents_verified BOOLEAN DEFAULT 0,
					risk_score INTEGER DEFAULT 0,
					risk_level TEXT,
					risk_factors TEXT,
					provider_response TEXT,
					completed_at DATETIME,
					expires_at DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_kyc_verifications_entity ON kyc_verifications(entity_type, entity_id)`,
				// At most one open verification per entity.
				`CREATE UNIQUE INDEX idx_kyc_verifications_open
					ON kyc_verifications(entity_type, entity_id)
					WHERE status IN ('pending', 'in_progress')`,

				`CREATE TABLE IF NOT EXISTS aml_alerts (
					id TEXT PRIMARY KEY,
					entity_type TEXT NOT NULL,
					entity_id TEXT NOT NULL,
					kyc_verification_id TEXT NOT NULL,
					alert_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT,
					source TEXT,
					match_details TEXT,
					match_score REAL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'open',
					created_at DATETIME NOT NULL,
					FOREIGN KEY (kyc_verification_id) REFERENCES kyc_verifications(id)
				)`,
				`CREATE INDEX idx_aml_alerts_verification ON aml_alerts(kyc_verification_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add document extractions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS document_extractions (
					document_id TEXT PRIMARY KEY,
					entity_type TEXT NOT NULL,
					entity_id TEXT NOT NULL,
					document_type TEXT,
					fields TEXT NOT NULL,
					expiry_date DATETIME,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_document_extractions_entity
					ON document_extractions(entity_type, entity_id, created_at)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add admin notifications and pipeline logs",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS admin_notifications (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT,
					severity TEXT,
					data TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS pipeline_logs (
					id TEXT PRIMARY KEY,
					pipeline TEXT NOT NULL,
					subject TEXT,
					outcome TEXT NOT NULL,
					duration_ms INTEGER DEFAULT 0,
					details TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_pipeline_logs_pipeline ON pipeline_logs(pipeline, created_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrate runs all pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
