package database

import (
	"database/sql"
	"fmt"
	"os"
)

const schemaPath = "docs/schema.sql"

// Migrate applies the checked-in schema plus its reference seed rows. Every
// statement in the file is idempotent (CREATE TABLE IF NOT EXISTS, INSERT OR
// IGNORE), so running this on every boot is safe.
func Migrate(db *sql.DB) error {
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", schemaPath, err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply schema %s: %w", schemaPath, err)
	}
	return nil
}
