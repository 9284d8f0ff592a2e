package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"go.uber.org/zap"
)

const indexDateCreatedAt = "expenses_date_created_at_idx"

// column types per backend: id, amount, timestamps, boolean
var columnTypes = map[string][4]string{
	dialect.SQLite:   {"TEXT", "TEXT", "DATETIME", "BOOLEAN"},
	dialect.Postgres: {"UUID", "NUMERIC(14,2)", "TIMESTAMPTZ", "BOOLEAN"},
}

func schemaStatements(d string) ([]string, error) {
	types, ok := columnTypes[d]
	if !ok {
		return nil, fmt.Errorf("no schema for dialect %q", d)
	}
	idType, moneyType, timeType, boolType := types[0], types[1], types[2], types[3]

	table := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s %s NOT NULL PRIMARY KEY,
	%s TEXT NOT NULL,
	%s %s NOT NULL,
	%s TEXT NOT NULL,
	%s %s NOT NULL,
	%s TEXT,
	%s %s NOT NULL DEFAULT FALSE,
	%s %s NOT NULL
)`,
		tableExpenses,
		colID, idType,
		colTitle,
		colAmount, moneyType,
		colCategory,
		colDate, timeType,
		colDescription,
		colIsAIProcessed, boolType,
		colCreatedAt, timeType,
	)
	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s)",
		indexDateCreatedAt, tableExpenses, colDate, colCreatedAt)
	return []string{table, index}, nil
}

// EnsureSchema creates the expenses table and its listing index when missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts, err := schemaStatements(d.Dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := d.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			d.logger.Error("failed to apply schema", zap.String("dialect", d.Dialect), zap.Error(err))
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	d.logger.Debug("schema ensured", zap.String("dialect", d.Dialect))
	return nil
}
