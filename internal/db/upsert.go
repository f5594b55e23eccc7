package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// InsertConfig defines an insert-if-absent statement.
type InsertConfig struct {
	Table        string   // target table (e.g., "calendar_events")
	Columns      []string // all columns being inserted
	ConflictKeys []string // columns forming the unique constraint; nil = any constraint
}

// InsertIfAbsentSQL builds INSERT ... ON CONFLICT DO NOTHING with $n
// placeholders in column order. RowsAffected on the result is 1 when the
// row was written and 0 when it already existed.
func InsertIfAbsentSQL(cfg InsertConfig) (string, error) {
	if cfg.Table == "" {
		return "", eris.New("db: insert: no table specified")
	}
	if len(cfg.Columns) == 0 {
		return "", eris.New("db: insert: no columns specified")
	}

	placeholders := make([]string, len(cfg.Columns))
	for i := range cfg.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	conflict := "ON CONFLICT DO NOTHING"
	if len(cfg.ConflictKeys) > 0 {
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", quoteAndJoin(cfg.ConflictKeys))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) %s",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cfg.Columns),
		strings.Join(placeholders, ", "),
		conflict,
	), nil
}

// MustInsertIfAbsentSQL is InsertIfAbsentSQL for statements built at init.
func MustInsertIfAbsentSQL(cfg InsertConfig) string {
	q, err := InsertIfAbsentSQL(cfg)
	if err != nil {
		panic(err)
	}
	return q
}

// sanitizeTable handles schema-qualified table names like "app.companies".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
