package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/record"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteWriter stores tables in a SQLite database, one SQL table per call
// to WriteTable. String lists are stored as JSON arrays.
type SQLiteWriter struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway database.
func OpenSQLite(path string) (*SQLiteWriter, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// One writer at a time; also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "open sqlite")
	}
	return &SQLiteWriter{
		db:     db,
		logger: log.With().Str("component", "export").Logger(),
	}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteWriter) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}

// WriteTable creates table name (replacing an existing one) with one typed
// column per catalog field and inserts every row in a single transaction.
func (s *SQLiteWriter) WriteTable(ctx context.Context, name string, tbl *record.Table) error {
	if !tableName.MatchString(name) {
		return errors.Errorf("invalid table name %q", name)
	}

	fields := tbl.Catalog().Fields()
	columns := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = fmt.Sprintf("%q %s", f.Name, sqlType(f.Type))
		placeholders[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", name)); err != nil {
		return errors.Wrapf(err, "drop table %s", name)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %q (%s)", name, strings.Join(columns, ", "))); err != nil {
		return errors.Wrapf(err, "create table %s", name)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q VALUES (%s)", name, strings.Join(placeholders, ", ")))
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	args := make([]any, len(fields))
	for r := 0; r < tbl.Len(); r++ {
		row := tbl.Row(r)
		for i := range args {
			if args[i], err = sqlValue(row.At(i)); err != nil {
				return errors.Wrapf(err, "row %d field %s", r, fields[i].Name)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "insert row %d", r)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}

	s.logger.Debug().
		Str("table", name).
		Str("kind", string(tbl.Catalog().Kind())).
		Int("rows", tbl.Len()).
		Msg("Table exported")
	return nil
}

func sqlType(t catalog.FieldType) string {
	switch t {
	case catalog.Int, catalog.Bool:
		return "INTEGER"
	case catalog.Float:
		return "REAL"
	}
	return "TEXT"
}

func sqlValue(v record.Value) (any, error) {
	if v.IsMissing() {
		return nil, nil
	}
	switch v.Type() {
	case catalog.Bool:
		b, _ := v.AsBool()
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case catalog.StringList:
		list, _ := v.AsStrings()
		data, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v.Interface(), nil
}
