package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/export"
	"github.com/Sternrassler/gbif-client/pkg/record"
	"github.com/spf13/cobra"
)

// outputFlags selects how tables are written.
type outputFlags struct {
	format string
	sqlite string
	table  string
}

func (o *outputFlags) register(cmd *cobra.Command, defaultTable string) {
	cmd.Flags().StringVarP(&o.format, "output", "o", "json", "Output format (json, csv)")
	cmd.Flags().StringVar(&o.sqlite, "sqlite", "", "Also store the rows in this SQLite database")
	cmd.Flags().StringVar(&o.table, "table", defaultTable, "Table name used with --sqlite")
}

type tableJSON struct {
	Count int64        `json:"count"`
	Rows  []record.Row `json:"rows"`
}

func (o *outputFlags) writeTable(ctx context.Context, w io.Writer, tbl *record.Table) error {
	if o.sqlite != "" {
		db, err := export.OpenSQLite(o.sqlite)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.WriteTable(ctx, o.table, tbl); err != nil {
			return err
		}
	}

	switch o.format {
	case "json":
		return writeJSON(w, tableJSON{Count: tbl.Count, Rows: tbl.Rows()})
	case "csv":
		return export.WriteCSV(w, tbl)
	}
	return errors.Errorf("unknown output format %q (want json or csv)", o.format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLine(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
