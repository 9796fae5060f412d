package main

import (
	"bytes"
	"encoding/json"

	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/Sternrassler/gbif-client/pkg/record"
	"github.com/spf13/cobra"
)

type (
	searchFunc func(cmd *cobra.Command, filters map[string]any) (*record.Table, error)
	lookupFunc func(cmd *cobra.Command, key int64) (*record.Row, error)
)

func (a *app) speciesSearch(cmd *cobra.Command, filters map[string]any) (*record.Table, error) {
	return a.svc.SpeciesSearch(cmd.Context(), filters)
}

func (a *app) speciesList(cmd *cobra.Command, filters map[string]any) (*record.Table, error) {
	return a.svc.SpeciesList(cmd.Context(), filters)
}

func (a *app) speciesGet(cmd *cobra.Command, key int64) (*record.Row, error) {
	return a.svc.Species(cmd.Context(), key)
}

func (a *app) occurrenceSearch(cmd *cobra.Command, filters map[string]any) (*record.Table, error) {
	return a.svc.OccurrenceSearch(cmd.Context(), filters)
}

func (a *app) occurrenceGet(cmd *cobra.Command, key int64) (*record.Row, error) {
	return a.svc.Occurrence(cmd.Context(), key)
}

func (a *app) occurrenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "occurrence",
		Short: "Search, count and summarize occurrence records",
	}
	cmd.AddCommand(
		a.tableCmd("search", "Search occurrence records", query.OccurrenceSearch, a.occurrenceSearch),
		a.countCmd(),
		a.getCmd("occurrence", "Fetch one occurrence by key", a.occurrenceGet),
		a.inventoryCmd(),
	)
	return cmd
}

func (a *app) countCmd() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count occurrences matching the filters without fetching them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			typed, err := query.FromStrings(query.OccurrenceSearch, values)
			if err != nil {
				return err
			}
			n, err := a.svc.OccurrenceCount(cmd.Context(), typed)
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%d", n)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as name=value (repeatable)")
	return cmd
}

func (a *app) inventoryCmd() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "inventory KIND",
		Short: "Print an occurrence count breakdown such as counts per country",
		Example: `  gbif occurrence inventory countries -f publishingCountry=DE
  gbif occurrence inventory year -f year=2000,2020
  gbif enum inventory`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			raw, err := a.svc.OccurrenceInventory(cmd.Context(), args[0], values)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), "%s", buf.String())
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as name=value (repeatable)")
	return cmd
}
