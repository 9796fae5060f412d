package main

import (
	"strconv"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/query"
	"github.com/spf13/cobra"
)

func (a *app) speciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "species",
		Short: "Search, list and match species name usages",
	}
	cmd.AddCommand(
		a.tableCmd("search", "Full-text species search", query.SpeciesSearch, a.speciesSearch),
		a.tableCmd("list", "List name usages by exact filters", query.SpeciesList, a.speciesList),
		a.matchCmd(),
		a.getCmd("species", "Fetch one name usage by key", a.speciesGet),
		a.resourceCmd(),
	)
	return cmd
}

func (a *app) matchCmd() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "match NAME",
		Short: "Fuzzy-match a scientific name to the backbone taxonomy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				values.Set("name", args[0])
			}
			typed, err := query.FromStrings(query.SpeciesMatch, values)
			if err != nil {
				return err
			}
			row, err := a.svc.SpeciesMatch(cmd.Context(), typed)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), row)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as name=value (repeatable)")
	return cmd
}

// tableCmd builds a search command that prints a record table.
func (a *app) tableCmd(use, short string, e *query.Endpoint, run searchFunc) *cobra.Command {
	var (
		filters []string
		limit   int
		offset  int
		out     outputFlags
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := filterValues(filters)
			if err != nil {
				return err
			}
			typed, err := query.FromStrings(e, values)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				typed["limit"] = limit
			}
			if cmd.Flags().Changed("offset") {
				typed["offset"] = offset
			}

			tbl, err := run(cmd, typed)
			if err != nil {
				return err
			}
			return out.writeTable(cmd.Context(), cmd.OutOrStdout(), tbl)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as name=value (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", query.DefaultLimit, "Total number of records to fetch")
	cmd.Flags().IntVar(&offset, "offset", 0, "Index of the first record")
	out.register(cmd, e.Name)
	return cmd
}

func (a *app) getCmd(kind, short string, run lookupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Errorf("%s key %q is not a number", kind, args[0])
			}
			row, err := run(cmd, key)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), row)
		},
	}
}

func (a *app) resourceCmd() *cobra.Command {
	var (
		limit int
		out   outputFlags
	)

	cmd := &cobra.Command{
		Use:   "resource KEY TYPE",
		Short: "Fetch a sub-resource of a name usage, e.g. its children or vernacular names",
		Example: `  gbif species resource 5231190 children --limit 500
  gbif species resource 5231190 vernacularNames
  gbif enum resultType`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Errorf("species key %q is not a number", args[0])
			}
			res, err := a.svc.SpeciesResource(cmd.Context(), key, args[1], limit)
			if err != nil {
				return err
			}
			if tbl := res.Table(); tbl != nil {
				return out.writeTable(cmd.Context(), cmd.OutOrStdout(), tbl)
			}
			if res.IsList() {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"count": res.Count, "results": res.Records})
			}
			return writeJSON(cmd.OutOrStdout(), res.Object)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", query.DefaultLimit, "Total number of records to fetch for list resources")
	out.register(cmd, "species_resource")
	return cmd
}
