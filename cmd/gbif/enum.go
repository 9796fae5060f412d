package main

import (
	"github.com/spf13/cobra"
)

func (a *app) enumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enum PARAM",
		Short: "List the accepted values of an enumerated parameter",
		Example: `  gbif enum rank
  gbif enum country`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.svc.Accepted(args[0])
			if err != nil {
				return err
			}
			for _, v := range values {
				writeLine(cmd.OutOrStdout(), "%s", v)
			}
			return nil
		},
	}
}
