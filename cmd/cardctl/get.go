package main

import (
	"github.com/spf13/cobra"
)

func newGetCommand(c *cli) *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get <type> <id>...",
		Short: "Fetch resources by id",
		Long: "Fetch one or more resources of a type. Several ids are fetched " +
			"concurrently and printed in the order given.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, ids := args[0], args[1:]

			if len(ids) == 1 {
				m, err := c.client.Get(cmd.Context(), typeName, ids[0], include...)
				if err != nil {
					return err
				}

				return writeJSON(cmd.OutOrStdout(), view(m, 0))
			}

			models, err := c.client.GetMany(cmd.Context(), typeName, ids, include...)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), views(models))
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "relations to side-load, e.g. set,card-images")

	return cmd
}
