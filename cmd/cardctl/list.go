package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/cardsdk"
)

func newListCommand(c *cli) *cobra.Command {
	var (
		opts     cardsdk.ListOptions
		filters  []string
		all      bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}
			opts.Filter = filter

			if all {
				models, err := c.client.ListAll(cmd.Context(), args[0], opts, maxPages)
				if err != nil {
					return err
				}

				return writeJSON(cmd.OutOrStdout(), listView{Data: views(models), Total: len(models)})
			}

			page, err := c.client.List(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), listView{
				Data:        views(page.Items),
				Total:       page.Total,
				CurrentPage: page.CurrentPage,
				TotalPages:  page.TotalPages,
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.Page, "page", 0, "page number, 1-based")
	f.IntVar(&opts.PerPage, "per-page", 0, "page size")
	f.StringSliceVar(&opts.Include, "include", nil, "relations to side-load")
	f.StringVar(&opts.Sort, "sort", "", "sort attribute, prefix with - for descending")
	f.StringArrayVar(&filters, "filter", nil, "attribute filter as key=value, repeatable")
	f.BoolVar(&all, "all", false, "follow pagination to the last page")
	f.IntVar(&maxPages, "max-pages", 0, "with --all, stop after this many pages (0 = no limit)")

	return cmd
}

func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(raw))

	for _, f := range raw {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=value", f)
		}

		out[key] = value
	}

	return out, nil
}
