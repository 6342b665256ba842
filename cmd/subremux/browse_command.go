package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subremux/internal/api"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path]",
		Short: "List a media library directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel := ""
			if len(args) == 1 {
				rel = strings.TrimSpace(args[0])
			}
			listing, err := ctx.client().Dir(cmd.Context(), rel)
			if err != nil {
				return ctx.wrapClientError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "/%s\n", listing.Path)
			if len(listing.Entries) == 0 {
				fmt.Fprintln(out, "Directory is empty")
				return nil
			}
			fmt.Fprintln(out, renderListing(listing.Entries))
			return nil
		},
	}
}

func renderListing(entries []api.DirEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		size := entry.HumanSize
		if entry.IsDir {
			name += "/"
			size = ""
		}
		rows = append(rows, []string{name, size, entry.ModifiedAt})
	}
	return renderTable(
		[]string{"Name", "Size", "Modified"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	)
}
