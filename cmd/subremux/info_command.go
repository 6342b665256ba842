package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show ffmpeg stream information for a library file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := ctx.client().Info(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return ctx.wrapClientError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, info.Path)
			if len(info.Lines) == 0 {
				fmt.Fprintln(out, "  (no stream information)")
			}
			for _, line := range info.Lines {
				fmt.Fprintf(out, "  %s\n", line)
			}
			return nil
		},
	}
}
