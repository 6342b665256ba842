package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().TestNotification(cmd.Context())
			if err != nil {
				return ctx.wrapClientError(err)
			}
			out := cmd.OutOrStdout()
			switch {
			case resp.Sent:
				fmt.Fprintln(out, "Test notification sent")
			case resp.Message != "":
				fmt.Fprintln(out, resp.Message)
			default:
				fmt.Fprintln(out, "Notification not sent")
			}
			return nil
		},
	}
}
