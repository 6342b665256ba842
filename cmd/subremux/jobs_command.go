package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subremux/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List remux jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			out := cmd.OutOrStdout()
			if plain {
				lines, err := client.TaskLines(cmd.Context())
				if err != nil {
					return ctx.wrapClientError(err)
				}
				for _, line := range lines {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			resp, err := client.Jobs(cmd.Context())
			if err != nil {
				return ctx.wrapClientError(err)
			}
			if len(resp.Jobs) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprintln(out, renderJobsTable(resp.Jobs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one description line per job")
	cmd.AddCommand(newJobShowCommand(ctx))
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid job id %q", args[0])
			}
			resp, err := ctx.client().Job(cmd.Context(), id)
			if err != nil {
				return ctx.wrapClientError(err)
			}
			printJob(cmd, resp.Job)
			return nil
		},
	}
}

func renderJobsTable(views []api.JobView) string {
	rows := make([][]string, 0, len(views))
	for _, job := range views {
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Name,
			job.State,
			fmt.Sprintf("%d%%", job.Progress),
			job.Detail,
		})
	}
	return renderTable(
		[]string{"ID", "Name", "State", "Progress", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func printJob(cmd *cobra.Command, job api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d: %s\n", job.ID, job.Description)
	fields := []struct{ label, value string }{
		{"State", job.State},
		{"Progress", fmt.Sprintf("%d%%", job.Progress)},
		{"Source", job.Source},
		{"Subtitle", job.Subtitle},
		{"Destination", job.Destination},
		{"Created", job.CreatedAt},
		{"Started", job.StartedAt},
		{"Finished", job.FinishedAt},
		{"Detail", job.Detail},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(out, "  %-12s %s\n", field.label+":", field.value)
	}
}
