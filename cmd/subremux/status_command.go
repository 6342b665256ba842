package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"subremux/internal/api"
	"subremux/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, worker, and environment status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Daemon", colorize)...)
			status, statusErr := ctx.client().Status(cmd.Context())
			if statusErr != nil {
				lines = append(lines, renderStatusLine("Daemon", statusWarn, "not reachable at "+ctx.baseURL(), colorize))
			} else {
				lines = append(lines, daemonStatusLines(status, colorize)...)
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func daemonStatusLines(status *api.StatusResponse, colorize bool) []string {
	lines := []string{
		renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize),
	}
	if status.StartedAt != "" {
		lines = append(lines, renderStatusLine("Started", statusInfo, status.StartedAt, colorize))
	}

	worker := status.Worker
	switch {
	case worker.Fatal != "":
		lines = append(lines, renderStatusLine("Worker", statusError, "stopped: "+worker.Fatal, colorize))
	case worker.Running:
		msg := "idle"
		if worker.ActiveJobID != 0 {
			msg = fmt.Sprintf("running job %d", worker.ActiveJobID)
		}
		lines = append(lines, renderStatusLine("Worker", statusOK, msg, colorize))
	default:
		lines = append(lines, renderStatusLine("Worker", statusWarn, "not running", colorize))
	}
	lines = append(lines, renderStatusLine("Queue", statusInfo,
		fmt.Sprintf("%d waiting, %d processed", worker.QueueDepth, worker.Processed), colorize))
	lines = append(lines, renderStatusLine("Jobs", statusInfo, formatJobCounts(status.TotalJobs, status.JobCounts), colorize))

	for _, dep := range status.Dependencies {
		kind := statusOK
		msg := dep.Path
		if dep.Version != "" {
			msg += " (" + dep.Version + ")"
		}
		if !dep.Available {
			kind = statusError
			if dep.Optional {
				kind = statusWarn
			}
			msg = dep.Detail
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, msg, colorize))
	}
	return lines
}

func formatJobCounts(total int, counts map[string]int) string {
	if total == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for key, value := range counts {
		if value > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, counts[key]))
	}
	return fmt.Sprintf("%d total (%s)", total, strings.Join(parts, ", "))
}
