package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subremux/internal/api"
)

const submitPollInterval = 500 * time.Millisecond

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var video string
	var subtitle string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Upload a subtitle and queue a remux",
		RunE: func(cmd *cobra.Command, args []string) error {
			video = strings.TrimSpace(video)
			subtitle = strings.TrimSpace(subtitle)
			if video == "" || subtitle == "" {
				return errors.New("both --video and --subtitle are required")
			}
			file, err := os.Open(subtitle)
			if err != nil {
				return fmt.Errorf("open subtitle: %w", err)
			}
			defer file.Close()

			client := ctx.client()
			resp, err := client.Submit(cmd.Context(), video, filepath.Base(subtitle), file)
			if err != nil {
				return ctx.wrapClientError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queued job %d (%s)\n", resp.Job.ID, resp.Job.Name)
			fmt.Fprintf(out, "Subtitle stored at %s (%s)\n", resp.Subtitle.Path, resp.Subtitle.Encoding)
			if !wait {
				return nil
			}

			final, err := waitForJob(cmd.Context(), client, resp.Job.ID)
			if err != nil {
				return ctx.wrapClientError(err)
			}
			fmt.Fprintln(out, final.Description)
			if final.State == "failed" {
				return fmt.Errorf("job %d failed: %s", final.ID, final.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&video, "video", "", "Video path relative to the media directory")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "Local subtitle file to upload")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the remux finishes")
	return cmd
}

func waitForJob(ctx context.Context, client *api.Client, id int64) (api.JobView, error) {
	ticker := time.NewTicker(submitPollInterval)
	defer ticker.Stop()
	for {
		resp, err := client.Job(ctx, id)
		if err != nil {
			return api.JobView{}, err
		}
		switch resp.Job.State {
		case "succeeded", "failed":
			return resp.Job, nil
		}
		select {
		case <-ctx.Done():
			return api.JobView{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
