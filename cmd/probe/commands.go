package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/0xPuncker/cron-console/internal/joblist"
	"github.com/0xPuncker/cron-console/internal/present"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the gateway scheduler status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List cron jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

var runsCmd = &cobra.Command{
	Use:   "runs <job-id>",
	Short: "Show the run history of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuns,
}

var (
	jobsQuery  string
	jobsFilter string
)

func init() {
	jobsCmd.Flags().StringVarP(&jobsQuery, "query", "q", "", "only jobs whose name, description or id contains this")
	jobsCmd.Flags().StringVar(&jobsFilter, "filter", string(joblist.FilterAll), "all, enabled or disabled")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonOutput {
		return printJSON(out, status)
	}

	enabled := status.Enabled
	fmt.Fprintf(out, "Enabled:   %s\n", present.EnabledLabel(&enabled))
	fmt.Fprintf(out, "Jobs:      %d\n", status.Jobs)
	fmt.Fprintf(out, "Next wake: %s\n", present.FormatNextRun(status.NextWakeAtMs, time.Local, time.Now()))
	return nil
}

func runJobs(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	jobs, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	jobs = joblist.Filter(jobs, joblist.ParseFilterType(jobsFilter), jobsQuery)

	out := cmd.OutOrStdout()
	if flags.jsonOutput {
		return printJSON(out, jobs)
	}
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found.")
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tENABLED\tSCHEDULE\tSTATE")
	for _, job := range jobs {
		enabled := job.Enabled
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			job.ID,
			job.Name,
			present.EnabledLabel(&enabled),
			present.FormatSchedule(job.Schedule, time.Local),
			present.FormatState(job, time.Local, now),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nTotal: %d\n", len(jobs))
	return nil
}

func runRuns(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	entries, err := client.Runs(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonOutput {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tSTATUS\tDURATION\tSUMMARY")
	for _, entry := range entries {
		summary := entry.Summary
		if entry.Error != "" {
			summary = entry.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			present.FormatMs(entry.Ts, time.Local),
			entry.Status,
			present.FormatRunDuration(entry),
			summary,
		)
	}
	return tw.Flush()
}
