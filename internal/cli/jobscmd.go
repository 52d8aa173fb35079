// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/todddb/ragai-console/internal/jobs"
)

// HandleJobs handles "jobs [list|delete|export ID]".
func HandleJobs(args Args) error {
	rt, err := NewRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	service := jobs.NewService(rt.Client)

	switch args.Subcommand {
	case "list", "":
		list, err := service.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no jobs")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tTYPE\tSTATUS\tSTARTED\tENDED")
		for _, job := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				job.JobID, job.JobType, job.Status, job.StartedAt, job.EndedAt)
		}
		return w.Flush()

	case "delete":
		if args.JobID == "" {
			return fmt.Errorf("usage: ragai-console jobs delete ID")
		}
		if err := service.Delete(ctx, args.JobID); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args.JobID)
		return nil

	case "export":
		if args.JobID == "" {
			return fmt.Errorf("usage: ragai-console jobs export ID")
		}
		dir := args.Out
		if dir == "" {
			dir = rt.Config.Downloads.Dir
		}
		path, err := service.ExportLog(ctx, args.JobID, dir)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	return fmt.Errorf("unknown jobs subcommand %q", args.Subcommand)
}
