// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/jobs"
)

// HandleStatus prints a one-shot backend and worker snapshot.
func HandleStatus(args Args) error {
	rt, err := NewRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()

	fmt.Printf("Backend: %s\n", rt.Client.BaseURL())

	service := health.NewService(rt.Client)
	if apiHealth, err := service.API(ctx); err != nil {
		fmt.Printf("  API:    unreachable (%v)\n", err)
	} else {
		status := apiHealth.API
		if status == "" {
			status = "ok"
		}
		fmt.Printf("  API:    %s\n", status)
		fmt.Printf("  Ollama: %s (model %s)\n", orDash(apiHealth.Ollama), orDash(apiHealth.Model))
	}

	ingest := jobs.NewIngestController(rt.Client, rt.Log)
	worker, err := ingest.WorkerStatus(ctx)
	if err != nil {
		fmt.Printf("  Worker: unavailable (%v)\n", err)
		return nil
	}

	fmt.Printf("  Worker: heartbeat %s", orDash(worker.Heartbeat))
	if worker.AgeSeconds != nil {
		fmt.Printf(" (%.0fs ago)", *worker.AgeSeconds)
	}
	fmt.Println()
	fmt.Printf("  Queue:  %d pending\n", worker.QueueDepth)

	if rt.State.AdminUnlocked() {
		fmt.Println("  Admin:  unlocked")
	} else {
		fmt.Println("  Admin:  locked")
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
