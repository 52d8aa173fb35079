// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "testing"

func TestResolveAPIURL(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		stored     string
		configured string
		want       string
	}{
		{name: "flag wins", flag: "http://a", stored: "http://b", configured: "http://c", want: "http://a"},
		{name: "stored override beats config", stored: "http://b", configured: "http://c", want: "http://b"},
		{name: "config default", configured: "http://c", want: "http://c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAPIURL(tt.flag, tt.stored, tt.configured); got != tt.want {
				t.Errorf("resolveAPIURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseGlobalFlags(t *testing.T) {
	remaining, args := parseGlobalFlags([]string{"--api", "http://x", "-v", "jobs", "export", "j1", "--out=/tmp"})
	if args.APIURL != "http://x" {
		t.Errorf("APIURL = %q", args.APIURL)
	}
	if !args.Verbose {
		t.Error("verbose flag not parsed")
	}
	if args.Out != "/tmp" {
		t.Errorf("Out = %q", args.Out)
	}
	if len(remaining) != 3 || remaining[0] != "jobs" {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestParseConfigArgs(t *testing.T) {
	var args Args
	parseConfigArgs(&args, []string{"set", "crawler", "agents.depth", "3"})
	if args.Subcommand != "set" || args.Name != "crawler" || args.Key != "agents.depth" || args.Value != "3" {
		t.Errorf("parsed = %+v", args)
	}
}

func TestParseJobsArgsDefaultsToList(t *testing.T) {
	var args Args
	parseJobsArgs(&args, nil)
	if args.Subcommand != "list" {
		t.Errorf("Subcommand = %q, want list", args.Subcommand)
	}

	args = Args{}
	parseJobsArgs(&args, []string{"export", "job-9"})
	if args.Subcommand != "export" || args.JobID != "job-9" {
		t.Errorf("parsed = %+v", args)
	}
}

func TestCoerceValue(t *testing.T) {
	if v, ok := coerceValue("true").(bool); !ok || !v {
		t.Errorf("true coerced to %v", coerceValue("true"))
	}
	if v, ok := coerceValue("3").(int); !ok || v != 3 {
		t.Errorf("3 coerced to %v", coerceValue("3"))
	}
	if v, ok := coerceValue("0.5").(float64); !ok || v != 0.5 {
		t.Errorf("0.5 coerced to %v", coerceValue("0.5"))
	}
	if v, ok := coerceValue("hello").(string); !ok || v != "hello" {
		t.Errorf("string coerced to %v", coerceValue("hello"))
	}
}
