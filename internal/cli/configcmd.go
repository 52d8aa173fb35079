// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/todddb/ragai-console/internal/config"
)

// HandleConfig handles "config get|set|export NAME".
func HandleConfig(args Args) error {
	if args.Subcommand == "" {
		return fmt.Errorf("usage: ragai-console config get|set|export NAME")
	}
	if args.Name == "" {
		return fmt.Errorf("config %s: document name required (one of %s)",
			args.Subcommand, strings.Join(config.ServerDocs, ", "))
	}
	if !config.KnownServerDoc(args.Name) {
		return fmt.Errorf("unknown config document %q (one of %s)",
			args.Name, strings.Join(config.ServerDocs, ", "))
	}

	rt, err := NewRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()

	switch args.Subcommand {
	case "get":
		doc, err := config.FetchServerDoc(ctx, rt.Client, args.Name)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil

	case "set":
		if args.Key == "" || args.Value == "" {
			return fmt.Errorf("usage: ragai-console config set NAME KEY VALUE")
		}
		if err := config.SetServerField(ctx, rt.Client, args.Name, args.Key, coerceValue(args.Value)); err != nil {
			return err
		}
		fmt.Printf("%s.%s updated\n", args.Name, args.Key)
		return nil

	case "export":
		dir := args.Out
		if dir == "" {
			dir = rt.Config.Downloads.Dir
		}
		path, err := config.ExportServerDoc(ctx, rt.Client, args.Name, dir)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	return fmt.Errorf("unknown config subcommand %q", args.Subcommand)
}

// coerceValue converts a flag string to the JSON type it reads as, so
// "true" and "3" land as bool and number rather than strings.
func coerceValue(raw string) interface{} {
	if raw == "true" || raw == "false" {
		return raw == "true"
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}
