// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/go-classbrowser/internal/browser"
	"github.com/petar-djukic/go-classbrowser/pkg/classbrowser"
)

// newTreeCmd creates the "tree" command.
func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the symbol tree visible from a file",
		Long:  "Tree parses the project once and prints the class browser tree for FILE.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTree,
	}

	cmd.Flags().Int("depth", 0, "Levels to expand (0 expands everything)")
	cmd.Flags().StringP("format", "f", "text", "Output format: text, yaml, or json")

	return cmd
}

// runTree parses the project and prints one snapshot.
func runTree(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetInt("depth")
	format, _ := cmd.Flags().GetString("format")
	if depth < 0 {
		return fmt.Errorf("depth must not be negative")
	}

	session, err := openSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer session.Close()

	return printSnapshot(cmd.OutOrStdout(), session.Snapshot(depth), format)
}

// openSession creates a session, parses the project, and opens file.
func openSession(ctx context.Context, file string) (*classbrowser.Session, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	session, err := classbrowser.New(configFromFlags(logger))
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if _, err := session.Parse(ctx); err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Open(file); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// printSnapshot writes snap to w in the requested format.
func printSnapshot(w io.Writer, snap *browser.Snapshot, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, browser.RenderText(snap))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
