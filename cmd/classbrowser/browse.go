// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/go-classbrowser/internal/tui"
)

// newBrowseCmd creates the "browse" command.
func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse FILE",
		Short: "Browse the symbol tree of a file in the terminal",
		Long:  "Browse parses the project and opens an interactive tree for FILE. With --watch, edits under the root trigger a reparse.",
		Args:  cobra.ExactArgs(1),
		RunE:  runBrowse,
	}

	cmd.Flags().BoolP("watch", "w", false, "Reparse when sources change")

	return cmd
}

// runBrowse runs the terminal view until the user quits.
func runBrowse(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")

	session, err := openSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var wg sync.WaitGroup
	if watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := session.Watch(ctx); err != nil {
				cmd.PrintErrf("watch: %v\n", err)
			}
		}()
	}

	refresh := func() error {
		_, err := session.Parse(ctx)
		return err
	}
	err = tui.Run(ctx, session.Model(), refresh)
	cancel()
	wg.Wait()
	return err
}
