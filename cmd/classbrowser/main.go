// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command classbrowser prints or browses the symbols visible from one C/C++
// source file.
//
//	docs/ARCHITECTURE § Project Structure.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/go-classbrowser/pkg/classbrowser"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "classbrowser",
		Short: "Class browser for C/C++ projects",
		Long:  "classbrowser parses a C/C++ project and shows the namespaces, classes, and functions visible from one file as a tree.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	rootCmd.PersistentFlags().StringSlice("include-dir", nil, "Include search directory (repeatable)")
	rootCmd.PersistentFlags().StringSlice("system-include-dir", nil, "System include directory, searched last (repeatable)")
	rootCmd.PersistentFlags().StringSlice("source", nil, "Source glob relative to the root (default all C/C++ files)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Glob of paths left out of discovery")
	rootCmd.PersistentFlags().Int("jobs", 0, "Parallel file extractions (default NumCPU)")
	rootCmd.PersistentFlags().Bool("show-inherited", false, "List inherited class members")
	rootCmd.PersistentFlags().Bool("no-git", false, "Treat every file as part of the project")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	// Bind flags to viper.
	for _, name := range []string{
		"root", "include-dir", "system-include-dir", "source", "exclude",
		"jobs", "show-inherited", "no-git", "log-level",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Env vars: CLASSBROWSER_ROOT, CLASSBROWSER_INCLUDE_DIR, etc.
	viper.SetEnvPrefix("CLASSBROWSER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".classbrowser")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print classbrowser version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("classbrowser %s\n", version)
		},
	}
}

// newLogger builds the stderr logger for the configured level.
func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// configFromFlags reads the session config from viper.
func configFromFlags(logger *slog.Logger) classbrowser.Config {
	return classbrowser.Config{
		Root:              viper.GetString("root"),
		Sources:           viper.GetStringSlice("source"),
		Exclude:           viper.GetStringSlice("exclude"),
		IncludeDirs:       viper.GetStringSlice("include-dir"),
		SystemIncludeDirs: viper.GetStringSlice("system-include-dir"),
		Jobs:              viper.GetInt("jobs"),
		ShowInherited:     viper.GetBool("show-inherited"),
		NoGit:             viper.GetBool("no-git"),
		Logger:            logger,
	}
}
