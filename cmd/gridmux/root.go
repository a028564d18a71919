// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/gridmux/root.go
// Summary: Cobra commands: the root command runs the multiplexer UI,
// subcommands manage stored layouts.

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gridmux/gridmux/config"
	"github.com/gridmux/gridmux/content"
	"github.com/gridmux/gridmux/grid"
	"github.com/gridmux/gridmux/internal/termhost"
	"github.com/gridmux/gridmux/store"
)

var rootCmd = &cobra.Command{
	Use:   "gridmux",
	Short: "A pane-splitting terminal multiplexer",
	Long: `gridmux splits the terminal into a binary tree of panes hosting
shells, file viewers, and placeholders. Prefix key is Ctrl-B.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI()
	},
}

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List stored layouts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.LayoutDBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		infos, err := st.List()
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%-20s %s\n", info.Name, info.SavedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var layoutsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		st, err := store.Open(cfg.LayoutDBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Delete(args[0])
	},
}

func init() {
	layoutsCmd.AddCommand(layoutsDeleteCmd)
	rootCmd.AddCommand(layoutsCmd)
}

func runUI() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("gridmux must run on a terminal")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The screen owns stdout; logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	st, err := store.Open(cfg.LayoutDBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}

	loop := grid.NewLoop(256)
	host := termhost.New(termhost.NewTcellScreenDriver(screen), loop, st)

	ws, err := grid.NewWorkspace(content.Default(cfg.Shell), host, loop, cfg.Options())
	if err != nil {
		return err
	}
	host.Attach(ws)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		host.Quit()
	}()

	log.Printf("gridmux starting (shell=%s)", cfg.Shell)
	return host.Run()
}
