// Copyright © 2026 Gridmux contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/gridmux/main.go
// Summary: Entry point for the gridmux terminal multiplexer.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
