// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/uniroad/uniroad-tui/internal/config"
)

// HandleConfig shows or initializes the configuration file.
func HandleConfig(args Args) {
	switch args.Subcommand {
	case "", "show":
		if err := toml.NewEncoder(os.Stdout).Encode(config.Global()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "path":
		path, err := config.Path()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)

	case "init":
		path, err := config.WriteDefault()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args.Subcommand)
		fmt.Fprintln(os.Stderr, "Usage: uniroad config [show|path|init]")
		os.Exit(1)
	}
}
