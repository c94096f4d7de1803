// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/util"
)

// HandleStatus prints server reachability and session state.
func HandleStatus(args Args) {
	cfg := config.Global()

	fmt.Printf("%s %s\n", util.PadRight("Server:", 8), cfg.Server.BaseURL)
	if path, err := config.Path(); err == nil {
		fmt.Printf("%s %s\n", util.PadRight("Config:", 8), path)
	}
	if logPath, err := cfg.LogPath(); err == nil {
		fmt.Printf("%s %s\n", util.PadRight("Log:", 8), logPath)
	}

	client, err := api.New(cfg.Server.BaseURL, cfg.RequestTimeout(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	user, err := client.CurrentUser(context.Background())
	switch {
	case err == nil:
		fmt.Printf("%s signed in as %s\n", util.PadRight("Session:", 8), user.Email)
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Printf("%s signed out\n", util.PadRight("Session:", 8))
		fmt.Printf("%s %s\n", util.PadRight("Sign in:", 8), client.LoginURL())
	default:
		fmt.Printf("%s server unreachable (%v)\n", util.PadRight("Session:", 8), err)
		os.Exit(1)
	}
}
