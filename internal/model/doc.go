// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared across the application:
// messages, conversation summaries, history entries, and the authenticated
// user. Messages own their streaming accumulation state; everything else is
// a plain value decoded from the server's JSON.
package model
