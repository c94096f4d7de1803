// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api wraps the remote chat service's HTTP and SSE endpoints.
//
// The package exposes two kinds of operations:
//
//   - Plain JSON calls (conversation list/get/delete, title generation,
//     conversation creation, history, current user, logout) with a shared
//     failure taxonomy: ErrNotFound for 404, ErrUnauthorized for 401, and
//     *APIError for every other non-success status.
//
//   - The streaming completion endpoint, which pushes text events framed by
//     three reserved sentinel strings ([CONNECTED], [ERROR], [DONE]); every
//     other payload is a verbatim content fragment. Sentinels and fragments
//     are indistinguishable except by exact string match.
//
// All requests carry session cookies from a shared jar; there is no other
// authentication scheme.
package api
