// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the state of one chat conversation: its message
// list, whether an answer is currently streaming, and when a title should
// be generated.
//
// A Session moves through three states. It starts Uninitialized, becomes
// Idle once history is loaded, and flips to Streaming for the duration of
// each answer. Stream events are folded in one at a time through Apply,
// which returns an Outcome describing any transition the event caused.
// The sentinel values on the wire ([CONNECTED], [ERROR], [DONE]) are
// interpreted here; everything else is treated as a verbatim fragment of
// the answer.
package session
