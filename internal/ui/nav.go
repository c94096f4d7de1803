// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui holds the messages that move the application between screens.
// Each screen is its own Bubble Tea model under this directory; the root
// model in main routes these messages between them.
package ui

// NavigateToChatMsg opens a conversation. FirstMessage is set only when the
// conversation was just created from the home screen and its opening
// question still needs to be streamed.
type NavigateToChatMsg struct {
	ConversationID string
	Title          string
	FirstMessage   string
}

// NavigateHomeMsg returns to the home screen.
type NavigateHomeMsg struct{}

// NavigateHistoryMsg opens the full conversation history.
type NavigateHistoryMsg struct{}

// NavigateLoginMsg sends the user to the sign-in screen, replacing the
// current screen so back navigation cannot reach protected content.
type NavigateLoginMsg struct{}

// NavigateNotFoundMsg is shown when a conversation no longer exists.
type NavigateNotFoundMsg struct{}

// LogoutRequestedMsg asks the root model to end the session.
type LogoutRequestedMsg struct{}
