// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
)

// Verifier is the slice of the API surface the manager needs. *api.Client
// satisfies it.
type Verifier interface {
	CurrentUser(ctx context.Context) (model.User, error)
	Logout(ctx context.Context) error
	LoginURL() string
}

// State is a point-in-time snapshot of the authentication status. Loading
// is true until the first check against the server resolves; consumers must
// render neither the signed-in nor the signed-out experience while it is.
type State struct {
	User          *model.User
	Authenticated bool
	Loading       bool
}

// Manager resolves and caches whether the session cookie grants access.
// It is safe for concurrent use.
type Manager struct {
	verifier Verifier
	logger   *slog.Logger

	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewManager creates a manager that starts in the loading state.
func NewManager(verifier Verifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		verifier: verifier,
		logger:   logger.With("module", "auth"),
		state:    State{Loading: true},
	}
}

// SetOnChange registers a callback invoked with each resolved state. The
// callback runs on the caller's goroutine of Check or Logout, without the
// manager's lock held.
func (m *Manager) SetOnChange(fn func(State)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// setState records a resolved state and returns it with the notification
// callback to run after the lock is released.
func (m *Manager) setState(s State) (State, func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return m.state, m.onChange
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LoginURL returns the address the user must open in a browser to start
// the OAuth flow.
func (m *Manager) LoginURL() string {
	return m.verifier.LoginURL()
}

// Check asks the server who the session cookie belongs to and records the
// result. A 401 resolves to signed-out without error; any other failure is
// returned and also resolves to signed-out, since an unreachable server
// cannot vouch for the session.
func (m *Manager) Check(ctx context.Context) (State, error) {
	// Observers fall back to the loading state for the whole in-flight
	// window. The current user is kept until the server answers, so a
	// re-check does not flash the signed-out experience.
	m.mu.Lock()
	loading := m.state
	loading.Loading = true
	m.state = loading
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(loading)
	}

	user, err := m.verifier.CurrentUser(ctx)

	var (
		state    State
		checkErr error
	)
	switch {
	case err == nil:
		state = State{User: &user, Authenticated: true}
		m.logger.Debug("session verified", "email", user.Email)

	case errors.Is(err, api.ErrUnauthorized):
		state = State{}

	default:
		m.logger.Warn("session check failed", "error", err)
		state = State{}
		checkErr = err
	}

	state, notify = m.setState(state)
	if notify != nil {
		notify(state)
	}
	return state, checkErr
}

// Logout ends the session. The remote call is best effort; local state is
// cleared regardless so the user is signed out from the client's point of
// view even when the server is unreachable.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.verifier.Logout(ctx)
	if err != nil {
		m.logger.Warn("remote logout failed", "error", err)
	}

	state, notify := m.setState(State{})
	if notify != nil {
		notify(state)
	}
	return err
}
