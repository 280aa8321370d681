// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vaultview/vaultview/keyring"
	"github.com/vaultview/vaultview/view"
)

// labelBook is the console's view of the keyring: resolution plus the
// listing and mutation calls the UI needs. Both *keyring.Store and
// *keyring.RemoteKeyring satisfy it.
type labelBook interface {
	keyring.Resolver
	Put(ctx context.Context, address keyring.Address, label string) error
	List(ctx context.Context) ([]keyring.Entry, error)
}

// rowsMsg carries a fresh address listing into the update loop.
type rowsMsg struct {
	addresses []keyring.Address
	err       error
}

// changeMsg wraps one keyring change event. closed reports that the
// event stream ended.
type changeMsg struct {
	event  keyring.ChangeEvent
	closed bool
}

// repaintNotifier forwards binding label changes into the bubbletea
// loop. The program handle does not exist until after the model is
// built, so the notifier starts disconnected and drops notifications
// until attach is called.
type repaintNotifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func (n *repaintNotifier) attach(program *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = program
}

func (n *repaintNotifier) notify() {
	n.mu.Lock()
	program := n.program
	n.mu.Unlock()
	if program != nil {
		program.Send(view.LabelChangedMsg{})
	}
}

// appModel is the console's top-level bubbletea model: the address
// list plus a status line. The row set refreshes on every keyring
// change event, so additions and imports appear without user action.
type appModel struct {
	book         labelBook
	list         *view.AddressList
	subscription *keyring.Subscription
	keyMap       view.KeyMap
	theme        view.Theme

	width  int
	height int
	status string
	err    error
}

func newAppModel(book labelBook, notifier *repaintNotifier) (*appModel, error) {
	subscription, err := book.Changes().Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribing to keyring changes: %w", err)
	}
	model := &appModel{
		book:         book,
		subscription: subscription,
		keyMap:       view.DefaultKeyMap,
		theme:        view.DefaultTheme,
	}
	model.list = view.NewAddressList(book, view.WithListNotify(notifier.notify))
	return model, nil
}

func (m *appModel) Init() tea.Cmd {
	return tea.Batch(m.refreshRows(), m.waitForChange())
}

// refreshRows lists the label book off the update loop.
func (m *appModel) refreshRows() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		entries, err := m.book.List(ctx)
		if err != nil {
			return rowsMsg{err: err}
		}
		addresses := make([]keyring.Address, len(entries))
		for i, entry := range entries {
			addresses[i] = entry.Address
		}
		return rowsMsg{addresses: addresses}
	}
}

// waitForChange blocks on the next keyring change event.
func (m *appModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.subscription.Events()
		if !ok {
			return changeMsg{closed: true}
		}
		return changeMsg{event: event}
	}
}

func (m *appModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.list.SetSize(message.Width, message.Height-2)
		return m, nil

	case rowsMsg:
		if message.err != nil {
			m.err = message.err
			return m, nil
		}
		if err := m.list.SetRows(message.addresses); err != nil {
			m.err = err
		}
		return m, nil

	case changeMsg:
		if message.closed {
			m.status = "keyring connection lost"
			return m, nil
		}
		// The row set may have grown or shrunk; the bindings handle
		// per-row label updates on their own.
		return m, tea.Batch(m.refreshRows(), m.waitForChange())

	case view.LabelChangedMsg:
		// A binding updated its label; returning from Update is
		// enough to repaint.
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(message, m.keyMap.Next):
			if address, ok := m.list.Selected(); ok {
				m.status = m.shareLink(address)
			}
			return m, nil
		}
		m.list.Update(message)
		return m, nil
	}
	return m, nil
}

// shareLink renders a share link for the selected row, or an
// explanation when the row has no label yet.
func (m *appModel) shareLink(address keyring.Address) string {
	name, ok := m.resolvedName(address)
	if !ok {
		return fmt.Sprintf("%s has no label to share", address)
	}
	return view.EncodeShareLink(address, name)
}

func (m *appModel) resolvedName(address keyring.Address) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	identity, err := m.book.Resolve(ctx, address)
	if err != nil || identity.Name == "" {
		return "", false
	}
	return identity.Name, true
}

func (m *appModel) View() string {
	help := lipgloss.NewStyle().Foreground(m.theme.HelpText).
		Render("j/k move · Enter share link · q quit")
	status := m.status
	if m.err != nil {
		status = "error: " + m.err.Error()
	}
	statusLine := lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(status)
	return m.list.View() + "\n" + statusLine + "\n" + help
}

// close tears down the model's keyring resources. Called after the
// program exits.
func (m *appModel) close() {
	m.subscription.Cancel()
	m.list.Close()
}
