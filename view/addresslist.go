// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vaultview/vaultview/keyring"
)

// LabelChangedMsg is delivered into the bubbletea loop when any row's
// resolved label changes, so the list repaints.
type LabelChangedMsg struct{}

// AddressList is a scrolling list of addresses where each row shows
// the live human-readable label for its address. Rows hold an
// IdentityBinding apiece, so labels update in place as the label book
// changes underneath the view.
//
// AddressList is a component, not a top-level program: embed it in a
// model, route messages through Update, and splice View into the
// parent's render.
type AddressList struct {
	resolver keyring.Resolver
	keyMap   KeyMap
	theme    Theme
	notify   func()

	rows   []addressRow
	cursor int
	offset int
	width  int
	height int
	closed bool
}

type addressRow struct {
	address keyring.Address
	binding *IdentityBinding
}

// AddressListOption configures an AddressList.
type AddressListOption func(*AddressList)

// WithKeyMap overrides the navigation key bindings.
func WithKeyMap(keyMap KeyMap) AddressListOption {
	return func(list *AddressList) { list.keyMap = keyMap }
}

// WithTheme overrides the color palette.
func WithTheme(theme Theme) AddressListOption {
	return func(list *AddressList) { list.theme = theme }
}

// WithListNotify registers a callback invoked (from a binding's
// goroutine) whenever any row's label changes. Wire it to
// program.Send(LabelChangedMsg{}) so the loop repaints.
func WithListNotify(fn func()) AddressListOption {
	return func(list *AddressList) { list.notify = fn }
}

// NewAddressList creates an empty list resolving labels through the
// given resolver. Populate it with SetRows.
func NewAddressList(resolver keyring.Resolver, options ...AddressListOption) *AddressList {
	list := &AddressList{
		resolver: resolver,
		keyMap:   DefaultKeyMap,
		theme:    DefaultTheme,
		height:   10,
		width:    60,
	}
	for _, option := range options {
		option(list)
	}
	return list
}

// SetRows replaces the visible address set. Bindings for addresses
// that survive the change are kept (their resolved labels carry
// over); departed addresses have their bindings closed; new addresses
// get fresh bindings. On error (a new binding cannot subscribe, or an
// address is invalid) the previous row set stays in place, fully
// functional, and any bindings created by the failed call are closed.
func (list *AddressList) SetRows(addresses []keyring.Address) error {
	if list.closed {
		return fmt.Errorf("address list is closed")
	}

	existing := make(map[string]*IdentityBinding, len(list.rows))
	for _, row := range list.rows {
		existing[strings.ToLower(string(row.address))] = row.binding
	}

	rows := make([]addressRow, 0, len(addresses))
	// created tracks bindings made by this call, so a mid-loop failure
	// unwinds only them. Surviving bindings belong to the old row set,
	// which stays in place when SetRows fails.
	var created []*IdentityBinding
	for _, address := range addresses {
		fold := strings.ToLower(string(address))
		if binding, ok := existing[fold]; ok {
			rows = append(rows, addressRow{address: address, binding: binding})
			delete(existing, fold)
			continue
		}
		binding, err := BindIdentity(list.resolver, address, WithNotify(list.rowChanged))
		if err != nil {
			for _, unwind := range created {
				unwind.Close()
			}
			return fmt.Errorf("binding %q: %w", address, err)
		}
		created = append(created, binding)
		rows = append(rows, addressRow{address: address, binding: binding})
	}

	// Whatever remains in existing dropped out of the visible set.
	for _, binding := range existing {
		binding.Close()
	}

	list.rows = rows
	if list.cursor >= len(rows) {
		list.cursor = len(rows) - 1
	}
	if list.cursor < 0 {
		list.cursor = 0
	}
	list.clampScroll()
	return nil
}

func (list *AddressList) rowChanged() {
	if list.notify != nil {
		list.notify()
	}
}

// SetSize sets the render area in terminal cells.
func (list *AddressList) SetSize(width, height int) {
	list.width = width
	list.height = height
	list.clampScroll()
}

// Selected returns the address under the cursor. ok is false when the
// list is empty.
func (list *AddressList) Selected() (address keyring.Address, ok bool) {
	if len(list.rows) == 0 {
		return "", false
	}
	return list.rows[list.cursor].address, true
}

// Len returns the number of rows.
func (list *AddressList) Len() int { return len(list.rows) }

// Update handles navigation keys. Messages it does not consume are
// ignored; it never emits commands.
func (list *AddressList) Update(message tea.Msg) tea.Cmd {
	keyMessage, ok := message.(tea.KeyMsg)
	if !ok || len(list.rows) == 0 {
		return nil
	}
	switch {
	case key.Matches(keyMessage, list.keyMap.Up):
		list.moveCursor(-1)
	case key.Matches(keyMessage, list.keyMap.Down):
		list.moveCursor(1)
	case key.Matches(keyMessage, list.keyMap.PageUp):
		list.moveCursor(-list.height)
	case key.Matches(keyMessage, list.keyMap.PageDown):
		list.moveCursor(list.height)
	case key.Matches(keyMessage, list.keyMap.Home):
		list.cursor = 0
		list.clampScroll()
	case key.Matches(keyMessage, list.keyMap.End):
		list.cursor = len(list.rows) - 1
		list.clampScroll()
	}
	return nil
}

func (list *AddressList) moveCursor(delta int) {
	list.cursor += delta
	if list.cursor < 0 {
		list.cursor = 0
	}
	if list.cursor >= len(list.rows) {
		list.cursor = len(list.rows) - 1
	}
	list.clampScroll()
}

func (list *AddressList) clampScroll() {
	if list.cursor < list.offset {
		list.offset = list.cursor
	}
	if list.cursor >= list.offset+list.height {
		list.offset = list.cursor - list.height + 1
	}
	if list.offset < 0 {
		list.offset = 0
	}
}

// View renders the visible rows. Each row shows the address and, when
// resolved, its label; unresolved rows show the address alone.
func (list *AddressList) View() string {
	if len(list.rows) == 0 {
		return lipgloss.NewStyle().Foreground(list.theme.FaintText).Render("no addresses")
	}

	normal := lipgloss.NewStyle().Foreground(list.theme.NormalText)
	label := lipgloss.NewStyle().Foreground(list.theme.LabelForeground)
	selected := lipgloss.NewStyle().
		Foreground(list.theme.SelectedForeground).
		Background(list.theme.SelectedBackground).
		Width(list.width)

	var builder strings.Builder
	end := list.offset + list.height
	if end > len(list.rows) {
		end = len(list.rows)
	}
	for i := list.offset; i < end; i++ {
		row := list.rows[i]
		name, resolved := row.binding.Name()

		var line string
		if i == list.cursor {
			// The selected row gets one uniform style; nesting the
			// label color inside the selection background renders
			// badly in some terminals.
			text := string(row.address)
			if resolved {
				text += "  " + name
			}
			line = selected.Render(text)
		} else {
			line = normal.Render(string(row.address))
			if resolved {
				line += "  " + label.Render(name)
			}
		}
		builder.WriteString(line)
		if i < end-1 {
			builder.WriteByte('\n')
		}
	}
	return builder.String()
}

// Close tears down every row's binding. The list must not be used
// afterwards except to call Close again.
func (list *AddressList) Close() {
	if list.closed {
		return
	}
	list.closed = true
	for _, row := range list.rows {
		row.binding.Close()
	}
	list.rows = nil
}
