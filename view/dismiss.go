// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import tea "github.com/charmbracelet/bubbletea"

// Region is a rectangle in terminal cell coordinates, used for mouse
// hit-testing against a rendered component.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the cell (x, y) falls inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ClickedOutside reports whether the mouse message is a left-button
// press landing outside the region — the signal for dismissing a
// popup or dropdown. Motion, release, wheel, and clicks inside the
// region all return false.
func ClickedOutside(message tea.MouseMsg, region Region) bool {
	if message.Button != tea.MouseButtonLeft || message.Action != tea.MouseActionPress {
		return false
	}
	return !region.Contains(message.X, message.Y)
}
