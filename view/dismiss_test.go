// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRegionContains(t *testing.T) {
	region := Region{X: 10, Y: 5, Width: 20, Height: 4}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"interior", 15, 6, true},
		{"top-left corner", 10, 5, true},
		{"bottom-right interior edge", 29, 8, true},
		{"right of region", 30, 6, false},
		{"below region", 15, 9, false},
		{"left of region", 9, 6, false},
		{"above region", 15, 4, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := region.Contains(test.x, test.y); got != test.want {
				t.Errorf("Contains(%d, %d) = %v, want %v", test.x, test.y, got, test.want)
			}
		})
	}
}

func TestClickedOutside(t *testing.T) {
	region := Region{X: 10, Y: 5, Width: 20, Height: 4}

	press := func(x, y int, button tea.MouseButton, action tea.MouseAction) tea.MouseMsg {
		return tea.MouseMsg{X: x, Y: y, Button: button, Action: action}
	}

	if !ClickedOutside(press(0, 0, tea.MouseButtonLeft, tea.MouseActionPress), region) {
		t.Error("left press outside the region did not dismiss")
	}
	if ClickedOutside(press(15, 6, tea.MouseButtonLeft, tea.MouseActionPress), region) {
		t.Error("left press inside the region dismissed")
	}
	if ClickedOutside(press(0, 0, tea.MouseButtonLeft, tea.MouseActionRelease), region) {
		t.Error("release dismissed; only presses should")
	}
	if ClickedOutside(press(0, 0, tea.MouseButtonRight, tea.MouseActionPress), region) {
		t.Error("right press dismissed; only left button should")
	}
	if ClickedOutside(press(0, 0, tea.MouseButtonWheelDown, tea.MouseActionPress), region) {
		t.Error("wheel event dismissed")
	}
}
