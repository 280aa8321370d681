// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"errors"
	"testing"
)

func TestWizardWalksForwardAndBack(t *testing.T) {
	wizard := NewWizard(
		WizardStep{Title: "choose"},
		WizardStep{Title: "confirm"},
		WizardStep{Title: "apply"},
	)

	if current, total := wizard.Progress(); current != 1 || total != 3 {
		t.Fatalf("Progress() = %d/%d, want 1/3", current, total)
	}
	if err := wizard.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if wizard.Step().Title != "confirm" {
		t.Errorf("on step %q, want confirm", wizard.Step().Title)
	}

	wizard.Back()
	if wizard.Step().Title != "choose" {
		t.Errorf("after Back on step %q, want choose", wizard.Step().Title)
	}

	// Back on the first step stays put.
	wizard.Back()
	if wizard.Step().Title != "choose" {
		t.Errorf("Back on first step moved to %q", wizard.Step().Title)
	}
}

func TestWizardValidationGatesNext(t *testing.T) {
	bad := errors.New("label required")
	valid := false
	wizard := NewWizard(
		WizardStep{Title: "label", Validate: func() error {
			if !valid {
				return bad
			}
			return nil
		}},
		WizardStep{Title: "confirm"},
	)

	err := wizard.Next()
	if !errors.Is(err, bad) {
		t.Fatalf("Next with failing validation = %v, want %v", err, bad)
	}
	if wizard.Step().Title != "label" {
		t.Errorf("wizard advanced past failing step to %q", wizard.Step().Title)
	}

	valid = true
	if err := wizard.Next(); err != nil {
		t.Fatalf("Next after validation passes: %v", err)
	}
	if wizard.Step().Title != "confirm" {
		t.Errorf("on step %q, want confirm", wizard.Step().Title)
	}
}

func TestWizardTerminalStates(t *testing.T) {
	wizard := NewWizard(WizardStep{Title: "only"})
	if wizard.State() != WizardActive {
		t.Fatalf("initial state %v, want active", wizard.State())
	}

	if err := wizard.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if wizard.State() != WizardDone {
		t.Fatalf("state after final Next = %v, want done", wizard.State())
	}

	// Done is terminal: further transitions are no-ops.
	wizard.Cancel()
	if wizard.State() != WizardDone {
		t.Errorf("Cancel after done moved state to %v", wizard.State())
	}

	cancelled := NewWizard(WizardStep{Title: "a"}, WizardStep{Title: "b"})
	cancelled.Cancel()
	if cancelled.State() != WizardCancelled {
		t.Fatalf("state after Cancel = %v, want cancelled", cancelled.State())
	}
	if err := cancelled.Next(); err != nil {
		t.Errorf("Next after cancel returned %v", err)
	}
	if cancelled.Step().Title != "a" {
		t.Errorf("cancelled wizard moved to %q", cancelled.Step().Title)
	}
}
