// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import "fmt"

// WizardState is the lifecycle state of a Wizard.
type WizardState int

const (
	// WizardActive means the wizard is on a step and accepting
	// Next/Back/Cancel.
	WizardActive WizardState = iota
	// WizardDone means the final step was completed.
	WizardDone
	// WizardCancelled means the wizard was abandoned.
	WizardCancelled
)

func (s WizardState) String() string {
	switch s {
	case WizardActive:
		return "active"
	case WizardDone:
		return "done"
	case WizardCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("WizardState(%d)", int(s))
	}
}

// WizardStep is one page of a multi-step flow. Validate gates forward
// progress: Next refuses to advance past a step whose Validate returns
// an error. A nil Validate always passes.
type WizardStep struct {
	Title    string
	Validate func() error
}

// Wizard drives an ordered sequence of steps with gated forward
// navigation. It is a plain state machine: the caller renders the
// current step and routes key presses to Next/Back/Cancel.
//
// Wizard is not safe for concurrent use; drive it from a single
// update loop.
type Wizard struct {
	steps   []WizardStep
	current int
	state   WizardState
}

// NewWizard creates a wizard positioned on the first step. It panics
// if no steps are given; an empty flow is a programming error.
func NewWizard(steps ...WizardStep) *Wizard {
	if len(steps) == 0 {
		panic("view: wizard requires at least one step")
	}
	return &Wizard{steps: steps}
}

// State reports the wizard's lifecycle state.
func (w *Wizard) State() WizardState { return w.state }

// Step returns the current step. Once the wizard is done or
// cancelled it keeps returning the step it ended on.
func (w *Wizard) Step() WizardStep { return w.steps[w.current] }

// Progress reports the 1-based position of the current step and the
// total step count, for rendering "Step 2 of 4".
func (w *Wizard) Progress() (current, total int) {
	return w.current + 1, len(w.steps)
}

// Next validates the current step and advances. Completing the last
// step moves the wizard to WizardDone. A validation failure leaves
// the wizard in place and returns the step's error. Next on a
// finished wizard is a no-op.
func (w *Wizard) Next() error {
	if w.state != WizardActive {
		return nil
	}
	step := w.steps[w.current]
	if step.Validate != nil {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %q: %w", step.Title, err)
		}
	}
	if w.current == len(w.steps)-1 {
		w.state = WizardDone
		return nil
	}
	w.current++
	return nil
}

// Back moves to the previous step without validation. On the first
// step, or on a finished wizard, it is a no-op.
func (w *Wizard) Back() {
	if w.state != WizardActive || w.current == 0 {
		return
	}
	w.current--
}

// Cancel abandons the wizard from any active step. Cancelling a
// finished wizard is a no-op.
func (w *Wizard) Cancel() {
	if w.state != WizardActive {
		return
	}
	w.state = WizardCancelled
}
