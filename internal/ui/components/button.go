package components

import (
	"github.com/jsp88/jsp/internal/ui/theme"
)

// Button is a styled action label. Busy buttons render their BusyLabel and
// are drawn inactive.
type Button struct {
	Label     string
	BusyLabel string
	Focused   bool
	Busy      bool
}

// NewButton creates a new button.
func NewButton(label, busyLabel string) Button {
	return Button{Label: label, BusyLabel: busyLabel}
}

// View renders the button.
func (b Button) View() string {
	if b.Busy {
		return theme.ButtonInactive.Render(b.BusyLabel)
	}
	if b.Focused {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
