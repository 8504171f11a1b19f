// Package tui provides Bubble Tea models for the interactive case portal.
package tui

import "github.com/robby/casedesk/internal/domain"

// ErrorMsg is emitted when an unrecoverable error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// Login flow messages.
type (
	// loginPromptMsg carries the device-login confirmation details.
	loginPromptMsg struct {
		url  string
		code string
	}

	// loginDoneMsg signals that the login attempt finished.
	loginDoneMsg struct {
		err error
	}
)

// Store lifecycle messages. The store commits its own state inside the
// command; these only tell the program a snapshot changed.
type (
	casesRefreshedMsg struct {
		scope domain.Scope
	}

	caseOpenedMsg struct{}

	notesRefreshedMsg struct{}

	noteSubmittedMsg struct{}

	caseSubmittedMsg struct{}
)

// Screen transition messages.
type (
	openDetailMsg struct {
		c domain.Case
	}

	closeDetailMsg struct{}

	openGroupPickerMsg struct{}

	groupSelectedMsg struct {
		key domain.GroupBy
	}

	closeGroupPickerMsg struct{}
)
