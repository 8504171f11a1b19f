package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/domain"
	"github.com/robby/casedesk/internal/store"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLogin AppScreen = iota
	ScreenCases
	ScreenDetail
	ScreenGroupPicker
)

// AppModel is the root Bubble Tea model that manages screen transitions.
// It orchestrates sign-in -> case list -> detail / group picker.
type AppModel struct {
	// Dependencies
	store   *store.Store
	session *auth.Session
	ctx     context.Context

	portalURL string

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error

	// Device login prompt, shown while the session waits for the user to
	// confirm in the browser.
	prompts   chan loginPromptMsg
	loginURL  string
	loginCode string

	// Cached model to preserve list state across screen transitions
	casesModel *CasesModel
}

// NewAppModel creates a new app model.
func NewAppModel(s *store.Store, session *auth.Session, ctx context.Context, portalURL string) AppModel {
	return AppModel{
		store:         s,
		session:       session,
		ctx:           ctx,
		portalURL:     portalURL,
		currentScreen: ScreenLogin,
		prompts:       make(chan loginPromptMsg, 1),
	}
}

// Init starts the sign-in flow.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.startLogin(), m.waitForPrompt())
}

// startLogin runs the session login in the background. A cached or static
// token completes immediately; otherwise the session calls back with the
// device prompt and blocks until the user confirms.
func (m AppModel) startLogin() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Login(m.ctx, func(url, code string) {
			m.prompts <- loginPromptMsg{url: url, code: code}
		})
		close(m.prompts)
		return loginDoneMsg{err: err}
	}
}

// waitForPrompt delivers the device prompt to the UI if one is issued.
func (m AppModel) waitForPrompt() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-m.prompts
		if !ok {
			return nil
		}
		return p
	}
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler outside the main list
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenCases {
			return m, tea.Quit
		}
		if m.currentScreen == ScreenLogin && msg.String() == "q" {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case loginPromptMsg:
		m.loginURL = msg.url
		m.loginCode = msg.code
		// Best effort; the URL and code stay on screen either way.
		_ = browser.OpenURL(msg.url)
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("sign-in failed: %w", msg.err)
			return m, nil
		}
		m.currentScreen = ScreenCases
		casesModel := NewCasesModel(m.store, m.session, m.ctx, m.portalURL)
		m.casesModel = &casesModel
		m.currentModel = m.casesModel
		return m, tea.Batch(
			casesModel.Init(),
			m.loadScope(domain.ScopeMine),
			m.loadScope(domain.ScopeTeam),
		)

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detailModel := NewDetailModel(m.store, m.ctx, m.portalURL)
		m.currentModel = detailModel
		return m, detailModel.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenCases
		m.currentModel = m.casesModel
		return m, tea.WindowSize()

	case openGroupPickerMsg:
		m.currentScreen = ScreenGroupPicker
		pickerModel := NewGroupPickerModel(m.store.View().GroupBy)
		m.currentModel = pickerModel
		return m, pickerModel.Init()

	case groupSelectedMsg:
		m.store.SetGroupBy(msg.key)
		m.currentScreen = ScreenCases
		m.currentModel = m.casesModel
		return m, tea.WindowSize()

	case closeGroupPickerMsg:
		m.currentScreen = ScreenCases
		m.currentModel = m.casesModel
		return m, tea.WindowSize()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		// Keep casesModel in sync when on the list screen
		if m.currentScreen == ScreenCases {
			if cm, ok := m.currentModel.(CasesModel); ok {
				m.casesModel = &cm
			}
		}
		return m, cmd
	}

	return m, nil
}

// loadScope fetches one scope in the background. The two scopes load
// independently so a slow or denied team request never blocks "my cases".
func (m AppModel) loadScope(scope domain.Scope) tea.Cmd {
	return func() tea.Msg {
		m.store.LoadCases(m.ctx, scope)
		return casesRefreshedMsg{scope: scope}
	}
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	if m.currentScreen == ScreenLogin {
		if m.loginURL != "" {
			return TitleStyle.Render("Sign in to the case portal") + "\n\n" +
				"Open " + m.loginURL + "\n" +
				"and enter the code: " + SelectedItemStyle.Render(m.loginCode) + "\n\n" +
				dimStyle.Render("Waiting for confirmation... (q to quit)")
		}
		return "Signing in...\n\nPress q to quit"
	}

	if m.currentModel != nil {
		return m.currentModel.View()
	}

	return ""
}
