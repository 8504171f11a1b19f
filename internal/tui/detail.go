package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/robby/casedesk/internal/domain"
	"github.com/robby/casedesk/internal/format"
	"github.com/robby/casedesk/internal/store"
)

// Layout constants
const (
	leftPanelRatio = 0.35 // Left panel takes 35% of width
	minLeftWidth   = 30
	maxLeftWidth   = 50
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	noteSubjectStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Bold(true)

	noteTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noteBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))
)

// DetailModel is the case detail view: metadata on the left, the note
// timeline on the right, and a compose form for new notes.
type DetailModel struct {
	// Dependencies
	store *store.Store
	ctx   context.Context

	portalURL string

	// UI components
	spinner      spinner.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model
	viewport     viewport.Model

	// State
	composeMode  bool
	composeFocus int // 0 = subject, 1 = body
	confirmExit  bool

	width  int
	height int
}

// NewDetailModel creates a new detail view model.
func NewDetailModel(s *store.Store, ctx context.Context, portalURL string) DetailModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	subject := textinput.New()
	subject.Placeholder = "Subject (optional)"
	subject.CharLimit = 200

	body := textarea.New()
	body.Placeholder = "Write your note here..."
	body.CharLimit = 65535
	body.SetHeight(5)
	body.SetWidth(40) // Will be resized
	body.ShowLineNumbers = false
	body.FocusedStyle.CursorLine = lipgloss.NewStyle()
	body.FocusedStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("228"))
	body.BlurredStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))

	vp := viewport.New(40, 10) // Will be resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	m := DetailModel{
		store:        s,
		ctx:          ctx,
		portalURL:    portalURL,
		spinner:      sp,
		subjectInput: subject,
		bodyInput:    body,
		viewport:     vp,
	}

	// Restore any draft left from a previous compose session on this case.
	v := s.View()
	m.subjectInput.SetValue(v.NoteForm.Subject)
	m.bodyInput.SetValue(v.NoteForm.Body)

	return m
}

// Init initializes the detail model.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages.
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case caseOpenedMsg, notesRefreshedMsg:
		m.refreshViewport()
		return m, nil

	case noteSubmittedMsg:
		v := m.store.View()
		if !v.NoteForm.Visible && v.NoteForm.Error == "" {
			// Submitted and cleared; leave compose mode.
			m.composeMode = false
			m.subjectInput.Reset()
			m.bodyInput.Reset()
			m.subjectInput.Blur()
			m.bodyInput.Blur()
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if !m.composeMode {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// resizeComponents calculates and sets component dimensions.
func (m *DetailModel) resizeComponents() {
	leftWidth := int(float64(m.width) * leftPanelRatio)
	if leftWidth < minLeftWidth {
		leftWidth = minLeftWidth
	}
	if leftWidth > maxLeftWidth {
		leftWidth = maxLeftWidth
	}

	rightWidth := m.width - leftWidth - 3
	if rightWidth < 30 {
		rightWidth = 30
	}

	contentHeight := m.height - headerHeight - footerHeight - borderSize
	if contentHeight < 10 {
		contentHeight = 10
	}

	m.viewport.Width = rightWidth - borderSize - 2
	m.viewport.Height = contentHeight - borderSize - 2

	m.subjectInput.Width = rightWidth - borderSize - 6
	m.bodyInput.SetWidth(rightWidth - borderSize - 4)
}

// handleKeyPress processes keyboard input.
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Confirm exit dialog for an unsaved draft
	if m.confirmExit {
		switch msg.String() {
		case "y", "Y":
			m.confirmExit = false
			m.composeMode = false
			m.subjectInput.Reset()
			m.bodyInput.Reset()
			m.subjectInput.Blur()
			m.bodyInput.Blur()
			m.store.SetNoteSubject("")
			m.store.SetNoteBody("")
			m.store.HideNoteForm()
			return m, nil
		case "n", "N", "esc":
			m.confirmExit = false
			return m, nil
		case "s", "S":
			m.confirmExit = false
			if strings.TrimSpace(m.bodyInput.Value()) != "" {
				return m, m.submitNoteCmd()
			}
			return m, nil
		}
		return m, nil
	}

	// Compose mode: inputs get all key events except special ones
	if m.composeMode {
		switch msg.String() {
		case "esc":
			if strings.TrimSpace(m.subjectInput.Value()) != "" || strings.TrimSpace(m.bodyInput.Value()) != "" {
				m.confirmExit = true
				return m, nil
			}
			m.composeMode = false
			m.subjectInput.Blur()
			m.bodyInput.Blur()
			m.store.HideNoteForm()
			return m, nil
		case "tab":
			if m.composeFocus == 0 {
				m.composeFocus = 1
				m.subjectInput.Blur()
				m.bodyInput.Focus()
			} else {
				m.composeFocus = 0
				m.bodyInput.Blur()
				m.subjectInput.Focus()
			}
			return m, nil
		case "ctrl+s":
			if strings.TrimSpace(m.bodyInput.Value()) != "" {
				return m, m.submitNoteCmd()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			if m.composeFocus == 0 {
				m.subjectInput, cmd = m.subjectInput.Update(msg)
				m.store.SetNoteSubject(m.subjectInput.Value())
			} else {
				m.bodyInput, cmd = m.bodyInput.Update(msg)
				m.store.SetNoteBody(m.bodyInput.Value())
			}
			return m, cmd
		}
	}

	// Normal mode
	switch msg.String() {
	case "q", "esc":
		m.store.CloseCase()
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "o":
		if v := m.store.View(); v.Selected != nil && m.portalURL != "" {
			_ = browser.OpenURL(m.portalURL + "/cases/" + v.Selected.IncidentID)
		}
	case "c":
		// Notes can only be authored on the viewer's own cases.
		if m.store.View().ActiveScope != domain.ScopeMine {
			return m, nil
		}
		m.composeMode = true
		m.composeFocus = 0
		m.subjectInput.Focus()
		m.store.ShowNoteForm()
		return m, textinput.Blink
	case "r":
		return m, func() tea.Msg {
			m.store.RefreshNotes(m.ctx)
			return notesRefreshedMsg{}
		}
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

// submitNoteCmd flushes the draft inputs and submits in the background.
func (m DetailModel) submitNoteCmd() tea.Cmd {
	m.store.SetNoteSubject(m.subjectInput.Value())
	m.store.SetNoteBody(m.bodyInput.Value())
	return func() tea.Msg {
		m.store.SubmitNote(m.ctx)
		return noteSubmittedMsg{}
	}
}

// View renders the split-screen detail view.
func (m DetailModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	v := m.store.View()
	if v.Selected == nil {
		return dimStyle.Render("No case selected")
	}

	leftWidth := int(float64(width) * leftPanelRatio)
	if leftWidth < minLeftWidth {
		leftWidth = minLeftWidth
	}
	if leftWidth > maxLeftWidth {
		leftWidth = maxLeftWidth
	}
	rightWidth := width - leftWidth - 1

	contentHeight := height - headerHeight - footerHeight
	if contentHeight < 10 {
		contentHeight = 10
	}

	header := m.renderHeader(v)

	leftContent := m.renderLeftPanel(leftWidth-borderSize, contentHeight-borderSize, *v.Selected)
	leftPanel := panelBorderStyle.
		Width(leftWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(leftContent)

	rightContent := m.renderRightPanel(rightWidth-borderSize, v)
	rightBorder := focusedPanelBorderStyle
	if m.composeMode {
		rightBorder = panelBorderStyle
	}
	rightPanel := rightBorder.
		Width(rightWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(rightContent)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	footer := m.renderFooter(width, v)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, footer)
}

// renderHeader renders the top help bar.
func (m DetailModel) renderHeader(v store.View) string {
	if m.confirmExit {
		return warningStyle.Render("Unsaved note! [Y]discard [N]cancel [S]save and post")
	}

	if m.composeMode {
		return dimStyle.Render("[Ctrl+S]post [Tab]switch field [ESC]cancel") + "  " +
			noteSubjectStyle.Render("Writing note...")
	}

	parts := []string{"[q]back", "[o]open", "[r]refresh", "[j/k]scroll", "[g/G]top/bottom"}
	if v.ActiveScope == domain.ScopeMine {
		parts = append(parts, "[c]add note")
	}
	return dimStyle.Render(strings.Join(parts, " "))
}

// renderFooter renders the bottom status bar.
func (m DetailModel) renderFooter(width int, v store.View) string {
	var left, right string

	if v.NoteForm.Submitting {
		left = m.spinner.View() + " Posting..."
	} else if v.NoteForm.Error != "" {
		left = errorStyle.Render("✗ " + v.NoteForm.Error)
	} else if m.composeMode {
		left = fmt.Sprintf("%d chars", len(m.bodyInput.Value()))
	}

	if len(v.Notes) > 0 && !m.composeMode {
		scrollPct := int(m.viewport.ScrollPercent() * 100)
		if m.viewport.AtTop() {
			right = "TOP"
		} else if m.viewport.AtBottom() {
			right = "END"
		} else {
			right = fmt.Sprintf("%d%%", scrollPct)
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders the case metadata panel.
func (m DetailModel) renderLeftPanel(width, height int, c domain.Case) string {
	var b strings.Builder

	b.WriteString(detailLabelStyle.Render("Case " + c.TicketNumber))
	b.WriteString("\n\n")

	title := wordwrap.String(c.Title, width-2)
	b.WriteString(detailTitleStyle.Render(title))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label + ": "))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteString("\n")
	}

	status := c.StatusLabel
	if status == "" {
		status = fmt.Sprintf("status %d", c.StatusCode)
	}
	statusStyle := detailValueStyle
	switch c.StateCode {
	case domain.StateActive:
		statusStyle = statusStyle.Foreground(lipgloss.Color("34"))
	case domain.StateResolved:
		statusStyle = statusStyle.Foreground(lipgloss.Color("141"))
	case domain.StateCancelled:
		statusStyle = statusStyle.Foreground(lipgloss.Color("196"))
	}
	b.WriteString(detailLabelStyle.Render("Status: "))
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	priority := c.PriorityLabel
	if priority == "" {
		priority = fmt.Sprintf("P%d", c.PriorityCode)
	}
	if c.PriorityCode == domain.PriorityHigh {
		b.WriteString(detailLabelStyle.Render("Priority: "))
		b.WriteString(highPriorityStyle.Render(priority))
		b.WriteString("\n")
	} else {
		field("Priority", priority)
	}

	field("Type", c.CaseTypeLabel)
	field("Created", format.Absolute(c.CreatedOn))
	field("Modified", format.Absolute(c.ModifiedOn))

	return b.String()
}

// renderRightPanel renders the notes panel with viewport.
func (m DetailModel) renderRightPanel(width int, v store.View) string {
	var b strings.Builder

	title := "Notes"
	if len(v.Notes) > 0 {
		title = fmt.Sprintf("Notes (%d)", len(v.Notes))
	}

	scrollHint := ""
	if len(v.Notes) > 0 && !m.composeMode {
		if m.viewport.TotalLineCount() > m.viewport.Height {
			if m.viewport.AtTop() {
				scrollHint = " ↓"
			} else if m.viewport.AtBottom() {
				scrollHint = " ↑"
			} else {
				scrollHint = " ↕"
			}
		}
	}

	b.WriteString(detailLabelStyle.Render(title))
	b.WriteString(scrollIndicatorStyle.Render(scrollHint))
	b.WriteString("\n")

	if v.NotesLoading {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " Loading notes...")
		return b.String()
	}

	if v.NotesError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + v.NotesError))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Press 'r' to retry"))
		return b.String()
	}

	if m.composeMode {
		b.WriteString("\n")
		b.WriteString(noteSubjectStyle.Render("New Note"))
		b.WriteString("\n\n")
		b.WriteString(m.subjectInput.View())
		b.WriteString("\n\n")
		b.WriteString(m.bodyInput.View())
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Ctrl+S to post • Tab to switch field • ESC to cancel"))

		if len(v.Notes) > 0 {
			b.WriteString("\n\n")
			b.WriteString(detailLabelStyle.Render(fmt.Sprintf("── %d existing notes ──", len(v.Notes))))
		}
		return b.String()
	}

	if len(v.Notes) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No notes on this case"))
		if v.ActiveScope == domain.ScopeMine {
			b.WriteString("\n\n")
			b.WriteString(dimStyle.Render("Press 'c' to add a note"))
		}
		return b.String()
	}

	b.WriteString(m.viewport.View())
	return b.String()
}

// refreshViewport formats the note timeline for viewport display.
func (m *DetailModel) refreshViewport() {
	v := m.store.View()

	wrapWidth := m.viewport.Width - 4
	if wrapWidth < 30 {
		wrapWidth = 30
	}

	var b strings.Builder
	for i, n := range v.Notes {
		if i > 0 {
			b.WriteString("\n\n")
			b.WriteString(dimStyle.Render(strings.Repeat("─", min(20, wrapWidth))))
			b.WriteString("\n\n")
		}

		subject := n.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		b.WriteString(noteSubjectStyle.Render(subject))
		b.WriteString(" ")
		b.WriteString(noteTimeStyle.Render(format.Relative(n.CreatedOn)))
		b.WriteString("\n")

		if n.IsDocument {
			attachment := "📎 " + n.FileName
			if n.FileSize != nil {
				attachment += " (" + format.FileSize(*n.FileSize) + ")"
			}
			b.WriteString(attachmentStyle.Render(attachment))
			b.WriteString("\n")
		}

		if n.NoteText != "" {
			wrapped := wordwrap.String(format.Text(n.NoteText), wrapWidth)
			b.WriteString(noteBodyStyle.Render(wrapped))
		}
	}

	m.viewport.SetContent(b.String())
}

// min returns the smaller of two ints
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
