package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/domain"
	"github.com/robby/casedesk/internal/format"
	"github.com/robby/casedesk/internal/store"
)

// Column layout constants.
const (
	ticketColWidth   = 14
	statusColWidth   = 14
	priorityColWidth = 10
	timeColWidth     = 12
	minTitleColWidth = 16
	chromeLines      = 5 // header + stats + tabs + table header + footer
)

// rowKind distinguishes group header rows from case rows in the flattened
// table.
type rowKind int

const (
	rowGroupHeader rowKind = iota
	rowCase
)

type row struct {
	kind     rowKind
	label    string
	count    int
	expanded bool
	c        domain.Case
}

// CasesModel is the case list screen: hero stats, scope tabs, and the
// filtered/sorted/grouped table projected by the store.
type CasesModel struct {
	// Dependencies
	store     *store.Store
	session   *auth.Session
	ctx       context.Context
	portalURL string

	// UI components
	keymap      KeyMap
	help        helpOverlay
	spinner     spinner.Model
	searchInput textinput.Model
	titleInput  textinput.Model
	descInput   textarea.Model

	// View state
	cursor     int
	searchMode bool
	sortMode   bool
	showHelp   bool
	formFocus  int // 0 = title, 1 = description
	toast      string

	width  int
	height int
}

// NewCasesModel creates the case list screen.
func NewCasesModel(s *store.Store, session *auth.Session, ctx context.Context, portalURL string) CasesModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	search := textinput.New()
	search.Placeholder = "Search cases..."
	search.Prompt = "/ "

	title := textinput.New()
	title.Placeholder = "Briefly describe the issue"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Provide more detail about the issue..."
	desc.SetHeight(4)
	desc.ShowLineNumbers = false

	return CasesModel{
		store:       s,
		session:     session,
		ctx:         ctx,
		portalURL:   portalURL,
		keymap:      DefaultKeyMap(),
		help:        newHelpOverlay(DefaultKeyMap()),
		spinner:     sp,
		searchInput: search,
		titleInput:  title,
		descInput:   desc,
	}
}

// Init initializes the case list screen.
func (m CasesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize())
}

// Update handles messages.
func (m CasesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.titleInput.Width = msg.Width / 2
		m.descInput.SetWidth(msg.Width / 2)
		return m, nil

	case casesRefreshedMsg:
		m.toast = ""
		return m, nil

	case caseSubmittedMsg:
		// The store already reloaded the "mine" scope on success.
		v := m.store.View()
		if !v.CaseForm.Visible && v.CaseForm.Error == "" {
			m.toast = "Case created"
			m.titleInput.Reset()
			m.descInput.Reset()
			m.titleInput.Blur()
			m.descInput.Blur()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m CasesModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	v := m.store.View()

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// New case form
	if v.CaseForm.Visible {
		return m.handleCaseForm(msg)
	}

	// Search mode
	if m.searchMode {
		switch msg.String() {
		case "enter":
			m.searchMode = false
			return m, nil
		case "esc":
			m.searchMode = false
			m.searchInput.SetValue("")
			m.store.SetSearchQuery("")
			return m, nil
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.store.SetSearchQuery(m.searchInput.Value())
			return m, cmd
		}
	}

	// Sort mode: next digit picks the column
	if m.sortMode {
		switch msg.String() {
		case "esc", "q", "s":
			m.sortMode = false
			return m, nil
		case "1", "2", "3", "4", "5", "6":
			idx := int(msg.Runes[0] - '1')
			m.store.Sort(domain.SortFields[idx])
			m.sortMode = false
			return m, nil
		}
		return m, nil
	}

	rows := buildRows(v)

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.searchMode = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "s":
		m.sortMode = true
	case "f":
		return m, func() tea.Msg { return openGroupPickerMsg{} }
	case "N":
		m.store.ShowCaseForm()
		m.formFocus = 0
		m.titleInput.Focus()
		m.descInput.Blur()
		return m, textinput.Blink
	case "tab":
		if v.TeamAvailable {
			next := domain.ScopeTeam
			if v.ActiveScope == domain.ScopeTeam {
				next = domain.ScopeMine
			}
			m.store.SelectTab(next)
			m.cursor = 0
		}
	case "r":
		m.toast = ""
		return m, m.refreshCmd(v.ActiveScope)
	case "1", "2", "3", "4":
		filters := []store.StatFilter{store.StatTotal, store.StatActive, store.StatResolved, store.StatHigh}
		m.store.ToggleStatFilter(filters[int(msg.Runes[0]-'1')])
		m.cursor = 0
	case "j", "down":
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g":
		m.cursor = 0
	case "G":
		if len(rows) > 0 {
			m.cursor = len(rows) - 1
		}
	case " ":
		if r, ok := rowAt(rows, m.cursor); ok && r.kind == rowGroupHeader {
			m.store.ToggleGroup(r.label)
		}
	case "o":
		if r, ok := rowAt(rows, m.cursor); ok && r.kind == rowCase && m.portalURL != "" {
			_ = browser.OpenURL(m.portalURL + "/cases/" + r.c.IncidentID)
		}
	case "enter":
		if r, ok := rowAt(rows, m.cursor); ok {
			if r.kind == rowGroupHeader {
				m.store.ToggleGroup(r.label)
				return m, nil
			}
			return m, m.openCaseCmd(r.c)
		}
	}

	return m, nil
}

// handleCaseForm handles input while the new-case form is open.
func (m CasesModel) handleCaseForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.store.HideCaseForm()
		m.titleInput.Blur()
		m.descInput.Blur()
		return m, nil
	case "tab":
		if m.formFocus == 0 {
			m.formFocus = 1
			m.titleInput.Blur()
			m.descInput.Focus()
		} else {
			m.formFocus = 0
			m.descInput.Blur()
			m.titleInput.Focus()
		}
		return m, nil
	case "ctrl+s":
		m.store.SetCaseTitle(m.titleInput.Value())
		m.store.SetCaseDescription(m.descInput.Value())
		return m, func() tea.Msg {
			m.store.SubmitCase(m.ctx)
			return caseSubmittedMsg{}
		}
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
		m.store.SetCaseTitle(m.titleInput.Value())
	} else {
		m.descInput, cmd = m.descInput.Update(msg)
		m.store.SetCaseDescription(m.descInput.Value())
	}
	return m, cmd
}

// refreshCmd reloads one scope in the background.
func (m CasesModel) refreshCmd(scope domain.Scope) tea.Cmd {
	return func() tea.Msg {
		m.store.LoadCases(m.ctx, scope)
		return casesRefreshedMsg{scope: scope}
	}
}

// openCaseCmd selects a case and switches to the detail screen while the
// notes fetch runs.
func (m CasesModel) openCaseCmd(c domain.Case) tea.Cmd {
	fetch := func() tea.Msg {
		m.store.OpenCase(m.ctx, c)
		return caseOpenedMsg{}
	}
	show := func() tea.Msg {
		return openDetailMsg{c: c}
	}
	return tea.Batch(fetch, show)
}

// View renders the case list screen.
func (m CasesModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	v := m.store.View()

	var sections []string
	sections = append(sections, m.renderHeader(width, v))
	sections = append(sections, m.renderStats(width, v))
	sections = append(sections, m.renderTabs(v))

	if m.searchMode || v.SearchQuery != "" {
		sections = append(sections, m.searchInput.View())
	}
	if m.sortMode {
		banner := sortModeStyle.Render("SORT") +
			" Press 1-6 to pick a column (ticket, title, status, priority, created, modified), ESC to cancel"
		sections = append(sections, banner)
	}

	bodyHeight := height - chromeLines
	if m.searchMode || v.SearchQuery != "" {
		bodyHeight--
	}
	if m.sortMode {
		bodyHeight--
	}
	if bodyHeight < 5 {
		bodyHeight = 5
	}

	var body string
	switch {
	case m.showHelp:
		body = m.help.View(width)
	case v.CaseForm.Visible:
		body = m.renderCaseForm(v)
	case v.Error != "":
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center,
			errorStyle.Render("Error: "+v.Error)+"\n\n"+dimStyle.Render("Press 'r' to retry"))
	case v.Loading && len(v.Cases) == 0:
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading cases...")
	default:
		body = m.renderTable(width, bodyHeight, v)
	}
	sections = append(sections, body)
	sections = append(sections, m.renderFooter(width, v))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line with the signed-in user and status.
func (m CasesModel) renderHeader(width int, v store.View) string {
	left := titleStyle.Render("Case Portal")
	if name := m.session.Profile().Name; name != "" {
		left += dimStyle.Render(" — " + name)
	}

	var statusParts []string
	if v.Loading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	if m.toast != "" {
		statusParts = append(statusParts, successStyle.Render(m.toast))
	}
	if v.SearchQuery != "" {
		statusParts = append(statusParts, fmt.Sprintf("/%s", v.SearchQuery))
	}
	statusParts = append(statusParts, "[?]help")
	status := strings.Join(statusParts, " | ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return left + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderStats renders the hero counters over the unfiltered active scope.
func (m CasesModel) renderStats(width int, v store.View) string {
	entries := []struct {
		filter store.StatFilter
		label  string
		count  int
	}{
		{store.StatTotal, "total", v.Stats.Total},
		{store.StatActive, "active", v.Stats.Active},
		{store.StatResolved, "resolved", v.Stats.Resolved},
		{store.StatHigh, "high priority", v.Stats.High},
	}

	parts := make([]string, len(entries))
	for i, e := range entries {
		text := fmt.Sprintf("[%d] %d %s", i+1, e.count, e.label)
		if v.StatFilter == e.filter {
			parts[i] = statActiveStyle.Render(text)
		} else {
			parts[i] = statStyle.Render(text)
		}
	}
	return strings.Join(parts, dimStyle.Render("  ·  "))
}

// renderTabs renders the scope selector. The team tab disappears entirely
// when the server denied the scope.
func (m CasesModel) renderTabs(v store.View) string {
	render := func(scope domain.Scope, label string) string {
		if v.ActiveScope == scope {
			return tabActiveStyle.Render(label)
		}
		return tabInactiveStyle.Render(label)
	}

	tabs := render(domain.ScopeMine, "My Cases")
	if v.TeamAvailable {
		tabs += "   " + render(domain.ScopeTeam, "Team Cases")
		tabs += dimStyle.Render("   (tab to switch)")
	}
	return tabs
}

// renderTable renders the column header and the flattened rows.
func (m CasesModel) renderTable(width, height int, v store.View) string {
	rows := buildRows(v)
	if len(rows) == 0 {
		msg := "No cases found"
		if v.SearchQuery != "" || v.StatFilter != store.StatNone {
			msg = "No cases match the current filter"
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dimStyle.Render(msg))
	}

	cursor := m.cursor
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}

	titleWidth := width - ticketColWidth - statusColWidth - priorityColWidth - 2*timeColWidth - 7
	if titleWidth < minTitleColWidth {
		titleWidth = minTitleColWidth
	}

	header := m.renderColumnHeader(titleWidth, v)

	// Keep the cursor visible within the row area.
	visible := height - 1 // minus column header
	if visible < 1 {
		visible = 1
	}
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}

	lines := []string{header}
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == cursor, titleWidth))
	}
	if end < len(rows) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", len(rows)-end)))
	}
	return strings.Join(lines, "\n")
}

// renderColumnHeader renders column titles with a direction marker on the
// sort column.
func (m CasesModel) renderColumnHeader(titleWidth int, v store.View) string {
	marker := func(field domain.SortField) string {
		if v.SortField != field {
			return ""
		}
		if v.SortDir == domain.SortAsc {
			return "▲"
		}
		return "▼"
	}

	cols := []string{
		pad("Ticket"+marker(domain.SortTicketNumber), ticketColWidth),
		pad("Title"+marker(domain.SortTitle), titleWidth),
		pad("Status"+marker(domain.SortStatus), statusColWidth),
		pad("Priority"+marker(domain.SortPriority), priorityColWidth),
		pad("Created"+marker(domain.SortCreatedOn), timeColWidth),
		pad("Modified"+marker(domain.SortModifiedOn), timeColWidth),
	}
	return dimStyle.Render("  " + strings.Join(cols, " "))
}

// renderRow renders one flattened row.
func (m CasesModel) renderRow(r row, selected bool, titleWidth int) string {
	if r.kind == rowGroupHeader {
		arrow := "▸"
		if r.expanded {
			arrow = "▾"
		}
		text := fmt.Sprintf("%s %s (%d)", arrow, r.label, r.count)
		if selected {
			return selectedRowStyle.Render("> " + text)
		}
		return groupHeaderStyle.Render("  " + text)
	}

	c := r.c
	status := c.StatusLabel
	if status == "" {
		status = fmt.Sprintf("status %d", c.StatusCode)
	}
	priority := c.PriorityLabel
	if priority == "" {
		priority = fmt.Sprintf("P%d", c.PriorityCode)
	}

	cols := []string{
		pad(c.TicketNumber, ticketColWidth),
		pad(c.Title, titleWidth),
		pad(status, statusColWidth),
		pad(priority, priorityColWidth),
		pad(format.Relative(c.CreatedOn), timeColWidth),
		pad(format.Relative(c.ModifiedOn), timeColWidth),
	}
	text := strings.Join(cols, " ")

	if selected {
		return selectedRowStyle.Render("> " + text)
	}

	style := rowStyle
	if c.PriorityCode == domain.PriorityHigh {
		style = highPriorityStyle
	} else if c.StateCode == domain.StateResolved {
		style = resolvedStyle
	}
	return style.Render("  " + text)
}

// renderCaseForm renders the new-case form.
func (m CasesModel) renderCaseForm(v store.View) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("New Case"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Title"))
	b.WriteString("\n")
	b.WriteString(m.titleInput.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Description (optional)"))
	b.WriteString("\n")
	b.WriteString(m.descInput.View())
	b.WriteString("\n\n")

	if v.CaseForm.Submitting {
		b.WriteString(m.spinner.View() + " Creating...")
	} else if v.CaseForm.Error != "" {
		b.WriteString(errorStyle.Render("✗ " + v.CaseForm.Error))
	} else {
		b.WriteString(dimStyle.Render("Ctrl+S to create • Tab to switch field • ESC to cancel"))
	}
	return b.String()
}

// renderFooter renders the bottom hint bar.
func (m CasesModel) renderFooter(width int, v store.View) string {
	left := "j/k:move enter:open space:fold /:search s:sort f:group N:new r:refresh"

	right := ""
	if rows := buildRows(v); len(rows) > 0 {
		cursor := m.cursor
		if cursor >= len(rows) {
			cursor = len(rows) - 1
		}
		right = fmt.Sprintf("row %d/%d", cursor+1, len(rows))
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// buildRows flattens the store projection into navigable rows: group
// headers followed by their members when expanded, or the plain case list
// when grouping is off.
func buildRows(v store.View) []row {
	if v.GroupBy == domain.GroupNone {
		rows := make([]row, len(v.Cases))
		for i, c := range v.Cases {
			rows[i] = row{kind: rowCase, c: c}
		}
		return rows
	}

	var rows []row
	for _, g := range v.Groups {
		rows = append(rows, row{
			kind:     rowGroupHeader,
			label:    g.Label,
			count:    len(g.Cases),
			expanded: g.Expanded,
		})
		if !g.Expanded {
			continue
		}
		for _, c := range g.Cases {
			rows = append(rows, row{kind: rowCase, c: c})
		}
	}
	return rows
}

func rowAt(rows []row, i int) (row, bool) {
	if i < 0 || i >= len(rows) {
		return row{}, false
	}
	return rows[i], true
}

// pad truncates or right-pads a cell to the column width.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
