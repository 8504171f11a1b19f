package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robby/casedesk/internal/domain"
)

// groupOption is one group-by choice in the picker.
type groupOption struct {
	key   domain.GroupBy
	title string
	desc  string
}

func (o groupOption) FilterValue() string { return o.title }

// groupDelegate renders group-by options.
type groupDelegate struct{}

func (d groupDelegate) Height() int                             { return 2 }
func (d groupDelegate) Spacing() int                            { return 1 }
func (d groupDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d groupDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	o, ok := item.(groupOption)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, o.title)
	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
		fmt.Fprint(w, "\n  "+NormalItemStyle.Render(o.desc))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
		fmt.Fprint(w, "\n  "+dimStyle.Render(o.desc))
	}
}

// GroupPickerModel lets the user pick which label buckets the case list.
type GroupPickerModel struct {
	list list.Model
}

// NewGroupPickerModel creates the picker with the current key preselected.
func NewGroupPickerModel(current domain.GroupBy) GroupPickerModel {
	options := []groupOption{
		{key: domain.GroupNone, title: "No grouping", desc: "Flat list"},
		{key: domain.GroupStatus, title: "Status", desc: "Bucket by status label"},
		{key: domain.GroupPriority, title: "Priority", desc: "Bucket by priority label"},
		{key: domain.GroupCaseType, title: "Case type", desc: "Bucket by case type label"},
	}

	items := make([]list.Item, len(options))
	selected := 0
	for i, o := range options {
		items[i] = o
		if o.key == current {
			selected = i
		}
	}

	l := list.New(items, groupDelegate{}, 80, 20)
	l.Title = "Group Cases By"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle
	l.Select(selected)

	return GroupPickerModel{list: l}
}

// Init initializes the model.
func (m GroupPickerModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages and updates the model state.
func (m GroupPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg {
				return closeGroupPickerMsg{}
			}
		case "enter":
			if item, ok := m.list.SelectedItem().(groupOption); ok {
				return m, func() tea.Msg {
					return groupSelectedMsg{key: item.key}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m GroupPickerModel) View() string {
	return m.list.View() + "\n" + HelpStyle.Render("enter: select • q: cancel")
}
