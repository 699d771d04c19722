package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nissyi-gh/bucket/internal/model"
	"github.com/nissyi-gh/bucket/internal/review"
	"github.com/nissyi-gh/bucket/internal/transfer"
)

type appState int

const (
	stateList appState = iota
	stateAdd
	stateConfirm
)

type tab int

const (
	tabReview tab = iota
	tabCollect
	tabScheduled
)

var tabNames = []string{"review", "collect", "scheduled"}

var (
	appStyle     = lipgloss.NewStyle().Padding(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	activeTab    = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true).Underline(true)
	inactiveTab  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241"))
)

type extraKeyMap struct {
	Add        key.Binding
	Schedule   key.Binding
	Unschedule key.Binding
	Postpone   key.Binding
	Complete   key.Binding
	Delete     key.Binding
	Copy       key.Binding
	NextTab    key.Binding
}

func newExtraKeyMap() extraKeyMap {
	return extraKeyMap{
		Add: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a/n", "add"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "schedule"),
		),
		Unschedule: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unschedule"),
		),
		Postpone: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "postpone"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c", "x"),
			key.WithHelp("c/x", "complete"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy export"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
	}
}

func (k extraKeyMap) bindings() []key.Binding {
	return []key.Binding{k.Add, k.Schedule, k.Unschedule, k.Postpone, k.Complete, k.Delete, k.Copy, k.NextTab}
}

// Model is the top-level BubbleTea model for the bucket TUI.
type Model struct {
	state   appState
	tab     tab
	list    list.Model
	input   textinput.Model
	manager *review.Manager
	keys    extraKeyMap
	views   review.Views
	copy    func(string) error
	status  string
	err     error
	width   int
	height  int
}

type viewsLoadedMsg review.Views
type statusMsg string
type errMsg struct{ error }

// NewModel creates a new TUI model.
func NewModel(m *review.Manager) Model {
	ti := textinput.New()
	ti.Placeholder = "Task title..."
	ti.CharLimit = 256

	keys := newExtraKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	l := list.New(nil, delegate, 0, 0)
	l.Title = "bucket"
	l.Styles.Title = titleStyle
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("task", "tasks")
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	return Model{
		state:   stateList,
		list:    l,
		input:   ti,
		manager: m,
		keys:    keys,
		copy:    clipboard.WriteAll,
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadViews
}

func (m Model) loadViews() tea.Msg {
	v, err := m.manager.Refresh(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return viewsLoadedMsg(v)
}

// run performs a write and hands back the views the manager derived
// right after it.
func (m Model) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := op(context.Background()); err != nil {
			return errMsg{err}
		}
		return viewsLoadedMsg(m.manager.Views())
	}
}

func (m Model) copyExport() tea.Msg {
	data, err := m.manager.Export(transfer.JSON)
	if err != nil {
		return errMsg{err}
	}
	if err := m.copy(string(data)); err != nil {
		return errMsg{fmt.Errorf("copy to clipboard: %w", err)}
	}
	return statusMsg(fmt.Sprintf("copied %d tasks to the clipboard", len(m.views.All)))
}

func (m Model) visible() []model.Task {
	switch m.tab {
	case tabCollect:
		return m.views.All
	case tabScheduled:
		return m.views.Scheduled()
	default:
		return m.views.Due
	}
}

func (m *Model) refreshItems() {
	tasks := m.visible()
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	m.list.SetItems(items)
	m.list.Title = "bucket · " + tabNames[m.tab]
}

func (m Model) selected() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		leftWidth := (msg.Width - h) * 60 / 100
		m.list.SetSize(leftWidth, msg.Height-v-2)
		return m, nil

	case viewsLoadedMsg:
		m.views = review.Views(msg)
		m.refreshItems()
		m.err = nil
		return m, nil

	case statusMsg:
		m.status = string(msg)
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.error
		return m, nil
	}

	switch m.state {
	case stateList:
		return m.updateList(msg)
	case stateAdd:
		return m.updateAdd(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		m.status = ""
		switch {
		case key.Matches(keyMsg, m.keys.Add):
			m.state = stateAdd
			m.input.Reset()
			cmd := m.input.Focus()
			return m, cmd
		case key.Matches(keyMsg, m.keys.NextTab):
			m.tab = (m.tab + 1) % tab(len(tabNames))
			m.refreshItems()
			return m, nil
		case key.Matches(keyMsg, m.keys.Copy):
			return m, m.copyExport
		case key.Matches(keyMsg, m.keys.Schedule):
			if t, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error { return m.manager.Schedule(ctx, t.ID) })
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Unschedule):
			if t, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error { return m.manager.Unschedule(ctx, t.ID) })
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Postpone):
			if t, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error { return m.manager.Postpone(ctx, t.ID) })
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Complete):
			if t, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error { return m.manager.Complete(ctx, t.ID) })
			}
			return m, nil
		case key.Matches(keyMsg, m.keys.Delete):
			if m.list.SelectedItem() != nil {
				m.state = stateConfirm
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			title := strings.TrimSpace(m.input.Value())
			m.state = stateList
			if title == "" {
				return m, nil
			}
			return m, m.run(func(ctx context.Context) error {
				_, err := m.manager.Add(ctx, title)
				return err
			})
		case "esc":
			m.state = stateList
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y":
			m.state = stateList
			if t, ok := m.selected(); ok {
				return m, m.run(func(ctx context.Context) error { return m.manager.Remove(ctx, t.ID) })
			}
			return m, nil
		case "n", "esc":
			m.state = stateList
			return m, nil
		}
	}
	return m, nil
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%s (%d)", name, m.countFor(tab(i)))
		if tab(i) == m.tab {
			parts[i] = activeTab.Render(label)
		} else {
			parts[i] = inactiveTab.Render(label)
		}
	}
	return strings.Join(parts, "   ")
}

func (m Model) countFor(t tab) int {
	switch t {
	case tabCollect:
		return len(m.views.All)
	case tabScheduled:
		return len(m.views.Scheduled())
	default:
		return len(m.views.Due)
	}
}

func (m Model) renderDetail() string {
	t, ok := m.selected()
	if !ok {
		if m.tab == tabReview {
			return statusStyle.Render("nothing to review today")
		}
		return ""
	}

	state := "open"
	switch {
	case t.Completed:
		state = "completed"
	case t.Scheduled:
		state = "scheduled"
	}

	lines := []string{
		titleStyle.Render(t.Title),
		"",
		"state:       " + state,
		"created_at:  " + t.CreatedAt.Format("2006-01-02 15:04"),
		"reviewed_at: " + t.ReviewedAt.Format("2006-01-02 15:04"),
		"review_at:   " + t.ReviewAt.Format("2006-01-02 15:04"),
	}
	if !t.Completed {
		lines = append(lines, "", statusStyle.Render("postpone → "+m.manager.Preview(t).Format(dateLayout)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	var footer string
	if m.err != nil {
		footer = "\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n"
	} else if m.status != "" {
		footer = "\n" + statusStyle.Render(m.status) + "\n"
	}

	switch m.state {
	case stateAdd:
		return appStyle.Render(
			titleStyle.Render("New Task") + "\n\n" +
				m.input.View() + "\n\n" +
				statusStyle.Render("enter: save • esc: cancel") +
				footer,
		)
	case stateConfirm:
		t, _ := m.selected()
		return appStyle.Render(
			confirmStyle.Render("Delete Task?") + "\n\n" +
				"  " + t.Title + "\n\n" +
				statusStyle.Render("y: delete • n/esc: cancel") +
				footer,
		)
	default:
		h, v := appStyle.GetFrameSize()
		contentWidth := m.width - h
		rightWidth := contentWidth - contentWidth*60/100

		rightPane := detailStyle.
			Width(rightWidth).
			Height(m.height - v - 2).
			Render(m.renderDetail())
		content := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), rightPane)
		return appStyle.Render(m.renderTabs() + "\n\n" + content + footer)
	}
}
