package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
)

type expensesTab int

const (
	tabRecent expensesTab = iota
	tabAll
)

func (t expensesTab) String() string {
	if t == tabRecent {
		return "Recent"
	}

	return "All"
}

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStateConfirmDelete
	expensesStateForm
)

// ExpensesModel lists the user's expenses in two tabs backed by one
// controller, so both tabs share loading and delete state.
type ExpensesModel struct {
	CommonModel
	ctrl *expenselist.Controller
	now  func() time.Time

	state   expensesState
	tab     expensesTab
	table   table.Model
	spinner spinner.Model
	manage  ManageModel

	loaded  bool
	snap    expenselist.State
	visible []expense.Record
	status  string
}

func NewExpensesModel(ctrl *expenselist.Controller) ExpensesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Paid to", Width: 28},
		{Title: "Category", Width: 18},
		{Title: "Amount", Width: 14},
		{Title: "Via", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExpensesModel{
		ctrl:    ctrl,
		now:     time.Now,
		table:   t,
		spinner: sp,
	}
}

func (m ExpensesModel) Title() string { return "Expenses" }

func (m ExpensesModel) ShortHelp() string {
	switch m.state {
	case expensesStateConfirmDelete:
		return "y: delete | n: keep"
	case expensesStateForm:
		return "Enter: next | Esc: cancel"
	}

	return "Tab: switch | r: refresh | a: add | e: edit | d: delete | x: export | i: import | q: quit"
}

func (m ExpensesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

// Focus refreshes the list when the screen becomes visible again.
func (m ExpensesModel) Focus() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshCmd())
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listSyncedMsg:
		m.loaded = true
		if msg.err != nil {
			m.status = expenselist.UserMessage(msg.err)
		}

		m.sync()

		return m, nil

	case deletedMsg:
		m.status = expenselist.UserMessage(msg.err)
		m.ctrl.ClearError()
		m.sync()

		return m, nil

	case savedMsg:
		m.status = expenselist.UserMessage(msg.err)

		m.sync()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))

		return m, nil
	}

	switch m.state {
	case expensesStateConfirmDelete:
		return m.updateConfirm(msg)
	case expensesStateForm:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.tab = 1 - m.tab
		m.table.SetCursor(0)
		m.sync()

		return m, m.Focus()
	case "r":
		m.status = ""
		return m, m.Focus()
	case "a":
		return m.openForm(nil)
	case "e":
		if rec, ok := m.selected(); ok {
			return m.openForm(&rec)
		}

		return m, nil
	case "d":
		rec, ok := m.selected()
		if !ok {
			return m, nil
		}

		if err := m.ctrl.RequestDelete(rec.ID); err != nil {
			m.status = expenselist.UserMessage(err)
			return m, nil
		}

		m.state = expensesStateConfirmDelete
		m.sync()

		return m, nil
	case "x":
		return m, func() tea.Msg { return OpenExportMsg{} }
	case "i":
		return m, func() tea.Msg { return OpenImportMsg{} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ExpensesModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.state = expensesStateBrowse

		d, err := m.ctrl.ConfirmDelete()
		if err != nil {
			m.status = expenselist.UserMessage(err)
			m.sync()

			return m, nil
		}

		m.status = ""
		m.sync()

		return m, deleteCmd(d)
	case "n", "N", "esc":
		m.state = expensesStateBrowse
		m.ctrl.CancelDelete()
		m.sync()
	}

	return m, nil
}

func (m ExpensesModel) openForm(orig *expense.Record) (tea.Model, tea.Cmd) {
	m.manage = NewManageModel(orig, m.now)
	m.state = expensesStateForm
	m.table.Blur()

	return m, m.manage.Init()
}

func (m ExpensesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = expensesStateBrowse
		m.table.Focus()

		return m, nil
	}

	var cmd tea.Cmd
	m.manage, cmd = m.manage.Update(msg)

	if !m.manage.Done() {
		return m, cmd
	}

	m.state = expensesStateBrowse
	m.table.Focus()

	return m, tea.Batch(m.spinner.Tick, m.saveCmd(m.manage))
}

func (m ExpensesModel) selected() (expense.Record, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return expense.Record{}, false
	}

	return m.visible[idx], true
}

// sync copies the controller state into the table.
func (m *ExpensesModel) sync() {
	m.snap = m.ctrl.Snapshot()

	if m.tab == tabRecent {
		m.visible = expense.Recent(m.snap.Items, m.now())
	} else {
		m.visible = m.snap.Items
	}

	rows := make([]table.Row, 0, len(m.visible))
	for _, r := range m.visible {
		payTo := r.PayTo
		if r.ID == m.snap.PendingDelete {
			payTo = "✗ " + payTo
		}

		rows = append(rows, table.Row{
			FormatDate(r.Date),
			payTo,
			string(r.Category),
			FormatRecordAmount(r.Amount),
			r.PaymentMethod(),
		})
	}

	m.table.SetRows(rows)

	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m ExpensesModel) View() string {
	// Flags are read live; commands change them between messages.
	live := m.ctrl.Snapshot()

	if !m.loaded || (live.Loading && len(live.Items) == 0) {
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " Loading expenses...")
	}

	header := m.viewTabs()
	if live.Refreshing || len(live.Deleting) > 0 {
		header += "  " + faintStyle.Render(m.spinner.View()+" refreshing")
	}

	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	if len(m.visible) == 0 {
		body = faintStyle.Render(m.emptyText())
	}

	footer := fmt.Sprintf("%d expenses | Total %s", len(m.visible), FormatAmount(expense.Total(m.visible)))

	parts := []string{header, "", body, "", footer}

	switch m.state {
	case expensesStateConfirmDelete:
		parts = append(parts, "", m.viewConfirm())
	case expensesStateForm:
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.manage.View())
		parts[2] = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}

	if m.status != "" {
		parts = append(parts, "", errorStyle.Render(m.status))
	}

	parts = append(parts, "", faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m ExpensesModel) viewTabs() string {
	tabs := make([]string, 0, 2)

	for _, t := range []expensesTab{tabRecent, tabAll} {
		if t == m.tab {
			tabs = append(tabs, titleStyle.Render("["+t.String()+"]"))
		} else {
			tabs = append(tabs, faintStyle.Render(" "+t.String()+" "))
		}
	}

	return strings.Join(tabs, " ")
}

func (m ExpensesModel) emptyText() string {
	if m.tab == tabRecent {
		return "No expenses in the last 7 days. Press a to add one."
	}

	return "No expenses yet. Press a to add one."
}

func (m ExpensesModel) viewConfirm() string {
	i := slices.IndexFunc(m.visible, func(r expense.Record) bool { return r.ID == m.snap.PendingDelete })
	if i < 0 {
		return "Delete this expense? (y/n)"
	}

	r := m.visible[i]

	return fmt.Sprintf("Delete %s to %s on %s? (y/n)", FormatRecordAmount(r.Amount), r.PayTo, FormatDate(r.Date))
}

// Messages

type listSyncedMsg struct {
	err error
}

func (m ExpensesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		return listSyncedMsg{err: m.ctrl.Load(ctx)}
	}
}

func (m ExpensesModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		return listSyncedMsg{err: m.ctrl.Refresh(ctx)}
	}
}

type deletedMsg struct {
	err error
}

func deleteCmd(d *expenselist.Deletion) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		return deletedMsg{err: d.Reconcile(ctx)}
	}
}

type savedMsg struct {
	err error
}

func (m ExpensesModel) saveCmd(form ManageModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		if !form.Editing() {
			_, err := m.ctrl.Create(ctx, form.Record())
			return savedMsg{err: err}
		}

		patch := form.Patch()
		if patch.IsEmpty() {
			return savedMsg{}
		}

		return savedMsg{err: m.ctrl.Update(ctx, form.orig.ID, patch)}
	}
}
