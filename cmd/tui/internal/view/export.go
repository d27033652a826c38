package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/export"
)

// previewRows is how many of the newest expenses the preview lists.
const previewRows = 5

type exportStep int

const (
	exportPickRange exportStep = iota
	exportSelecting
	exportPreview
	exportWriting
	exportDone
)

type exportFields struct {
	dir   string
	write bool
}

// ExportModel picks a date range, previews what falls inside it with its
// totals, and writes the CSV once confirmed. The records shown in the
// preview are the ones written.
type ExportModel struct {
	CommonModel
	svc  *export.Service
	sess expense.Session

	step    exportStep
	picker  TimeframePicker
	span    DateRange
	spinner spinner.Model

	records []expense.Record
	fields  *exportFields
	form    *huh.Form

	file string
	err  error
}

func NewExportModel(svc *export.Service, sess expense.Session, dir string) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		svc:     svc,
		sess:    sess,
		picker:  NewTimeframePicker(TimeframeThisMonth),
		spinner: s,
		fields:  &exportFields{dir: dir, write: true},
	}
}

func (m ExportModel) Title() string { return "Export Expenses" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportPreview:
		if len(m.records) == 0 {
			return "Esc: pick another range"
		}

		return "Enter: next | Esc: pick another range"
	case exportSelecting, exportWriting:
		return "Working..."
	case exportDone:
		return "Esc: back to expenses"
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.span = msg.Range
		m.step = exportSelecting

		return m, tea.Batch(m.spinner.Tick, m.selectCmd(msg.Range))

	case selectedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = exportDone

			return m, nil
		}

		m.records = msg.records
		m.step = exportPreview
		m.form = m.destinationForm()

		return m, m.form.Init()

	case savedFileMsg:
		m.file, m.err = msg.path, msg.err
		m.step = exportDone

		return m, nil

	case spinner.TickMsg:
		if m.step != exportSelecting && m.step != exportWriting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	keyMsg, isKey := msg.(tea.KeyMsg)

	switch m.step {
	case exportPickRange:
		if isKey && keyMsg.Type == tea.KeyEsc && m.picker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		return m, cmd

	case exportPreview:
		if isKey && keyMsg.Type == tea.KeyEsc {
			return m.restart(), nil
		}

		if len(m.records) == 0 {
			return m, nil
		}

		return m.updateForm(msg)

	case exportDone:
		if isKey && keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	return m, nil
}

func (m ExportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.fields.write {
		return m.restart(), nil
	}

	m.step = exportWriting

	return m, tea.Batch(m.spinner.Tick, saveFileCmd(m.records, m.span, m.fields.dir))
}

func (m ExportModel) restart() ExportModel {
	m.step = exportPickRange
	m.records = nil
	m.fields.write = true
	m.picker.Reset()

	return m
}

func (m ExportModel) destinationForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("dir").
				Title("Save to directory").
				Placeholder(".").
				Value(&m.fields.dir),
			huh.NewConfirm().
				Key("write").
				Title(fmt.Sprintf("Write %d expenses to CSV?", len(m.records))).
				Affirmative("Write").
				Negative("Cancel").
				Value(&m.fields.write),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportPickRange:
		return pad.Render(m.picker.View())
	case exportSelecting:
		return pad.Render(m.spinner.View() + " Collecting expenses for " + m.span.String() + "...")
	case exportPreview:
		return pad.Render(m.viewPreview())
	case exportWriting:
		return pad.Render(m.spinner.View() + " Writing CSV...")
	case exportDone:
		return pad.Render(m.viewDone())
	}

	return ""
}

func (m ExportModel) viewPreview() string {
	title := titleStyle.Render("Export " + m.span.String())

	if len(m.records) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			title, "", faintStyle.Render("Nothing to export in this range."), "", faintStyle.Render(m.ShortHelp()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		breakdown(m.records),
		"",
		newest(m.records),
		"",
		m.form.View(),
		"",
		faintStyle.Render(m.ShortHelp()),
	)
}

func (m ExportModel) viewDone() string {
	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Export failed: "+expenselist.UserMessage(m.err)), "", faintStyle.Render(m.ShortHelp()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Wrote %d expenses", len(m.records))),
		m.file,
		"",
		faintStyle.Render(m.ShortHelp()),
	)
}

// breakdown renders the count, the total and the per-category totals in
// rupees, largest category first.
func breakdown(records []expense.Record) string {
	lines := []string{fmt.Sprintf("%d expenses | Total %s", len(records), FormatAmount(expense.Total(records)))}

	for _, ct := range export.CategoryTotals(records) {
		lines = append(lines, fmt.Sprintf("  %-18s %s", ct.Category, FormatAmount(ct.Total)))
	}

	return strings.Join(lines, "\n")
}

func newest(records []expense.Record) string {
	lines := []string{faintStyle.Render("Newest:")}

	for _, r := range records[:min(previewRows, len(records))] {
		lines = append(lines, fmt.Sprintf("  %s  %-20s %s", FormatDate(r.Date), r.PayTo, FormatRecordAmount(r.Amount)))
	}

	if extra := len(records) - previewRows; extra > 0 {
		lines = append(lines, faintStyle.Render(fmt.Sprintf("  ... and %d more", extra)))
	}

	return strings.Join(lines, "\n")
}

type selectedMsg struct {
	records []expense.Record
	err     error
}

func (m ExportModel) selectCmd(r DateRange) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		records, err := m.svc.Select(ctx, m.sess, r.Filter())

		return selectedMsg{records: records, err: err}
	}
}

type savedFileMsg struct {
	path string
	err  error
}

func saveFileCmd(records []expense.Record, r DateRange, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := export.Save(records, r.Filter(), dir)
		return savedFileMsg{path: path, err: err}
	}
}
