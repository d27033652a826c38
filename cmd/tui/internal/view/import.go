package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateFilePick importState = iota
	importStatePreview
	importStateImporting
	importStateResult
)

// ImportModel uploads the records of a backup file into the signed-in
// user's store.
type ImportModel struct {
	CommonModel
	importService *importer.Service
	sess          expense.Session

	state      importState
	filePicker filepicker.Model
	preview    list.Model
	spinner    spinner.Model
	path       string
	records    []expense.Record

	status string
	err    error
}

func NewImportModel(svc *importer.Service, sess expense.Session) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".json", ".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ImportModel{
		importService: svc,
		sess:          sess,
		filePicker:    fp,
		spinner:       s,
	}
}

func (m ImportModel) Title() string { return "Import Backup" }

func (m ImportModel) ShortHelp() string {
	switch m.state {
	case importStatePreview:
		return "Enter: upload all | Esc: pick another file"
	case importStateImporting:
		return "Uploading..."
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		if m.state == importStatePreview {
			return m.updatePreview(msg)
		}

	case parsedMsg:
		if msg.err != nil {
			m.state = importStateResult
			m.err = msg.err
			m.status = fmt.Sprintf("Could not read %s: %v", m.path, msg.err)

			return m, nil
		}

		m.records = msg.records
		m.state = importStatePreview
		m.preview = newPreviewList(msg.records)

		return m, nil

	case uploadedMsg:
		m.state = importStateResult
		m.err = msg.err
		m.status = uploadSummary(msg.result, msg.err)

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.path = path
		return m, parseCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStatePreview, importStateResult:
		m.state = importStateFilePick
		m.records = nil
		m.err = nil
		m.status = ""

		return m, m.filePicker.Init()
	case importStateImporting:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		if len(m.records) == 0 {
			return m, nil
		}

		m.state = importStateImporting

		return m, tea.Batch(m.spinner.Tick, m.uploadCmd(m.records))
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)

	return m, cmd
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			"Select a backup file (.json or .csv):\n\n" + m.filePicker.View(),
		)
	case importStatePreview:
		if len(m.records) == 0 {
			return lipgloss.NewStyle().Padding(2).Render(
				faintStyle.Render(m.path+" has no expenses.") + "\n\n(Esc to go back)",
			)
		}

		return lipgloss.NewStyle().Padding(1).Render(m.preview.View())
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(
			fmt.Sprintf("%s Uploading %d expenses...", m.spinner.View(), len(m.records)),
		)
	case importStateResult:
		return m.viewResult()
	}

	return ""
}

func (m ImportModel) viewResult() string {
	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(
		lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status) +
			"\n\n(Esc to go back)",
	)
}

func uploadSummary(res importer.Result, err error) string {
	summary := fmt.Sprintf("Imported %d expenses, skipped %d invalid.", res.Imported(), res.Skipped)
	if err != nil {
		return fmt.Sprintf("Import stopped: %s\n%s", expenselist.UserMessage(err), summary)
	}

	return summary
}

// Messages

type parsedMsg struct {
	records []expense.Record
	err     error
}

type uploadedMsg struct {
	result importer.Result
	err    error
}

func parseCmd(path string) tea.Cmd {
	return func() tea.Msg {
		format, err := importer.DetectFormat(path)
		if err != nil {
			return parsedMsg{err: err}
		}

		parser, err := importer.ParserFor(format)
		if err != nil {
			return parsedMsg{err: err}
		}

		f, err := os.Open(path)
		if err != nil {
			return parsedMsg{err: err}
		}
		defer f.Close()

		records, err := parser.Parse(f)

		return parsedMsg{records: records, err: err}
	}
}

func (m ImportModel) uploadCmd(records []expense.Record) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		res, err := m.importService.Import(ctx, m.sess, records)

		return uploadedMsg{result: res, err: err}
	}
}

// Preview list

type previewItem struct {
	record expense.Record
}

func (i previewItem) Title() string       { return i.record.PayTo }
func (i previewItem) Description() string { return i.record.Amount }
func (i previewItem) FilterValue() string { return i.record.PayTo }

func newPreviewList(records []expense.Record) list.Model {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = previewItem{record: importer.Normalize(r)}
	}

	l := list.New(items, previewDelegate{}, 80, 20)
	l.Title = fmt.Sprintf("%d expenses found", len(records))
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

type previewDelegate struct{}

func (d previewDelegate) Height() int                             { return 1 }
func (d previewDelegate) Spacing() int                            { return 0 }
func (d previewDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d previewDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(previewItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	r := item.record

	line := fmt.Sprintf("%s%s  %-12s  %-24s  %s",
		cursor,
		FormatDate(r.Date),
		FormatRecordAmount(r.Amount),
		r.PayTo,
		r.Category,
	)

	if err := r.Validate(); err != nil {
		line = faintStyle.Render(line + "  (will be skipped)")
	}

	fmt.Fprintln(w, line)
}
