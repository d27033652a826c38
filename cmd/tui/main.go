package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/spendly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/spendly/internal/config"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/localstore"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

const probeTimeout = 3 * time.Second

type screen int

const (
	screenAuth screen = iota
	screenExpenses
	screenExport
	screenImport
)

type model struct {
	cfg    *config.Client
	store  expense.Store
	logger *slog.Logger
	sess   expense.Session

	current screen
	size    tea.WindowSizeMsg

	authView     view.AuthModel
	expensesView view.ExpensesModel
	exportView   view.ExportModel
	importView   view.ImportModel
}

func initialModel(cfg *config.Client, logger *slog.Logger) (model, func() error) {
	m := model{cfg: cfg, logger: logger}

	if cfg.Local.Enabled {
		store, err := localstore.Open(cfg.Local.Path)
		if err != nil {
			slog.Error("failed to open local store", "path", cfg.Local.Path, "error", err)
			os.Exit(1)
		}

		m.store = store
		m.current = screenExpenses
		m.expensesView = m.newExpensesView()

		return m, store.Close
	}

	prober, err := remote.NewDialProber(cfg.Store.URL, probeTimeout)
	if err != nil {
		slog.Error("invalid store url", "url", cfg.Store.URL, "error", err)
		os.Exit(1)
	}

	client := remote.NewClient(remote.Config{
		StoreURL:    cfg.Store.URL,
		IdentityURL: cfg.Store.IdentityURL,
		APIKey:      cfg.Store.APIKey,
		Timeout:     cfg.Store.Timeout,
	}, prober, remote.WithLogger(logger))

	m.store = client
	m.current = screenAuth
	m.authView = view.NewAuthModel(client)

	return m, func() error { return nil }
}

func (m model) newExpensesView() view.ExpensesModel {
	return view.NewExpensesModel(expenselist.New(m.store, m.sess, expenselist.WithLogger(m.logger)))
}

func (m model) Init() tea.Cmd {
	if m.current == screenAuth {
		return m.authView.Init()
	}

	return m.expensesView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.size = msg

	case view.AuthenticatedMsg:
		m.sess = msg.Session
		m.logger.Info("signed in", "user", msg.Session.UserID)
		m.expensesView = m.newExpensesView()
		m.current = screenExpenses

		return m, tea.Batch(m.expensesView.Init(), m.resize())

	case view.OpenExportMsg:
		m.exportView = view.NewExportModel(export.NewService(m.store), m.sess, m.cfg.ExportDir)
		m.current = screenExport

		return m, tea.Batch(m.exportView.Init(), m.resize())

	case view.OpenImportMsg:
		m.importView = view.NewImportModel(importer.NewService(m.store, m.logger), m.sess)
		m.current = screenImport

		return m, tea.Batch(m.importView.Init(), m.resize())

	case view.BackMsg:
		m.current = screenExpenses
		return m, m.expensesView.Focus()
	}

	var cmd tea.Cmd

	switch m.current {
	case screenAuth:
		var next tea.Model
		next, cmd = m.authView.Update(msg)
		m.authView = next.(view.AuthModel)
	case screenExpenses:
		var next tea.Model
		next, cmd = m.expensesView.Update(msg)
		m.expensesView = next.(view.ExpensesModel)
	case screenExport:
		var next tea.Model
		next, cmd = m.exportView.Update(msg)
		m.exportView = next.(view.ExportModel)
	case screenImport:
		var next tea.Model
		next, cmd = m.importView.Update(msg)
		m.importView = next.(view.ImportModel)
	}

	return m, cmd
}

// resize replays the last window size to a freshly built screen.
func (m model) resize() tea.Cmd {
	if m.size.Width == 0 {
		return nil
	}

	size := m.size

	return func() tea.Msg { return size }
}

func (m model) View() string {
	switch m.current {
	case screenAuth:
		return m.authView.View()
	case screenExpenses:
		return m.expensesView.View()
	case screenExport:
		return m.exportView.View()
	case screenImport:
		return m.importView.View()
	}

	return "Unknown View"
}

// setupLogging keeps log output off the terminal the TUI draws on.
func setupLogging(path string) (*slog.Logger, func() error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return slog.Default(), func() error { return nil }
	}

	f, err := tea.LogToFile(path, "spendly")
	if err != nil {
		slog.Error("failed to open log file", "path", path, "error", err)
		os.Exit(1)
	}

	return slog.Default(), f.Close
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeLog := setupLogging(cfg.LogFile)
	defer closeLog()

	m, closeStore := initialModel(cfg, logger)
	defer closeStore()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
