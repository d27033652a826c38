package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

// Authenticator signs a user in or up.
type Authenticator interface {
	Authenticate(ctx context.Context, mode remote.Mode, email, password string) (expense.Session, error)
}

// AuthenticatedMsg carries the session once sign-in or sign-up succeeds.
type AuthenticatedMsg struct {
	Session expense.Session
}

type authFields struct {
	mode     remote.Mode
	email    string
	password string
}

type AuthModel struct {
	CommonModel
	auth Authenticator

	fields  *authFields
	form    *huh.Form
	busy    bool
	spinner spinner.Model
	status  string
}

func NewAuthModel(auth Authenticator) AuthModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := AuthModel{auth: auth, fields: &authFields{}, spinner: s}
	m.form = m.buildForm()

	return m
}

func (m AuthModel) Title() string { return "Sign In" }

func (m AuthModel) ShortHelp() string {
	if m.busy {
		return "Signing in..."
	}

	return "Enter: next | Ctrl+C: quit"
}

func (m AuthModel) Init() tea.Cmd {
	return m.form.Init()
}

func validateEmail(s string) error {
	if !strings.Contains(s, "@") {
		return errors.New("enter a valid email address")
	}

	return nil
}

func validatePassword(s string) error {
	if len(s) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	return nil
}

func (m AuthModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[remote.Mode]().
				Key("mode").
				Title("Spendly").
				Options(
					huh.NewOption("Log in", remote.ModeLogin),
					huh.NewOption("Sign up", remote.ModeSignup),
				).
				Value(&m.fields.mode),

			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&m.fields.email).
				Validate(validateEmail),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fields.password).
				Validate(validatePassword),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(authResultMsg); ok {
		m.busy = false

		if result.err != nil {
			m.status = expenselist.UserMessage(result.err)
			m.fields.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		return m, func() tea.Msg { return AuthenticatedMsg{Session: result.session} }
	}

	if m.busy {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.status = ""

	return m, tea.Batch(m.spinner.Tick, m.authCmd(*m.fields))
}

func (m AuthModel) View() string {
	if m.busy {
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s %s as %s...", m.spinner.View(), modeVerb(m.fields.mode), m.fields.email),
		)
	}

	content := m.form.View()
	if m.status != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", errorStyle.Render(m.status))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func modeVerb(mode remote.Mode) string {
	if mode == remote.ModeSignup {
		return "Signing up"
	}

	return "Logging in"
}

type authResultMsg struct {
	session expense.Session
	err     error
}

func (m AuthModel) authCmd(f authFields) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := RequestCtx()
		defer cancel()

		sess, err := m.auth.Authenticate(ctx, f.mode, strings.TrimSpace(f.email), f.password)

		return authResultMsg{session: sess, err: err}
	}
}
