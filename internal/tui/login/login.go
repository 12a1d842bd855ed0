// ABOUTME: Login screen as a bubbletea model
// ABOUTME: Wraps a huh form collecting username and password

package login

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nagypet/wstemplate/internal/tui/styles"
)

// SubmittedMsg is sent when the form is confirmed.
type SubmittedMsg struct {
	Username string
	Password string
}

// CancelledMsg is sent when the login is cancelled.
type CancelledMsg struct{}

// Login is the login screen model.
type Login struct {
	form     *huh.Form
	username string
	password string
	errText  string
	busy     bool
}

// New creates a login screen.
func New() *Login {
	l := &Login{}
	l.form = l.createForm()
	return l
}

func (l *Login) createForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&l.username).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&l.password),
		).Title("Login").
			Description("Authenticate against the backend"),
	).WithTheme(huh.ThemeBase())
}

// SetError shows a failure message and re-arms the form for another try.
func (l *Login) SetError(text string) {
	l.errText = text
	l.busy = false
	l.password = ""
	l.form = l.createForm()
}

// SetBusy marks an exchange as in flight so the form cannot re-submit.
func (l *Login) SetBusy(busy bool) {
	l.busy = busy
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return l.form.Init()
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return l, func() tea.Msg { return CancelledMsg{} }
	}
	if l.busy {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.busy = true
		username, password := l.username, l.password
		return l, func() tea.Msg {
			return SubmittedMsg{Username: username, Password: password}
		}
	}

	return l, cmd
}

// View implements tea.Model
func (l *Login) View() string {
	out := l.form.View()
	if l.busy {
		out += "\n" + styles.Subtitle.Render("Logging in...")
	}
	if l.errText != "" {
		out += "\n" + styles.StatusCritical.Render(l.errText)
	}
	return out
}
