// ABOUTME: Root bubbletea model for the admin console
// ABOUTME: Manages screen state, navigation guard checks and session renewal

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nagypet/wstemplate/internal/client"
	"github.com/nagypet/wstemplate/internal/guard"
	"github.com/nagypet/wstemplate/internal/session"
	"github.com/nagypet/wstemplate/internal/tui/certstore"
	"github.com/nagypet/wstemplate/internal/tui/icons"
	"github.com/nagypet/wstemplate/internal/tui/login"
	"github.com/nagypet/wstemplate/internal/tui/styles"
)

// Screen represents the current console screen
type Screen int

const (
	ScreenPublic Screen = iota
	ScreenLogin
	ScreenMenu
	ScreenAbout
	ScreenSettings
	ScreenKeystore
	ScreenTruststore
	ScreenShutdown
)

// Layout constants
const (
	minTerminalWidth = 80
	renewTickEvery   = 10 * time.Second
)

// screenPath maps a screen to the route the navigation guard checks.
func screenPath(s Screen) string {
	switch s {
	case ScreenPublic:
		return "/public"
	case ScreenLogin:
		return "/login"
	case ScreenAbout:
		return "/admin-gui/about"
	case ScreenSettings:
		return "/admin-gui/settings"
	case ScreenKeystore:
		return "/admin-gui/keystore"
	case ScreenTruststore:
		return "/admin-gui/truststore"
	case ScreenShutdown:
		return "/admin-gui/shutdown"
	default:
		return "/admin-gui"
	}
}

// menuItem is one entry of the main menu
type menuItem struct {
	label  string
	icon   icons.Icon
	screen Screen
}

var menuItems = []menuItem{
	{"Version info", icons.Info, ScreenAbout},
	{"Settings", icons.Settings, ScreenSettings},
	{"Keystore", icons.Key, ScreenKeystore},
	{"Truststore", icons.Shield, ScreenTruststore},
	{"Shutdown backend", icons.Power, ScreenShutdown},
}

// Messages

type sessionRestoredMsg struct{}

type loginResultMsg struct{ err error }

type logoutDoneMsg struct{ err error }

type versionLoadedMsg struct {
	info *client.VersionInfo
	err  error
}

type settingsLoadedMsg struct {
	settings []client.ServerParameter
	err      error
}

type entriesLoadedMsg struct {
	kind    certstore.Kind
	entries []client.KeystoreEntry
	err     error
}

type shutdownDoneMsg struct{ err error }

type renewTickMsg time.Time

type renewDoneMsg struct{ err error }

type noticeMsg Notice

type loginStateMsg bool

// Deps bundles everything the console needs.
type Deps struct {
	Client            *client.Client
	Sessions          *session.Manager
	Guard             *guard.Guard
	Notifier          *Notifier
	Logger            *zap.Logger
	RenewBelowSeconds int
	ServerURL         string
}

// App is the root model for the console
type App struct {
	deps   Deps
	screen Screen
	width  int
	height int
	err    error

	menuCursor int
	loading    bool
	spin       spinner.Model

	version  *client.VersionInfo
	settings []client.ServerParameter

	// Child models
	loginScreen *login.Login
	store       *certstore.Browser

	// Pending shutdown confirmation
	shutdownArmed bool

	notice       *Notice
	noticeShown  time.Time
	cancelLogin  func()
	loginSignal  <-chan bool
}

// New creates the console root model
func New(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	signal, cancel := deps.Sessions.LoggedIn().Subscribe()
	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary)),
	)
	return &App{
		deps:        deps,
		screen:      ScreenPublic,
		spin:        spin,
		loginSignal: signal,
		cancelLogin: cancel,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.restoreSession(),
		a.waitForNotice(),
		a.waitForLoginState(),
		a.renewTick(),
		a.spin.Tick,
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.store != nil {
			a.store.SetSize(a.contentWidth(), a.contentHeight())
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a.quit()
		}
		return a.updateKey(msg)

	case sessionRestoredMsg:
		if a.deps.Sessions.IsLoggedIn() {
			return a.navigate(ScreenMenu)
		}
		return a, nil

	case login.SubmittedMsg:
		a.loading = true
		return a, a.doLogin(msg.Username, msg.Password)

	case login.CancelledMsg:
		a.loginScreen = nil
		a.screen = ScreenPublic
		return a, nil

	case loginResultMsg:
		a.loading = false
		if msg.err != nil {
			if a.loginScreen != nil {
				a.loginScreen.SetError(loginFailureText(msg.err))
			}
			return a, nil
		}
		a.loginScreen = nil
		return a.navigate(ScreenMenu)

	case logoutDoneMsg:
		a.screen = ScreenPublic
		a.store = nil
		return a, nil

	case versionLoadedMsg:
		a.loading = false
		a.err = msg.err
		a.version = msg.info
		return a, nil

	case settingsLoadedMsg:
		a.loading = false
		a.err = msg.err
		a.settings = msg.settings
		return a, nil

	case entriesLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.err = nil
		if a.store != nil && (msg.kind == certstore.Keystore) == (a.screen == ScreenKeystore) {
			a.store.SetEntries(msg.entries)
		} else {
			a.store = certstore.New(msg.kind, msg.entries, a.contentWidth(), a.contentHeight())
		}
		return a, nil

	case certstore.RemoveRequestedMsg:
		a.loading = true
		return a, a.removeEntry(msg.Kind, msg.Alias)

	case certstore.ReloadRequestedMsg:
		a.loading = true
		return a, a.loadEntries(msg.Kind)

	case certstore.BackMsg:
		a.store = nil
		return a.navigate(ScreenMenu)

	case shutdownDoneMsg:
		a.loading = false
		a.shutdownArmed = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.deps.Notifier.Success("Shutdown requested", "The backend is stopping.")
		return a.navigate(ScreenMenu)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case renewTickMsg:
		return a, tea.Batch(a.maybeRenew(), a.renewTick())

	case renewDoneMsg:
		return a, nil

	case noticeMsg:
		notice := Notice(msg)
		a.notice = &notice
		a.noticeShown = time.Now()
		return a, a.waitForNotice()

	case loginStateMsg:
		if !bool(msg) && a.screen != ScreenPublic && a.screen != ScreenLogin {
			// Session ended underneath us, fall back to the public screen.
			a.screen = ScreenPublic
			a.store = nil
		}
		return a, a.waitForLoginState()

	default:
		// huh form internals need to see every message
		if a.screen == ScreenLogin && a.loginScreen != nil {
			return a.updateLogin(msg)
		}
	}

	return a, nil
}

func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case ScreenPublic:
		switch msg.String() {
		case "l", "enter":
			return a.showLogin()
		case "q":
			return a.quit()
		}
		return a, nil

	case ScreenLogin:
		return a.updateLogin(msg)

	case ScreenMenu:
		return a.updateMenu(msg)

	case ScreenAbout, ScreenSettings:
		switch msg.String() {
		case "b", "esc":
			return a.navigate(ScreenMenu)
		case "r":
			a.loading = true
			if a.screen == ScreenAbout {
				return a, a.loadVersion()
			}
			return a, a.loadSettings()
		case "q":
			return a.quit()
		}
		return a, nil

	case ScreenKeystore, ScreenTruststore:
		if a.store == nil {
			return a, nil
		}
		model, cmd := a.store.Update(msg)
		a.store = model.(*certstore.Browser)
		return a, cmd

	case ScreenShutdown:
		switch msg.String() {
		case "y", "Y":
			a.loading = true
			return a, a.doShutdown()
		default:
			a.shutdownArmed = false
			return a.navigate(ScreenMenu)
		}
	}
	return a, nil
}

func (a *App) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.menuCursor > 0 {
			a.menuCursor--
		}
	case "down", "j":
		if a.menuCursor < len(menuItems)-1 {
			a.menuCursor++
		}
	case "enter":
		return a.navigate(menuItems[a.menuCursor].screen)
	case "o":
		return a, a.doLogout()
	case "q":
		return a.quit()
	}
	return a, nil
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.loginScreen == nil {
		return a, nil
	}
	model, cmd := a.loginScreen.Update(msg)
	a.loginScreen = model.(*login.Login)
	return a, cmd
}

// navigate runs the guard check and switches to the screen, or falls back
// to the public screen when the navigation is denied.
func (a *App) navigate(target Screen) (tea.Model, tea.Cmd) {
	decision := a.deps.Guard.CanActivate(context.Background(), screenPath(target))
	if !decision.Allowed {
		a.screen = ScreenPublic
		a.store = nil
		return a, nil
	}

	a.err = nil
	a.screen = target

	switch target {
	case ScreenAbout:
		a.loading = true
		return a, a.loadVersion()
	case ScreenSettings:
		a.loading = true
		return a, a.loadSettings()
	case ScreenKeystore:
		a.loading = true
		return a, a.loadEntries(certstore.Keystore)
	case ScreenTruststore:
		a.loading = true
		return a, a.loadEntries(certstore.Truststore)
	case ScreenShutdown:
		a.shutdownArmed = true
	}
	return a, nil
}

func (a *App) showLogin() (tea.Model, tea.Cmd) {
	a.screen = ScreenLogin
	a.loginScreen = login.New()
	a.deps.Sessions.LoginPageVisible().Set(true)
	return a, a.loginScreen.Init()
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.cancelLogin()
	return a, tea.Quit
}

// Commands

func (a *App) restoreSession() tea.Cmd {
	return func() tea.Msg {
		_, _ = a.deps.Sessions.Restore(context.Background())
		return sessionRestoredMsg{}
	}
}

func (a *App) doLogin(username, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := a.deps.Sessions.Login(context.Background(), username, password, true)
		return loginResultMsg{err: err}
	}
}

func (a *App) doLogout() tea.Cmd {
	return func() tea.Msg {
		err := a.deps.Sessions.Logout(context.Background(), false)
		return logoutDoneMsg{err: err}
	}
}

func (a *App) loadVersion() tea.Cmd {
	return func() tea.Msg {
		info, err := a.deps.Client.VersionInfo(context.Background())
		return versionLoadedMsg{info: info, err: err}
	}
}

func (a *App) loadSettings() tea.Cmd {
	return func() tea.Msg {
		settings, err := a.deps.Client.Settings(context.Background())
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

func (a *App) loadEntries(kind certstore.Kind) tea.Cmd {
	return func() tea.Msg {
		var entries []client.KeystoreEntry
		var err error
		if kind == certstore.Keystore {
			entries, err = a.deps.Client.Keystore(context.Background())
		} else {
			entries, err = a.deps.Client.Truststore(context.Background())
		}
		return entriesLoadedMsg{kind: kind, entries: entries, err: err}
	}
}

func (a *App) removeEntry(kind certstore.Kind, alias string) tea.Cmd {
	return func() tea.Msg {
		var entries []client.KeystoreEntry
		var err error
		if kind == certstore.Keystore {
			entries, err = a.deps.Client.RemoveKeystoreEntry(context.Background(), alias)
		} else {
			entries, err = a.deps.Client.RemoveTruststoreEntry(context.Background(), alias)
		}
		return entriesLoadedMsg{kind: kind, entries: entries, err: err}
	}
}

func (a *App) doShutdown() tea.Cmd {
	return func() tea.Msg {
		return shutdownDoneMsg{err: a.deps.Client.Shutdown(context.Background())}
	}
}

func (a *App) renewTick() tea.Cmd {
	return tea.Tick(renewTickEvery, func(t time.Time) tea.Msg {
		return renewTickMsg(t)
	})
}

// maybeRenew silently renews the token shortly before it expires.
func (a *App) maybeRenew() tea.Cmd {
	if !a.deps.Sessions.IsLoggedIn() {
		return nil
	}
	valid := a.deps.Sessions.TokenValidSeconds()
	if valid <= 0 || valid > a.deps.RenewBelowSeconds {
		return nil
	}
	return func() tea.Msg {
		return renewDoneMsg{err: a.deps.Sessions.RenewToken(context.Background())}
	}
}

func (a *App) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-a.deps.Notifier.Notices())
	}
}

func (a *App) waitForLoginState() tea.Cmd {
	return func() tea.Msg {
		state, ok := <-a.loginSignal
		if !ok {
			return nil
		}
		return loginStateMsg(state)
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenPublic:
		content = a.viewPublic()
	case ScreenLogin:
		content = a.viewLogin()
	case ScreenMenu:
		content = a.viewMenu()
	case ScreenAbout:
		content = a.viewAbout()
	case ScreenSettings:
		content = a.viewSettings()
	case ScreenKeystore, ScreenTruststore:
		content = a.viewStore()
	case ScreenShutdown:
		content = a.viewShutdown()
	default:
		content = a.viewPublic()
	}

	panel := styles.ActivePanel.Width(a.contentWidth()).Render(content)

	var sb strings.Builder
	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(panel)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())
	return sb.String()
}

func (a *App) viewPublic() string {
	out := styles.Title.Render(icons.App.String()+" spvadmin") + "\n"
	out += styles.Subtitle.Render("Backend: "+a.deps.ServerURL) + "\n\n"
	out += "Welcome to the admin console.\n\n"
	out += styles.Help.Render("Press " + styles.KeyStyle.Render("l") + " to login.")
	return out
}

func (a *App) viewLogin() string {
	if a.loginScreen != nil {
		return a.loginScreen.View()
	}
	return ""
}

func (a *App) viewMenu() string {
	out := styles.Title.Render("Menu") + "\n"
	for i, item := range menuItems {
		line := fmt.Sprintf("%s %s", item.icon.String(), item.label)
		if i == a.menuCursor {
			line = styles.SelectedItem.Render("> " + line)
		} else {
			line = "  " + line
		}
		out += line + "\n"
	}
	return out
}

func (a *App) viewAbout() string {
	if a.err != nil {
		return styles.StatusCritical.Render("Error: " + a.err.Error())
	}
	if a.loading || a.version == nil {
		return a.spin.View() + " Loading..."
	}

	out := styles.Title.Render("Version info") + "\n"
	for _, field := range a.version.Fields() {
		out += fmt.Sprintf("%-24s %s\n", field.Name+":", styles.ValueStyle.Render(field.Value))
	}
	return out
}

func (a *App) viewSettings() string {
	if a.err != nil {
		return styles.StatusCritical.Render("Error: " + a.err.Error())
	}
	if a.loading {
		return a.spin.View() + " Loading..."
	}

	width := 0
	for _, s := range a.settings {
		if len(s.Name) > width {
			width = len(s.Name)
		}
	}

	out := styles.Title.Render("Settings") + "\n"
	for _, s := range a.settings {
		out += fmt.Sprintf("%-*s  %s\n", width, s.Name, s.Value)
	}
	return out
}

func (a *App) viewStore() string {
	if a.err != nil {
		return styles.StatusCritical.Render("Error: " + a.err.Error())
	}
	if a.store == nil || a.loading {
		return a.spin.View() + " Loading..."
	}
	return a.store.View()
}

func (a *App) viewShutdown() string {
	out := styles.Title.Render(icons.Power.String()+" Shutdown") + "\n"
	out += "The backend stops serving requests until it is restarted.\n\n"
	out += styles.StatusWarning.Render("Shut down the backend? (y/N)")
	return out
}

// renderHeader creates the header bar with branding and session context
func (a *App) renderHeader() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s", icons.App.String(), titleStyle.Render("spvadmin"))

	rightText := ""
	if a.deps.Sessions.IsLoggedIn() {
		validMinutes := (a.deps.Sessions.TokenValidSeconds() + 30) / 60
		rightText = contextStyle.Render(fmt.Sprintf("%s %s  %s %dm",
			icons.User.String(), a.deps.Sessions.DisplayName(),
			icons.Clock.String(), validMinutes)) + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := width - 4 - leftWidth - rightWidth
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and toasts
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var shortcuts []string
	switch a.screen {
	case ScreenPublic:
		shortcuts = []string{"l Login", "q Quit"}
	case ScreenLogin:
		shortcuts = []string{"Enter Submit", "Esc Cancel"}
	case ScreenMenu:
		shortcuts = []string{"↑↓ Navigate", "Enter Select", "o Logout", "q Quit"}
	case ScreenAbout, ScreenSettings:
		shortcuts = []string{"r Refresh", "b Back", "q Quit"}
	case ScreenKeystore, ScreenTruststore:
		shortcuts = []string{"↑↓ Navigate", "d Remove", "r Refresh", "b Back"}
	case ScreenShutdown:
		shortcuts = []string{"y Confirm", "n Cancel"}
	}

	var styledShortcuts []string
	var plainShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
		plainShortcuts = append(plainShortcuts, s)
	}

	leftText := " " + strings.Join(styledShortcuts, "  ")
	leftPlainText := " " + strings.Join(plainShortcuts, "  ")

	rightText := ""
	rightPlainText := ""
	if a.notice != nil && time.Since(a.noticeShown) < 8*time.Second {
		plain := a.notice.Title + ": " + a.notice.Message
		style := styles.StatusOK
		icon := icons.CheckOK
		if a.notice.Level == NoticeWarning {
			style = styles.StatusWarning
			icon = icons.Warning
		}
		rightText = style.Render(icon.String()+" "+plain) + " "
		rightPlainText = icon.String() + " " + plain + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	fillWidth := width - 4 - leftWidth - rightWidth
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// contentWidth calculates the width for the main panel
func (a *App) contentWidth() int {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width - 4
}

// contentHeight calculates the height available for panel content
func (a *App) contentHeight() int {
	// Header, panel border and padding, footer
	return a.height - 8
}

// loginFailureText maps a login error to the message shown on the form.
func loginFailureText(err error) string {
	if client.IsUnauthorized(err) {
		return "Invalid username or password."
	}
	return err.Error()
}

// Run starts the console
func Run(deps Deps) error {
	app := New(deps)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
