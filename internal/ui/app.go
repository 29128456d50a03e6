package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolwatch/internal/auth"
	"github.com/five82/spoolwatch/internal/metrics"
	"github.com/five82/spoolwatch/internal/prefs"
	"github.com/five82/spoolwatch/internal/state"
	"github.com/five82/spoolwatch/internal/submit"
)

// View represents the current active view.
type View int

const (
	viewLogin View = iota
	viewDashboard
)

// Client is the slice of the spooler client the UI calls directly.
type Client interface {
	auth.LoginAPI
	auth.Logouter
}

// Refresher schedules an immediate state fetch.
type Refresher interface {
	Trigger()
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    Client
	Store     *state.Store
	Refresher Refresher
	Submitter submit.Submitter
	Metrics   *metrics.Collector

	ServerLabel string
	LogPath     string
	ThemeName   string
	PrefsPath   string
	// Username prefills the username fields when no session is pinned.
	Username string
	// File prefills the file field.
	File string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	client      Client
	store       *state.Store
	refresher   Refresher
	submitter   submit.Submitter
	metrics     *metrics.Collector
	prefsPath   string
	serverLabel string
	logPath     string
	logo        string
	defaultUser string

	// UI state
	theme    Theme
	keys     keyMap
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot state.Snapshot

	// Login view
	login     loginForm
	loginFlow *auth.LoginFlow

	// Dashboard
	form      taskForm
	logs      eventLog
	flash     flash
	submitted string // file of the upload in flight
}

// New creates a new Bubble Tea model. The first view follows the store: a
// store flagged for login opens the login view.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		refresher:   opts.Refresher,
		submitter:   opts.Submitter,
		metrics:     opts.Metrics,
		prefsPath:   prefsPath,
		serverLabel: opts.ServerLabel,
		logPath:     opts.LogPath,
		logo:        createLogo(),
		defaultUser: opts.Username,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		login:       newLoginForm(),
		loginFlow:   auth.NewLoginFlow(opts.Client),
		form:        newTaskForm(),
		logs:        newEventLog(),
	}
	if dir := prefs.Load(prefsPath).LastDir; dir != "" {
		m.form.lastDir = dir
		m.form.setFile(withSeparator(dir))
	}
	if opts.File != "" {
		m.form.setFile(opts.File)
	}
	if opts.Username != "" {
		m.login.username.SetValue(opts.Username)
		m.form.inputs[fieldUser].SetValue(opts.Username)
	}
	if m.store != nil {
		m.applySnapshot(m.store.Snapshot())
	}
	if !m.snapshot.NeedsLogin {
		m.view = viewDashboard
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.store != nil {
		cmds = append(cmds, waitForChangeCmd(m.ctx, m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogs()
		return m, nil

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, waitForChangeCmd(m.ctx, m.store)

	case flashExpiredMsg:
		m.flash.expire(msg)
		return m, nil

	case loginResultMsg:
		return m.handleLoginResult(msg.result)

	case submitResultMsg:
		return m.handleSubmitResult(msg.outcome)

	case logoutMsg:
		if msg.err != nil {
			log.Printf("logout failed: %v", msg.err)
		}
		m.store.RequireLogin()
		m.navigate(msg.route)
		return m, nil
	}

	return m.forwardInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	if m.view == viewLogin {
		return m.renderLogin()
	}
	return m.renderMain()
}

// applySnapshot stores a new snapshot and follows its routing flag.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	switch {
	case snap.NeedsLogin && m.view == viewDashboard:
		m.navigate(auth.RouteLogin)
	case snap.Session.Authenticated && m.form.pinned != snap.Session.Username:
		m.form.pin(snap.Session.Username)
	}
	m.logs.setContent(m.renderLogContent(snap.Logs), snap.LogTotal)
}

// navigate switches views.
func (m *Model) navigate(route auth.Route) {
	switch route {
	case auth.RouteDashboard:
		m.view = viewDashboard
		m.login.clear("")
	default:
		if m.view == viewLogin {
			return
		}
		user := m.form.pinned
		if user == "" {
			user = m.defaultUser
		}
		m.view = viewLogin
		m.form.unpin()
		m.form.inputs[fieldUser].SetValue(m.defaultUser)
		m.form.inFlight = false
		m.flash.clear()
		m.login.clear(user)
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case m.showHelp:
		// Any other key closes help
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}

	if m.view == viewLogin {
		return m.handleLoginKey(msg)
	}
	return m.handleDashboardKey(msg)
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	if m.prefsPath != "" {
		p := prefs.Load(m.prefsPath)
		p.Theme = m.theme.Name
		if err := prefs.Save(m.prefsPath, p); err != nil {
			log.Printf("save prefs: %v", err)
		}
	}
	// Log colors depend on the theme.
	m.logs.total = 0
	m.logs.setContent(m.renderLogContent(m.snapshot.Logs), m.snapshot.LogTotal)
}

// rememberDir saves the directory of an uploaded file so the next form
// starts there.
func (m *Model) rememberDir(file string) {
	if file == "" {
		return
	}
	dir := filepath.Dir(file)
	m.form.lastDir = dir
	if m.prefsPath == "" {
		return
	}
	p := prefs.Load(m.prefsPath)
	if p.LastDir == dir {
		return
	}
	p.LastDir = dir
	if err := prefs.Save(m.prefsPath, p); err != nil {
		log.Printf("save prefs: %v", err)
	}
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		m.login.toggle()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.login.focus == 0 && m.login.password.Value() == "" {
			m.login.setFocus(1)
			return m, nil
		}
		return m, m.loginCmd()
	}
	return m, m.login.update(msg)
}

// loginCmd starts an attempt unless one is already running.
func (m *Model) loginCmd() tea.Cmd {
	if !m.loginFlow.Begin() {
		return nil
	}
	ctx := m.ctx
	api := m.loginFlow.API
	username := m.login.username.Value()
	password := m.login.password.Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return loginResultMsg{result: auth.Login(ctx, api, username, password)}
	}
}

func (m Model) handleLoginResult(res auth.LoginResult) (tea.Model, tea.Cmd) {
	m.loginFlow.Finish(res)
	if res.Route != auth.RouteDashboard {
		return m, nil
	}
	m.store.SetSession(res.Session)
	m.form.pin(res.Session.Username)
	if m.refresher != nil {
		m.refresher.Trigger()
	}
	m.navigate(res.Route)
	// The flow stays busy after success; a fresh one serves the next login.
	m.loginFlow = auth.NewLoginFlow(m.loginFlow.API)
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.refresher != nil {
			m.refresher.Trigger()
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()

	case key.Matches(msg, m.keys.LogUp):
		m.logs.pageUp()
		return m, nil

	case key.Matches(msg, m.keys.LogDown):
		m.logs.pageDown()
		return m, nil

	case key.Matches(msg, m.keys.LogEnd):
		m.logs.followNewest()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.form.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		m.form.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submitCmd()
	}
	return m, m.form.update(msg)
}

// submitCmd validates locally and uploads in the background. Invalid input
// never reaches the server.
func (m *Model) submitCmd() tea.Cmd {
	if m.form.inFlight {
		return nil
	}
	form := m.form.values()
	if _, err := submit.Validate(form, m.submitter.Allowed); err != nil {
		m.metrics.RecordSubmission(submit.OutcomeInvalid.String())
		return m.flash.show(submit.Message(err), flashError, FlashDuration)
	}
	m.form.inFlight = true
	m.submitted = form.FilePath
	pending := m.flash.show(submit.MsgSending, flashInfo, 0)

	ctx := m.ctx
	submitter := m.submitter
	session := m.snapshot.Session
	return tea.Batch(pending, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return submitResultMsg{outcome: submitter.Submit(ctx, form, session)}
	})
}

func (m Model) handleSubmitResult(outcome submit.Outcome) (tea.Model, tea.Cmd) {
	m.form.inFlight = false
	m.metrics.RecordSubmission(outcome.Kind.String())

	switch outcome.Kind {
	case submit.OutcomeLogin:
		m.store.RequireLogin()
		m.navigate(auth.RouteLogin)
		return m, nil
	case submit.OutcomeSuccess:
		m.rememberDir(m.submitted)
		if outcome.ResetForm {
			m.form.reset()
		}
		if m.refresher != nil {
			m.refresher.Trigger()
		}
		return m, m.flash.show(outcome.Message, flashSuccess, FlashDuration)
	default:
		return m, m.flash.show(outcome.Message, flashError, FlashDuration)
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		route, err := auth.Logout(ctx, client)
		return logoutMsg{route: route, err: err}
	}
}

// forwardInput passes non-key messages, such as cursor blinks, to the
// focused inputs.
func (m Model) forwardInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view == viewLogin {
		return m, m.login.update(msg)
	}
	return m, m.form.update(msg)
}

func (m *Model) resizeLogs() {
	_, logHeight := m.layoutHeights()
	// Border plus title.
	m.logs.resize(m.width-4, logHeight-3)
}

// layoutHeights splits the space between header and footer.
func (m Model) layoutHeights() (top, logs int) {
	body := max(m.height-2, 8)
	logs = max(body/3, 5)
	return body - logs, logs
}

// renderMain renders the dashboard.
func (m Model) renderMain() string {
	top, _ := m.layoutHeights()

	var content string
	if m.width >= LayoutSideBySideWidth {
		leftWidth := m.width * 3 / 5
		rightWidth := m.width - leftWidth
		printer := m.renderPrinterPanel(leftWidth)
		queue := m.renderQueuePanel(leftWidth, top-lipgloss.Height(printer))
		left := lipgloss.JoinVertical(lipgloss.Left, printer, queue)
		content = lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderForm(rightWidth))
	} else {
		printer := m.renderPrinterPanel(m.width)
		form := m.renderForm(m.width)
		queue := m.renderQueuePanel(m.width, top-lipgloss.Height(printer)-lipgloss.Height(form))
		content = lipgloss.JoinVertical(lipgloss.Left, printer, queue, form)
	}
	content = lipgloss.NewStyle().Height(top).MaxHeight(top).Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		content,
		m.renderLogPanel(m.width),
		m.renderCommandBar(),
	)
}

// Messages

type snapshotMsg state.Snapshot

type submitResultMsg struct {
	outcome submit.Outcome
}

type logoutMsg struct {
	route auth.Route
	err   error
}

// Commands

// waitForChangeCmd blocks until the store changes, then delivers a fresh
// snapshot. It returns nil once ctx is done.
func waitForChangeCmd(ctx context.Context, store *state.Store) tea.Cmd {
	changes := store.Changes()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return snapshotMsg(store.Snapshot())
		}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	if opts.Client == nil {
		return fmt.Errorf("ui requires a client")
	}
	if opts.Context == nil {
		opts.Context = ctx
	}

	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
