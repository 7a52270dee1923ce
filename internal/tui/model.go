// Package tui implements the terminal client: a login screen, the task
// list with optimistic state badges, and the command palette.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/config"
	"github.com/tasky-app/tasky/internal/controller"
	"github.com/tasky-app/tasky/internal/model"
)

type screen int

const (
	screenLogin screen = iota
	screenList
)

type StatusBar struct {
	Text    string
	IsError bool
}

type Model struct {
	cfg    config.ClientConfig
	client *api.Client
	ctrl   *controller.Controller

	screen     screen
	signupMode bool
	loginField int
	loginBusy  bool
	loginErr   string

	cursor        int
	offline       bool
	paletteActive bool
	helpVisible   bool
	pendingDrafts []api.ExtractedTask
	status        StatusBar
	quitting      bool

	usernameInput textinput.Model
	passwordInput textinput.Model
	paletteInput  textinput.Model
	spin          spinner.Model
}

// Messages produced by background commands.
type (
	tasksChangedMsg struct{}
	refreshTickMsg  struct{}
	refreshDoneMsg  struct{ err error }
	authDoneMsg     struct{ err error }
	extractDoneMsg  struct {
		drafts []api.ExtractedTask
		err    error
	}
)

func New(cfg config.ClientConfig, client *api.Client, ctrl *controller.Controller) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	username.CharLimit = 50

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 72

	palette := textinput.New()
	palette.Placeholder = "add buy milk: 2 liters"
	palette.CharLimit = 200

	return Model{
		cfg:           cfg,
		client:        client,
		ctrl:          ctrl,
		screen:        screenLogin,
		usernameInput: username,
		passwordInput: password,
		paletteInput:  palette,
		spin:          spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) waitForChange() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		<-updates
		return tasksChangedMsg{}
	}
}

func (m Model) refreshTick() tea.Cmd {
	interval := m.cfg.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// clampCursor keeps the selection inside the list after removals.
func (m *Model) clampCursor() {
	n := len(m.ctrl.Tasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectedTask() (model.Task, bool) {
	tasks := m.ctrl.Tasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) setStatus(text string, isError bool) {
	m.status = StatusBar{Text: text, IsError: isError}
}
