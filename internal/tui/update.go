package tui

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/controller"
	"github.com/tasky-app/tasky/internal/model"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.screen == screenLogin {
			return m.handleLoginKey(typed)
		}
		return m.handleListKey(typed)

	case authDoneMsg:
		m.loginBusy = false
		if typed.err != nil {
			m.loginErr = authErrorText(typed.err, m.signupMode)
			return m, nil
		}
		m.screen = screenList
		m.loginErr = ""
		m.setStatus("signed in", false)
		return m, tea.Batch(m.doRefresh(), m.waitForChange(), m.refreshTick(), m.spin.Tick)

	case tasksChangedMsg:
		m.clampCursor()
		cmd := m.drainDrafts()
		return m, tea.Batch(m.waitForChange(), cmd)

	case refreshTickMsg:
		return m, tea.Batch(m.doRefresh(), m.refreshTick())

	case refreshDoneMsg:
		if typed.err != nil {
			m.offline = true
			m.setStatus("refresh failed: "+typed.err.Error(), true)
			return m, nil
		}
		if m.offline {
			// Connectivity is back: re-send failed changes, then pull a
			// fresh list so positions and rolled-back rows settle.
			m.offline = false
			m.ctrl.SyncPending()
			m.setStatus("back online, re-sending failed changes", false)
			return m, m.doRefresh()
		}
		return m, nil

	case extractDoneMsg:
		if typed.err != nil {
			m.setStatus("extract failed: "+typed.err.Error(), true)
			return m, nil
		}
		m.pendingDrafts = typed.drafts
		m.setStatus("extracted drafts ready, enter adds them", false)
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.PendingCount() > 0 {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(typed)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleLoginKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab":
		m.loginField = 1 - m.loginField
		if m.loginField == 0 {
			m.usernameInput.Focus()
			m.passwordInput.Blur()
		} else {
			m.passwordInput.Focus()
			m.usernameInput.Blur()
		}
		return m, nil
	case "ctrl+s":
		m.signupMode = !m.signupMode
		m.loginErr = ""
		return m, nil
	case "enter":
		if m.loginBusy {
			return m, nil
		}
		username := m.usernameInput.Value()
		password := m.passwordInput.Value()
		if username == "" || password == "" {
			m.loginErr = "username and password required"
			return m, nil
		}
		m.loginBusy = true
		return m, m.doAuth(username, password)
	}

	var cmd tea.Cmd
	if m.loginField == 0 {
		m.usernameInput, cmd = m.usernameInput.Update(key)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(key)
	}
	return m, cmd
}

func (m Model) handleListKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.paletteActive {
		return m.handlePaletteKey(key)
	}
	if len(m.pendingDrafts) > 0 {
		switch key.String() {
		case "enter":
			return m, m.drainDrafts()
		case "esc":
			m.pendingDrafts = nil
			m.setStatus("drafts dismissed", false)
			return m, nil
		}
	}

	tasks := m.ctrl.Tasks()
	switch key.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "/":
		return m.openPalette(""), nil
	case "j", "down":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "g":
		m.cursor = 0
		return m, nil
	case "G":
		m.cursor = len(tasks) - 1
		m.clampCursor()
		return m, nil
	case " ", "enter":
		if task, ok := m.selectedTask(); ok {
			m.reportOpError(m.ctrl.ToggleTask(task.ID))
		}
		return m, nil
	case "d":
		if task, ok := m.selectedTask(); ok {
			m.reportOpError(m.ctrl.DeleteTask(task.ID))
		}
		return m, nil
	case "a":
		return m.openPalette("add "), nil
	case "e":
		if task, ok := m.selectedTask(); ok {
			prefill := "edit " + strconv.Itoa(m.cursor+1) + " " + task.Title
			if task.Description != "" {
				prefill += ": " + task.Description
			}
			return m.openPalette(prefill), nil
		}
		return m, nil
	case "J":
		if m.cursor < len(tasks)-1 {
			if err := m.ctrl.ReorderTasks(m.cursor, m.cursor+1); err != nil {
				m.reportOpError(err)
			} else {
				m.cursor++
			}
		}
		return m, nil
	case "K":
		if m.cursor > 0 {
			if err := m.ctrl.ReorderTasks(m.cursor, m.cursor-1); err != nil {
				m.reportOpError(err)
			} else {
				m.cursor--
			}
		}
		return m, nil
	case "r":
		if opKey := m.selectedFailedKey(); opKey != "" {
			m.reportOpError(m.ctrl.Retry(opKey))
		}
		return m, nil
	case "x":
		if opKey := m.selectedFailedKey(); opKey != "" {
			m.reportOpError(m.ctrl.Discard(opKey))
		}
		return m, nil
	case "u":
		m.ctrl.SyncPending()
		m.setStatus("re-sending failed changes", false)
		return m, nil
	}
	return m, nil
}

// selectedFailedKey resolves the retry target: the selected row's failed
// op first, then the failed reorder, then any failed op.
func (m *Model) selectedFailedKey() string {
	if task, ok := m.selectedTask(); ok {
		if op, pending := m.ctrl.Pending(task.ID); pending && op.Failed() {
			return task.ID.Key()
		}
	}
	if op, ok := m.ctrl.PendingReorder(); ok && op.Failed() {
		return model.ReorderKey
	}
	if failed := m.ctrl.Failed(); len(failed) > 0 {
		return failed[0].Key
	}
	return ""
}

func (m *Model) reportOpError(err error) {
	switch {
	case err == nil:
		m.setStatus("", false)
	case errors.Is(err, controller.ErrRowBusy):
		m.setStatus("that task has a change in flight", true)
	case errors.Is(err, controller.ErrTempTask):
		m.setStatus("wait for the task to be saved first", true)
	case errors.Is(err, controller.ErrCreateInFlight):
		m.setStatus("still saving the previous task", true)
	case errors.Is(err, controller.ErrReorderBusy):
		m.setStatus("a reorder is already in flight", true)
	case errors.Is(err, controller.ErrTempInList):
		m.setStatus("cannot reorder while a task is being saved", true)
	default:
		m.setStatus("error: "+err.Error(), true)
	}
}

func (m Model) doAuth(username, password string) tea.Cmd {
	client := m.client
	signup := m.signupMode
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if signup {
			err = client.Signup(ctx, username, password)
		} else {
			err = client.Login(ctx, username, password)
		}
		return authDoneMsg{err: err}
	}
}

func (m Model) doRefresh() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return refreshDoneMsg{err: ctrl.Refresh(context.Background())}
	}
}

// drainDrafts feeds extracted drafts into the controller one at a time;
// creates are serialized, so the rest wait for the next change signal.
func (m *Model) drainDrafts() tea.Cmd {
	if len(m.pendingDrafts) == 0 || m.ctrl.IsCreating() {
		return nil
	}
	draft := m.pendingDrafts[0]
	if err := m.ctrl.CreateTask(draft.Title, draft.Description); err != nil {
		if !errors.Is(err, controller.ErrCreateInFlight) {
			m.pendingDrafts = m.pendingDrafts[1:]
			m.reportOpError(err)
		}
		return nil
	}
	m.pendingDrafts = m.pendingDrafts[1:]
	return m.spin.Tick
}

func authErrorText(err error, signup bool) string {
	switch {
	case errors.Is(err, api.ErrConflict):
		return "username already taken"
	case errors.Is(err, api.ErrUnauthorized):
		return "invalid credentials"
	case signup:
		return "signup failed: " + err.Error()
	default:
		return "login failed: " + err.Error()
	}
}
