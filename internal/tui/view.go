package tui

import (
	"fmt"
	"strings"

	"github.com/tasky-app/tasky/internal/model"
	"github.com/tasky-app/tasky/internal/views"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.screen == screenLogin {
		return m.loginView()
	}
	return m.listView()
}

func (m Model) loginView() string {
	mode := "login"
	if m.signupMode {
		mode = "signup"
	}
	panel := views.RenderLoginPanel(views.LoginData{
		Mode:         mode,
		UsernameView: m.usernameInput.View(),
		PasswordView: m.passwordInput.View(),
		ActiveField:  m.loginField,
		ErrorText:    m.loginErr,
		Busy:         m.loginBusy,
	})
	return views.RenderApp(views.AppData{
		Header:   "tasky",
		LeftPane: panel,
		Footer:   "ctrl+s switch signup/login | ctrl+c quit",
	})
}

func (m Model) listView() string {
	tasks := m.ctrl.Tasks()
	items := make([]views.TaskItemData, len(tasks))
	for i, t := range tasks {
		items[i] = views.TaskItemData{
			Index:       i + 1,
			Title:       t.Title,
			Description: t.Description,
			IsDone:      t.IsDone,
			Temp:        t.IsTemp(),
			Badge:       m.badgeFor(t),
			Selected:    i == m.cursor,
		}
	}

	left := views.RenderTaskList(views.TaskListData{
		Items:    items,
		InFlight: m.ctrl.PendingCount(),
		Spinner:  m.spin.View(),
	})

	right := ""
	if m.helpVisible {
		right = views.RenderHelpPanel()
	} else if len(m.pendingDrafts) > 0 {
		drafts := make([]string, len(m.pendingDrafts))
		for i, d := range m.pendingDrafts {
			line := d.Title
			if d.Description != "" {
				line += ": " + d.Description
			}
			drafts[i] = line
		}
		right = views.RenderDraftsPanel(views.DraftData{Drafts: drafts})
	} else if m.paletteActive {
		right = views.RenderCommandPalette(true, m.paletteInput.View())
	}

	status := m.status.Text
	if m.status.IsError && !strings.Contains(strings.ToLower(status), "error") {
		status = "error: " + status
	}
	if failed := m.ctrl.Failed(); len(failed) > 0 {
		status = strings.TrimSpace(status + fmt.Sprintf("  %d change(s) could not be saved", len(failed)))
	}
	if op, ok := m.ctrl.PendingReorder(); ok && op.Failed() {
		status = strings.TrimSpace(status + "  (reorder failed, r retries)")
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("tasky | %d task(s)", len(tasks)),
		LeftPane:   left,
		RightPane:  right,
		StatusLine: status,
		Footer:     "keys: j/k move | space done | a add | e edit | d del | / cmd | ? help | q quit",
	})
}

func (m Model) badgeFor(t model.Task) string {
	op, ok := m.ctrl.Pending(t.ID)
	if !ok {
		return ""
	}
	if op.Failed() {
		return "failed"
	}
	return "pending"
}
