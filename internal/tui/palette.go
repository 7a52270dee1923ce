package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tasky-app/tasky/internal/commands"
	"github.com/tasky-app/tasky/internal/model"
)

func (m Model) openPalette(prefill string) Model {
	m.paletteActive = true
	m.paletteInput.SetValue(prefill)
	m.paletteInput.CursorEnd()
	m.paletteInput.Focus()
	m.setStatus("command palette active", false)
	return m
}

func (m Model) handlePaletteKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.paletteActive = false
		m.paletteInput.Blur()
		m.setStatus("", false)
		return m, nil
	case "enter":
		input := m.paletteInput.Value()
		m.paletteActive = false
		m.paletteInput.Blur()
		m.paletteInput.SetValue("")
		return m.runCommand(input)
	}

	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(key)
	return m, cmd
}

func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	cmd, err := commands.Parse(input)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}

	var teaCmd tea.Cmd
	result, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if err := m.ctrl.CreateTask(a.Title, a.Description); err != nil {
				return commands.Result{}, err
			}
			teaCmd = m.spin.Tick
			return commands.Result{Message: "adding " + a.Title}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			id, err := m.taskIDAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.ctrl.EditTask(id, a.Title, a.Description); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "editing task " + fmt.Sprint(a.Index)}, nil
		},
		Done: func(a commands.DoneArgs) (commands.Result, error) {
			id, err := m.taskIDAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.ctrl.ToggleTask(id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "toggled task " + fmt.Sprint(a.Index)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			id, err := m.taskIDAt(a.Index)
			if err != nil {
				return commands.Result{}, err
			}
			if err := m.ctrl.DeleteTask(id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "deleting task " + fmt.Sprint(a.Index)}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			if err := m.ctrl.ReorderTasks(a.From-1, a.To-1); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("moving task %d to %d", a.From, a.To)}, nil
		},
		AI: func(a commands.AIArgs) (commands.Result, error) {
			teaCmd = m.doExtract(a.Text)
			return commands.Result{Message: "extracting tasks..."}, nil
		},
		Sync: func() (commands.Result, error) {
			m.ctrl.SyncPending()
			return commands.Result{Message: "re-sending failed changes"}, nil
		},
		Help: func() (commands.Result, error) {
			m.helpVisible = true
			return commands.Result{Message: "help shown"}, nil
		},
	})
	if err != nil {
		m.reportOpError(err)
		return m, teaCmd
	}
	m.setStatus(result.Message, false)
	return m, teaCmd
}

var errNoSuchIndex = errors.New("tui: no task at that position")

func (m *Model) taskIDAt(index int) (model.TaskID, error) {
	tasks := m.ctrl.Tasks()
	if index < 1 || index > len(tasks) {
		return model.TaskID{}, errNoSuchIndex
	}
	return tasks[index-1].ID, nil
}

func (m Model) doExtract(text string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		drafts, err := client.ExtractTasks(context.Background(), text)
		return extractDoneMsg{drafts: drafts, err: err}
	}
}
