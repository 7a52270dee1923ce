package views

import (
	"fmt"
	"strings"
)

// TaskItemData is one rendered list row. Badge reflects the row's
// in-flight state: "", "pending", or "failed".
type TaskItemData struct {
	Index       int
	Title       string
	Description string
	IsDone      bool
	Temp        bool
	Badge       string
	Selected    bool
}

type TaskListData struct {
	Items     []TaskItemData
	InFlight  int
	Spinner   string
	EmptyHint string
}

func RenderTaskList(data TaskListData) string {
	var b strings.Builder
	b.WriteString("tasks:\n")
	b.WriteString("actions: [j/k]move [space]done [J/K]reorder [a]dd [e]dit [d]el [/]cmd\n")

	if len(data.Items) == 0 {
		hint := data.EmptyHint
		if hint == "" {
			hint = "(no tasks yet, press a to add one)"
		}
		b.WriteString(hint)
		return strings.TrimSpace(b.String())
	}

	for _, item := range data.Items {
		cursor := " "
		if item.Selected {
			cursor = ">"
		}
		check := "[ ]"
		if item.IsDone {
			check = "[x]"
		}
		title := item.Title
		if item.IsDone {
			title = doneStyle.Render(title)
		}
		b.WriteString(fmt.Sprintf("%s %2d %s %s", cursor, item.Index, check, title))
		if item.Badge != "" {
			badge := badgeStyle.Render("(" + item.Badge + ")")
			if item.Badge == "failed" {
				badge = failStyle.Render("(failed, r retries / x discards)")
			}
			b.WriteString(" " + badge)
		}
		b.WriteString("\n")
		if item.Selected && item.Description != "" {
			b.WriteString("      " + item.Description + "\n")
		}
	}

	if data.InFlight > 0 {
		b.WriteString(fmt.Sprintf("\n%s syncing %d change(s)\n", data.Spinner, data.InFlight))
	}
	return strings.TrimSpace(b.String())
}

type LoginData struct {
	Mode         string
	UsernameView string
	PasswordView string
	ActiveField  int
	ErrorText    string
	Busy         bool
}

func RenderLoginPanel(data LoginData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s:\n", data.Mode))
	b.WriteString("keys: [tab]switch field [enter]submit [ctrl+s]toggle signup/login\n\n")
	b.WriteString("username: " + data.UsernameView + "\n")
	b.WriteString("password: " + data.PasswordView + "\n")
	if data.Busy {
		b.WriteString("\n(signing in...)\n")
	}
	if data.ErrorText != "" {
		b.WriteString("\nerror: " + data.ErrorText + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	return "command: /" + inputView
}

// DraftData lists AI-extracted task drafts awaiting confirmation.
type DraftData struct {
	Drafts []string
}

func RenderDraftsPanel(data DraftData) string {
	if len(data.Drafts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("extracted drafts:\n")
	b.WriteString("keys: [enter]add all [esc]dismiss\n")
	for i, d := range data.Drafts {
		b.WriteString(fmt.Sprintf("%2d %s\n", i+1, d))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

const helpMarkdown = "# tasky\n\n" +
	"## list\n" +
	"- `j`/`k` move the cursor, `g`/`G` jump to top/bottom\n" +
	"- `space` toggle done, `d` delete, `e` edit the selected task\n" +
	"- `J`/`K` move the selected task down/up\n" +
	"- `a` add a task, `r` retry a failed change, `x` discard it\n" +
	"- `u` re-send all failed changes\n\n" +
	"## palette (`/`)\n" +
	"- `add <title>[: description]`\n" +
	"- `edit <n> <title>[: description]`\n" +
	"- `done <n>`, `del <n>`, `move <n> <m>`\n" +
	"- `ai <text>` extract tasks from free-form text\n" +
	"- `sync`, `help`\n"

func RenderHelpPanel() string {
	return RenderMarkdown(helpMarkdown)
}
