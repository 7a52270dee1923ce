package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/config"
	"github.com/tasky-app/tasky/internal/controller"
	"github.com/tasky-app/tasky/internal/queue"
	"github.com/tasky-app/tasky/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tasky: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.Client.ServerURL)
	q := queue.New()
	q.Start()
	defer q.Stop()

	ctrl := controller.New(client, q)

	program := tea.NewProgram(tui.New(cfg.Client, client, ctrl), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tasky failed: %v\n", err)
		os.Exit(1)
	}
}
