package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shadownexus/pkg/command"
)

// ProcessFunc dispatches one line of operator input and returns the
// response envelope.
type ProcessFunc func(ctx context.Context, input string) (command.Response, error)

// RuntimeInfo carries registry facts shown in the console header.
type RuntimeInfo struct {
	Systems []string
}

// RunInteractive starts the full-screen operator console.
func RunInteractive(ctx context.Context, processFn ProcessFunc, info RuntimeInfo) error {
	model := newModel(ctx, processFn, modeInteractive, "", info)
	program := tea.NewProgram(model)
	_, err := program.Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(renderGoodbyeBanner())
	return nil
}

// RunOneShot dispatches a single input, renders the response, and exits.
func RunOneShot(ctx context.Context, processFn ProcessFunc, input string) error {
	model := newModel(ctx, processFn, modeOneShot, input, RuntimeInfo{})
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}

func renderGoodbyeBanner() string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("88")).
		Padding(1, 2)

	return style.Render("🕶  Shadow Nexus signing off")
}
