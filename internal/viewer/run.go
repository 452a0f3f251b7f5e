package viewer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the viewer full screen and blocks until it exits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
