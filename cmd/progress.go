package cmd

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"framepress/internal/processor"
	"framepress/internal/tui"
)

// hasTerminal reports whether the progress UI can take over the terminal.
func hasTerminal() bool {
	return isTTY(os.Stdin) && isTTY(os.Stdout)
}

func isTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// startProgress consumes updates until the channel is closed, drawing the
// progress UI when useTUI is set. cancel runs only when the user quits the
// UI early; a UI that fails to start leaves the batch running.
func startProgress(updates <-chan processor.ProgressUpdate, useTUI bool, cancel func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if useTUI {
			final, err := tea.NewProgram(tui.NewModel(updates), tea.WithoutSignalHandler()).Run()
			if err != nil {
				logger.Debug().Err(err).Msg("progress ui unavailable")
			}
			if userQuit(final, err) {
				cancel()
			}
		}
		for range updates {
		}
	}()
	return done
}

func userQuit(final tea.Model, err error) bool {
	if err != nil {
		return false
	}
	m, ok := final.(tui.Model)
	return ok && m.Interrupted()
}

// runLogger keeps per-image warnings off the terminal while the progress
// UI owns it, unless they go to a log file.
func runLogger(base zerolog.Logger, useTUI bool, logFile string) zerolog.Logger {
	if useTUI && logFile == "" {
		return base.Level(zerolog.ErrorLevel)
	}
	return base
}
