package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for ragbank.

Ask questions, browse the cited context and check or rebuild the index
with keyboard navigation.

Controls:
  Enter    - Ask
  Ctrl+R   - Show context only
  ↑/k, ↓/j - Navigate citations
  n        - New question
  r        - Rebuild (index view)
  Esc      - Back
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

// runProgram starts the bubbletea program. Tests replace it.
var runProgram = func(app *tui.App) error {
	return app.Run()
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = eris.Errorf("tui panic: %v", r)
		}
	}()

	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if _, err := ragService.EnsureIndex(ctx); err != nil {
		return eris.Wrap(err, "prepare index")
	}

	app, err := tui.NewApp(tui.NewPorts(ragService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runProgram(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
