package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"filedrop/internal/app"
	"filedrop/internal/ui"
)

type SendFlags struct {
	Files []string
}

var sendFlags SendFlags

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [FILE...]",
	Short: "Send files to a receiver",
	Long: `Send files to a filedrop receiver. Each file uses its own connection:

1. Validate that the file exists and is readable
2. Connect to the receiver at --host:--port
3. Send the file name and size, then the contents
4. Wait for the receiver to confirm the file was stored

Files can be given as arguments or with --file. With none, send prompts for
paths until you type 'quit'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files := append(append([]string{}, sendFlags.Files...), args...)
		if len(files) == 0 {
			return runInteractiveSend(cmd.InOrStdin(), cmd.OutOrStdout())
		}
		return runSend(files, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringSliceVarP(&sendFlags.Files, "file", "f", nil, "Path to file to send (repeatable)")
}

// runSend sends every file in order and fails if any of them failed
func runSend(files []string, out io.Writer) error {
	ctx, cancel := createContext()
	defer cancel()

	senderApp := app.NewSenderApp(cfg)
	console := ui.NewConsoleUI(out)

	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !sendOne(ctx, senderApp, console, path, out) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d transfers failed", failed, len(files))
	}
	return nil
}

// runInteractiveSend prompts for paths until the user quits. A failed transfer
// does not end the session.
func runInteractiveSend(in io.Reader, out io.Writer) error {
	ctx, cancel := createContext()
	defer cancel()

	senderApp := app.NewSenderApp(cfg)
	console := ui.NewConsoleUI(out)
	prompter := ui.NewPrompter(in, out)

	console.ShowMessage("Sending to %s", cfg.Address())
	for {
		path, err := prompter.NextPath(ctx)
		if errors.Is(err, ui.ErrQuit) || ctx.Err() != nil {
			console.ShowMessage("Goodbye.")
			return nil
		}
		if err != nil {
			return err
		}
		sendOne(ctx, senderApp, console, path, out)
	}
}

func sendOne(ctx context.Context, senderApp *app.SenderApp, console *ui.ConsoleUI, path string, out io.Writer) bool {
	progress := ui.NewProgressUI(out, "Sending")

	result, err := senderApp.SendFile(ctx, &app.SenderOptions{FilePath: path}, progress)
	if err != nil {
		progress.Abort()
		console.ShowError(err)
		return false
	}

	console.ShowSummary(result)
	return true
}
