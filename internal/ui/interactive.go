package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrQuit is returned once the user asks to stop or input ends
var ErrQuit = errors.New("quit requested")

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

// Prompter asks the user for file paths to send
type Prompter struct {
	out   io.Writer
	lines chan string
}

// NewPrompter starts reading lines from in. The reader goroutine ends when in does.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{out: out, lines: make(chan string)}

	go func() {
		defer close(p.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
	}()

	return p
}

// NextPath prompts until a non-empty path is entered. Surrounding quotes, as
// left by drag-and-drop on some terminals, are removed.
func (p *Prompter) NextPath(ctx context.Context) (string, error) {
	for {
		fmt.Fprint(p.out, "Enter the file path to send (or 'quit' to exit): ")

		var line string
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l, ok := <-p.lines:
			if !ok {
				fmt.Fprintln(p.out)
				return "", ErrQuit
			}
			line = l
		}

		path := strings.TrimSpace(line)
		if quitWords[strings.ToLower(path)] {
			return "", ErrQuit
		}

		path = strings.Trim(path, `"'`)
		if path == "" {
			fmt.Fprintln(p.out, "Please enter a valid file path.")
			continue
		}
		return path, nil
	}
}
