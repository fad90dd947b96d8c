package game

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrCancelled is returned when the user closes the input.
var ErrCancelled = errors.New("cancelled by user")

// Prompter reads one line of user input.
type Prompter interface {
	// Prompt shows prompt and returns the entered line without its newline.
	// It returns io.EOF once the input is closed.
	Prompt(ctx context.Context, prompt string) (string, error)
}

type line struct {
	text string
	err  error
}

// LinePrompter reads lines from an io.Reader in the background so a prompt
// can be abandoned when its context is cancelled.
type LinePrompter struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan line
}

// NewLinePrompter creates a prompter reading in and printing to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    in,
		out:   out,
		lines: make(chan line),
	}
}

func (p *LinePrompter) scan() {
	defer close(p.lines)
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		p.lines <- line{text: strings.TrimRight(scanner.Text(), "\r")}
	}
	if err := scanner.Err(); err != nil {
		p.lines <- line{err: fmt.Errorf("failed to read input: %w", err)}
	}
}

func (p *LinePrompter) Prompt(ctx context.Context, prompt string) (string, error) {
	p.once.Do(func() { go p.scan() })
	fmt.Fprint(p.out, prompt)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-p.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

// FolderPicker asks the user for the song folder.
type FolderPicker interface {
	ChooseFolder(ctx context.Context) (string, error)
}

// PromptPicker asks for the folder path on a Prompter.
type PromptPicker struct {
	Prompter Prompter
}

// ChooseFolder returns the trimmed path, or ErrCancelled on closed input.
func (p PromptPicker) ChooseFolder(ctx context.Context) (string, error) {
	for {
		s, err := p.Prompter.Prompt(ctx, "Folder path: ")
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		if err != nil {
			return "", err
		}
		if s = strings.TrimSpace(s); s != "" {
			return s, nil
		}
	}
}
