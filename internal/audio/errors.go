package audio

import (
	"fmt"
	"strings"
)

// CommandExecutionError is returned when ffmpeg or ffplay fails. Output
// carries the tool's diagnostics.
type CommandExecutionError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *CommandExecutionError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandExecutionError) Unwrap() error {
	return e.Err
}
