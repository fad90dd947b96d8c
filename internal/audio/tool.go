// Package audio crops and plays mp3 segments through ffmpeg and ffplay.
package audio

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Cropper extracts a segment of an audio file.
type Cropper interface {
	Crop(ctx context.Context, path string, start, duration *float64) ([]byte, error)
}

// Player plays audio from a file or from memory.
type Player interface {
	Play(ctx context.Context, src Source, start, duration *float64) error
}

// Source is either a file path or an in-memory mp3.
type Source struct {
	Path string
	Data []byte
}

// FromFile returns a Source reading path.
func FromFile(path string) Source {
	return Source{Path: path}
}

// FromBytes returns a Source fed to the player on stdin.
func FromBytes(data []byte) Source {
	return Source{Data: data}
}

// Seconds is a helper for the optional time arguments.
func Seconds(v float64) *float64 {
	return &v
}

// Tool runs ffmpeg and ffplay.
type Tool struct {
	FFmpeg string
	FFplay string
	Runner Runner
}

// NewTool locates ffmpeg and ffplay, looking in dir first and then on PATH.
// A missing binary is reported on first use, not here.
func NewTool(dir string) *Tool {
	return &Tool{
		FFmpeg: findExecutable(dir, "ffmpeg"),
		FFplay: findExecutable(dir, "ffplay"),
		Runner: ExecRunner{},
	}
}

func findExecutable(dir, name string) string {
	if dir != "" {
		if p, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return p
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return name
}

// String describes the resolved binaries.
func (t *Tool) String() string {
	return fmt.Sprintf("ffmpeg=%s ffplay=%s", t.FFmpeg, t.FFplay)
}

// Crop returns the mp3-encoded segment of path starting at start and lasting
// duration seconds; nil means from the beginning / until the end.
func (t *Tool) Crop(ctx context.Context, path string, start, duration *float64) ([]byte, error) {
	// -i must precede the output options
	args := []string{"-i", path, "-map_metadata", "-1", "-vn", "-hide_banner", "-loglevel", "error", "-f", "mp3"}
	args = append(args, timeArgs(start, duration)...)
	args = append(args, "-")

	out, err := t.run(ctx, nil, t.FFmpeg, args)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Play plays src and returns when playback finished.
func (t *Tool) Play(ctx context.Context, src Source, start, duration *float64) error {
	args := []string{"-nostats", "-nodisp", "-autoexit", "-hide_banner", "-f", "mp3"}
	args = append(args, timeArgs(start, duration)...)

	input := src.Path
	if src.Data != nil {
		input = "-"
	}
	args = append(args, input)

	_, err := t.run(ctx, src.Data, t.FFplay, args)
	return err
}

func (t *Tool) run(ctx context.Context, stdin []byte, name string, args []string) ([]byte, error) {
	stdout, stderr, code, err := t.Runner.Run(ctx, stdin, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CommandExecutionError{
			Command:  filepath.Base(name),
			ExitCode: code,
			Output:   string(stderr),
			Err:      err,
		}
	}
	return stdout, nil
}

func timeArgs(start, duration *float64) []string {
	var args []string
	if start != nil {
		args = append(args, "-ss", formatSeconds(*start))
	}
	if duration != nil {
		args = append(args, "-t", formatSeconds(*duration))
	}
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var (
	_ Cropper = (*Tool)(nil)
	_ Player  = (*Tool)(nil)
)
