package audio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name  string
	args  []string
	stdin []byte
}

type fakeRunner struct {
	calls  []call
	stdout []byte
	stderr []byte
	code   int
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, int, error) {
	f.calls = append(f.calls, call{name: name, args: args, stdin: stdin})
	return f.stdout, f.stderr, f.code, f.err
}

func newTool(r audio.Runner) *audio.Tool {
	return &audio.Tool{FFmpeg: "/usr/bin/ffmpeg", FFplay: "/usr/bin/ffplay", Runner: r}
}

func TestTool_Crop(t *testing.T) {
	r := &fakeRunner{stdout: []byte("mp3data")}
	tool := newTool(r)

	out, err := tool.Crop(context.Background(), "/songs/a.mp3", audio.Seconds(12.5), audio.Seconds(3))
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3data"), out)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/ffmpeg", r.calls[0].name)
	assert.Equal(t, []string{
		"-i", "/songs/a.mp3",
		"-map_metadata", "-1", "-vn", "-hide_banner", "-loglevel", "error", "-f", "mp3",
		"-ss", "12.50", "-t", "3.00",
		"-",
	}, r.calls[0].args)
	assert.Nil(t, r.calls[0].stdin)
}

func TestTool_CropWithoutTimes(t *testing.T) {
	r := &fakeRunner{}
	_, err := newTool(r).Crop(context.Background(), "a.mp3", nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, r.calls[0].args, "-ss")
	assert.NotContains(t, r.calls[0].args, "-t")
}

func TestTool_PlayBytes(t *testing.T) {
	r := &fakeRunner{}
	err := newTool(r).Play(context.Background(), audio.FromBytes([]byte{1, 2}), nil, audio.Seconds(1.234))
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/ffplay", r.calls[0].name)
	assert.Equal(t, []string{"-nostats", "-nodisp", "-autoexit", "-hide_banner", "-f", "mp3", "-t", "1.23", "-"}, r.calls[0].args)
	assert.Equal(t, []byte{1, 2}, r.calls[0].stdin)
}

func TestTool_PlayFile(t *testing.T) {
	r := &fakeRunner{}
	err := newTool(r).Play(context.Background(), audio.FromFile("b.mp3"), audio.Seconds(5), nil)
	require.NoError(t, err)
	args := r.calls[0].args
	assert.Equal(t, "b.mp3", args[len(args)-1])
	assert.Contains(t, args, "-ss")
}

func TestTool_CommandExecutionError(t *testing.T) {
	exitErr := errors.New("exit status 1")
	r := &fakeRunner{stderr: []byte("a.mp3: No such file or directory\n"), code: 1, err: exitErr}

	_, err := newTool(r).Crop(context.Background(), "a.mp3", nil, nil)
	require.Error(t, err)

	var ce *audio.CommandExecutionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "ffmpeg", ce.Command)
	assert.Equal(t, 1, ce.ExitCode)
	assert.Contains(t, ce.Output, "No such file")
	assert.ErrorIs(t, err, exitErr)
	assert.Equal(t, "ffmpeg exited with code 1: a.mp3: No such file or directory", err.Error())
}

func TestTool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{code: -1, err: errors.New("signal: killed")}

	err := newTool(r).Play(ctx, audio.FromFile("a.mp3"), nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, _, code, err := audio.ExecRunner{}.Run(context.Background(), nil, "definitely-not-a-real-binary-42")
	assert.Error(t, err)
	assert.Equal(t, 127, code)
}

type countingCropper struct {
	calls int
}

func (c *countingCropper) Crop(ctx context.Context, path string, start, duration *float64) ([]byte, error) {
	c.calls++
	return []byte(path), nil
}

func TestCachedCropper(t *testing.T) {
	next := &countingCropper{}
	c := audio.NewCachedCropper(next, time.Minute)

	for i := 0; i < 3; i++ {
		out, err := c.Crop(context.Background(), "a.mp3", audio.Seconds(1), audio.Seconds(2))
		require.NoError(t, err)
		assert.Equal(t, []byte("a.mp3"), out)
	}
	assert.Equal(t, 1, next.calls)

	_, err := c.Crop(context.Background(), "a.mp3", audio.Seconds(1), audio.Seconds(3))
	require.NoError(t, err)
	_, err = c.Crop(context.Background(), "a.mp3", nil, audio.Seconds(2))
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)

	c.Flush()
	_, err = c.Crop(context.Background(), "a.mp3", audio.Seconds(1), audio.Seconds(2))
	require.NoError(t, err)
	assert.Equal(t, 4, next.calls)
}
