package game

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/pkg/protocol"
	"github.com/stretchr/testify/require"
)

// scriptPrompter answers prompts from a fixed list, then reports io.EOF.
// before[i] runs right before line i is returned.
type scriptPrompter struct {
	lines   []string
	before  map[int]func()
	prompts []string
	next    int
}

func (p *scriptPrompter) Prompt(ctx context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.next >= len(p.lines) {
		return "", io.EOF
	}
	i := p.next
	p.next++
	if fn := p.before[i]; fn != nil {
		fn()
	}
	return p.lines[i], nil
}

type fixedPicker struct {
	folders []string
	calls   int
}

func (p *fixedPicker) ChooseFolder(ctx context.Context) (string, error) {
	if p.calls >= len(p.folders) {
		return "", ErrCancelled
	}
	p.calls++
	return p.folders[p.calls-1], nil
}

type cropCall struct {
	Path     string
	Start    float64
	Duration float64
}

type fakeCropper struct {
	calls []cropCall
	err   error
}

func (c *fakeCropper) Crop(ctx context.Context, path string, start, duration *float64) ([]byte, error) {
	call := cropCall{Path: path, Start: *start, Duration: *duration}
	c.calls = append(c.calls, call)
	if c.err != nil {
		return nil, c.err
	}
	return []byte(fmt.Sprintf("%s@%.2f+%.2f", filepath.Base(path), call.Start, call.Duration)), nil
}

type fakeAudioPlayer struct {
	mu     sync.Mutex
	played [][]byte
	err    error
}

func (p *fakeAudioPlayer) Play(ctx context.Context, src audio.Source, start, duration *float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, src.Data)
	return p.err
}

type recordingSink struct {
	clips [][]byte
}

func (s *recordingSink) PlaySample(ctx context.Context, clip []byte) error {
	s.clips = append(s.clips, clip)
	return nil
}

// fakeMessenger records sent frames and replays inbox; once the inbox is
// drained Receive fails with io.EOF.
type fakeMessenger struct {
	sent     []protocol.Frame
	inbox    []protocol.Frame
	greeting *protocol.Frame
}

func (m *fakeMessenger) SetGreeting(f protocol.Frame) {
	m.greeting = &f
}

func (m *fakeMessenger) Send(ctx context.Context, f protocol.Frame) error {
	m.sent = append(m.sent, f)
	return nil
}

func (m *fakeMessenger) Receive(ctx context.Context) (protocol.Frame, error) {
	if len(m.inbox) == 0 {
		return protocol.Frame{}, io.EOF
	}
	f := m.inbox[0]
	m.inbox = m.inbox[1:]
	return f, nil
}

func (m *fakeMessenger) sentText() []string {
	var out []string
	for _, f := range m.sent {
		if f.Kind == protocol.FrameText {
			out = append(out, string(f.Payload))
		}
	}
	return out
}

// testMessages maps every message name to itself.
func testMessages() config.Messages {
	msgs := config.Messages{}
	for _, name := range config.RequiredMessages {
		msgs[name] = name
	}
	return msgs
}

// songFolder creates a folder with the given audio files and songs.csv body.
func songFolder(t *testing.T, csv string, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("ID3"), 0o644))
	}
	if csv != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, SongsFile), []byte(csv), 0o644))
	}
	return dir
}
