package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputParser(t *testing.T) {
	p := InputParser()

	tests := []struct {
		line string
		want Input
		arg  any
	}{
		{"12.5", Duration, 12.5},
		{"n", Next, nil},
		{"next", Next, nil},
		{"prev", Previous, nil},
		{"q", Quit, nil},
		{"reload", Reload, nil},
		{"start 4", StartTime, 4.0},
		{"i 3", SetSong, 3},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res, err := p.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Command)
			if tt.arg != nil {
				require.Len(t, res.Args, 1)
				assert.Equal(t, tt.arg, res.Args[0])
			} else {
				assert.Empty(t, res.Args)
			}
		})
	}

	for _, bad := range []string{"i", "i 1.5", "s", "next 2", "play"} {
		_, err := p.Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestInput_String(t *testing.T) {
	assert.Equal(t, "set_song", SetSong.String())
	assert.Equal(t, "unknown", Input(42).String())
}

func TestPrintControls(t *testing.T) {
	var buf bytes.Buffer
	PrintControls(&buf)
	assert.Contains(t, buf.String(), "i <integer_number> -> change to nth song")
}
