package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSongs(t *testing.T) {
	dir := songFolder(t, "a.mp3, 1.5, first one\nb.mp3,10,\"second, with comma\"\n", "a.mp3", "b.mp3")

	songs, err := LoadSongs(dir)
	require.NoError(t, err)
	require.Len(t, songs, 2)

	assert.Equal(t, Song{Name: "a.mp3", Path: filepath.Join(dir, "a.mp3"), StartTime: 1.5, Comment: "first one"}, songs[0])
	assert.Equal(t, 10.0, songs[1].StartTime)
	assert.Equal(t, "second, with comma", songs[1].Comment)
}

func TestLoadSongs_Errors(t *testing.T) {
	tests := []struct {
		name   string
		folder func(t *testing.T) string
		want   string
	}{
		{
			name:   "missing folder",
			folder: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			want:   "Given folder does not exist",
		},
		{
			name:   "missing songs.csv",
			folder: func(t *testing.T) string { return songFolder(t, "", "a.mp3") },
			want:   "Given folder does not contain songs.csv",
		},
		{
			name:   "too few columns",
			folder: func(t *testing.T) string { return songFolder(t, "a.mp3, 1\n", "a.mp3") },
			want:   "songs.csv file exists, but it is incorrectly formatted",
		},
		{
			name:   "start time not a number",
			folder: func(t *testing.T) string { return songFolder(t, "a.mp3, soon, x\n", "a.mp3") },
			want:   "songs.csv file exists, but it is incorrectly formatted",
		},
		{
			name:   "listed file missing",
			folder: func(t *testing.T) string { return songFolder(t, "a.mp3, 1, x\nb.mp3, 2, y\n", "a.mp3") },
			want:   "File from songs.csv does not exist",
		},
		{
			name:   "empty list",
			folder: func(t *testing.T) string { return songFolder(t, "\n", "a.mp3") },
			want:   "Song list exists, but it's empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSongs(tt.folder(t))
			require.Error(t, err)

			var perr *PresentableError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, perr.Msg, tt.want)
		})
	}
}

func TestLoadSongs_FolderIsFile(t *testing.T) {
	dir := songFolder(t, "a.mp3, 1, x\n", "a.mp3")

	_, err := LoadSongs(filepath.Join(dir, "a.mp3"))
	var perr *PresentableError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Msg, "Given folder does not exist")
}

func TestPresentableError_Unwrap(t *testing.T) {
	_, err := LoadSongs(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
