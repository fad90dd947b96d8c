package game

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SongsFile is the song list expected in every song folder.
const SongsFile = "songs.csv"

// Song is one entry of the song list.
type Song struct {
	Name      string
	Path      string
	StartTime float64
	Comment   string
}

// PresentableError carries a message meant for the user.
type PresentableError struct {
	Msg string
	Err error
}

func (e *PresentableError) Error() string {
	return e.Msg
}

func (e *PresentableError) Unwrap() error {
	return e.Err
}

func presentable(err error, format string, args ...any) *PresentableError {
	return &PresentableError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// LoadSongs reads folder/songs.csv. Each row is `file, start, comment`;
// every listed file must exist in folder.
func LoadSongs(folder string) ([]Song, error) {
	dir, err := filepath.Abs(folder)
	if err != nil {
		return nil, presentable(err, "Given folder is not a valid path (%s)", folder)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, presentable(err, "Given folder does not exist (%s)", dir)
	}

	listPath := filepath.Join(dir, SongsFile)
	f, err := os.Open(listPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, presentable(err, "Given folder does not contain %s (%s)", SongsFile, listPath)
	}
	if err != nil {
		return nil, presentable(err, "Could not read %s (%s)", SongsFile, listPath)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 3

	var songs []Song
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, presentable(err, "%s file exists, but it is incorrectly formatted", SongsFile)
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, presentable(err, "%s file exists, but it is incorrectly formatted", SongsFile)
		}
		path := filepath.Join(dir, row[0])
		if _, err := os.Stat(path); err != nil {
			return nil, presentable(err, "File from %s does not exist (%s)", SongsFile, path)
		}
		songs = append(songs, Song{
			Name:      row[0],
			Path:      path,
			StartTime: start,
			Comment:   row[2],
		})
	}

	if len(songs) == 0 {
		return nil, presentable(nil, "Song list exists, but it's empty")
	}
	return songs, nil
}
