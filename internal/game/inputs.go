// Package game implements the interactive client roles: the song player
// used by the sender and offline modes, the receiver and the manager.
package game

import (
	"fmt"
	"io"

	"github.com/omochice/guessthesong/internal/command"
)

// Input is a player command.
type Input int

const (
	Quit Input = iota
	Reload
	Next
	Previous
	Duration
	StartTime
	SetSong
)

func (i Input) String() string {
	switch i {
	case Quit:
		return "quit"
	case Reload:
		return "reload"
	case Next:
		return "next"
	case Previous:
		return "previous"
	case Duration:
		return "duration"
	case StartTime:
		return "start_time"
	case SetSong:
		return "set_song"
	default:
		return "unknown"
	}
}

// InputParser returns the parser for player commands. A bare number plays
// that many seconds of the selected song.
func InputParser() *command.Parser[Input] {
	return command.New(
		command.DefaultRule[Input]{Command: Duration, Arg: command.Float},
		command.Rule[Input]{Command: Next, Triggers: []string{"n", "next"}},
		command.Rule[Input]{Command: Previous, Triggers: []string{"p", "prev", "previous"}},
		command.Rule[Input]{Command: Quit, Triggers: []string{"q", "quit"}},
		command.Rule[Input]{Command: Reload, Triggers: []string{"r", "reload"}},
		command.Rule[Input]{Command: StartTime, Triggers: []string{"s", "start"}, Args: []command.ArgType{command.Float}},
		command.Rule[Input]{Command: SetSong, Triggers: []string{"i"}, Args: []command.ArgType{command.Int}},
	)
}

// PrintControls writes the player help text.
func PrintControls(w io.Writer) {
	fmt.Fprintln(w, "Playback control:")
	fmt.Fprintln(w, "    <decimal_number> -> play n seconds of song")
	fmt.Fprintln(w, "    n/next -> skip to next song")
	fmt.Fprintln(w, "    p/prev/previous -> return to previous song")
	fmt.Fprintln(w, "    s/start <decimal_number> -> change playback start time")
	fmt.Fprintln(w, "    i <integer_number> -> change to nth song")
	fmt.Fprintln(w, "    q/quit -> quit the program")
	fmt.Fprintln(w, "    r/reload -> reload current song list")
}
