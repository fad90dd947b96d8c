package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/omochice/guessthesong/internal/command"
	"github.com/rs/zerolog"
)

// SampleSink consumes a cropped clip: plays it locally or sends it out.
type SampleSink interface {
	PlaySample(ctx context.Context, clip []byte) error
}

// Player drives the song list with commands typed by the user and hands
// cropped clips to its sink.
type Player struct {
	prompt  Prompter
	picker  FolderPicker
	cropper audio.Cropper
	sink    SampleSink
	out     io.Writer
	log     zerolog.Logger
	parser  *command.Parser[Input]

	folder string
	songs  []Song
}

// NewPlayer creates a player. folder may be empty, in which case the picker
// is asked for it.
func NewPlayer(prompt Prompter, picker FolderPicker, cropper audio.Cropper, sink SampleSink, out io.Writer, logger zerolog.Logger) *Player {
	return &Player{
		prompt:  prompt,
		picker:  picker,
		cropper: cropper,
		sink:    sink,
		out:     out,
		log:     logger.With().Str("component", "player").Logger(),
		parser:  InputParser(),
	}
}

// SetFolder preselects the song folder.
func (p *Player) SetFolder(folder string) {
	p.folder = folder
}

// Songs returns the loaded song list.
func (p *Player) Songs() []Song {
	return p.songs
}

// Run loads the song list and processes commands until the user quits or
// the input is closed.
func (p *Player) Run(ctx context.Context) error {
	if err := p.loadSongs(ctx); err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil
		}
		return err
	}
	err := p.loop(ctx)
	if errors.Is(err, ErrCancelled) {
		return nil
	}
	return err
}

func (p *Player) printFormat() {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Enter path to the song folder (e.g. D:/guessing_game/Mates).")
	fmt.Fprintf(p.out, "The folder must contain a file called %s (see the ./example folder),\n", SongsFile)
	fmt.Fprintln(p.out, "with one or more lines in the format `file_name, playback_start_time, comment`")
	fmt.Fprintln(p.out, "(3 values, separated by a comma). Playback time may be decimal.")
	fmt.Fprintln(p.out)
}

func (p *Player) loadSongs(ctx context.Context) error {
	if p.folder == "" {
		p.printFormat()
	}

	for {
		folder := p.folder
		if folder == "" {
			var err error
			if folder, err = p.picker.ChooseFolder(ctx); err != nil {
				return err
			}
		}

		songs, err := LoadSongs(folder)
		if err == nil {
			p.songs = songs
			p.folder = folder
			fmt.Fprintf(p.out, "Song list successfully loaded (%d songs)\n", len(songs))
			p.log.Info().Str("folder", folder).Int("songs", len(songs)).Msg("song list loaded")
			return nil
		}

		var perr *PresentableError
		if !errors.As(err, &perr) {
			return err
		}
		p.log.Warn().Err(err).Str("folder", folder).Msg("song list rejected")
		fmt.Fprintln(p.out, perr.Msg)
		fmt.Fprintln(p.out, "Please fix the issue and enter the folder path again")
		fmt.Fprintln(p.out)
		p.folder = ""
	}
}

func (p *Player) readInput(ctx context.Context) (command.Result[Input], error) {
	for {
		fmt.Fprintln(p.out)
		s, err := p.prompt.Prompt(ctx, "Input: ")
		if errors.Is(err, io.EOF) {
			return command.Result[Input]{}, ErrCancelled
		}
		if err != nil {
			return command.Result[Input]{}, err
		}

		res, err := p.parser.Parse(strings.ToLower(s))
		if err == nil {
			return res, nil
		}
		fmt.Fprintln(p.out, "Incorrect input, try again")
		PrintControls(p.out)
	}
}

func (p *Player) printSong(song Song) {
	fmt.Fprintln(p.out, "Selected song:")
	fmt.Fprintln(p.out, "    file name:", song.Name)
	fmt.Fprintln(p.out, "    start time:", song.StartTime, "s")
	fmt.Fprintln(p.out, "    comment:", song.Comment)
}

func (p *Player) changed(i int) {
	fmt.Fprintf(p.out, "Changed to song #%d of %d\n", i+1, len(p.songs))
}

func (p *Player) loop(ctx context.Context) error {
	PrintControls(p.out)

	i := 0
	for {
		song := p.songs[i]
		p.printSong(song)

	inner:
		for {
			res, err := p.readInput(ctx)
			if err != nil {
				return err
			}

			switch res.Command {
			case Quit:
				return nil

			case Reload:
				if err := p.loadSongs(ctx); err != nil {
					return err
				}
				if i >= len(p.songs) {
					fmt.Fprintln(p.out, "Song list length changed, selected first song")
					i = 0
				}
				break inner

			case Previous:
				if i == 0 {
					fmt.Fprintln(p.out, "Already at the first song, cannot go to previous")
					continue
				}
				i--
				p.changed(i)
				break inner

			case Next:
				if i >= len(p.songs)-1 {
					fmt.Fprintln(p.out, "Reached the end of song list")
					continue
				}
				i++
				p.changed(i)
				break inner

			case StartTime:
				song.StartTime = res.Float(0)
				fmt.Fprintln(p.out, "Changed playback start time to", song.StartTime, "(will be reset when changing song)")

			case SetSong:
				n := res.Int(0) - 1
				if n < 0 || n >= len(p.songs) {
					fmt.Fprintf(p.out, "Cannot select given song, there are only %d songs loaded\n", len(p.songs))
					continue
				}
				i = n
				p.changed(i)
				break inner

			case Duration:
				if err := p.play(ctx, song, res.Float(0)); err != nil {
					return err
				}
			}
		}
	}
}

func (p *Player) play(ctx context.Context, song Song, duration float64) error {
	if duration <= 0 {
		fmt.Fprintln(p.out, "Duration must be positive")
		return nil
	}

	fmt.Fprintln(p.out, "Cropping the song sample...")
	clip, err := p.cropper.Crop(ctx, song.Path, audio.Seconds(song.StartTime), audio.Seconds(duration))
	if err != nil {
		var cerr *audio.CommandExecutionError
		if errors.As(err, &cerr) {
			p.log.Error().Err(err).Str("song", song.Name).Msg("crop failed")
			fmt.Fprintln(p.out, "Could not crop the song:", cerr.Error())
			return nil
		}
		return fmt.Errorf("failed to crop %s: %w", song.Name, err)
	}
	p.log.Debug().Str("song", song.Name).Float64("start", song.StartTime).Float64("duration", duration).Int("bytes", len(clip)).Msg("sample cropped")
	return p.sink.PlaySample(ctx, clip)
}
