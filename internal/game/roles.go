package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/omochice/guessthesong/internal/command"
	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/pkg/protocol"
	"github.com/rs/zerolog"
)

// Env is what every role needs to talk to the user.
type Env struct {
	Prompt   Prompter
	Out      io.Writer
	Messages config.Messages
	Log      zerolog.Logger
}

// greeter is implemented by connections that repeat a frame after every
// reconnect, such as *session.Conn.
type greeter interface {
	SetGreeting(f protocol.Frame)
}

// announce sends the role signature and, when conn supports it, has it
// repeated after every reconnect so a restarted server learns the role again.
func announce(ctx context.Context, conn Messenger, signature string) error {
	f := protocol.Text(signature)
	if err := conn.Send(ctx, f); err != nil {
		return err
	}
	if g, ok := conn.(greeter); ok {
		g.SetGreeting(f)
	}
	return nil
}

// RunOffline runs the player and plays clips locally.
func RunOffline(ctx context.Context, env Env, picker FolderPicker, cropper audio.Cropper, player audio.Player) error {
	sink := &OfflineSink{Player: player, Out: env.Out}
	return NewPlayer(env.Prompt, picker, cropper, sink, env.Out, env.Log).Run(ctx)
}

// RunSender announces itself as the sender and runs the player, sending
// every clip to the receivers.
func RunSender(ctx context.Context, env Env, conn Messenger, picker FolderPicker, cropper audio.Cropper) error {
	if err := announce(ctx, conn, env.Messages.MustGet(config.SenderSignature)); err != nil {
		return fmt.Errorf("failed to identify as sender: %w", err)
	}
	fmt.Fprintln(env.Out, "Connected")

	sink := &OnlineSink{Conn: conn, Out: env.Out}
	return NewPlayer(env.Prompt, picker, cropper, sink, env.Out, env.Log).Run(ctx)
}

// Receiver plays clips broadcast by the server.
type Receiver struct {
	Env    Env
	Conn   Messenger
	Player audio.Player
	// Tick is the countdown step before playback.
	Tick time.Duration
}

// RunReceiver announces itself as a receiver and plays every clip once the
// server triggers playback.
func RunReceiver(ctx context.Context, r Receiver) error {
	log := r.Env.Log.With().Str("component", "receiver").Logger()
	msgs := r.Env.Messages

	if err := announce(ctx, r.Conn, msgs.MustGet(config.ReceiverSignature)); err != nil {
		return fmt.Errorf("failed to identify as receiver: %w", err)
	}
	fmt.Fprintln(r.Env.Out, "Connected")

	for {
		fmt.Fprintln(r.Env.Out, "Waiting for a song...")
		f, err := r.Conn.Receive(ctx)
		if err != nil {
			return err
		}
		if f.Kind != protocol.FrameBinary {
			return fmt.Errorf("expected to receive a song, received %s data instead", f.Kind)
		}
		clip := f.Payload

	waiting:
		for {
			fmt.Fprintln(r.Env.Out, "Song received, waiting for everyone else...")
			if err := r.Conn.Send(ctx, protocol.Text(msgs.MustGet(config.SongReceived))); err != nil {
				return err
			}
			for {
				f, err := r.Conn.Receive(ctx)
				if err != nil {
					return err
				}
				if f.Kind == protocol.FrameBinary {
					log.Info().Int("bytes", len(f.Payload)).Msg("new song replaced the pending one")
					clip = f.Payload
					continue waiting
				}
				if f.IsText(msgs.MustGet(config.TriggerPlayback)) {
					break waiting
				}
				log.Warn().Str("message", string(f.Payload)).Msg("unexpected message while waiting for playback")
			}
		}

		if err := countdown(ctx, r.Env.Out, r.Tick); err != nil {
			return err
		}
		fmt.Fprintln(r.Env.Out, "Playing song...")
		if err := r.Player.Play(ctx, audio.FromBytes(clip), nil, nil); err != nil {
			var cerr *audio.CommandExecutionError
			if !errors.As(err, &cerr) {
				return err
			}
			log.Error().Err(err).Msg("playback failed")
			fmt.Fprintln(r.Env.Out, "Playback failed:", cerr.Error())
			continue
		}
		fmt.Fprintln(r.Env.Out, "Playback finished")
	}
}

func countdown(ctx context.Context, out io.Writer, tick time.Duration) error {
	steps := []string{"Playing in 3...", "2...", "1...\n"}
	for _, s := range steps {
		fmt.Fprint(out, s)
		t := time.NewTimer(tick)
		select {
		case <-ctx.Done():
			t.Stop()
			fmt.Fprintln(out)
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

type managerCommand int

const (
	invalidCommand managerCommand = iota
	restartCommand
	forceCommand
)

func managerParser() *command.Parser[managerCommand] {
	return command.New(
		command.DefaultRule[managerCommand]{Command: invalidCommand, Arg: command.String},
		command.Rule[managerCommand]{Command: restartCommand, Triggers: []string{"restart"}},
		command.Rule[managerCommand]{Command: forceCommand, Triggers: []string{"force"}},
	)
}

// RunManager announces itself as the manager and forwards restart and force
// playback requests. A restart ends the session.
func RunManager(ctx context.Context, env Env, conn Messenger) error {
	msgs := env.Messages
	if err := announce(ctx, conn, msgs.MustGet(config.ManagerSignature)); err != nil {
		return fmt.Errorf("failed to identify as manager: %w", err)
	}
	fmt.Fprintln(env.Out, "Connected")

	parser := managerParser()
	for {
		s, err := env.Prompt.Prompt(ctx, "Enter command (restart, force): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := parser.Parse(s)
		if err != nil || res.Command == invalidCommand {
			fmt.Fprintln(env.Out, "Invalid command, try again")
			continue
		}

		switch res.Command {
		case restartCommand:
			if err := conn.Send(ctx, protocol.Text(msgs.MustGet(config.RestartServer))); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Sent restart request")
			if err := printReply(ctx, env.Out, conn); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Exiting...")
			return nil

		case forceCommand:
			if err := conn.Send(ctx, protocol.Text(msgs.MustGet(config.TriggerPlayback))); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "Force playback request sent")
			if err := printReply(ctx, env.Out, conn); err != nil {
				return err
			}
		}
	}
}

func printReply(ctx context.Context, out io.Writer, conn Messenger) error {
	f, err := conn.Receive(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Received response:", string(f.Payload))
	return nil
}
