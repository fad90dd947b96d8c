package game

import (
	"context"
	"fmt"
	"io"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/omochice/guessthesong/pkg/protocol"
)

// Messenger is the message-level connection a role talks through.
// *session.Conn implements it.
type Messenger interface {
	Send(ctx context.Context, f protocol.Frame) error
	Receive(ctx context.Context) (protocol.Frame, error)
}

// OnlineSink sends clips to the relay server and waits for its confirmation.
type OnlineSink struct {
	Conn Messenger
	Out  io.Writer
}

func (s *OnlineSink) PlaySample(ctx context.Context, clip []byte) error {
	fmt.Fprintf(s.Out, "Sending the sample... (size: %d bytes)\n", len(clip))
	if err := s.Conn.Send(ctx, protocol.Binary(clip)); err != nil {
		return fmt.Errorf("failed to send sample: %w", err)
	}
	fmt.Fprintln(s.Out, "Sample sent")
	if _, err := s.Conn.Receive(ctx); err != nil {
		return fmt.Errorf("failed to receive confirmation: %w", err)
	}
	fmt.Fprintln(s.Out, "Confirmation received")
	return nil
}

// OfflineSink plays clips locally.
type OfflineSink struct {
	Player audio.Player
	Out    io.Writer
}

func (s *OfflineSink) PlaySample(ctx context.Context, clip []byte) error {
	fmt.Fprintf(s.Out, "Playing sample (size: %d bytes)\n", len(clip))
	if err := s.Player.Play(ctx, audio.FromBytes(clip), nil, nil); err != nil {
		return fmt.Errorf("failed to play sample: %w", err)
	}
	fmt.Fprintln(s.Out, "Sample played")
	return nil
}
