package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/omochice/guessthesong/internal/audio"
	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/internal/game"
	"github.com/omochice/guessthesong/internal/logging"
	"github.com/omochice/guessthesong/internal/session"
	"github.com/omochice/guessthesong/internal/transport/ws"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type mode string

const (
	modeOffline  mode = "offline"
	modeReceiver mode = "receiver"
	modeSender   mode = "sender"
	modeManager  mode = "manager"
)

// app holds what every mode shares.
type app struct {
	cfg       config.Config
	serverURL string
	log       zerolog.Logger
	logCloser io.Closer
	tool      *audio.Tool
	prompt    *game.LinePrompter
	out       io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	cfgPath, _ := flags.GetString("config")
	server, _ := flags.GetString("server")
	logDir, _ := flags.GetString("log-dir")
	logLevel, _ := flags.GetString("log-level")
	ffmpegDir, _ := flags.GetString("ffmpeg-dir")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level := logging.LevelFromEnv(zerolog.DebugLevel)
	if logLevel != "" {
		lvl, ok := logging.ParseLevel(logLevel)
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", logLevel)
		}
		level = lvl
	}
	log, closer, err := logging.NewFile(logDir, appName, level)
	if err != nil {
		return nil, err
	}

	if server == "" {
		server = cfg.ServerURL()
	}
	out := cmd.OutOrStdout()
	return &app{
		cfg:       cfg,
		serverURL: server,
		log:       log,
		logCloser: closer,
		tool:      audio.NewTool(ffmpegDir),
		prompt:    game.NewLinePrompter(cmd.InOrStdin(), out),
		out:       out,
	}, nil
}

func (a *app) Close() error {
	return a.logCloser.Close()
}

func (a *app) env() game.Env {
	return game.Env{
		Prompt:   a.prompt,
		Out:      a.out,
		Messages: a.cfg.Messages,
		Log:      a.log,
	}
}

func (a *app) connect(ctx context.Context) (*session.Conn, error) {
	cfg := a.cfg.Session
	cfg.OnReconnect = func(attempt int, err error) {
		if err != nil {
			fmt.Fprintf(a.out, "Reconnect attempt %d failed\n", attempt)
			return
		}
		fmt.Fprintln(a.out, "Reconnected")
	}

	fmt.Fprintf(a.out, "Connecting to a server... (%s)\n", a.serverURL)
	conn, err := session.Dial(ctx, a.serverURL, ws.NewDialer(cfg.HandshakeTimeout), cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", a.serverURL, err)
	}
	return conn, nil
}

func (a *app) run(ctx context.Context, m mode) error {
	a.log.Info().Str("mode", string(m)).Str("tool", a.tool.String()).Msg("starting")
	picker := game.PromptPicker{Prompter: a.prompt}

	if m == modeOffline {
		fmt.Fprintln(a.out, "Starting in offline mode...")
		return game.RunOffline(ctx, a.env(), picker, a.tool, a.tool)
	}

	conn, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	switch m {
	case modeReceiver:
		fmt.Fprintln(a.out, "Starting a receiver...")
		err = game.RunReceiver(ctx, game.Receiver{Env: a.env(), Conn: conn, Player: a.tool, Tick: tick})
	case modeSender:
		fmt.Fprintln(a.out, "Starting a sender...")
		cropper := audio.NewCachedCropper(a.tool, cropCacheTTL)
		err = game.RunSender(ctx, a.env(), conn, picker, cropper)
	case modeManager:
		fmt.Fprintln(a.out, "Starting a manager...")
		err = game.RunManager(ctx, a.env(), conn)
	default:
		err = fmt.Errorf("unknown mode %q", m)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error().Err(err).Str("mode", string(m)).Msg("mode failed")
	}
	return err
}

func runMode(m mode) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.run(cmd.Context(), m)
	}
}

var modeChoices = map[string]mode{
	"1": modeOffline,
	"2": modeReceiver,
	"3": modeSender,
	"4": modeManager,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	if f, ok := cmd.InOrStdin().(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("stdin is not a terminal, pick a mode with a subcommand")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	var m mode
	for {
		s, err := a.prompt.Prompt(ctx, "Select mode (1=offline, 2=receiver, 3=sender, 4=manager): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice, ok := modeChoices[strings.TrimSpace(s)]; ok {
			m = choice
			break
		}
		fmt.Fprintln(a.out, "Invalid input, try again...")
	}

	if m != modeOffline && !cmd.Flags().Changed("server") {
		s, err := a.prompt.Prompt(ctx, fmt.Sprintf("Enter server URL [%s]: ", a.serverURL))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			a.serverURL = s
		}
	}
	return a.run(ctx, m)
}
