package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/internal/logging"
	"github.com/omochice/guessthesong/internal/relay"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := pflag.StringP("config", "c", "config/config.toml", "Path to the TOML configuration")
	addr := pflag.StringP("listen", "l", "", "Address to listen on (default \":<port>\" from config)")
	keepRunning := pflag.Bool("keep-running", false, "Restart in-process on a manager's restart request instead of exiting")
	logLevel := pflag.String("log-level", "", "Log level (trace, debug, info, warn, error); overrides "+logging.EnvLogLevel)
	pflag.Parse()

	level := logging.LevelFromEnv(zerolog.InfoLevel)
	if *logLevel != "" {
		lvl, ok := logging.ParseLevel(*logLevel)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown log level %q\n", *logLevel)
			os.Exit(2)
		}
		level = lvl
	}
	log := logging.NewConsole("guessthesong-server", level)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr == "" {
		*addr = cfg.ListenAddr()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	affinity := relay.NewAffinity(relay.DefaultAffinityTTL)
	for {
		restarted, err := serve(ctx, *addr, cfg, affinity, log)
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
		if !restarted || !*keepRunning {
			break
		}
		log.Info().Msg("restarting")
	}
	log.Info().Msg("server stopped")
}

// serve runs one server generation. It reports whether it ended because a
// manager requested a restart. Roles learned by earlier generations stay in
// affinity so reconnecting clients resume them.
func serve(ctx context.Context, addr string, cfg config.Config, affinity *relay.Affinity, log zerolog.Logger) (bool, error) {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	restarted := false
	hub := relay.NewHub(relay.Options{
		Messages: cfg.Messages,
		Affinity: affinity,
		OnRestart: func() {
			restarted = true
			cancel()
		},
	}, log)

	srv := relay.NewServer(addr, hub, log)
	if err := srv.Listen(); err != nil {
		return false, err
	}
	log.Info().Str("addr", srv.Addr()).Msg("server running")

	if err := srv.Start(genCtx); err != nil {
		return false, err
	}
	return restarted, nil
}
