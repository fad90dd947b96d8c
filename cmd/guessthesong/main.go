package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/guessthesong/internal/logging"
	"github.com/spf13/cobra"
)

const appName = "guessthesong"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Guess the song party game client",
	Long: `Guess the song client. One player runs the sender and crops clips from a
song list, every other player runs a receiver; the relay server starts
playback on all receivers at once.

Without a subcommand the mode is asked for interactively.`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "config/config.toml", "Path to the TOML configuration")
	flags.String("server", "", "Relay server URL (default from config, e.g. ws://localhost:8765)")
	flags.String("log-dir", "logs", "Directory for log files")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error); overrides "+logging.EnvLogLevel)
	flags.String("ffmpeg-dir", "", "Directory containing ffmpeg and ffplay (default: PATH)")

	rootCmd.AddCommand(offlineCmd)
	rootCmd.AddCommand(receiverCmd)
	rootCmd.AddCommand(senderCmd)
	rootCmd.AddCommand(managerCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if ctx.Err() != nil {
		fmt.Println()
		fmt.Println("Quitting...")
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
