package main

import (
	"time"

	"github.com/spf13/cobra"
)

const (
	tick         = time.Second
	cropCacheTTL = 10 * time.Minute
)

var offlineCmd = &cobra.Command{
	Use:   "offline",
	Short: "Play clips from a song list locally",
	Args:  cobra.NoArgs,
	RunE:  runMode(modeOffline),
}

var receiverCmd = &cobra.Command{
	Use:   "receiver",
	Short: "Receive clips from the server and play them on the signal",
	Args:  cobra.NoArgs,
	RunE:  runMode(modeReceiver),
}

var senderCmd = &cobra.Command{
	Use:   "sender",
	Short: "Crop clips from a song list and send them to every receiver",
	Args:  cobra.NoArgs,
	RunE:  runMode(modeSender),
}

var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Force playback or restart the server",
	Args:  cobra.NoArgs,
	RunE:  runMode(modeManager),
}
