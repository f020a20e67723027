package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	userName  string
	roomID    string
	stagger   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley command-line client: host or join an owner-gated call room",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "ws://localhost:8080/api/ws/signal", "signaling server websocket URL")
	rootCmd.PersistentFlags().StringVarP(&userName, "name", "n", "Anonymous", "display name")
	rootCmd.PersistentFlags().StringVarP(&roomID, "room", "r", "", "room identifier")
	rootCmd.PersistentFlags().DurationVar(&stagger, "stagger", 500*time.Millisecond, "delay between offers to pre-existing occupants")

	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(joinCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
