package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nguyentranbao-ct/torrent-bot/internal/app"
	"github.com/nguyentranbao-ct/torrent-bot/internal/kafka"
	"github.com/nguyentranbao-ct/torrent-bot/internal/server"
)

var rootCmd = &cobra.Command{
	Use:           "torrent-bot",
	Short:         "Search a torrent tracker from chat and hand results to download clients",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		app.Invoke(
			server.StartServer,
			kafka.StartConsumer,
		).Run()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
