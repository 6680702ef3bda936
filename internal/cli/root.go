package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagAddr    string
	flagAPI     string
	flagNick    string
	flagNoColor bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "roomtalk",
		Short:         "Client for the roomtalk multi-room chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Resolve defaults: flags > env vars > .roomtalk config > hardcoded defaults.
	defaultAddr := "localhost:5555"
	defaultAPI := "http://localhost:8080"
	defaultNick := ""

	if cfg := loadConfig(); cfg != nil {
		if cfg.Addr != "" {
			defaultAddr = cfg.Addr
		}
		if cfg.API != "" {
			defaultAPI = cfg.API
		}
		if cfg.Nick != "" {
			defaultNick = cfg.Nick
		}
	}

	root.PersistentFlags().StringVarP(&flagAddr, "addr", "a", envOrDefault("ROOMTALK_ADDR", defaultAddr), "chat server TCP address")
	root.PersistentFlags().StringVarP(&flagAPI, "api", "s", envOrDefault("ROOMTALK_API", defaultAPI), "HTTP API base URL")
	root.PersistentFlags().StringVarP(&flagNick, "nick", "n", envOrDefault("ROOMTALK_NICK", defaultNick), "nick to claim after connecting")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newConnectCmd(),
		newWatchCmd(),
		newRoomsCmd(),
		newWhoCmd(),
		newStatusCmd(),
		newMCPServeCmd(),
	)

	return root
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
