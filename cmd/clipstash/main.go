// clipstash: clipboard history daemon.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipstash",
		Short: "Clipboard history daemon",
		Long: `clipstash watches the system clipboard and keeps an ordered,
deduplicated history of everything you copy. Entries can be pinned,
searched, re-copied, and cleared; history survives restarts in a local
SQLite database.

Run "clipstash serve" once per session. The other sub-commands talk to the
running daemon over a local socket.

Config file search order (first found wins):
  /etc/clipstash/clipstash.toml
  $HOME/.config/clipstash/clipstash.toml
  path supplied via --config

All flags can be set via CLIPSTASH_<FLAG> env vars or config-file keys.
See "clipstash serve --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newListCmd(),
		newCopyCmd(),
		newRecopyCmd(),
		newPinCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipstash %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	logging.Setup(logging.ParseFormat(formatStr), logging.ResolveLevel(levelStr, interactive))
}
