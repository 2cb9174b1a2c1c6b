package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newRecopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recopy <id>",
		Short: "Put a history entry back on the clipboard",
		Long: `Copies an existing history entry back onto the system clipboard and
promotes it to the top of the history. The entry keeps its original
source application metadata. Accepts a full id or any unique prefix as
printed by "clipstash list".`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := roundTrip(&message.Message{
				Type: message.TypeRecopy,
				ID:   args[0],
			})
			return err
		},
	}
}
