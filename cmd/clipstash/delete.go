package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Long: `Removes the entry with the given id (or unique id prefix). The same
content can be copied again afterwards and will form a fresh entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, err := roundTrip(&message.Message{Type: message.TypeDelete, ID: args[0]})
			return err
		},
	}
}
