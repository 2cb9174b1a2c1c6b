package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle an entry's pin state",
		Long: `Pins or unpins the entry with the given id (or unique id prefix, as
printed by "clipstash list"). Pinned entries are exempt from history
trimming and from clears that keep pinned content. Pinning fails when the
pinned limit is reached; unpinning always succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := roundTrip(&message.Message{Type: message.TypePin, ID: args[0]})
			if err != nil {
				return err
			}
			if reply.Pinned {
				fmt.Println("pinned")
			} else {
				fmt.Println("unpinned")
			}
			return nil
		},
	}
}
