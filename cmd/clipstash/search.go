package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newSearchCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search history by content or source application",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reply, err := roundTrip(&message.Message{Type: message.TypeSearch, Query: args[0]})
			if err != nil {
				return err
			}
			return printEntries(reply.Entries, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}
