package main

import (
	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newClearCmd() *cobra.Command {
	var (
		keepPinned bool
		wipe       bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the clipboard history",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := roundTrip(&message.Message{
				Type:          message.TypeClear,
				KeepPinned:    keepPinned,
				WipeClipboard: wipe,
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&keepPinned, "keep-pinned", true, "keep pinned entries")
	cmd.Flags().BoolVar(&wipe, "wipe-clipboard", false, "also empty the system clipboard")
	return cmd
}
