package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/ipc"
	"go.klb.dev/clipstash/internal/message"
)

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := roundTrip(&message.Message{Type: message.TypeStatus})
			if err != nil {
				return err
			}
			st := reply.Status
			if st == nil {
				return fmt.Errorf("malformed status reply")
			}

			if jsonOut {
				enc, _ := json.MarshalIndent(st, "", "  ")
				fmt.Println(string(enc))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Version:\t%s\n", st.Version)
			fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
			fmt.Fprintf(w, "Clipboard:\t%s\n", st.Backend)
			fmt.Fprintf(w, "Entries:\t%d (%d pinned)\n", st.Total, st.Pinned)
			fmt.Fprintf(w, "Limits:\t%d items, %d pinned\n", st.MaxItems, st.MaxPinned)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}
