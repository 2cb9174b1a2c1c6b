package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/message"
)

func newCopyCmd() *cobra.Command {
	var fromEditor bool

	cmd := &cobra.Command{
		Use:   "copy [text]",
		Short: "Copy text (or stdin) to the clipboard and record it",
		Long: `Puts the given text on the system clipboard and records it as a history
entry in one step, like pbcopy with a memory. With no argument, stdin is
read instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var content string
			if len(args) == 1 {
				content = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = strings.TrimSuffix(string(data), "\n")
			}
			if content == "" {
				return nil
			}

			_, err := roundTrip(&message.Message{
				Type:       message.TypeSubmit,
				Content:    content,
				FromEditor: fromEditor,
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&fromEditor, "editor", false, "mark the copy as editor-origin (fixed provenance)")
	return cmd
}
