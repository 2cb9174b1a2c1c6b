package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/clipstash/internal/entry"
	"go.klb.dev/clipstash/internal/message"
)

func newListCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the clipboard history (pinned entries first)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			reply, err := roundTrip(&message.Message{Type: message.TypeList, Limit: limit})
			if err != nil {
				return err
			}
			return printEntries(reply.Entries, jsonOut)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output raw JSON")
	return cmd
}

func printEntries(entries []entry.Entry, jsonOut bool) error {
	if jsonOut {
		enc, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("History is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t\tKIND\tAGE\tSOURCE\tCONTENT\n")
	for _, e := range entries {
		marker := ""
		if e.Pinned {
			marker = "*"
		}
		source := e.SourceApp
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID), marker, e.Kind, fmtAge(e.Timestamp), source, preview(e.Content))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// preview renders content as a single trimmed line.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:60]) + "…"
	}
	return s
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return fmt.Sprintf("%dh", int(age.Hours()))
	}
	return t.Format("2006-01-02")
}
