package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently loaded subtitle files",
	Long: `Show the subtitle loads recorded by "hiyori serve", newest first, with
the offset that was in effect for each.

Examples:
  hiyori history
  hiyori history -n 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().
		IntP("limit", "n", 20, "Number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No subtitle loads recorded")
		return nil
	}

	for _, e := range entries {
		name := e.Filename
		if name == "" {
			name = "(unnamed)"
		} else {
			name = filepath.Base(name)
		}
		fmt.Printf("%-14s %-10s %s  %s/%s  %s cues  offset %+gms\n",
			humanize.Time(e.LoadedAt),
			e.Session,
			name,
			e.Format,
			e.Encoding,
			humanize.Comma(int64(e.Cues)),
			e.OffsetMs,
		)
	}
	return nil
}
