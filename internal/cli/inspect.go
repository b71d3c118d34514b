package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [subtitle_file]",
	Short: "Show how a subtitle file decodes and parses",
	Long: `Decode and parse a subtitle file and report the charset, the rule that
picked it, the detected format and the cue count.

Examples:
  hiyori inspect movie.smi
  hiyori inspect movie.srt --encoding euc-kr --cues 5`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().
		IntP("cues", "n", 3, "Number of leading cues to print")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	n, _ := cmd.Flags().GetInt("cues")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	track := parseOptions().Load(data, path, encodingFor(cmd))
	guess, confidence := subtitle.DetectCharset(data)

	fmt.Printf("File:      %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	fmt.Printf("Encoding:  %s (via %s)\n", track.Encoding, track.Step)
	if guess != "" {
		fmt.Printf("Detector:  %s (%d%% confidence)\n", guess, confidence)
	}
	fmt.Printf("Format:    %s\n", track.Format)
	fmt.Printf("Cues:      %s\n", humanize.Comma(int64(len(track.Cues))))

	if len(track.Cues) > 0 {
		last := track.Cues[len(track.Cues)-1]
		fmt.Printf("Span:      %s - %s\n", track.Cues[0].StartTime(), last.EndTime())
	}

	for i, cue := range track.Cues {
		if i >= n {
			break
		}
		fmt.Printf("  [%d] %s -> %s  %q\n", i, cue.StartTime(), cue.EndTime(), cue.Text)
	}
	return nil
}
