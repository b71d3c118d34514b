package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert a subtitle file to SRT, VTT or ASS",
	Long: `Load a subtitle file in any supported format and encoding and write it
back out as UTF-8 SRT, WebVTT or ASS. Timing can be shifted on the way.

Examples:
  hiyori convert movie.smi
  hiyori convert movie.srt -f ass -o movie.ass
  hiyori convert movie.srt --shift -1500`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass); default from output name or input")
	convertCmd.Flags().
		Float64("shift", 0, "Shift every cue by this many milliseconds")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	formatStr, _ := cmd.Flags().GetString("format")
	shiftMs, _ := cmd.Flags().GetFloat64("shift")
	outputPath, _ := cmd.Flags().GetString("output")

	track, err := openTrack(cmd, inputPath)
	if err != nil {
		return err
	}
	if len(track.Cues) == 0 {
		return fmt.Errorf("subtitle file contains no cues")
	}

	format, err := outputFormat(formatStr, outputPath, track.Format)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = derivedPath(inputPath, "converted", format)
	}

	cues := shiftCues(track.Cues, shiftMs)

	logger.Infow("Writing output file",
		"output", outputPath,
		"format", format,
		"shift_ms", shiftMs,
	)
	if err := writeCues(outputPath, format, cues); err != nil {
		return err
	}

	printDone("Subtitles converted successfully", outputPath)
	return nil
}
