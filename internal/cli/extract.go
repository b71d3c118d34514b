package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mgpai22/hiyori/internal/ffmpeg"
	"github.com/mgpai22/hiyori/internal/media"
	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract an embedded subtitle track from a video file",
	Long: `Extract a text subtitle track from a video container (MKV, MP4, ...)
with ffmpeg and save it as a subtitle file.

By default the first text track is used; --list shows what the file holds.
Bitmap tracks (PGS, VobSub) cannot be extracted as text.

Examples:
  hiyori extract movie.mkv --list
  hiyori extract movie.mkv
  hiyori extract movie.mkv --stream 2 -f ass -o movie.ass`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt, ass)")
	extractCmd.Flags().
		IntP("stream", "s", -1, "Subtitle stream index (default: first text stream)")
	extractCmd.Flags().
		Bool("list", false, "List subtitle streams and exit")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := context.Background()

	formatStr, _ := cmd.Flags().GetString("format")
	streamIdx, _ := cmd.Flags().GetInt("stream")
	list, _ := cmd.Flags().GetBool("list")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := outputFormat(formatStr, "", subtitle.FormatSRT)
	if err != nil {
		return err
	}

	paths, err := ffmpeg.Resolve(cfg.FFmpeg.FFmpegPath, cfg.FFmpeg.FFprobePath)
	if err != nil {
		return err
	}
	processor := media.NewProcessor(paths)

	info, err := processor.Probe(ctx, videoPath)
	if err != nil {
		return err
	}

	if list {
		printStreams(info)
		return nil
	}

	stream, err := pickStream(info.Subtitles, streamIdx)
	if err != nil {
		return err
	}

	if outputPath == "" {
		suffix := stream.Language
		if suffix == "" {
			suffix = fmt.Sprintf("s%d", stream.Index)
		}
		outputPath = derivedPath(videoPath, suffix, format)
	}

	logger.Infow("Extracting subtitles",
		"video", videoPath,
		"stream", stream.Index,
		"codec", stream.Codec,
		"language", stream.Language,
		"output", outputPath,
		"format", format,
	)

	data, err := processor.ExtractSubtitle(ctx, videoPath, stream.Index, format)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	printDone("Subtitles extracted successfully", outputPath)
	return nil
}

func printStreams(info *media.Info) {
	if len(info.Subtitles) == 0 {
		fmt.Println("No subtitle streams found")
		return
	}
	for _, s := range info.Subtitles {
		kind := "text"
		if !s.IsText() {
			kind = "bitmap"
		}
		line := fmt.Sprintf("  [%d] %s (%s)", s.Index, s.Codec, kind)
		if s.Language != "" {
			line += " lang=" + s.Language
		}
		if s.Title != "" {
			line += fmt.Sprintf(" title=%q", s.Title)
		}
		if s.Default {
			line += " default"
		}
		fmt.Println(line)
	}
}

// index < 0 selects the first text stream
func pickStream(streams []media.Stream, index int) (media.Stream, error) {
	if len(streams) == 0 {
		return media.Stream{}, fmt.Errorf("video has no subtitle streams")
	}
	if index < 0 {
		for _, s := range streams {
			if s.IsText() {
				return s, nil
			}
		}
		return media.Stream{}, fmt.Errorf("video has only bitmap subtitle streams")
	}
	if index >= len(streams) {
		return media.Stream{}, fmt.Errorf(
			"stream %d out of range: video has %d subtitle streams",
			index, len(streams),
		)
	}
	s := streams[index]
	if !s.IsText() {
		return media.Stream{}, fmt.Errorf("stream %d is a bitmap subtitle (%s)", index, s.Codec)
	}
	return s, nil
}
