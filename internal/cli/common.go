package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/spf13/cobra"
)

func parseOptions() subtitle.Options {
	return subtitle.Options{SMITail: cfg.GetSMITail()}
}

// the --encoding flag wins over the configured charset
func encodingFor(cmd *cobra.Command) string {
	if enc, _ := cmd.Flags().GetString("encoding"); strings.TrimSpace(enc) != "" {
		return enc
	}
	return cfg.GetEncoding()
}

func openTrack(cmd *cobra.Command, path string) (*subtitle.Track, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file not found: %s", path)
	}

	track, err := parseOptions().Open(path, encodingFor(cmd))
	if err != nil {
		return nil, err
	}
	logger.Infow("Loaded subtitle file",
		"file", path,
		"format", track.Format,
		"encoding", track.Encoding,
		"cues", len(track.Cues),
	)
	return track, nil
}

// output format: explicit flag, then the output extension, then the input
// format. SAMI has no writer, so it falls back to SRT.
func outputFormat(flag, outputPath string, input subtitle.Format) (subtitle.Format, error) {
	if flag != "" {
		f := subtitle.ParseFormat(flag)
		if f == subtitle.FormatAuto || f == subtitle.FormatSMI {
			return "", fmt.Errorf(
				"invalid format %q: supported formats are srt, vtt, ass",
				flag,
			)
		}
		return f, nil
	}
	if outputPath != "" {
		if f := subtitle.GuessFormatByExt(outputPath); f != subtitle.FormatAuto &&
			f != subtitle.FormatSMI {
			return f, nil
		}
	}
	if input == subtitle.FormatSMI || input == subtitle.FormatAuto || input == "" {
		return subtitle.FormatSRT, nil
	}
	return input, nil
}

// input.ext -> input.<suffix>.<format ext>
func derivedPath(input, suffix string, format subtitle.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if suffix != "" {
		base += "." + suffix
	}
	return base + subtitle.ExtensionFor(format)
}

func writeCues(path string, format subtitle.Format, cues []subtitle.Cue) error {
	w, err := subtitle.NewWriter(format)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := w.Write(f, cues); err != nil {
		f.Close()
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	return nil
}

func printDone(what, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Printf("%s: %s\n", what, abs)
}

// moves every cue by shiftMs; cues pushed entirely before zero are dropped
// and partially negative ones are clipped to start at zero
func shiftCues(cues []subtitle.Cue, shiftMs float64) []subtitle.Cue {
	if shiftMs == 0 {
		return cues
	}
	delta := shiftMs / 1000
	out := make([]subtitle.Cue, 0, len(cues))
	for _, c := range cues {
		c.Start += delta
		c.End += delta
		if c.End <= 0 {
			continue
		}
		if c.Start < 0 {
			c.Start = 0
		}
		out = append(out, c)
	}
	return out
}
