package subtitle

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

// Advanced SubStation Alpha format
type ASSWriter struct {
	Title    string
	FontName string
	FontSize int
}

var styleTagRe = regexp.MustCompile(`</?[ibu]>`)

func NewWriter(format Format) (Writer, error) {
	switch ParseFormat(string(format)) {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	case FormatASS:
		return &ASSWriter{
			Title:    "Hiyori Subtitles",
			FontName: "Arial",
			FontSize: 20,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// writes cues as SubRip; style tags are kept, entities are unescaped
func (w *SRTWriter) Write(out io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(out)
	for i, cue := range cues {
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n",
			formatSRTTime(cue.StartTime()),
			formatSRTTime(cue.EndTime()))
		bw.WriteString(html.UnescapeString(breaksTo(cue.Text, "\n")))
		bw.WriteString("\n\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write srt: %w", err)
	}
	return nil
}

// writes cues as WebVTT; sanitized markup is already valid cue text
func (w *VTTWriter) Write(out io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(out)
	bw.WriteString("WEBVTT\n\n")
	for i, cue := range cues {
		fmt.Fprintf(bw, "%d\n", i+1)
		fmt.Fprintf(bw, "%s --> %s\n",
			formatVTTTime(cue.StartTime()),
			formatVTTTime(cue.EndTime()))
		bw.WriteString(breaksTo(cue.Text, "\n"))
		bw.WriteString("\n\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write vtt: %w", err)
	}
	return nil
}

// writes cues as ASS with a single Default style
func (w *ASSWriter) Write(out io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(out)

	// script info section
	bw.WriteString("[Script Info]\n")
	fmt.Fprintf(bw, "Title: %s\n", w.Title)
	bw.WriteString("ScriptType: v4.00+\n")
	bw.WriteString("Collisions: Normal\n")
	bw.WriteString("PlayDepth: 0\n\n")

	// v4+ styles section
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1\n\n",
		w.FontName, w.FontSize)

	// events section
	bw.WriteString("[Events]\n")
	bw.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range cues {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(cue.StartTime()),
			formatASSTime(cue.EndTime()),
			toASSText(cue.Text))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write ass: %w", err)
	}
	return nil
}

// Plain drops every tag from sanitized markup, turns breaks into newlines
// and unescapes entities.
func Plain(markup string) string {
	s := breaksTo(markup, "\n")
	s = styleTagRe.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

func breaksTo(markup, sep string) string {
	return strings.ReplaceAll(markup, LineBreak, sep)
}

var assStyleOverrides = strings.NewReplacer(
	"<i>", `{\i1}`, "</i>", `{\i0}`,
	"<b>", `{\b1}`, "</b>", `{\b0}`,
	"<u>", `{\u1}`, "</u>", `{\u0}`,
)

func toASSText(markup string) string {
	s := assStyleOverrides.Replace(breaksTo(markup, `\N`))
	s = html.UnescapeString(s)
	return strings.ReplaceAll(s, "\n", `\N`)
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func formatASSTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	centis := (int(d.Milliseconds()) % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// file extension for a format
func ExtensionFor(format Format) string {
	switch ParseFormat(string(format)) {
	case FormatVTT:
		return ".vtt"
	case FormatASS:
		return ".ass"
	case FormatSMI:
		return ".smi"
	default:
		return ".srt"
	}
}
