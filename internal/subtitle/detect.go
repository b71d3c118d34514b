package subtitle

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	srtSniffRe = regexp.MustCompile(`(?m)^\s*\d+[ \t]*\n\s*\d+:\d{2}:\d{2}[,.]\d{1,3}\s*-->`)
	assSniffRe = regexp.MustCompile(`(?mi)^\s*(?:\[Script Info\]|Dialogue\s*:)`)
	smiSniffRe = regexp.MustCompile(`(?i)<\s*(?:sync|body)\b`)
	vttSniffRe = regexp.MustCompile(`^\s*WEBVTT\b`)
)

// GuessFormatByExt picks a format from the file name suffix, FormatAuto
// when the suffix is unknown.
func GuessFormatByExt(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".srt":
		return FormatSRT
	case ".ass", ".ssa":
		return FormatASS
	case ".smi", ".sami":
		return FormatSMI
	case ".vtt":
		return FormatVTT
	default:
		return FormatAuto
	}
}

// maps a user supplied format label, including aliases, to a Format
func ParseFormat(label string) Format {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "srt":
		return FormatSRT
	case "ass", "ssa":
		return FormatASS
	case "smi", "sami":
		return FormatSMI
	case "vtt", "webvtt":
		return FormatVTT
	default:
		return FormatAuto
	}
}

// SniffFormat resolves FormatAuto from content. The SRT index+timing pair is
// checked first, then ASS, SMI and WebVTT markers; anything else is SRT.
func SniffFormat(text string) Format {
	text = normalizeNewlines(text)
	switch {
	case srtSniffRe.MatchString(text):
		return FormatSRT
	case assSniffRe.MatchString(text):
		return FormatASS
	case smiSniffRe.MatchString(text):
		return FormatSMI
	case vttSniffRe.MatchString(text):
		return FormatVTT
	default:
		return FormatSRT
	}
}

// parse settings that differ between callers
type Options struct {
	// SMITail is the duration of the last SMI cue; DefaultSMITail when zero
	SMITail time.Duration
}

// SelectParser parses text as format, sniffing the content first when the
// format is FormatAuto.
func SelectParser(format Format, text string) []Cue {
	return Options{}.SelectParser(format, text)
}

func (o Options) SelectParser(format Format, text string) []Cue {
	return o.parse(o.Resolve(format, text), text)
}

// returns the concrete format SelectParser would use
func (o Options) Resolve(format Format, text string) Format {
	if f := ParseFormat(string(format)); f != FormatAuto {
		return f
	}
	return SniffFormat(text)
}

func (o Options) parse(format Format, text string) []Cue {
	switch format {
	case FormatASS:
		return ParseASS(text)
	case FormatSMI:
		return parseSMI(text, o.SMITail)
	case FormatVTT:
		return ParseVTT(text)
	default:
		return ParseSRT(text)
	}
}
