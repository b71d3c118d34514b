package subtitle

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultSMITail is how long the final SMI cue stays up.
	DefaultSMITail = 5 * time.Second

	// gap left between a SMI cue and the next one's start
	smiGuard = 0.001
)

var (
	smiBreakRe   = regexp.MustCompile(`(?i)<br\s*/?>`)
	smiSyncRe    = regexp.MustCompile(`(?i)<sync\b[^>]*>`)
	smiStartRe   = regexp.MustCompile(`(?i)\bstart\s*=\s*["']?(\d+)`)
	smiBodyEndRe = regexp.MustCompile(`(?i)</body\s*>`)
	smiCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	smiCosmetic  = regexp.MustCompile(`(?i)</?(?:font|p)\b[^>]*>`)
)

// ParseSMI parses SAMI text with the default tail for the final cue.
func ParseSMI(text string) []Cue {
	return parseSMI(text, DefaultSMITail)
}

// SAMI only says when a caption appears: each cue ends just before the next
// one starts, and the last cue lasts tail.
func parseSMI(text string, tail time.Duration) []Cue {
	src := normalizeNewlines(text)
	src = smiBreakRe.ReplaceAllString(src, "<br>")

	bodyEnd := len(src)
	if loc := smiBodyEndRe.FindStringIndex(src); loc != nil {
		bodyEnd = loc[0]
	}

	tags := smiSyncRe.FindAllStringIndex(src[:bodyEnd], -1)
	cues := make([]Cue, 0, len(tags))

	for i, tag := range tags {
		m := smiStartRe.FindStringSubmatch(src[tag[0]:tag[1]])
		if m == nil {
			continue
		}
		startMs, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}

		next := bodyEnd
		if i+1 < len(tags) {
			next = tags[i+1][0]
		}

		body := smiCommentRe.ReplaceAllString(src[tag[1]:next], "")
		body = smiCosmetic.ReplaceAllString(body, "")

		cues = append(cues, Cue{
			Start: float64(startMs) / 1000,
			Text:  Sanitize(strings.TrimSpace(body)),
		})
	}

	sortCues(cues)

	tailSeconds := tail.Seconds()
	if tailSeconds <= 0 {
		tailSeconds = DefaultSMITail.Seconds()
	}
	for i := range cues {
		if i < len(cues)-1 {
			cues[i].End = math.Max(cues[i].Start, cues[i+1].Start-smiGuard)
		} else {
			cues[i].End = cues[i].Start + tailSeconds
		}
	}

	return cues
}
