package subtitle

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/andybalholm/crlf"
	"golang.org/x/text/transform"
)

var (
	blankLinesRe = regexp.MustCompile(`\n(?:[ \t]*\n)+`)
	indexLineRe  = regexp.MustCompile(`^\d+$`)
	srtTimingRe  = regexp.MustCompile(`^(.+?)\s*-->\s*(.+)$`)
	srtTimeRe    = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`)
)

// ParseSRT parses SubRip text into cues sorted by start. Blocks without a
// usable timing line are skipped.
func ParseSRT(text string) []Cue {
	blocks := blankLinesRe.Split(normalizeNewlines(text), -1)
	cues := make([]Cue, 0, len(blocks))

	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		i := 0
		if indexLineRe.MatchString(strings.TrimSpace(lines[0])) {
			i = 1
		}

		m := srtTimingRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		start, ok := parseSRTTimestamp(m[1])
		if !ok {
			continue
		}
		end, ok := parseSRTTimestamp(m[2])
		if !ok {
			continue
		}

		cues = append(cues, Cue{
			Start: start,
			End:   clampEnd(start, end),
			Text:  Sanitize(strings.Join(lines[i+1:], "\n")),
		})
	}

	sortCues(cues)
	return cues
}

// H+:MM:SS[,.]m{1,3}; the fraction is right-padded to milliseconds
func parseSRTTimestamp(s string) (float64, bool) {
	m := srtTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4] + strings.Repeat("0", 3-len(m[4])))

	return float64(h)*3600 + float64(mins)*60 + float64(sec) + float64(ms)/1000, true
}

// converts CRLF and lone CR line endings to LF
func normalizeNewlines(s string) string {
	out, _, err := transform.String(new(crlf.Normalize), s)
	if err != nil {
		return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
	}
	return out
}

func sortCues(cues []Cue) {
	sort.SliceStable(cues, func(i, j int) bool {
		return cues[i].Start < cues[j].Start
	})
}
