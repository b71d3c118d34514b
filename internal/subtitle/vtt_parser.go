package subtitle

import (
	"strings"

	"github.com/asticode/go-astisub"
)

// ParseVTT parses WebVTT text. A file astisub rejects yields no cues.
func ParseVTT(text string) []Cue {
	subs, err := astisub.ReadFromWebVTT(strings.NewReader(normalizeNewlines(text)))
	if err != nil || subs == nil {
		return nil
	}

	cues := make([]Cue, 0, len(subs.Items))
	for _, item := range subs.Items {
		if item == nil {
			continue
		}
		lines := make([]string, len(item.Lines))
		for i, line := range item.Lines {
			lines[i] = line.String()
		}

		start := item.StartAt.Seconds()
		cues = append(cues, Cue{
			Start: start,
			End:   clampEnd(start, item.EndAt.Seconds()),
			Text:  Sanitize(strings.Join(lines, "\n")),
		})
	}

	sortCues(cues)
	return cues
}
