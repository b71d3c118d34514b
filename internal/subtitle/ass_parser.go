package subtitle

import (
	"regexp"
	"strconv"
	"strings"
)

// field order assumed when a script has no [Events] Format: line
var defaultASSColumns = []string{
	"Layer", "Start", "End", "Style", "Name",
	"MarginL", "MarginR", "MarginV", "Effect", "Text",
}

var (
	assTimeRe     = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})\.(\d{1,2})`)
	assOverrideRe = regexp.MustCompile(`\{[^}]*\}`)
)

// column layout declared by a Format: line, resolved once per file
type assSchema struct {
	columns []string
	start   int
	end     int
	text    int
}

func newASSSchema(columns []string) assSchema {
	s := assSchema{columns: columns, start: -1, end: -1, text: -1}
	for i, col := range columns {
		switch strings.ToLower(col) {
		case "start":
			s.start = i
		case "end":
			s.end = i
		case "text":
			s.text = i
		}
	}
	return s
}

func (s assSchema) valid() bool {
	return s.start >= 0 && s.end >= 0 && s.text >= 0
}

// splits a Dialogue body; the Text column swallows the rest of the line,
// commas included
func (s assSchema) split(content string) []string {
	return strings.SplitN(content, ",", s.text+1)
}

// ParseASS parses ASS/SSA script text into cues sorted by start. Override
// blocks such as {\pos(10,20)} are dropped; \N becomes a line break.
func ParseASS(text string) []Cue {
	schema := newASSSchema(defaultASSColumns)
	section := ""

	var cues []Cue
	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(strings.Trim(trimmed, "[]"))
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)

		switch {
		case strings.EqualFold(key, "Format") && (section == "" || section == "events"):
			columns := strings.Split(value, ",")
			for i := range columns {
				columns[i] = strings.TrimSpace(columns[i])
			}
			if next := newASSSchema(columns); next.valid() {
				schema = next
			}
		case strings.EqualFold(key, "Dialogue"):
			if cue, ok := schema.parseDialogue(strings.TrimLeft(value, " ")); ok {
				cues = append(cues, cue)
			}
		}
	}

	sortCues(cues)
	return cues
}

func (s assSchema) parseDialogue(content string) (Cue, bool) {
	fields := s.split(content)
	if len(fields) <= s.text {
		return Cue{}, false
	}

	start, ok := parseASSTimestamp(fields[s.start])
	if !ok {
		return Cue{}, false
	}
	end, ok := parseASSTimestamp(fields[s.end])
	if !ok {
		return Cue{}, false
	}

	return Cue{
		Start: start,
		End:   clampEnd(start, end),
		Text:  Sanitize(cleanASSText(fields[s.text])),
	}, true
}

// override blocks are removed but any \N inside them is kept
func cleanASSText(text string) string {
	text = assOverrideRe.ReplaceAllStringFunc(text, func(block string) string {
		return strings.Repeat(`\N`, strings.Count(block, `\N`))
	})
	text = strings.ReplaceAll(text, `\h`, "\u00a0")
	return strings.TrimSpace(text)
}

// H+:MM:SS.cc, centiseconds in one or two digits
func parseASSTimestamp(ts string) (float64, bool) {
	m := assTimeRe.FindStringSubmatch(strings.TrimSpace(ts))
	if m == nil {
		return 0, false
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	centis, _ := strconv.Atoi(m[4])

	return float64(h)*3600 + float64(mins)*60 + float64(sec) + float64(centis)/100, true
}
