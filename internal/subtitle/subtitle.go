package subtitle

import (
	"io"
	"math"
	"time"
)

// represents single timed subtitle entry; Text is sanitized markup
type Cue struct {
	Start float64 // seconds
	End   float64 // seconds, never before Start
	Text  string
}

// start time as a duration, rounded to the millisecond
func (c Cue) StartTime() time.Duration {
	return secondsToDuration(c.Start)
}

// end time as a duration, rounded to the millisecond
func (c Cue) EndTime() time.Duration {
	return secondsToDuration(c.End)
}

// reports whether t falls inside the cue interval (both ends inclusive)
func (c Cue) Contains(t float64) bool {
	return c.Start <= t && t <= c.End
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatASS  Format = "ass"
	FormatSMI  Format = "smi"
	FormatVTT  Format = "vtt"
	FormatAuto Format = "auto"
)

// interface for writing cues in a concrete format
type Writer interface {
	Write(w io.Writer, cues []Cue) error
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}

func clampEnd(start, end float64) float64 {
	if end < start {
		return start
	}
	return end
}
