package subtitle

import (
	"fmt"
	"os"
)

// result of turning a subtitle payload into cues
type Track struct {
	Filename string
	Format   Format
	Encoding string
	Step     DecodeStep
	Cues     []Cue
}

// Load runs the full pipeline: decode, pick a format from the name or the
// content, parse. It never fails; an unusable payload yields no cues.
func Load(data []byte, filename, encoding string) *Track {
	return Options{}.Load(data, filename, encoding)
}

func (o Options) Load(data []byte, filename, encoding string) *Track {
	decoded := DecodeDetailed(data, encoding)
	format := o.Resolve(GuessFormatByExt(filename), decoded.Text)

	return &Track{
		Filename: filename,
		Format:   format,
		Encoding: decoded.Encoding,
		Step:     decoded.Step,
		Cues:     o.parse(format, decoded.Text),
	}
}

// reads and loads a subtitle file from disk
func Open(path, encoding string) (*Track, error) {
	return Options{}.Open(path, encoding)
}

func (o Options) Open(path, encoding string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}
	return o.Load(data, path, encoding), nil
}
