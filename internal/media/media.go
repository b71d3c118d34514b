package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/hiyori/internal/ffmpeg"
	"github.com/mgpai22/hiyori/internal/subtitle"
)

// container information relevant to subtitles
type Info struct {
	Path      string
	Duration  time.Duration
	Subtitles []Stream
}

// an embedded subtitle track
type Stream struct {
	Index    int // position among subtitle streams, as used by -map 0:s:N
	Codec    string
	Language string
	Title    string
	Default  bool
}

// bitmap codecs cannot be turned into text cues
var bitmapCodecs = map[string]bool{
	"hdmv_pgs_subtitle": true,
	"dvd_subtitle":      true,
	"dvb_subtitle":      true,
	"xsub":              true,
}

// reports whether the stream carries text that can be converted to cues
func (s Stream) IsText() bool {
	return !bitmapCodecs[s.Codec]
}

// runs a binary and returns its stdout
type runFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// Processor probes containers and pulls subtitle tracks out of them.
type Processor struct {
	paths ffmpegbin.BinaryPaths
	run   runFunc
}

func NewProcessor(paths ffmpegbin.BinaryPaths) *Processor {
	return &Processor{paths: paths, run: runCommand}
}

// reads duration and subtitle streams with ffprobe
func (p *Processor) Probe(ctx context.Context, videoPath string) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	out, err := p.run(ctx, nil, p.paths.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-select_streams", "s",
		videoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("failed to parse ffprobe output")
	}

	return parseProbe(videoPath, out), nil
}

func parseProbe(path string, out []byte) *Info {
	info := &Info{Path: path}

	seconds := gjson.GetBytes(out, "format.duration").Float()
	info.Duration = time.Duration(seconds * float64(time.Second))

	for i, s := range gjson.GetBytes(out, "streams").Array() {
		info.Subtitles = append(info.Subtitles, Stream{
			Index:    i,
			Codec:    s.Get("codec_name").String(),
			Language: s.Get("tags.language").String(),
			Title:    s.Get("tags.title").String(),
			Default:  s.Get("disposition.default").Int() == 1,
		})
	}
	return info
}

// ExtractSubtitle converts subtitle stream n of the container to format
// (srt, ass or vtt) and returns the encoded bytes.
func (p *Processor) ExtractSubtitle(
	ctx context.Context,
	videoPath string,
	stream int,
	format subtitle.Format,
) ([]byte, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	muxer, err := muxerFor(format)
	if err != nil {
		return nil, err
	}

	cmd := ffmpeg.Input(videoPath).
		Output("pipe:1", ffmpeg.KwArgs{
			"map": fmt.Sprintf("0:s:%d", stream),
			"c:s": muxer,
			"f":   muxer,
		}).
		GlobalArgs("-loglevel", "error", "-nostdin").
		SetFfmpegPath(p.paths.FFmpeg).
		Compile()

	out, err := p.run(ctx, nil, cmd.Path, cmd.Args[1:]...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg subtitle extraction failed: %w", err)
	}
	return out, nil
}

// ExtractCues extracts stream n and parses it into cues.
func (p *Processor) ExtractCues(
	ctx context.Context,
	videoPath string,
	stream int,
	opts subtitle.Options,
) ([]subtitle.Cue, error) {
	data, err := p.ExtractSubtitle(ctx, videoPath, stream, subtitle.FormatASS)
	if err != nil {
		return nil, err
	}
	return opts.Load(data, "embedded.ass", "utf-8").Cues, nil
}

func muxerFor(format subtitle.Format) (string, error) {
	switch subtitle.ParseFormat(string(format)) {
	case subtitle.FormatSRT:
		return "srt", nil
	case subtitle.FormatASS:
		return "ass", nil
	case subtitle.FormatVTT:
		return "webvtt", nil
	default:
		return "", fmt.Errorf("unsupported extraction format: %s", format)
	}
}

func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
