package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/hiyori/internal/media"
	"github.com/mgpai22/hiyori/internal/playback"
	"github.com/mgpai22/hiyori/internal/subtitle"
	"github.com/mgpai22/hiyori/internal/translate"
)

func TestValidateModel(t *testing.T) {
	tests := []struct {
		provider translate.Provider
		model    string
		wantErr  bool
	}{
		{translate.ProviderGemini, "", false},
		{translate.ProviderGemini, "gemini-2.5-flash", false},
		{translate.ProviderGemini, "gpt-5", true},
		{translate.ProviderOpenAI, "gpt-5-mini", false},
		{translate.ProviderOpenAI, "gemini-2.5-pro", true},
		{translate.ProviderAnthropic, "claude-sonnet-4-5", false},
		{translate.Provider("deepl"), "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider)+"/"+tt.model, func(t *testing.T) {
			err := validateModel(tt.provider, tt.model)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateModel(%q, %q) error = %v, wantErr %v",
					tt.provider, tt.model, err, tt.wantErr)
			}
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		output  string
		input   subtitle.Format
		want    subtitle.Format
		wantErr bool
	}{
		{"flag wins", "vtt", "out.ass", subtitle.FormatSRT, subtitle.FormatVTT, false},
		{"alias", "ssa", "", subtitle.FormatSRT, subtitle.FormatASS, false},
		{"output extension", "", "out.ass", subtitle.FormatSRT, subtitle.FormatASS, false},
		{"input format", "", "", subtitle.FormatVTT, subtitle.FormatVTT, false},
		{"smi input falls back", "", "", subtitle.FormatSMI, subtitle.FormatSRT, false},
		{"smi output falls back", "", "out.smi", subtitle.FormatASS, subtitle.FormatASS, false},
		{"unknown flag", "txt", "", subtitle.FormatSRT, "", true},
		{"smi flag", "smi", "", subtitle.FormatSRT, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputFormat(tt.flag, tt.output, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDerivedPath(t *testing.T) {
	tests := []struct {
		input  string
		suffix string
		format subtitle.Format
		want   string
	}{
		{"movie.smi", "converted", subtitle.FormatSRT, "movie.converted.srt"},
		{"dir/movie.srt", "ja.overlay", subtitle.FormatASS, "dir/movie.ja.overlay.ass"},
		{"movie.mkv", "", subtitle.FormatVTT, "movie.vtt"},
	}

	for _, tt := range tests {
		if got := derivedPath(tt.input, tt.suffix, tt.format); got != tt.want {
			t.Errorf("derivedPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestShiftCues(t *testing.T) {
	cues := []subtitle.Cue{
		{Start: 0.5, End: 1, Text: "gone"},
		{Start: 1, End: 3, Text: "clipped"},
		{Start: 5, End: 6, Text: "moved"},
	}

	got := shiftCues(cues, -1500)
	if len(got) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(got))
	}
	if got[0].Start != 0 || got[0].End != 1.5 {
		t.Errorf("expected clipped cue 0-1.5, got %v-%v", got[0].Start, got[0].End)
	}
	if got[1].Start != 3.5 || got[1].End != 4.5 {
		t.Errorf("expected moved cue 3.5-4.5, got %v-%v", got[1].Start, got[1].End)
	}
	if cues[2].Start != 5 {
		t.Error("expected input cues to be left untouched")
	}
}

func TestOverlayCues(t *testing.T) {
	original := []subtitle.Cue{
		{Start: 1, End: 2, Text: "안녕"},
		{Start: 3, End: 4, Text: "♪"},
	}
	translated := []subtitle.Cue{
		{Start: 1, End: 2, Text: "Hello"},
		{Start: 3, End: 4, Text: "♪"},
	}

	got := overlayCues(translated, original)
	if got[0].Text != "Hello<br>안녕" {
		t.Errorf("expected %q, got %q", "Hello<br>안녕", got[0].Text)
	}
	if got[1].Text != "♪" {
		t.Errorf("expected untranslated cue not to repeat, got %q", got[1].Text)
	}
}

func TestPickStream(t *testing.T) {
	streams := []media.Stream{
		{Index: 0, Codec: "hdmv_pgs_subtitle"},
		{Index: 1, Codec: "subrip", Language: "eng"},
		{Index: 2, Codec: "ass", Language: "jpn"},
	}

	s, err := pickStream(streams, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Index != 1 {
		t.Errorf("expected first text stream 1, got %d", s.Index)
	}

	s, err = pickStream(streams, 2)
	if err != nil || s.Language != "jpn" {
		t.Errorf("expected stream 2, got %+v (err %v)", s, err)
	}

	if _, err := pickStream(streams, 0); err == nil {
		t.Error("expected error for bitmap stream")
	}
	if _, err := pickStream(streams, 5); err == nil {
		t.Error("expected error for out of range stream")
	}
	if _, err := pickStream(nil, -1); err == nil {
		t.Error("expected error for no streams")
	}
}

func TestWallClock(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := newWallClock(10, 2, func() time.Time { return now })

	if got := clock.Position(); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	now = now.Add(1500 * time.Millisecond)
	if got := clock.Position(); got != 13 {
		t.Errorf("expected 13, got %v", got)
	}
}

func TestFormatChange(t *testing.T) {
	got := formatChange(61.25, playback.Change{Index: 4, Text: "<i>one</i><br>two &amp; three"})
	want := "[1m1.25s] #4 one / two & three"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = formatChange(2, playback.Change{Index: playback.NoCue})
	if !strings.HasSuffix(got, "--") {
		t.Errorf("expected clear marker, got %q", got)
	}
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "movie.smi")
	out := filepath.Join(dir, "movie.vtt")

	smi := "<SAMI><BODY>\n<SYNC Start=1000><P>첫 줄<br>둘째 줄\n<SYNC Start=3000><P>&nbsp;\n</BODY></SAMI>"
	if err := os.WriteFile(in, []byte(smi), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"convert", in, "-o", out, "--config", filepath.Join(dir, "none.toml")})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing explicit config")
	}

	rootCmd.SetArgs([]string{"convert", in, "-o", out, "--config", ""})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "WEBVTT") {
		t.Errorf("expected WebVTT output, got %q", text)
	}
	if !strings.Contains(text, "00:00:01.000 --> 00:00:02.999") {
		t.Errorf("expected first cue timing, got %q", text)
	}
	if !strings.Contains(text, "첫 줄\n둘째 줄") {
		t.Errorf("expected cue text with line break, got %q", text)
	}
}
