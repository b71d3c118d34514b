package subtitle

import "testing"

func TestGuessFormatByExt(t *testing.T) {
	tests := map[string]Format{
		"movie.srt":      FormatSRT,
		"MOVIE.SMI":      FormatSMI,
		"a/b/show.sami":  FormatSMI,
		"anime.ass":      FormatASS,
		"old.ssa":        FormatASS,
		"web.vtt":        FormatVTT,
		"notes.txt":      FormatAuto,
		"no-extension":   FormatAuto,
		"archive.srt.gz": FormatAuto,
	}
	for name, want := range tests {
		if got := GuessFormatByExt(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{"srt", "1\n00:00:01,000 --> 00:00:02,000\nx", FormatSRT},
		{"srt crlf", "\r\n1\r\n00:00:01.000 --> 00:00:02.000\r\nx", FormatSRT},
		{"ass header", "[Script Info]\nTitle: x", FormatASS},
		{"ass dialogue only", "Dialogue: 0,0:00:01.00,0:00:02.00,,,,,,,x", FormatASS},
		{"smi", "<SAMI><BODY><SYNC Start=0>x", FormatSMI},
		{"vtt", "WEBVTT\n\n00:01.000 --> 00:02.000\nx", FormatVTT},
		{"unknown defaults to srt", "hello", FormatSRT},
		// the SRT pattern wins over the SMI marker
		{"srt mentioning sync", "1\n00:00:01,000 --> 00:00:02,000\n<sync> is a word", FormatSRT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffFormat(tt.text); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLoadUsesExtensionBeforeSniffing(t *testing.T) {
	// ASS content in a file named .srt is parsed as SRT and yields nothing
	data := []byte("[Script Info]\n[Events]\nDialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,x\n")

	track := Load(data, "wrong.srt", "")
	if track.Format != FormatSRT {
		t.Errorf("expected srt, got %s", track.Format)
	}
	if len(track.Cues) != 0 {
		t.Errorf("expected no cues, got %d", len(track.Cues))
	}

	track = Load(data, "upload.bin", "")
	if track.Format != FormatASS {
		t.Errorf("expected ass, got %s", track.Format)
	}
	if len(track.Cues) != 1 {
		t.Errorf("expected 1 cue, got %d", len(track.Cues))
	}
}

func TestLoadGarbageYieldsNoCues(t *testing.T) {
	track := Load([]byte{0x00, 0xFF, 0x13, 0x37}, "x", "auto")
	if len(track.Cues) != 0 {
		t.Errorf("expected no cues, got %d", len(track.Cues))
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/does/not/exist.srt", ""); err == nil {
		t.Error("expected error for missing file")
	}
}
