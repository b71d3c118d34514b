package subtitle

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

// identifies which rule of the decode chain produced the text
type DecodeStep int

const (
	StepBOM DecodeStep = iota + 1
	StepDeclared
	StepUTF8
	StepUTF16Heuristic
	StepEUCKR
	StepLatin1
	StepBytes
)

func (s DecodeStep) String() string {
	switch s {
	case StepBOM:
		return "bom"
	case StepDeclared:
		return "declared"
	case StepUTF8:
		return "utf-8"
	case StepUTF16Heuristic:
		return "utf-16-heuristic"
	case StepEUCKR:
		return "euc-kr"
	case StepLatin1:
		return "windows-1252"
	case StepBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// decoded text plus the encoding and rule that produced it
type Decoded struct {
	Text     string
	Encoding string
	Step     DecodeStep
}

// Decode converts raw subtitle bytes to text. It never fails: every input
// yields a string, degrading to a byte-per-rune mapping as a last resort.
func Decode(data []byte, declared string) string {
	return DecodeDetailed(data, declared).Text
}

// DecodeDetailed is Decode plus the encoding that was settled on.
func DecodeDetailed(data []byte, declared string) Decoded {
	if d, ok := decodeBOM(data); ok {
		return d
	}

	if label := strings.TrimSpace(declared); label != "" &&
		!strings.EqualFold(label, "auto") {
		if text, name, ok := decodeDeclared(data, label); ok {
			return Decoded{Text: text, Encoding: name, Step: StepDeclared}
		}
	}

	if utf8.Valid(data) {
		return Decoded{Text: string(data), Encoding: "utf-8", Step: StepUTF8}
	}

	// damaged input keeps its replacement characters rather than falling
	// through to a single-byte decoder
	if looksLikeUTF16(data) {
		for _, cand := range utf16Candidates {
			if text, err := decodeWith(cand.enc, data); err == nil {
				return Decoded{Text: text, Encoding: cand.name, Step: StepUTF16Heuristic}
			}
		}
	}

	if text, err := decodeWith(korean.EUCKR, data); err == nil &&
		!strings.ContainsRune(text, utf8.RuneError) {
		return Decoded{Text: text, Encoding: "euc-kr", Step: StepEUCKR}
	}

	if text, err := decodeWith(charmap.Windows1252, data); err == nil {
		return Decoded{Text: text, Encoding: "windows-1252", Step: StepLatin1}
	}

	return Decoded{Text: bytesToRunes(data), Encoding: "bytes", Step: StepBytes}
}

// DetectCharset reports chardet's best guess for data. Diagnostic only;
// Decode never consults it.
func DetectCharset(data []byte) (string, int) {
	if len(data) == 0 {
		return "", 0
	}
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil {
		return "", 0
	}
	return res.Charset, res.Confidence
}

func decodeBOM(data []byte) (Decoded, bool) {
	_, enc := utfbom.Skip(bytes.NewReader(data))
	switch enc {
	case utfbom.UTF8:
		return Decoded{
			Text:     strings.ToValidUTF8(string(data[3:]), "\uFFFD"),
			Encoding: "utf-8",
			Step:     StepBOM,
		}, true
	// FF FE 00 00 is also read as UTF-16LE; only the two-byte marker is stripped
	case utfbom.UTF16LittleEndian, utfbom.UTF32LittleEndian:
		text, _ := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data[2:])
		return Decoded{Text: text, Encoding: "utf-16le", Step: StepBOM}, true
	case utfbom.UTF16BigEndian:
		text, _ := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data[2:])
		return Decoded{Text: text, Encoding: "utf-16be", Step: StepBOM}, true
	}
	return Decoded{}, false
}

func decodeDeclared(data []byte, label string) (string, string, bool) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		switch strings.ToLower(label) {
		case "cp949", "ms949", "uhc", "windows-949":
			enc, label = korean.EUCKR, "euc-kr"
		default:
			return "", "", false
		}
	}
	if name, err := htmlindex.Name(enc); err == nil {
		label = name
	}
	text, err := decodeWith(enc, data)
	if err != nil {
		return "", "", false
	}
	return text, label, true
}

// more than a quarter of the byte pairs contain a NUL byte
func looksLikeUTF16(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	zeros := 0
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 || data[i+1] == 0 {
			zeros++
		}
	}
	return zeros*4 > len(data)
}

type utf16Candidate struct {
	name string
	enc  encoding.Encoding
}

// little-endian first, then big-endian
var utf16Candidates = []utf16Candidate{
	{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func bytesToRunes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, b := range data {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
