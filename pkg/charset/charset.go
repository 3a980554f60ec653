// Package charset guesses the text encoding of raw file contents and decodes them to
// UTF-8. Contents with no usable encoding are reported as binary.
package charset

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// DefaultMinConfidence is the lowest detector confidence (0-100) accepted as an encoding.
const DefaultMinConfidence = 10

// ErrBinary is returned when no usable text encoding was found.
var ErrBinary = errors.New("no usable text encoding")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// Detector labels that are not WHATWG labels known to x/net/html/charset.
var labelAliases = map[string]string{
	"gb-18030": "gb18030",
}

// Result is a successful decode.
type Result struct {
	Text       string // Decoded contents.
	Charset    string // Name of the encoding used.
	Confidence int    // Detector confidence, 100 for BOM and UTF-8 fast paths.
}

// Decoder classifies and decodes raw bytes.
type Decoder struct {
	MinConfidence int
	detector      *chardet.Detector
}

// NewDecoder returns a Decoder using DefaultMinConfidence.
func NewDecoder() *Decoder {
	return &Decoder{
		MinConfidence: DefaultMinConfidence,
		detector:      chardet.NewTextDetector(),
	}
}

// Decode returns the decoded text of data or ErrBinary. Byte sequences that are invalid
// in the chosen encoding become U+FFFD instead of failing the decode. Line endings in the
// text are normalized to "\n".
func (d *Decoder) Decode(data []byte) (Result, error) {
	res, err := d.decode(data)
	if err != nil {
		return Result{}, err
	}
	res.Text = normalizeNewlines(res.Text)
	return res, nil
}

func (d *Decoder) decode(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{Charset: "UTF-8", Confidence: 100}, nil
	}

	if enc, name, bomLen := sniffBOM(data); enc != nil {
		return decodeWith(enc, name, 100, data[bomLen:])
	}

	// Without a BOM, NUL bytes mean binary content.
	if bytes.IndexByte(data, 0) >= 0 {
		return Result{}, ErrBinary
	}

	if utf8.Valid(data) {
		return Result{Text: string(data), Charset: "UTF-8", Confidence: 100}, nil
	}

	guess, err := d.detector.DetectBest(data)
	if err != nil || guess == nil {
		return Result{}, ErrBinary
	}
	if guess.Confidence < d.MinConfidence {
		return Result{}, ErrBinary
	}

	enc, name := lookup(guess.Charset)
	if enc == nil {
		return Result{}, ErrBinary
	}

	return decodeWith(enc, name, guess.Confidence, data)
}

// normalizeNewlines turns "\r\n" and lone "\r" into "\n".
func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")
}

func decodeWith(enc encoding.Encoding, name string, confidence int, data []byte) (Result, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return Result{}, ErrBinary
	}
	return Result{Text: string(out), Charset: name, Confidence: confidence}, nil
}

func sniffBOM(data []byte) (encoding.Encoding, string, int) {
	switch {
	case bytes.HasPrefix(data, bomUTF32BE):
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), "UTF-32BE", len(bomUTF32BE)
	case bytes.HasPrefix(data, bomUTF32LE):
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), "UTF-32LE", len(bomUTF32LE)
	case bytes.HasPrefix(data, bomUTF8):
		return unicode.UTF8, "UTF-8", len(bomUTF8)
	case bytes.HasPrefix(data, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), "UTF-16BE", len(bomUTF16BE)
	case bytes.HasPrefix(data, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), "UTF-16LE", len(bomUTF16LE)
	}
	return nil, "", 0
}

// lookup maps a detector label to an encoding. The WHATWG "replacement" encoding is
// rejected because it decodes every input to a single U+FFFD.
func lookup(label string) (encoding.Encoding, string) {
	key := strings.ToLower(label)
	switch key {
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), "UTF-32BE"
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), "UTF-32LE"
	}
	if alias, ok := labelAliases[key]; ok {
		key = alias
	}

	enc, name := htmlcharset.Lookup(key)
	if enc == nil || name == "replacement" {
		return nil, ""
	}
	return enc, name
}
