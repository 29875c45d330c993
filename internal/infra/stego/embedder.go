package stego

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"

	"veritas/internal/domain"
)

const (
	markerStart  = "---CERT-VERIFY-START---"
	markerEnd    = "---CERT-VERIFY-END---"
	dataStart    = "CERTDATA:"
	dataEnd      = ":ENDDATA"
	base64Start  = "METADATA"
	base64End    = "ENDMETA"
	hiddenMargin = 10.0
)

// HiddenTextWriter places text that is present in the document's text layer
// but not meant to be seen. x and y are page coordinates.
type HiddenTextWriter interface {
	HiddenText(x, y float64, s string)
}

// TripleEmbedder writes the metadata three times under different framing so
// a partial overwrite or a lossy extractor still leaves one readable copy.
type TripleEmbedder struct {
	// Y is the baseline of the first copy; the other two follow below it.
	Y float64
}

func NewTripleEmbedder(pageHeight float64) *TripleEmbedder {
	return &TripleEmbedder{Y: pageHeight - 4}
}

func (e *TripleEmbedder) Embed(w HiddenTextWriter, meta domain.EmbeddedMetadata) error {
	payload, err := EncodeASCII(meta)
	if err != nil {
		return err
	}
	w.HiddenText(hiddenMargin, e.Y-2, markerStart+payload+markerEnd)
	w.HiddenText(hiddenMargin+40, e.Y-1, dataStart+payload+dataEnd)
	w.HiddenText(hiddenMargin+80, e.Y, base64Start+base64.StdEncoding.EncodeToString([]byte(payload))+base64End)
	return nil
}

type framing struct {
	start  string
	end    string
	decode func(string) ([]byte, error)
}

var framings = []framing{
	{start: markerStart, end: markerEnd, decode: plain},
	{start: dataStart, end: dataEnd, decode: plain},
	{start: base64Start, end: base64End, decode: base64.StdEncoding.DecodeString},
}

func plain(s string) ([]byte, error) { return []byte(s), nil }

// Extract tries each framing in embedding order and returns the first copy
// that decodes into metadata.
func (e *TripleEmbedder) Extract(text string) (*domain.EmbeddedMetadata, bool) {
	for _, f := range framings {
		for _, candidate := range between(text, f.start, f.end) {
			raw, err := f.decode(strings.TrimSpace(candidate))
			if err != nil {
				continue
			}
			var meta domain.EmbeddedMetadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				continue
			}
			if meta.CanonicalJSON == "" && meta.Hash == "" {
				continue
			}
			return &meta, true
		}
	}
	return nil, false
}

func between(text, start, end string) []string {
	var out []string
	rest := text
	for {
		i := strings.Index(rest, start)
		if i < 0 {
			return out
		}
		rest = rest[i+len(start):]
		j := strings.Index(rest, end)
		if j < 0 {
			return out
		}
		out = append(out, rest[:j])
	}
}

// EncodeASCII marshals v to JSON with every non-ASCII rune escaped, so the
// text survives fonts limited to a single-byte encoding.
func EncodeASCII(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range string(raw) {
		switch {
		case r < 0x80:
			b.WriteRune(r)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String(), nil
}
