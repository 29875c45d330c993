package pdftext

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"veritas/internal/domain"

	"github.com/digitorus/pdf"
	"github.com/sirupsen/logrus"
)

// Extractor returns the concatenated text layer of a PDF.
type Extractor struct {
	Log logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Extractor {
	return &Extractor{Log: log}
}

// Text returns the literal string operands of every content stream, byte
// for byte. The structured reader is only consulted when no operand was
// found: it rebuilds text from glyph runs and drops space glyphs, which
// breaks anything that must be hashed.
func (e *Extractor) Text(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrInvalidDocument)
	}
	if text := RawText(doc); text != "" {
		return text, nil
	}
	text, err := structuredText(doc)
	if err != nil {
		if e.Log != nil {
			e.Log.WithError(err).Debug("structured text extraction failed")
		}
		return "", nil
	}
	return text, nil
}

func structuredText(doc []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()
	rdr, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= rdr.NumPage(); i++ {
		page := rdr.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, t := range page.Content().Text {
			b.WriteString(t.S)
		}
	}
	return b.String(), nil
}

// RawText inflates every stream it can and collects the operands of text
// showing operators. It never fails; unreadable input yields "".
func RawText(doc []byte) string {
	var b strings.Builder
	rest := doc
	for {
		i := bytes.Index(rest, []byte("stream"))
		if i < 0 {
			break
		}
		body := rest[i+len("stream"):]
		body = bytes.TrimLeft(body, "\r\n")
		end := bytes.Index(body, []byte("endstream"))
		if end < 0 {
			break
		}
		data := body[:end]
		rest = body[end+len("endstream"):]
		if inflated, err := inflate(data); err == nil {
			data = inflated
		}
		collectStrings(&b, data)
	}
	return b.String()
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// collectStrings appends every literal string that is followed by a text
// showing operator (Tj, TJ, ' or ").
func collectStrings(b *strings.Builder, content []byte) {
	var pending []string
	for i := 0; i < len(content); i++ {
		switch c := content[i]; {
		case c == '(':
			s, next := literal(content, i+1)
			pending = append(pending, s)
			i = next - 1
		case c == '%':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case isOperatorStart(c):
			j := i
			for j < len(content) && isRegular(content[j]) {
				j++
			}
			switch string(content[i:j]) {
			case "Tj", "TJ", "'", "\"":
				for _, s := range pending {
					b.WriteString(s)
				}
			}
			pending = pending[:0]
			i = j - 1
		}
	}
}

func isOperatorStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '\'' || c == '"'
}

func isRegular(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}

// literal decodes a PDF literal string starting after the opening paren and
// returns the index just past the closing paren.
func literal(content []byte, i int) (string, int) {
	var out []byte
	depth := 1
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			i++
			if i >= len(content) {
				return string(out), i
			}
			switch e := content[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if i+1 < len(content) && content[i+1] == '\n' {
					i++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := 0
					k := 0
					for k < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7' {
						v = v*8 + int(content[i]-'0')
						i++
						k++
					}
					out = append(out, byte(v))
					continue
				}
				out = append(out, e)
			}
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return string(out), i + 1
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
		i++
	}
	return string(out), i
}
