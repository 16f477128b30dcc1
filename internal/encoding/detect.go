// Package encoding normalises uploaded text files to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF8BOM     Charset = "UTF-8 BOM"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO88599    Charset = "ISO-8859-9"
)

const sampleSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect guesses the charset of sample: a byte order mark wins, then valid
// UTF-8, then chardet's best guess, then Windows-1252.
func Detect(sample []byte) Charset {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return UTF8BOM
	case bytes.HasPrefix(sample, bomUTF16LE):
		return UTF16LE
	case bytes.HasPrefix(sample, bomUTF16BE):
		return UTF16BE
	case utf8.Valid(sample):
		return UTF8
	}

	if res, err := chardet.NewTextDetector().DetectBest(sample); err == nil {
		switch res.Charset {
		case "UTF-8":
			return UTF8
		case "ISO-8859-9":
			return ISO88599
		}
	}

	return Windows1252
}

func (c Charset) decoder() *xenc.Decoder {
	switch c {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	case ISO88599:
		return charmap.ISO8859_9.NewDecoder()
	}

	return nil
}

// NewUTF8Reader sniffs the start of r and returns a reader yielding UTF-8
// with any byte order mark removed, plus the charset it detected.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sampleSize)

	sample, err := br.Peek(sampleSize)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	cs := Detect(sample)

	if cs == UTF8BOM {
		_, _ = br.Discard(len(bomUTF8))
		return br, cs, nil
	}

	if dec := cs.decoder(); dec != nil {
		return transform.NewReader(br, dec), cs, nil
	}

	return br, cs, nil
}
