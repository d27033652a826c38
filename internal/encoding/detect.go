// Package encoding converts exported backup files of unknown charset to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

// Charset is the encoding a file was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader returns a reader yielding r as UTF-8 together with the
// charset it was decoded from. A byte order mark wins; otherwise valid UTF-8
// passes through untouched, then chardet's best guess is used when the
// charset is known, and Windows-1252 is the last resort.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peeking input: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(head, bomUTF16LE):
		return decode(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)), UTF16LE, nil
	case bytes.HasPrefix(head, bomUTF16BE):
		return decode(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)), UTF16BE, nil
	}

	if validPrefix(head, len(head) == sniffLen) {
		return br, UTF8, nil
	}

	if charset, enc, ok := guess(head); ok {
		if enc == nil {
			return br, charset, nil
		}

		return decode(br, enc), charset, nil
	}

	return decode(br, charmap.Windows1252), Windows1252, nil
}

// ReadAllUTF8 decodes all of r.
func ReadAllUTF8(r io.Reader) ([]byte, Charset, error) {
	dec, charset, err := NewUTF8Reader(r)
	if err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s input: %w", charset, err)
	}

	return data, charset, nil
}

func decode(r io.Reader, enc textencoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// validPrefix reports whether buf is UTF-8. A truncated buffer may end in the
// middle of a rune, which is tolerated.
func validPrefix(buf []byte, truncated bool) bool {
	if utf8.Valid(buf) {
		return true
	}

	if !truncated {
		return false
	}

	for cut := 1; cut < utf8.UTFMax && cut < len(buf); cut++ {
		if utf8.Valid(buf[:len(buf)-cut]) {
			return true
		}
	}

	return false
}

// guess asks chardet for the charset. A nil encoding means no conversion.
func guess(buf []byte) (Charset, textencoding.Encoding, bool) {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil || result == nil {
		return "", nil, false
	}

	name := strings.ToLower(result.Charset)

	switch name {
	case "utf-8", "ascii":
		return UTF8, nil, true
	case "iso-8859-1":
		// Most "Latin-1" exports are really Windows-1252.
		return Windows1252, charmap.Windows1252, true
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", nil, false
	}

	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = name
	}

	return Charset(canonical), enc, true
}
