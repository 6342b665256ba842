package subtitles

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

const encodingUTF8 = "utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder converts uploaded subtitle bytes to UTF-8 text.
type Decoder struct {
	fallback     encoding.Encoding
	fallbackName string
}

// NewDecoder resolves the fallback charset by IANA or WHATWG name.
func NewDecoder(fallbackName string) (*Decoder, error) {
	name := strings.ToLower(strings.TrimSpace(fallbackName))
	if name == "" {
		return &Decoder{fallback: charmap.Windows1251, fallbackName: "windows-1251"}, nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return &Decoder{fallback: enc, fallbackName: name}, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// FallbackName returns the configured legacy charset name.
func (d *Decoder) FallbackName() string { return d.fallbackName }

// Decode returns data as UTF-8 text along with the name of the encoding it
// was read as. Valid UTF-8 (with any byte order mark stripped) is returned
// unchanged; anything else is decoded with the fallback charset.
func (d *Decoder) Decode(data []byte) (string, string, error) {
	trimmed := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(trimmed) {
		return string(trimmed), encodingUTF8, nil
	}
	out, err := d.fallback.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decode as %s: %w", d.fallbackName, err)
	}
	return string(out), d.fallbackName, nil
}
