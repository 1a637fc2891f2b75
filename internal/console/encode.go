package console

import (
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// utf16LE matches the wide-character contract of the console API.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeUTF16 converts UTF-8 text to UTF-16 code units. Invalid UTF-8 is
// rejected with an *EncodingError instead of being replaced.
func EncodeUTF16(text string) ([]uint16, error) {
	if off := invalidOffset(text); off >= 0 {
		return nil, &EncodingError{Offset: off}
	}
	if text == "" {
		return []uint16{}, nil
	}

	raw, err := utf16LE.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, err
	}

	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return units, nil
}

// DecodeUTF16 converts code units read back from the console to UTF-8.
// Unpaired surrogates become U+FFFD.
func DecodeUTF16(units []uint16) string {
	if len(units) == 0 {
		return ""
	}

	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}

	out, err := utf16LE.NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(out)
}

// invalidOffset returns the byte offset of the first invalid UTF-8
// sequence in s, or -1.
func invalidOffset(s string) int {
	if utf8.ValidString(s) {
		return -1
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
