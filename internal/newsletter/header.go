package newsletter

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// HeaderText is the result of decoding a header fragment. Decoded is false
// when the declared charset was unusable and Text is a best-effort rendering
// of the raw bytes.
type HeaderText struct {
	Text    string
	Decoded bool
}

// DecodeHeader decodes raw using the declared charset. It never fails: when
// the charset is empty, unknown, or does not fit the bytes, the raw bytes
// are returned with invalid UTF-8 sequences replaced.
func DecodeHeader(raw []byte, charset string) HeaderText {
	if text, ok := decodeCharset(raw, charset); ok {
		return HeaderText{Text: text, Decoded: true}
	}
	return HeaderText{Text: fallbackText(raw), Decoded: false}
}

func decodeCharset(raw []byte, charset string) (string, bool) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return "", false
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", false
	}

	// The x/text UTF-8 decoder substitutes invalid sequences instead of
	// failing, so validity is checked up front.
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

func fallbackText(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// encodedWordPattern matches one RFC 2047 encoded word.
var encodedWordPattern = regexp.MustCompile(`=\?([^?\s]+)\?([bBqQ])\?([^?\s]*)\?=`)

// DecodeHeaderValue decodes a full header value made of plain text and
// encoded words. It reports false if any fragment fell back to its raw form.
func DecodeHeaderValue(value string) (string, bool) {
	matches := encodedWordPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		h := DecodeHeader([]byte(value), "utf-8")
		return h.Text, h.Decoded
	}

	var b strings.Builder
	ok := true
	last := 0
	for i, m := range matches {
		gap := value[last:m[0]]
		// Whitespace between two adjacent encoded words is not displayed.
		if i == 0 || strings.TrimSpace(gap) != "" {
			h := DecodeHeader([]byte(gap), "utf-8")
			ok = ok && h.Decoded
			b.WriteString(h.Text)
		}

		word := value[m[0]:m[1]]
		charset := value[m[2]:m[3]]
		encoding := value[m[4]:m[5]]
		payload := value[m[6]:m[7]]

		raw, err := decodeWordPayload(encoding, payload)
		if err != nil {
			h := DecodeHeader([]byte(word), "")
			ok = false
			b.WriteString(h.Text)
		} else {
			// RFC 2231 allows a language suffix: charset*lang.
			if star := strings.IndexByte(charset, '*'); star >= 0 {
				charset = charset[:star]
			}
			h := DecodeHeader(raw, charset)
			ok = ok && h.Decoded
			b.WriteString(h.Text)
		}
		last = m[1]
	}

	h := DecodeHeader([]byte(value[last:]), "utf-8")
	ok = ok && h.Decoded
	b.WriteString(h.Text)

	return b.String(), ok
}

// decodeWordPayload undoes the B or Q transfer encoding of an encoded word,
// leaving the bytes in their declared charset.
func decodeWordPayload(encoding, payload string) ([]byte, error) {
	switch strings.ToUpper(encoding) {
	case "B":
		return base64.StdEncoding.DecodeString(payload)
	default:
		return decodeQ(payload)
	}
}

var errBadQEscape = errors.New("malformed =XX escape in Q-encoded word")

// decodeQ decodes the RFC 2047 Q encoding: "_" is a space and "=XX" is a
// hex byte. Unlike quoted-printable bodies there are no soft line breaks,
// and trailing spaces are kept.
func decodeQ(payload string) ([]byte, error) {
	out := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i++ {
		switch c := payload[i]; c {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(payload) {
				return nil, errBadQEscape
			}
			b, err := hex.DecodeString(payload[i+1 : i+3])
			if err != nil {
				return nil, errBadQEscape
			}
			out = append(out, b[0])
			i += 2
		default:
			out = append(out, c)
		}
	}
	return out, nil
}
