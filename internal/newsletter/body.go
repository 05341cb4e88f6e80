package newsletter

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/emersion/go-message"
	// Registers the x/text charsets with go-message so non UTF-8 parts are
	// converted while they are read.
	_ "github.com/emersion/go-message/charset"
)

// ExtractBody returns the text of e. For a multipart entity the parts are
// walked depth-first in order and the first leaf whose content reads
// cleanly as UTF-8 wins; parts that fail are skipped. Content types are not
// consulted. The boolean is false when nothing could be decoded.
func ExtractBody(e *message.Entity) (string, bool) {
	if e == nil {
		return "", false
	}
	return firstDecodable(e)
}

func firstDecodable(e *message.Entity) (string, bool) {
	mr := e.MultipartReader()
	if mr == nil {
		return readText(e.Body)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil && !isUnknownContent(err) {
			// The multipart structure itself is broken past this point.
			return "", false
		}
		if part == nil {
			continue
		}
		if text, ok := firstDecodable(part); ok {
			return text, true
		}
	}
}

func readText(r io.Reader) (string, bool) {
	if r == nil {
		return "", false
	}
	b, err := io.ReadAll(r)
	if err != nil || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// isUnknownContent reports go-message's non-fatal errors: the entity is
// still usable but its charset or transfer encoding was left as is.
func isUnknownContent(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
