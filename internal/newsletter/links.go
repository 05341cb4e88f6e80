package newsletter

import (
	"regexp"
	"strconv"
	"strings"
)

// linkLinePattern matches one link table entry: "[12] https://example.com".
var linkLinePattern = regexp.MustCompile(`^\[(\d+)\] (\S+)$`)

// lineEnding returns the line terminator a body uses: CRLF when it contains
// any, LF otherwise.
func lineEnding(body string) string {
	if strings.Contains(body, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// trailerPattern matches the "Links:" line and the dashed line under it.
func trailerPattern(eol string) *regexp.Regexp {
	e := regexp.QuoteMeta(eol)
	return regexp.MustCompile(`(?m)^Links:` + e + `-+(?:` + e + `|\z)`)
}

var (
	crlfTrailer = trailerPattern("\r\n")
	lfTrailer   = trailerPattern("\n")
)

// ParseLinks reads the footnote table at the end of body. It returns a
// FormatError when the "Links:" trailer is missing; a body without a
// trailer is malformed, not a body without links.
func ParseLinks(body string) (map[int]string, error) {
	eol := lineEnding(body)
	marker := lfTrailer
	if eol == "\r\n" {
		marker = crlfTrailer
	}

	loc := marker.FindStringIndex(body)
	if loc == nil {
		return nil, &FormatError{Field: "body", Reason: "link table marker not found"}
	}

	links := make(map[int]string)
	for _, line := range strings.Split(body[loc[1]:], eol) {
		m := linkLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		links[id] = m[2]
	}

	return links, nil
}
