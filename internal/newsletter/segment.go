package newsletter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/wtldr/internal/model"
)

// titlePattern matches a normalized title section such as
// "MAJOR UPDATE SHIPS (6 MINUTE READ) [6]". The greedy title group leaves
// the last "(...) [n]" suffix to metadata and link id.
var titlePattern = regexp.MustCompile(`(?s)^(.*) \((.*)\) \[(\d+)\]$`)

// scanState tracks whether the section under the cursor was already used
// as the paragraph of the preceding title.
type scanState int

const (
	scanning scanState = iota
	consumed
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// normalizeSection flattens a section onto one line.
func normalizeSection(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

// Segment splits the body of m into article summaries. Each title section
// is paired with the section that follows it and resolved against the
// message's link table. Sections that are not titles are dropped.
//
// Segment fails as a whole on a missing link table (FormatError), a title
// referencing an unknown link (LinkResolutionError) or a title with no
// paragraph after it (TrailingTitleError).
func Segment(m *model.Message) ([]model.Summary, error) {
	links, err := ParseLinks(m.Body)
	if err != nil {
		return nil, err
	}

	sections := strings.Split(m.Body, strings.Repeat(lineEnding(m.Body), 2))

	var summaries []model.Summary
	state := scanning
	for i, section := range sections {
		if state == consumed {
			state = scanning
			continue
		}

		match := titlePattern.FindStringSubmatch(normalizeSection(section))
		if match == nil {
			continue
		}
		title, metadata := match[1], match[2]

		if i+1 >= len(sections) {
			return nil, &TrailingTitleError{Title: title}
		}
		paragraph := normalizeSection(sections[i+1])
		state = consumed

		linkID, err := strconv.Atoi(match[3])
		if err != nil {
			// Only reachable when the digits overflow int.
			return nil, &LinkResolutionError{Title: title, LinkID: -1}
		}
		url, ok := links[linkID]
		if !ok {
			return nil, &LinkResolutionError{Title: title, LinkID: linkID}
		}

		summaries = append(summaries, model.Summary{
			SourceMessageID: m.ID,
			Text:            title + " (" + metadata + ")\n" + paragraph,
			URL:             url,
			Kind:            model.SummaryKindTLDR,
		})
	}

	return summaries, nil
}
