package newsletter

import (
	"errors"
	"fmt"
)

// FormatError reports input that does not have the newsletter's expected
// shape: a malformed Date header or a body without a link table.
type FormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("format error (%s): %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("format error (%s %q): %s", e.Field, e.Value, e.Reason)
}

// IsFormatError reports whether err (or any error in its chain) is a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// LinkResolutionError is returned when a title references a footnote id
// that the message's link table does not contain.
type LinkResolutionError struct {
	Title  string
	LinkID int
}

func (e *LinkResolutionError) Error() string {
	return fmt.Sprintf("no link [%d] for title %q", e.LinkID, e.Title)
}

// IsLinkResolutionError reports whether err (or any error in its chain) is a
// LinkResolutionError.
func IsLinkResolutionError(err error) bool {
	var linkErr *LinkResolutionError
	return errors.As(err, &linkErr)
}

// TrailingTitleError is returned when the last section of a body is a
// title with no paragraph after it.
type TrailingTitleError struct {
	Title string
}

func (e *TrailingTitleError) Error() string {
	return fmt.Sprintf("title %q has no paragraph", e.Title)
}

// IsTrailingTitleError reports whether err (or any error in its chain) is a
// TrailingTitleError.
func IsTrailingTitleError(err error) bool {
	var trailingErr *TrailingTitleError
	return errors.As(err, &trailingErr)
}
