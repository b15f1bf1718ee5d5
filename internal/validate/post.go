// Package validate holds the synchronous form checks run before any backend call.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/and161185/blogbox/internal/errs"
)

// MinTitleLen is the shortest accepted trimmed title, in characters.
const MinTitleLen = 3

// reImageURL requires a scheme, a host part and at least one path segment.
var reImageURL = regexp.MustCompile(`^https?://.+/.+$`)

// Post checks a post form and reports the first failing rule.
func Post(title, description, imageURL string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return errs.Invalid(errs.EmptyTitle)
	}
	if utf8.RuneCountInString(t) < MinTitleLen {
		return errs.Invalid(errs.TitleTooShort)
	}
	if strings.TrimSpace(description) == "" {
		return errs.Invalid(errs.EmptyDescription)
	}
	u := strings.TrimSpace(imageURL)
	if u == "" {
		return errs.Invalid(errs.EmptyImageURL)
	}
	if !reImageURL.MatchString(u) {
		return errs.Invalid(errs.InvalidImageURL)
	}
	return nil
}
