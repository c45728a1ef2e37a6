// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Clean strips all HTML from user-supplied free text (descriptions, notes,
// cancellation reasons) before it is stored.
func Clean(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
