// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/ulsconnect/ulsconnect/internal/domain/models"
)

// Email lowercases and trims an email address for storage and lookups.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal runs of whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns a case- and accent-insensitive form of s, used for search.
func Fold(s string) string {
	return text.Fold(s)
}

// RegexQuote escapes regex metacharacters so free-form search input is
// matched literally inside a Mongo regex query.
func RegexQuote(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, m := range meta {
			if r == m {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}

// Role maps a requested role, including the legacy English aliases, onto one
// of the stored role values. It returns "" when the input is not a known
// role.
func Role(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.RoleEstudiante, "student":
		return models.RoleEstudiante
	case models.RoleStaff, "coordinator":
		return models.RoleStaff
	case models.RoleAdmin:
		return models.RoleAdmin
	}
	return ""
}
