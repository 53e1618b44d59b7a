package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var dashRuns = regexp.MustCompile("-+")

// GenerateFilename builds a default export file name from the entity and
// format, e.g. "issues-20240301T154500Z.csv". The timestamp is UTC, which
// keeps names collision-free enough for operator use.
func GenerateFilename(entity, format string) string {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	return fmt.Sprintf("%s-%s.%s", sanitizeEntity(entity), stamp, format)
}

// sanitizeEntity reduces an entity name to lowercase alphanumerics, dashes
// and underscores.
func sanitizeEntity(entity string) string {
	s := strings.ToLower(strings.TrimSpace(entity))
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	s = dashRuns.ReplaceAllString(b.String(), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "export"
	}
	return s
}
