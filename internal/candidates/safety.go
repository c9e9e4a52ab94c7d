// Package candidates executes LLM-generated SQL against the candidate
// store. Every statement passes through the safety gate first; it is the
// only barrier between the model and the database.
package candidates

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsafeQuery means a generated statement failed the safety gate.
var ErrUnsafeQuery = eris.New("candidates: unsafe query")

// blockedKeywords matches any mutating or DDL keyword as a whole word,
// case-insensitively.
var blockedKeywords = regexp.MustCompile(`(?i)\b(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE|EXEC)\b`)

// IsSafeQuery reports whether sql is a read-only SELECT. It must be applied
// to every generated statement prior to execution, including relaxation
// queries.
func IsSafeQuery(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return false
	}
	return !blockedKeywords.MatchString(trimmed)
}
