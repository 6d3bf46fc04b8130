// Package reply separates the freshly written part of an email reply from
// quoted history and signatures.
package reply

import (
	"regexp"
	"strings"

	"github.com/mailgatehq/mailgate/internal/mailparse"
)

var (
	attributionRe = regexp.MustCompile(`(?i)^on\s.+wrote:$`)
	separatorRe   = regexp.MustCompile(`(?i)^-+\s*original message\s*-+$`)
	underscoreRe  = regexp.MustCompile(`^_{8,}$`)
)

type Stripper struct{}

func NewStripper() *Stripper { return &Stripper{} }

func (s *Stripper) ExtractReply(msg *mailparse.Message) string {
	return StripQuotes(msg.Body)
}

// StripQuotes removes the trailing quoted block, its attribution line, and
// anything below a signature or forwarding separator. Quoted lines with fresh
// text after them are interleaved replies and stay untouched.
func StripQuotes(body string) string {
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	cut := len(lines)
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case isSignatureDelimiter(trimmed), isSeparator(trimmed):
			cut = i
		case attributionRe.MatchString(trimmed) && quotedThrough(lines, i+1):
			cut = i
		case strings.HasPrefix(trimmed, ">") && quotedThrough(lines, i):
			cut = i
		default:
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines[:cut], "\n"))
}

// quotedThrough reports whether every non-blank line from i onward is quoted.
func quotedThrough(lines []string, i int) bool {
	seen := false
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ">") {
			return false
		}
		seen = true
	}
	return seen
}

func isSignatureDelimiter(trimmed string) bool {
	return trimmed == "--"
}

func isSeparator(trimmed string) bool {
	return separatorRe.MatchString(trimmed) || underscoreRe.MatchString(trimmed)
}
