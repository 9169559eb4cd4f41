package lyrics

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// page furniture which scraped text tends to carry along
var cleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s*contributors?`),
	regexp.MustCompile(`(?i)\btranslations?(?:\s*(?:english|español|espanol|français|francais|deutsch|português|portugues|italiano|русский|türkçe|turkce|polski|nederlands|svenska|日本語|한국어|中文))*`),
	regexp.MustCompile(`(?i)genius\s+lyrics|azlyrics(?:\.com)?|musixmatch(?:\.com)?|songlyrics(?:\.com)?|lyrics\.com`),
	regexp.MustCompile(`(?i)(?:copyright|©|\(c\))[^\n]*|all rights reserved[^\n]*|lyrics (?:licensed|provided)\b[^\n]*`),
	regexp.MustCompile(`(?i)\d*\s*embed\b|\byou might also like\b|\bsee [^\n]{1,40} live\b|\bget tickets as low as \$\d+|\bsubmit corrections\b|\bread more\b`),
	regexp.MustCompile(`https?://\S+|www\.\S+`),
}

var (
	cleanSpaceRun  = regexp.MustCompile(`[ \t]{2,}`)
	cleanBlankRuns = regexp.MustCompile(`\n{3,}`)
	cleanNumeric   = regexp.MustCompile(`^\d+$`)
)

// Clean strips site chrome from scraped lyrics. It is a heuristic: it can leave chrome behind and can
// drop genuine short lines.
//
// Lines which were blank to begin with separate stanzas and are kept, at most one in a row. Lines left
// empty by the cleaning are dropped with the rest of the noise.
func Clean(title, text string) string {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))

	patterns := cleanPatterns
	if title = strings.TrimSpace(title); title != "" {
		patterns = append(patterns[:len(patterns):len(patterns)], regexp.MustCompile(`(?i)^\s*`+regexp.QuoteMeta(title)+`\s+lyrics\b`))
	}
	patterns = append(patterns[:len(patterns):len(patterns)], cleanSpaceRun)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			kept = append(kept, "")
			continue
		}
		for _, re := range patterns {
			line = re.ReplaceAllString(line, " ")
		}
		if line = strings.TrimSpace(line); line == "" || dropLine(line) {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	out = cleanBlankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func dropLine(line string) bool {
	if cleanNumeric.MatchString(line) {
		return true
	}
	if strings.IndexFunc(line, func(r rune) bool { return !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) }) < 0 {
		return true
	}
	if utf8.RuneCountInString(line) < 3 && strings.IndexFunc(line, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
		return true
	}
	return false
}
