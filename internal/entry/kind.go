package entry

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Kind classifies an entry's content at creation time.
type Kind string

const (
	KindText      Kind = "text"
	KindURL       Kind = "url"
	KindCode      Kind = "code"
	KindShortText Kind = "shortText"
	KindLongText  Kind = "longText"
)

const (
	shortTextMax = 50
	longTextMin  = 500
)

// ClassifyKind tags content with a Kind. The heuristics are intentionally
// cheap: a single-line parseable http(s)/file URL, multi-line text that looks
// like source code, then length buckets.
func ClassifyKind(content string) Kind {
	trimmed := strings.TrimSpace(content)
	multiline := strings.ContainsRune(trimmed, '\n')

	if !multiline && isURL(trimmed) {
		return KindURL
	}
	if multiline && looksLikeCode(trimmed) {
		return KindCode
	}

	n := utf8.RuneCountInString(trimmed)
	switch {
	case !multiline && n <= shortTextMax:
		return KindShortText
	case n > longTextMin:
		return KindLongText
	default:
		return KindText
	}
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// looksLikeCode checks for indented continuation lines or a high density of
// statement punctuation.
func looksLikeCode(s string) bool {
	lines := strings.Split(s, "\n")
	indented := 0
	punct := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "    ") {
			indented++
		}
		t := strings.TrimSpace(line)
		if strings.HasSuffix(t, "{") || strings.HasSuffix(t, "}") ||
			strings.HasSuffix(t, ";") || strings.HasSuffix(t, ":") {
			punct++
		}
	}
	return indented*2 >= len(lines) || punct*2 >= len(lines)
}
