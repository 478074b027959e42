package parsers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// emptyMarkers are completions that carry no answer even though they are not blank.
var emptyMarkers = []string{"{}", "[]", "null", "no generation", "no generation chunks"}

// IsEmptyGeneration reports whether a completion should be treated as no output.
func IsEmptyGeneration(content string) bool {
	c := strings.ToLower(strings.TrimSpace(Clean(content)))
	if c == "" {
		return true
	}
	for _, m := range emptyMarkers {
		if c == m {
			return true
		}
	}
	return false
}

// Clean strips reasoning blocks and a surrounding markdown code fence.
func Clean(content string) string {
	c := thinkBlock.ReplaceAllString(content, "")
	c = strings.TrimSpace(c)
	if m := codeFence.FindStringSubmatch(c); m != nil {
		c = strings.TrimSpace(m[1])
	}
	return c
}

// ExtractObject returns the outermost JSON object of a completion.
func ExtractObject(content string) (string, error) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = truncate(content, maxContentLen)
	}
	if IsEmptyGeneration(content) {
		return "", errx.ErrEmptyGeneration
	}
	c := Clean(content)
	start := strings.Index(c, "{")
	end := strings.LastIndex(c, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no json object in %q", errx.ErrMalformedOutput, safeSnippet(c))
	}
	return c[start : end+1], nil
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrSnippet {
		return truncate(s, maxErrSnippet) + "..."
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
