package normalize

import (
	"regexp"
	"strings"
)

var spaces = regexp.MustCompile(`\s+`)

type Options struct {
	TrimNBSP        bool
	CollapseSpaces  bool
	MaxPreviewChars int
}

type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Text cleans visible text read from the page.
func (n *Normalizer) Text(text string) string {
	if n.opts.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}
	if n.opts.CollapseSpaces {
		text = spaces.ReplaceAllString(text, " ")
	}
	return strings.TrimSpace(text)
}

// TruncatePreview shortens text to MaxPreviewChars runes, cutting at the last
// space when possible. Zero disables truncation.
func (n *Normalizer) TruncatePreview(text string) string {
	limit := n.opts.MaxPreviewChars
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	// Reserve one rune for the ellipsis.
	truncated := string(runes[:limit-1])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "…"
}
