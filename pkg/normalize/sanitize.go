package normalize

import (
	"regexp"
	"strings"

	"github.com/forPelevin/gomoji"
)

// Column limits enforced by the sink schema.
const (
	MaxBioLen         = 2000
	MaxCaptionLen     = 4000
	MaxDisplayNameLen = 200
)

var (
	mentionRe    = regexp.MustCompile(`@\S+`)
	urlRe        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	noiseRe      = regexp.MustCompile(`[|#&/]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeText runs the fixed cleaning pipeline on free-form platform
// text: emoji, @mentions and bare URLs are removed, noise characters
// become spaces, whitespace is collapsed, the result is trimmed and
// truncated to limit. The pipeline is idempotent.
func SanitizeText(s string, limit int) string {
	s = gomoji.RemoveEmojis(s)
	s = mentionRe.ReplaceAllString(s, "")
	s = urlRe.ReplaceAllString(s, "")
	s = noiseRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return Truncate(s, limit)
}

// SanitizeBio cleans a profile biography.
func SanitizeBio(s string) string {
	return SanitizeText(s, MaxBioLen)
}

// SanitizeCaption cleans a post caption.
func SanitizeCaption(s string) string {
	return SanitizeText(s, MaxCaptionLen)
}

// SanitizeDisplayName cleans a profile display name.
func SanitizeDisplayName(s string) string {
	return SanitizeText(s, MaxDisplayNameLen)
}

// Truncate cuts s to at most limit runes without splitting a rune.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ClampCount maps negative or missing counts to zero.
func ClampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
