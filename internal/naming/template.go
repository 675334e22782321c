package naming

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// MissingPlaceholder substitutes for season or episode tokens when the
// extractor found nothing. Templates always expand deterministically.
const MissingPlaceholder = "XX"

const defaultPadWidth = 2

// bracedTokenRx matches {season}, {episode}, {quality} with an optional
// explicit zero-pad width, e.g. {episode:3}.
var bracedTokenRx = regexp.MustCompile(`(?i)\{(season|episode|quality)(?::(\d))?\}`)

// bareTokenRx matches the bare-word aliases accepted by older templates.
var bareTokenRx = regexp.MustCompile(`(?i)\b(season|episode|quality)\b`)

// ApplyTemplate expands a rename template using extracted metadata and
// appends the original file extension when the expanded name lacks it.
// Season and episode values are zero-padded to two digits unless the token
// requests another width. Substitution runs braced tokens first, then the
// bare-word aliases, in a single pass each.
func ApplyTemplate(template string, md Metadata, originalName string) string {
	name := bracedTokenRx.ReplaceAllStringFunc(template, func(match string) string {
		groups := bracedTokenRx.FindStringSubmatch(match)
		width := 0
		if groups[2] != "" {
			width, _ = strconv.Atoi(groups[2])
		}
		return expandToken(groups[1], width, md)
	})
	name = bareTokenRx.ReplaceAllStringFunc(name, func(match string) string {
		return expandToken(match, 0, md)
	})

	ext := filepath.Ext(originalName)
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		name += ext
	}
	return name
}

func expandToken(token string, width int, md Metadata) string {
	switch strings.ToLower(token) {
	case "season":
		return padValue(md.Season, width)
	case "episode":
		return padValue(md.Episode, width)
	default:
		if md.Quality == "" {
			return DefaultQuality
		}
		return md.Quality
	}
}

func padValue(value string, width int) string {
	if value == "" {
		return MissingPlaceholder
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	if width <= 0 {
		width = defaultPadWidth
	}
	out := strconv.Itoa(n)
	for len(out) < width {
		out = "0" + out
	}
	return out
}
