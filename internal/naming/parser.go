package naming

import (
	"regexp"
	"strconv"
)

// Metadata holds values derived from a filename. Season and Episode keep the
// digits exactly as they appear in the name; empty means not detected.
type Metadata struct {
	Season  string
	Episode string
	Quality string
}

// HasEpisode reports whether an episode number was detected.
func (m Metadata) HasEpisode() bool { return m.Episode != "" }

// EpisodeNumber returns the numeric episode value, or ok=false when absent.
func (m Metadata) EpisodeNumber() (int, bool) {
	if m.Episode == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m.Episode)
	if err != nil {
		return 0, false
	}
	return n, true
}

// episodePattern pairs a compiled expression with the submatch indexes for
// season and episode. A seasonGroup of 0 means the pattern carries no season.
type episodePattern struct {
	re           *regexp.Regexp
	seasonGroup  int
	episodeGroup int
}

// Ordered most specific first. The bare trailing fallback is a known source
// of false positives on ambiguous names; it is kept because the cascade was
// tuned against real submissions that rely on it.
var episodePatterns = []episodePattern{
	// S01E02, S1 EP 06, S01-EP06
	{regexp.MustCompile(`(?i)S(\d{1,2})[\s._-]*(?:EP|E)[\s._-]*(\d{1,3})`), 1, 2},
	// [E06], (EP 06), {E-6}
	{regexp.MustCompile(`(?i)[([<{]\s*(?:EP|E)[\s._-]*(\d{1,3})\s*[)\]>}]`), 0, 1},
	// Ep - 06
	{regexp.MustCompile(`(?i)\b(?:EP|E)\s*-\s*(\d{1,3})\b`), 0, 1},
	// EP06, E 06
	{regexp.MustCompile(`(?i)\b(?:EP|E)\s*(\d{1,3})\b`), 0, 1},
	// S1 - 06 (season marker separated from the number)
	{regexp.MustCompile(`(?i)\bS(\d{1,2})\b[^0-9]*?(\d{1,3})`), 1, 2},
	// Bare one-or-two digit number. Word boundaries keep it off resolution
	// tokens (720, 1080, 2160) and p-suffixed forms.
	{regexp.MustCompile(`\b(\d{1,2})\b`), 0, 1},
}

// Extract derives season, episode, and quality from a filename. Season and
// episode are empty when no pattern yields an episode in 1..999; callers
// substitute a placeholder rather than leaving template tokens unexpanded.
func Extract(filename string) Metadata {
	md := Metadata{Quality: Quality(filename)}
	for _, pat := range episodePatterns {
		match := pat.re.FindStringSubmatch(filename)
		if match == nil {
			continue
		}
		episode := match[pat.episodeGroup]
		if !validEpisode(episode) {
			continue
		}
		md.Episode = episode
		if pat.seasonGroup > 0 {
			md.Season = match[pat.seasonGroup]
		}
		return md
	}
	return md
}

func validEpisode(digits string) bool {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 999
}
