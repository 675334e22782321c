package naming

import (
	"regexp"
	"strings"
)

// DefaultQuality is used when no cascade pattern matches.
const DefaultQuality = "HD"

var (
	explicitResolutionRx  = regexp.MustCompile(`(?i)\b(\d{3,4})p\b`)
	fourKAliasRx          = regexp.MustCompile(`(?i)\b(?:4k|uhd|2160)\b`)
	twoKAliasRx           = regexp.MustCompile(`(?i)\b(?:2k|1440)\b`)
	namedTagRx            = regexp.MustCompile(`(?i)\b(web[\s._-]?dl|webrip|blu[\s._-]?ray|brrip|bdrip|hdrip|hdtv|dvdrip|hevc|x265|x264|h264|h265)\b`)
	bracketedResolutionRx = regexp.MustCompile(`(?i)[([](\d{3,4})p?[)\]]`)
	bareResolutionRx      = regexp.MustCompile(`\b(\d{3,4})\b`)
)

// canonicalTags normalizes named source/codec markers to a fixed spelling.
var canonicalTags = map[string]string{
	"webdl":  "WEB-DL",
	"webrip": "WEBRip",
	"bluray": "BluRay",
	"brrip":  "BRRip",
	"bdrip":  "BDRip",
	"hdrip":  "HDRip",
	"hdtv":   "HDTV",
	"dvdrip": "DVDRip",
	"hevc":   "HEVC",
	"x265":   "x265",
	"x264":   "x264",
	"h264":   "H264",
	"h265":   "H265",
}

// knownResolutions guards the bare-number fallback against years and other
// incidental digit runs.
var knownResolutions = map[string]struct{}{
	"360": {}, "480": {}, "540": {}, "576": {},
	"720": {}, "1080": {}, "1440": {}, "2160": {},
}

// Quality extracts a display quality from a filename. The cascade prefers
// explicit p-suffixed resolutions, then 4K/2K aliases, then named source and
// codec tags, then bracketed and bare resolution numbers normalized to the
// p-suffixed form. Without any match it returns DefaultQuality.
func Quality(filename string) string {
	if m := explicitResolutionRx.FindStringSubmatch(filename); m != nil {
		return m[1] + "p"
	}
	if fourKAliasRx.MatchString(filename) {
		return "2160p"
	}
	if twoKAliasRx.MatchString(filename) {
		return "1440p"
	}
	if m := namedTagRx.FindStringSubmatch(filename); m != nil {
		key := strings.ToLower(m[1])
		key = strings.Map(func(r rune) rune {
			switch r {
			case ' ', '.', '_', '-':
				return -1
			}
			return r
		}, key)
		if canonical, ok := canonicalTags[key]; ok {
			return canonical
		}
	}
	if m := bracketedResolutionRx.FindStringSubmatch(filename); m != nil {
		if _, ok := knownResolutions[m[1]]; ok {
			return m[1] + "p"
		}
	}
	for _, m := range bareResolutionRx.FindAllStringSubmatch(filename, -1) {
		if _, ok := knownResolutions[m[1]]; ok {
			return m[1] + "p"
		}
	}
	return DefaultQuality
}
