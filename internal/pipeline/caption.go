package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// UnknownDuration is substituted when the media container could not be
// probed.
const UnknownDuration = "Unknown"

var captionTokenRx = regexp.MustCompile(`(?i)\{(filename|filesize|duration)\}`)

// ExpandCaption substitutes filename, filesize, and duration tokens into a
// caption template.
func ExpandCaption(template, filename string, size int64, duration time.Duration, durationKnown bool) string {
	return captionTokenRx.ReplaceAllStringFunc(template, func(match string) string {
		switch strings.ToLower(captionTokenRx.FindStringSubmatch(match)[1]) {
		case "filename":
			return filename
		case "filesize":
			return humanize.Bytes(uint64(size))
		default:
			if !durationKnown {
				return UnknownDuration
			}
			return formatDuration(duration)
		}
	})
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
