package naming

import (
	"path/filepath"
	"strings"
)

// Kind classifies a file by extension for delivery purposes.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".3gp": {}, ".ts": {}, ".mts": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".flac": {}, ".aac": {}, ".ogg": {}, ".wma": {},
	".m4a": {}, ".opus": {},
}

var photoExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
	".tiff": {}, ".svg": {},
}

// KindOf determines the media kind from a filename's extension. Anything
// unrecognized is a document.
func KindOf(filename string) Kind {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	if _, ok := audioExtensions[ext]; ok {
		return KindAudio
	}
	if _, ok := photoExtensions[ext]; ok {
		return KindPhoto
	}
	return KindDocument
}

// ParseKind converts a stored preference string to a Kind. Empty or
// unrecognized values return ok=false, meaning "follow the detected kind".
func ParseKind(value string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(KindVideo):
		return KindVideo, true
	case string(KindAudio):
		return KindAudio, true
	case string(KindPhoto):
		return KindPhoto, true
	case string(KindDocument):
		return KindDocument, true
	default:
		return "", false
	}
}
