package naming_test

import (
	"testing"

	"renamer/internal/naming"
)

func TestApplyTemplate(t *testing.T) {
	cases := []struct {
		name     string
		template string
		md       naming.Metadata
		original string
		want     string
	}{
		{
			name:     "braced tokens with extension append",
			template: "{season}E{episode}-{quality}",
			md:       naming.Metadata{Season: "1", Episode: "3", Quality: "HD"},
			original: "input.mkv",
			want:     "01E03-HD.mkv",
		},
		{
			name:     "explicit pad width",
			template: "Ep{episode:3}",
			md:       naming.Metadata{Episode: "7", Quality: "HD"},
			original: "input.mp4",
			want:     "Ep007.mp4",
		},
		{
			name:     "missing values use placeholder",
			template: "S{season}E{episode}",
			md:       naming.Metadata{Quality: "HD"},
			original: "input.mkv",
			want:     "SXXEXX.mkv",
		},
		{
			name:     "bare word aliases",
			template: "Show EPISODE quality",
			md:       naming.Metadata{Episode: "12", Quality: "720p"},
			original: "input.avi",
			want:     "Show 12 720p.avi",
		},
		{
			name:     "case insensitive tokens",
			template: "{SEASON}x{Episode}",
			md:       naming.Metadata{Season: "2", Episode: "9", Quality: "HD"},
			original: "input.mkv",
			want:     "02x09.mkv",
		},
		{
			name:     "extension already present",
			template: "Named.{quality}.mkv",
			md:       naming.Metadata{Quality: "1080p"},
			original: "input.MKV",
			want:     "Named.1080p.mkv",
		},
		{
			name:     "no extension on original",
			template: "{episode}",
			md:       naming.Metadata{Episode: "5", Quality: "HD"},
			original: "input",
			want:     "05",
		},
		{
			name:     "quality falls back when empty",
			template: "{quality}",
			md:       naming.Metadata{},
			original: "f.mkv",
			want:     "HD.mkv",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := naming.ApplyTemplate(tc.template, tc.md, tc.original)
			if got != tc.want {
				t.Errorf("ApplyTemplate(%q) = %q, want %q", tc.template, got, tc.want)
			}
		})
	}
}

func TestApplyTemplateEndToEnd(t *testing.T) {
	const original = "Show.S02E07.1080p.mkv"
	md := naming.Extract(original)
	got := naming.ApplyTemplate("MyShow S{season}E{episode} [{quality}]", md, original)
	want := "MyShow S02E07 [1080p].mkv"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
