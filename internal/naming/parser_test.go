package naming_test

import (
	"testing"

	"renamer/internal/naming"
)

func TestExtractSeasonEpisodeForms(t *testing.T) {
	cases := []struct {
		filename string
		season   string
		episode  string
	}{
		{"Show.S02E07.1080p.mkv", "02", "07"},
		{"Show S1 EP 06.mkv", "1", "06"},
		{"Show.S01-EP12.720p.mkv", "01", "12"},
		{"Show [E06] 1080p.mkv", "", "06"},
		{"Show (EP 9).mkv", "", "9"},
		{"Show Ep - 06.mkv", "", "06"},
		{"Show EP06.mkv", "", "06"},
		{"Show E 14.mkv", "", "14"},
		{"Show S2 - 08.mkv", "2", "08"},
		{"Show 07.mkv", "", "07"},
	}
	for _, tc := range cases {
		md := naming.Extract(tc.filename)
		if md.Season != tc.season || md.Episode != tc.episode {
			t.Errorf("Extract(%q) = (%q, %q), want (%q, %q)",
				tc.filename, md.Season, md.Episode, tc.season, tc.episode)
		}
	}
}

func TestExtractIgnoresResolutionOnlyNames(t *testing.T) {
	for _, filename := range []string{
		"Movie.2160p.mkv",
		"Movie.1080p.mkv",
		"Movie.720.mkv",
		"Movie.mkv",
	} {
		md := naming.Extract(filename)
		if md.HasEpisode() {
			t.Errorf("Extract(%q) detected episode %q, want none", filename, md.Episode)
		}
	}
}

func TestExtractRejectsOutOfRangeEpisodes(t *testing.T) {
	// E0 is out of range; the cascade must not accept it and the bare
	// fallback sees the same zero.
	md := naming.Extract("Show E0.mkv")
	if md.HasEpisode() {
		t.Fatalf("expected no episode for E0, got %q", md.Episode)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	const filename = "Show.S03E11.WEB-DL.mkv"
	first := naming.Extract(filename)
	for i := 0; i < 5; i++ {
		if got := naming.Extract(filename); got != first {
			t.Fatalf("extraction unstable: %+v vs %+v", got, first)
		}
	}
}

func TestEpisodeNumber(t *testing.T) {
	md := naming.Extract("Show.S01E09.mkv")
	n, ok := md.EpisodeNumber()
	if !ok || n != 9 {
		t.Fatalf("EpisodeNumber = (%d, %v), want (9, true)", n, ok)
	}
	if _, ok := naming.Extract("Movie.2160p.mkv").EpisodeNumber(); ok {
		t.Fatal("expected no episode number for resolution-only name")
	}
}

func TestQualityCascade(t *testing.T) {
	cases := []struct {
		filename string
		want     string
	}{
		{"Show.S02E07.1080p.mkv", "1080p"},
		{"Movie.2160p.mkv", "2160p"},
		{"Film.4K.mkv", "2160p"},
		{"Film.UHD.mkv", "2160p"},
		{"Film.2K.mkv", "1440p"},
		{"Show.WEB-DL.mkv", "WEB-DL"},
		{"Show.WEBRip.mkv", "WEBRip"},
		{"Show.BluRay.x264.mkv", "BluRay"},
		{"Show.HDRip.mkv", "HDRip"},
		{"Show.[1080].mkv", "1080p"},
		{"Show.720.mkv", "720p"},
		{"Show.2024.mkv", "HD"},
		{"Show.mkv", "HD"},
	}
	for _, tc := range cases {
		if got := naming.Quality(tc.filename); got != tc.want {
			t.Errorf("Quality(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		filename string
		want     naming.Kind
	}{
		{"a.mkv", naming.KindVideo},
		{"a.MP4", naming.KindVideo},
		{"a.flac", naming.KindAudio},
		{"a.jpg", naming.KindPhoto},
		{"a.pdf", naming.KindDocument},
		{"noext", naming.KindDocument},
	}
	for _, tc := range cases {
		if got := naming.KindOf(tc.filename); got != tc.want {
			t.Errorf("KindOf(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}
