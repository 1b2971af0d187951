package pipeline

import (
	"testing"

	"github.com/castmux/transcoder/internal/config"
)

func TestMediaOutputPath_AppendsExtension(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VideoCodec = config.VideoH265

	got := mediaOutputPath("/media/movie.avi", &cfg)
	want := "/media/movie.avi.mp4"
	if got != want {
		t.Errorf("mediaOutputPath() = %q, want %q", got, want)
	}
}

func TestOutputExtension_ByVideoCodec(t *testing.T) {
	cases := []struct {
		codec config.VideoCodec
		want  string
	}{
		{config.VideoVP8, ".vp8"},
		{config.VideoVP9, ".vp9"},
		{config.VideoH264, ".mp4"},
		{config.VideoH265, ".mp4"},
	}
	for _, c := range cases {
		cfg := config.DefaultConfig()
		cfg.VideoCodec = c.codec
		if got := outputExtension(&cfg); got != c.want {
			t.Errorf("outputExtension(%v) = %q, want %q", c.codec, got, c.want)
		}
	}
}

func TestOutputExtension_OverrideWins(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.VideoCodec = config.VideoVP8
	cfg.ContainerExtensionOverride = ".mkv"

	if got := outputExtension(&cfg); got != ".mkv" {
		t.Errorf("outputExtension() = %q, want %q", got, ".mkv")
	}
}

func TestSrtOutputPath(t *testing.T) {
	if got := srtOutputPath("/media/movie.mkv"); got != "/media/movie.mkv.srt" {
		t.Errorf("srtOutputPath() = %q", got)
	}
}
