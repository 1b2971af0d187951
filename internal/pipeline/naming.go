package pipeline

import "github.com/castmux/transcoder/internal/config"

// outputExtension derives the sibling media extension from the configured
// video codec family (§6), unless cfg overrides it uniformly.
func outputExtension(cfg *config.Config) string {
	if cfg.ContainerExtensionOverride != "" {
		return cfg.ContainerExtensionOverride
	}
	switch cfg.VideoCodec {
	case config.VideoVP8:
		return ".vp8"
	case config.VideoVP9:
		return ".vp9"
	default: // H264, H265
		return ".mp4"
	}
}

// mediaOutputPath appends the derived extension to the full input path,
// rather than replacing the input's own extension: "movie.avi" with a
// VP8 target becomes "movie.avi.vp8", matching the sibling-file naming
// rule decided in SPEC_FULL.md §9 from the source implementation's cleanup
// logic.
func mediaOutputPath(inputPath string, cfg *config.Config) string {
	return inputPath + outputExtension(cfg)
}

// srtOutputPath appends ".srt" the same way.
func srtOutputPath(inputPath string) string {
	return inputPath + ".srt"
}
