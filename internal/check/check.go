// Package check provides system diagnostics (--check mode) and
// pre-dispatch codec-library validation: the encoders this Configuration
// needs must actually be present in the linked codec library before any
// Pipeline starts.
package check

import (
	"github.com/asticode/goav/avcodec"
	"github.com/asticode/goav/avutil"
	"github.com/pkg/errors"

	"github.com/castmux/transcoder/internal/config"
)

// Sentinel errors returned by Deps when a required encoder is missing from
// the linked codec library.
var (
	ErrVideoEncoderMissing = errors.New("check: configured video encoder not available in this build")
	ErrAudioEncoderMissing = errors.New("check: configured audio encoder not available in this build")
)

// Logger is the minimal logging interface needed by Run.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Run implements the interactive --check flow: prints the codec library's
// version info and the availability of every encoder this Configuration
// could select across all four video codecs. Informational only; it does
// not stop on failure.
func Run(log Logger) {
	log.Info("=== System Check ===")
	log.Info("libavcodec: %s", avcodec.AvcodecConfiguration())
	log.Info("libavutil build: %d", avutil.AvutilVersion())

	for _, name := range []string{"vp8", "vp9", "h264", "hevc"} {
		logEncoder(log, name)
	}
	for _, name := range []string{"vorbis", "aac"} {
		logEncoder(log, name)
	}
}

func logEncoder(log Logger, name string) {
	if avcodec.AvcodecFindEncoderByName(name) != nil {
		log.Success("encoder %s: available", name)
	} else {
		log.Error("encoder %s: not found", name)
	}
}

// Deps validates that cfg's configured (video_codec, audio_codec) pair has
// both encoders present in the linked codec library. Called once before
// the Dispatcher admits any job (ConfigInvalid-adjacent, but distinct from
// Config.Validate's pure field-range checks).
func Deps(cfg *config.Config) error {
	if avcodec.AvcodecFindEncoderByName(cfg.VideoCodec.CodecIDName()) == nil {
		return errors.Wrapf(ErrVideoEncoderMissing, "%s", cfg.VideoCodec)
	}
	if avcodec.AvcodecFindEncoderByName(cfg.AudioCodec.CodecIDName()) == nil {
		return errors.Wrapf(ErrAudioEncoderMissing, "%s", cfg.AudioCodec)
	}
	return nil
}
