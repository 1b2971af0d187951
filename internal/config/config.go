// Package config holds runtime configuration: defaults, YAML loading, CLI
// flag parsing, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VideoCodec selects the target video codec a stream is transcoded to.
type VideoCodec string

const (
	VideoVP8  VideoCodec = "vp8"
	VideoVP9  VideoCodec = "vp9"
	VideoH264 VideoCodec = "h264"
	VideoH265 VideoCodec = "h265"
)

// AudioCodec selects the target audio codec a stream is transcoded to.
type AudioCodec string

const (
	AudioVorbis AudioCodec = "vorbis"
	AudioAAC    AudioCodec = "aac"
)

// Language is a preference hint used when a container carries more than one
// audio or subtitle stream.
type Language string

const (
	LangDefault Language = "default"
	LangEnglish Language = "english"
	LangSpanish Language = "spanish"
)

// isoCode maps a Language to the three-letter metadata tag libav reports.
func (l Language) isoCode() string {
	switch l {
	case LangEnglish:
		return "eng"
	case LangSpanish:
		return "spa"
	default:
		return ""
	}
}

// Config is the immutable value the core accepts for a whole batch run. It
// is assembled from defaults, an optional YAML file, and CLI flags, in that
// order, and validated once before any job is admitted.
type Config struct {
	RootDirectory string `yaml:"root_directory"`
	OutputDir     string `yaml:"output_directory"`

	NumberOfThreads int `yaml:"number_of_threads"`

	VideoCodec   VideoCodec `yaml:"video_codec"`
	VideoBitrate int        `yaml:"video_bitrate"` // kbps; unused when a stream is copied.

	AudioCodec             AudioCodec `yaml:"audio_codec"`
	AudioBitrate           int        `yaml:"audio_bitrate"` // kbps.
	AudioChannelsNum       int        `yaml:"audio_channels_num"`
	PreferredAudioLanguage Language   `yaml:"preferred_audio_language"`

	ExtractSubtitles          bool     `yaml:"extract_subtitles"`
	PreferredSubtitleLanguage Language `yaml:"preferred_subtitle_language"`

	// ForceMonotonicVideoTimestamps gates the synthetic 0,1,2,... PTS/DTS
	// sequence on the video output stream (SPEC_FULL.md §9 open question;
	// default true matches the source's retained behavior).
	ForceMonotonicVideoTimestamps bool `yaml:"force_monotonic_video_timestamps"`

	// ContainerExtensionOverride, if non-empty, replaces the per-codec
	// extension derived in planner.OutputExtension with a single fixed one
	// (e.g. ".mkv") for every video codec.
	ContainerExtensionOverride string `yaml:"container_extension_override"`

	Verbose   bool   `yaml:"verbose"`
	ColorMode string `yaml:"color_mode"` // "auto" | "always" | "never"
	LogFile   string `yaml:"log_file"`
	CheckOnly bool   `yaml:"-"`
}

// DefaultConfig returns the field defaults listed in SPEC_FULL.md §6.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		RootDirectory:                 home,
		NumberOfThreads:               defaultThreadCount(),
		VideoCodec:                    VideoVP8,
		VideoBitrate:                  1000,
		AudioCodec:                    AudioVorbis,
		AudioBitrate:                  128,
		AudioChannelsNum:              2,
		PreferredAudioLanguage:        LangDefault,
		ExtractSubtitles:              true,
		PreferredSubtitleLanguage:     LangDefault,
		ForceMonotonicVideoTimestamps: true,
		ColorMode:                     "auto",
	}
}

func defaultThreadCount() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// LoadFile reads a YAML configuration file on top of [DefaultConfig],
// matching the load-over-defaults shape of the chunked-encoder tool's
// LoadConfigFile. A missing or unreadable path is returned as an error
// alongside the defaults; callers decide whether that is fatal.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config file %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %q", path)
	}
	return cfg, nil
}

// FindFile searches the standard locations for an optional config file and
// returns "" (non-fatal) if none exists.
func FindFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		"./castmux.yaml",
		"./castmux.yml",
		filepath.Join(home, ".castmux", "config.yaml"),
		"/etc/castmux/config.yaml",
	}
	for _, p := range locations {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate enforces the (video_codec, audio_codec) pairing and the channel
// and thread-count ranges from SPEC_FULL.md §3. A configuration error
// rejects the whole batch before any pipeline starts (ConfigInvalid, §7).
func (c *Config) Validate() error {
	switch c.VideoCodec {
	case VideoVP8, VideoVP9, VideoH264, VideoH265:
	default:
		return errors.Errorf("config: unrecognized video_codec %q", c.VideoCodec)
	}

	switch c.AudioCodec {
	case AudioVorbis, AudioAAC:
	default:
		return errors.Errorf("config: unrecognized audio_codec %q", c.AudioCodec)
	}

	if err := c.validateCodecPair(); err != nil {
		return err
	}

	if c.AudioChannelsNum < 2 || c.AudioChannelsNum > 7 {
		return errors.Errorf("config: audio_channels_num %d out of range [2,7]", c.AudioChannelsNum)
	}

	maxThreads := runtime.NumCPU()
	if c.NumberOfThreads < 1 || c.NumberOfThreads > maxThreads {
		return errors.Errorf("config: number_of_threads %d out of range [1,%d]", c.NumberOfThreads, maxThreads)
	}

	switch c.PreferredAudioLanguage {
	case LangDefault, LangEnglish, LangSpanish:
	default:
		return errors.Errorf("config: unrecognized preferred_audio_language %q", c.PreferredAudioLanguage)
	}

	switch c.PreferredSubtitleLanguage {
	case LangDefault, LangEnglish, LangSpanish:
	default:
		return errors.Errorf("config: unrecognized preferred_subtitle_language %q", c.PreferredSubtitleLanguage)
	}

	return nil
}

// validateCodecPair enforces VP8/VP9 => Vorbis and H264/H265 => AAC.
func (c *Config) validateCodecPair() error {
	switch c.VideoCodec {
	case VideoVP8, VideoVP9:
		if c.AudioCodec != AudioVorbis {
			return errors.Errorf("config: video_codec %q requires audio_codec vorbis, got %q", c.VideoCodec, c.AudioCodec)
		}
	case VideoH264, VideoH265:
		if c.AudioCodec != AudioAAC {
			return errors.Errorf("config: video_codec %q requires audio_codec aac, got %q", c.VideoCodec, c.AudioCodec)
		}
	}
	return nil
}

// ValidatePaths ensures the output directory (when distinct from the input
// tree) is not nested inside it, preventing the dispatcher from discovering
// its own output as new input on a subsequent run.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if outputAbs == "" {
		return nil
	}
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("config: output directory must not be inside the input tree")
	}
	return nil
}

// AudioLanguageCode returns the three-letter tag to match against stream
// metadata, or "" if no preference is set.
func (c *Config) AudioLanguageCode() string { return c.PreferredAudioLanguage.isoCode() }

// SubtitleLanguageCode returns the three-letter tag to match against stream
// metadata, or "" if no preference is set.
func (c *Config) SubtitleLanguageCode() string { return c.PreferredSubtitleLanguage.isoCode() }

// CodecIDName maps VideoCodec to the libav codec name it denotes, for code
// that needs to hand the codec to avcodec_find_encoder_by_name.
func (c VideoCodec) CodecIDName() string {
	switch c {
	case VideoVP8:
		return "vp8"
	case VideoVP9:
		return "vp9"
	case VideoH264:
		return "h264"
	case VideoH265:
		return "hevc"
	default:
		return string(c)
	}
}

// CodecIDName maps AudioCodec to the libav codec name
// avcodec_find_encoder_by_name expects.
func (c AudioCodec) CodecIDName() string {
	switch c {
	case AudioVorbis:
		return "vorbis"
	case AudioAAC:
		return "aac"
	default:
		return string(c)
	}
}

// String renders the codec pair for log lines, e.g. "h265+aac".
func (c *Config) String() string {
	return fmt.Sprintf("%s+%s", c.VideoCodec, c.AudioCodec)
}
