package config

// This file implements CLI flag parsing and help text.
// Negated flags (e.g. --no-extract-subtitles) are applied after Parse so
// Config defaults hold unless the user sets them.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// version is shown in --version and help; override at build time with
// -ldflags "-X github.com/castmux/transcoder/internal/config.version=...".
var version = "1.0.0-dev"

// ParseFlags parses os.Args into cfg on top of whatever defaults/YAML values
// it already holds. On --help or --version it prints and exits.
func ParseFlags(cfg *Config) error {
	fs := flag.NewFlagSet("castmux", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs) }

	var negated negatedFlags

	defineCodecFlags(fs, cfg)
	defineStreamFlags(fs, cfg, &negated)
	defineRunFlags(fs, cfg, &negated)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(fs)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "castmux v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags applied after Parse: either inverting a
// default or triggering an early exit (showHelp, showVersion).
type negatedFlags struct {
	noExtractSubtitles bool
	noForceTimestamps  bool
	forceColor         bool
	noColor            bool
	showVersion        bool
	showHelp           bool
}

func defineCodecFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&videoCodecValue{&cfg.VideoCodec}, "video-codec", "Target video codec: vp8 | vp9 | h264 | h265")
	fs.Var(&audioCodecValue{&cfg.AudioCodec}, "audio-codec", "Target audio codec: vorbis | aac")
	fs.IntVar(&cfg.VideoBitrate, "video-bitrate", cfg.VideoBitrate, "Target video bitrate in kbps (ignored when a stream is copied)")
	fs.IntVar(&cfg.AudioBitrate, "audio-bitrate", cfg.AudioBitrate, "Target audio bitrate in kbps")
	fs.IntVar(&cfg.AudioChannelsNum, "audio-channels", cfg.AudioChannelsNum, "Target audio channel count [2,7]")
}

func defineStreamFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.Var(&languageValue{&cfg.PreferredAudioLanguage}, "audio-language", "Preferred audio language: default | english | spanish")
	fs.Var(&languageValue{&cfg.PreferredSubtitleLanguage}, "subtitle-language", "Preferred subtitle language: default | english | spanish")
	fs.BoolVar(&n.noExtractSubtitles, "no-extract-subtitles", false, "Do not extract embedded subtitles to SRT")
}

func defineRunFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.IntVar(&cfg.NumberOfThreads, "threads", cfg.NumberOfThreads, "Number of concurrent pipelines")
	fs.IntVar(&cfg.NumberOfThreads, "j", cfg.NumberOfThreads, "Same as --threads")
	fs.BoolVar(&n.noForceTimestamps, "no-force-timestamps", false, "Trust demuxer PTS/DTS instead of forcing a monotonic video sequence")
	fs.StringVar(&cfg.ContainerExtensionOverride, "container-ext", cfg.ContainerExtensionOverride, "Force a single output extension (e.g. .mkv) regardless of video codec")
}

func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noExtractSubtitles {
		cfg.ExtractSubtitles = false
	}
	if n.noForceTimestamps {
		cfg.ForceMonotonicVideoTimestamps = false
	}
	if n.noColor {
		cfg.ColorMode = "never"
	} else if n.forceColor {
		cfg.ColorMode = "always"
	}
}

// parsePositionalArgs sets RootDirectory and OutputDir from the two
// positional args when not in CheckOnly mode.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	if cfg.CheckOnly {
		return nil
	}
	args := fs.Args()
	if len(args) != 2 {
		return fmt.Errorf("need exactly input_dir and output_dir")
	}
	cfg.RootDirectory = normalizeDirArg(args[0])
	cfg.OutputDir = normalizeDirArg(args[1])
	return nil
}

// normalizeDirArg strips a trailing slash, leaving the filesystem root "/"
// untouched so it doesn't collapse to an empty string.
func normalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// printUsage writes help text to stderr, column-aligned for readability.
func printUsage(fs *flag.FlagSet) {
	const col1 = 30
	lines := []struct{ flags, desc string }{
		{"", "castmux v" + version + " — batch video transcoder for streaming receivers"},
		{"", ""},
		{"  castmux [OPTIONS] <input_dir> <output_dir>", ""},
		{"", ""},
		{"Codecs", ""},
		{"  --video-codec <vp8|vp9|h264|h265>", "Target video codec (default: vp8)"},
		{"  --audio-codec <vorbis|aac>", "Target audio codec (default: vorbis)"},
		{"  --video-bitrate <kbps>", "Target video bitrate (default: 1000)"},
		{"  --audio-bitrate <kbps>", "Target audio bitrate (default: 128)"},
		{"  --audio-channels <n>", "Target audio channel count (default: 2)"},
		{"", ""},
		{"Streams", ""},
		{"  --audio-language <lang>", "Preferred audio language (default: default)"},
		{"  --subtitle-language <lang>", "Preferred subtitle language (default: default)"},
		{"  --no-extract-subtitles", "Do not extract embedded subtitles"},
		{"", ""},
		{"Run", ""},
		{"  -j, --threads <n>", "Concurrent pipelines (default: hardware/2)"},
		{"  --no-force-timestamps", "Trust demuxer PTS/DTS on the video stream"},
		{"  --container-ext <.ext>", "Force a single output extension"},
		{"", ""},
		{"Display", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  --check", "Run system diagnostics and exit"},
		{"  --color / --no-color", "Force or disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		switch {
		case l.flags == "" && l.desc == "":
			fmt.Fprintln(os.Stderr)
		case l.desc == "":
			fmt.Fprintln(os.Stderr, l.flags)
		case l.flags == "":
			fmt.Fprintln(os.Stderr, l.desc)
		default:
			padding := col1 - len(l.flags)
			if padding < 1 {
				padding = 1
			}
			fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
		}
	}
}

// flag.Value adapters so the enum types work directly with flag.Var.

type videoCodecValue struct{ p *VideoCodec }

func (v *videoCodecValue) String() string { return string(*v.p) }
func (v *videoCodecValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "vp8":
		*v.p = VideoVP8
	case "vp9":
		*v.p = VideoVP9
	case "h264":
		*v.p = VideoH264
	case "h265":
		*v.p = VideoH265
	default:
		return fmt.Errorf("invalid video codec %q (use vp8, vp9, h264 or h265)", s)
	}
	return nil
}

type audioCodecValue struct{ p *AudioCodec }

func (a *audioCodecValue) String() string { return string(*a.p) }
func (a *audioCodecValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "vorbis":
		*a.p = AudioVorbis
	case "aac":
		*a.p = AudioAAC
	default:
		return fmt.Errorf("invalid audio codec %q (use vorbis or aac)", s)
	}
	return nil
}

type languageValue struct{ p *Language }

func (l *languageValue) String() string { return string(*l.p) }
func (l *languageValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "default":
		*l.p = LangDefault
	case "english":
		*l.p = LangEnglish
	case "spanish":
		*l.p = LangSpanish
	default:
		return fmt.Errorf("invalid language %q (use default, english or spanish)", s)
	}
	return nil
}
