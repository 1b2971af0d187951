package planner

import (
	"strings"

	"github.com/castmux/transcoder/internal/avlib"
	"github.com/castmux/transcoder/internal/config"
)

// srtCodecTag is the name goav's avcodec_get_name reports for the SRT
// subtitle codec.
const srtCodecTag = "subrip"

// BuildPlan runs StreamPlan (§4.3) over ic's probed streams using cfg's
// codec and language preferences.
func BuildPlan(ic *avlib.InputContext, cfg *config.Config) FilePlan {
	var plan FilePlan

	plan.Audio = planAudio(ic, cfg)
	plan.Video = planVideo(ic, cfg)
	if cfg.ExtractSubtitles {
		plan.Subtitle = planSubtitle(ic, cfg)
	}

	return plan
}

func planAudio(ic *avlib.InputContext, cfg *config.Config) AudioPlan {
	var provisional *avlib.StreamHandle
	var preferred *avlib.StreamHandle
	wantLang := cfg.AudioLanguageCode()

	for i := range ic.Streams {
		s := &ic.Streams[i]
		if s.Kind != avlib.KindAudio {
			continue
		}
		if provisional == nil {
			provisional = s
		}
		if wantLang != "" && strings.EqualFold(s.Language, wantLang) {
			preferred = s
			break
		}
	}

	chosen := preferred
	if chosen == nil {
		chosen = provisional
	}
	if chosen == nil {
		return AudioPlan{Found: false}
	}

	needsTranscode := !codecMatches(chosen.CodecTag, string(cfg.AudioCodec)) || chosen.Channels != cfg.AudioChannelsNum
	return AudioPlan{Found: true, Index: chosen.Index, NeedsTranscode: needsTranscode}
}

func planVideo(ic *avlib.InputContext, cfg *config.Config) VideoPlan {
	idx := ic.BestStream(avlib.KindVideo)
	if idx < 0 {
		return VideoPlan{Found: false}
	}
	handle := ic.Streams[idx]
	needsTranscode := !codecMatches(handle.CodecTag, string(cfg.VideoCodec))
	return VideoPlan{Found: true, Index: idx, NeedsTranscode: needsTranscode}
}

func planSubtitle(ic *avlib.InputContext, cfg *config.Config) SubtitlePlan {
	var provisional *avlib.StreamHandle
	var preferred *avlib.StreamHandle
	wantLang := cfg.SubtitleLanguageCode()

	for i := range ic.Streams {
		s := &ic.Streams[i]
		if s.Kind != avlib.KindSubtitle {
			continue
		}
		if provisional == nil {
			provisional = s
		}
		if wantLang != "" && strings.EqualFold(s.Language, wantLang) {
			preferred = s
			break
		}
	}

	chosen := preferred
	if chosen == nil {
		chosen = provisional
	}
	if chosen == nil {
		return SubtitlePlan{Found: false}
	}

	isSRT := strings.EqualFold(chosen.CodecTag, srtCodecTag)
	return SubtitlePlan{Found: true, Index: chosen.Index, IsSRT: isSRT, NeedsExtract: isSRT}
}

// codecMatches compares a decoded stream's codec tag against the
// Configuration's target codec enum.
func codecMatches(tag string, want string) bool {
	switch want {
	case "vp8":
		return strings.EqualFold(tag, "vp8")
	case "vp9":
		return strings.EqualFold(tag, "vp9")
	case "h264":
		return strings.EqualFold(tag, "h264")
	case "h265":
		return strings.EqualFold(tag, "hevc") || strings.EqualFold(tag, "h265")
	case "vorbis":
		return strings.EqualFold(tag, "vorbis")
	case "aac":
		return strings.EqualFold(tag, "aac")
	default:
		return false
	}
}
