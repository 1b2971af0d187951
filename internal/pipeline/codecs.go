package pipeline

import (
	"github.com/asticode/goav/avcodec"

	"github.com/castmux/transcoder/internal/config"
)

func targetVideoCodecID(cfg *config.Config) avcodec.CodecId {
	return codecIDByName(cfg.VideoCodec.CodecIDName())
}

func targetAudioCodecID(cfg *config.Config) avcodec.CodecId {
	return codecIDByName(cfg.AudioCodec.CodecIDName())
}

// codecIDByName resolves a short codec name ("vp8", "hevc", "aac", ...) to
// its avcodec_find_encoder_by_name result, since goav's CodecId enum is not
// otherwise exposed per-name.
func codecIDByName(name string) avcodec.CodecId {
	codec := avcodec.AvcodecFindEncoderByName(name)
	if codec == nil {
		return avcodec.AV_CODEC_ID_NONE
	}
	return codec.ID()
}
