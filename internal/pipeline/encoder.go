package pipeline

import (
	"github.com/asticode/goav/avcodec"

	"github.com/castmux/transcoder/internal/avlib"
	"github.com/castmux/transcoder/internal/filtergraph"
)

// openEncoderAndGraph opens an encoder for role/targetCodecID sized from
// cfg's bitrate/channel settings and builds the matching filter graph
// (§4.4): source parameters come from the decoder, sink parameters from
// the encoder, exactly as the FilterGraphs component specifies.
func (p *Pipeline) openEncoderAndGraph(role string, handle avlib.StreamHandle, targetCodecID avcodec.CodecId) (*avlib.EncoderContext, *filtergraph.Graph, error) {
	if role == "audio" {
		return p.openAudioEncoderAndGraph(handle, targetCodecID)
	}
	return p.openVideoEncoderAndGraph(handle, targetCodecID)
}

func (p *Pipeline) openAudioEncoderAndGraph(handle avlib.StreamHandle, targetCodecID avcodec.CodecId) (*avlib.EncoderContext, *filtergraph.Graph, error) {
	opts := avlib.EncoderOptions{
		BitRate:    int64(p.cfg.AudioBitrate) * 1000,
		SampleRate: defaultAudioSampleRate,
		Channels:   p.cfg.AudioChannelsNum,
	}
	enc, err := avlib.OpenEncoder(targetCodecID, opts)
	if err != nil {
		return nil, nil, err
	}

	g, err := filtergraph.NewAudio(filtergraph.AudioParams{
		SampleFmt:        handle.SampleFmt,
		SampleRate:       handle.AudioSampleRate(),
		ChannelLayout:    handle.AudioChannelLayout(),
		Channels:         handle.Channels,
		TimeBase:         handle.TimeBase,
		OutSampleFmt:     defaultDecodedSampleFmt,
		OutSampleRate:    defaultAudioSampleRate,
		OutChannelLayout: defaultChannelLayout(p.cfg.AudioChannelsNum),
	})
	if err != nil {
		enc.Close()
		return nil, nil, err
	}
	return enc, g, nil
}

func (p *Pipeline) openVideoEncoderAndGraph(handle avlib.StreamHandle, targetCodecID avcodec.CodecId) (*avlib.EncoderContext, *filtergraph.Graph, error) {
	width, height := handle.VideoSize()
	opts := avlib.EncoderOptions{
		BitRate: int64(p.cfg.VideoBitrate) * 1000,
		Width:   width,
		Height:  height,
		PixFmt:  defaultEncodedPixFmt,
	}
	enc, err := avlib.OpenEncoder(targetCodecID, opts)
	if err != nil {
		return nil, nil, err
	}

	g, err := filtergraph.NewVideo(filtergraph.VideoParams{
		Width:     width,
		Height:    height,
		PixFmt:    handle.VideoPixFmt(),
		TimeBase:  handle.TimeBase,
		OutPixFmt: defaultEncodedPixFmt,
	})
	if err != nil {
		enc.Close()
		return nil, nil, err
	}
	return enc, g, nil
}
