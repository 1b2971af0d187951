package pipeline

import "github.com/asticode/goav/avutil"

// Fixed encoder parameters not exposed as Configuration fields: the target
// sample rate and sample format both encoders accept, and the pixel format
// the two supported video encoder families (VP8/VP9 and H264/H265) all
// accept.
const (
	defaultAudioSampleRate  = 48000
	defaultDecodedSampleFmt = avutil.AV_SAMPLE_FMT_FLTP
	defaultEncodedPixFmt    = avutil.AV_PIX_FMT_YUV420P
)

// defaultChannelLayout returns the library's default layout bitmask for a
// given channel count, used as the aformat sink's target layout.
func defaultChannelLayout(channels int) int64 {
	return avutil.AvGetDefaultChannelLayout(channels)
}
