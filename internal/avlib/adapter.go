// Package avlib is the CodecLibrary Adapter described in SPEC_FULL.md
// §4.1-4.3: a thin, typed facade over libavformat/libavcodec so the rest
// of the core never touches raw library types in its control flow. It
// binds to the library via github.com/asticode/goav.
package avlib

import (
	"github.com/asticode/goav/avcodec"
	"github.com/asticode/goav/avformat"
	"github.com/asticode/goav/avutil"
	"github.com/pkg/errors"
)

// avTimeBaseQ is AV_TIME_BASE_Q (1/1000000), the unit ic.Duration() and
// Progress's running position are both expressed in.
var avTimeBaseQ = avutil.NewRational(1, 1000000)

// MediaKind is the subset of AVMediaType the adapter cares about.
type MediaKind int

const (
	KindVideo MediaKind = iota
	KindAudio
	KindSubtitle
)

func (k MediaKind) avMediaType() avformat.MediaType {
	switch k {
	case KindAudio:
		return avcodec.AVMEDIA_TYPE_AUDIO
	case KindSubtitle:
		return avcodec.AVMEDIA_TYPE_SUBTITLE
	default:
		return avcodec.AVMEDIA_TYPE_VIDEO
	}
}

// StreamHandle identifies one stream inside an InputContext by its
// zero-based demuxer index, plus the metadata StreamPlan (§4.3) needs to
// make a selection without reaching into goav types itself.
type StreamHandle struct {
	Index    int
	Kind     MediaKind
	CodecID  avcodec.CodecId
	CodecTag string // short name, e.g. "h264", "aac", "subrip"
	Language string // three-letter ISO code from stream metadata, or "".
	TimeBase avutil.Rational

	// Audio-only fields.
	Channels      int
	SampleRate    int
	ChannelLayout int64
	SampleFmt     avutil.SampleFormat

	// Video-only fields.
	Width, Height int
	PixFmt        avutil.PixelFormat
}

// AudioSampleRate returns the stream's sample rate (audio only).
func (h StreamHandle) AudioSampleRate() int { return h.SampleRate }

// AudioChannelLayout returns the stream's channel layout bitmask (audio
// only), falling back to the library's default layout for Channels when
// the container reported none.
func (h StreamHandle) AudioChannelLayout() int64 {
	if h.ChannelLayout != 0 {
		return h.ChannelLayout
	}
	return avutil.AvGetDefaultChannelLayout(h.Channels)
}

// VideoSize returns width/height (video only).
func (h StreamHandle) VideoSize() (int, int) { return h.Width, h.Height }

// VideoPixFmt returns the decoded pixel format (video only).
func (h StreamHandle) VideoPixFmt() avutil.PixelFormat { return h.PixFmt }

// InputContext wraps an opened, probed demux context. The library owns the
// file handle directly (opened by path, not through a custom callback
// layer); Streams is populated once by find_stream_info.
type InputContext struct {
	fmtCtx   *avformat.Context
	duration int64 // AV_TIME_BASE units; <=0 if the container didn't report one.
	lastPts  int64 // last packet's presentation time, rescaled to AV_TIME_BASE.
	Streams  []StreamHandle
}

// OpenInput opens path directly (open_input + find_stream_info, §4.1) and
// populates stream metadata. Fails with ErrProbe or ErrNoStreams.
func OpenInput(path string) (*InputContext, error) {
	var fmtCtx *avformat.Context
	if code := avformat.AvformatOpenInput(&fmtCtx, path, nil, nil); code < 0 {
		return nil, errors.Wrapf(ErrProbe, "avformat_open_input %q: code %d", path, code)
	}

	if code := fmtCtx.AvformatFindStreamInfo(nil); code < 0 {
		avformat.AvformatCloseInput(&fmtCtx)
		return nil, errors.Wrapf(ErrProbe, "avformat_find_stream_info: code %d", code)
	}

	streams := fmtCtx.Streams()
	if len(streams) == 0 {
		avformat.AvformatCloseInput(&fmtCtx)
		return nil, ErrNoStreams
	}

	ic := &InputContext{fmtCtx: fmtCtx, duration: fmtCtx.Duration()}
	for i, s := range streams {
		ic.Streams = append(ic.Streams, describeStream(i, s))
	}
	return ic, nil
}

func describeStream(index int, s *avformat.Stream) StreamHandle {
	params := s.CodecParameters()
	h := StreamHandle{
		Index:    index,
		CodecID:  params.CodecId(),
		CodecTag: avcodec.AvcodecGetName(params.CodecId()),
		TimeBase: s.TimeBase(),
	}
	switch params.CodecType() {
	case avcodec.AVMEDIA_TYPE_AUDIO:
		h.Kind = KindAudio
		h.Channels = params.Channels()
		h.SampleRate = params.SampleRate()
		h.ChannelLayout = int64(params.ChannelLayout())
		h.SampleFmt = avutil.SampleFormat(params.Format())
	case avcodec.AVMEDIA_TYPE_SUBTITLE:
		h.Kind = KindSubtitle
	default:
		h.Kind = KindVideo
		h.Width = params.Width()
		h.Height = params.Height()
		h.PixFmt = avutil.PixelFormat(params.Format())
	}
	if lang, ok := s.Metadata().Get("language"); ok {
		h.Language = lang
	}
	return h
}

// StreamAt returns the underlying demuxer stream at index, for callers
// (e.g. CopyStreamParameters) that need the raw goav type rather than the
// StreamHandle summary.
func (ic *InputContext) StreamAt(index int) *avformat.Stream {
	return ic.fmtCtx.Streams()[index]
}

// BestStream returns the index of the library's preferred stream of kind,
// or -1 if none exists (best_stream, §4.1).
func (ic *InputContext) BestStream(kind MediaKind) int {
	return avformat.AvFindBestStream(ic.fmtCtx, kind.avMediaType(), -1, -1, nil, 0)
}

// Progress returns floor(current_pts*100/duration), the value the Pipeline
// emits on the event bus whenever it changes (§4.5). Progress is tracked by
// timestamp rather than byte offset, since the library owns the file
// handle directly and reports no read-position hook.
func (ic *InputContext) Progress() int {
	if ic.duration <= 0 {
		return 0
	}
	pct := ic.lastPts * 100 / ic.duration
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// ReadPacket demuxes the next packet into pkt, returning Eof at end of
// stream or Fatal on any other error. It also advances the running
// timestamp Progress reports from.
func (ic *InputContext) ReadPacket(pkt *avcodec.Packet) (VerbResult, error) {
	code := ic.fmtCtx.AvReadFrame(pkt)
	res, raw := verbResult(code)
	if res == Fatal {
		return res, errors.Errorf("av_read_frame: code %d", raw)
	}
	if res == Ok && pkt.Pts() != avutil.AV_NOPTS_VALUE {
		tb := ic.fmtCtx.Streams()[pkt.StreamIndex()].TimeBase()
		ic.lastPts = RescalePlain(pkt.Pts(), tb, avTimeBaseQ)
	}
	return res, nil
}

// Close releases the input context. Safe to call more than once.
func (ic *InputContext) Close() error {
	if ic.fmtCtx != nil {
		avformat.AvformatCloseInput(&ic.fmtCtx)
		ic.fmtCtx = nil
	}
	return nil
}

// --- decoder / encoder lifecycle -------------------------------------------------

// DecoderContext owns an opened decoder bound to one input stream.
type DecoderContext struct {
	ctx    *avcodec.Context
	Handle StreamHandle
}

// OpenDecoder allocates a decoder context and copies the input stream's
// parameters into it before opening (§4.1).
func OpenDecoder(ic *InputContext, handle StreamHandle) (*DecoderContext, error) {
	codec := avcodec.AvcodecFindDecoder(handle.CodecID)
	if codec == nil {
		return nil, errors.Wrapf(ErrDecoderOpen, "no decoder for codec id %d", handle.CodecID)
	}
	ctx := codec.AvcodecAllocContext3()
	if ctx == nil {
		return nil, errors.Wrap(ErrDecoderOpen, "avcodec_alloc_context3 returned nil")
	}
	stream := ic.fmtCtx.Streams()[handle.Index]
	if code := avcodec.AvcodecParametersToContext(ctx, stream.CodecParameters()); code < 0 {
		return nil, errors.Wrapf(ErrParamCopy, "avcodec_parameters_to_context: code %d", code)
	}
	if code := ctx.AvcodecOpen2(codec, nil); code < 0 {
		return nil, errors.Wrapf(ErrDecoderOpen, "avcodec_open2: code %d", code)
	}
	return &DecoderContext{ctx: ctx, Handle: handle}, nil
}

// Close frees the decoder context. Idempotent.
func (d *DecoderContext) Close() {
	if d.ctx != nil {
		avcodec.AvcodecFreeContext(d.ctx)
		d.ctx = nil
	}
}

// EncoderOptions carries the per-encoder open_encoder opts from §4.1:
// "threads":"auto" is always set; "strict":"experimental" is added only
// when StrictExperimental is true. OpenEncoder does not inspect the codec
// to decide this; the flag is false unless the caller sets it.
type EncoderOptions struct {
	BitRate            int64
	SampleRate         int // audio
	Channels           int // audio
	Width, Height      int // video
	PixFmt             avutil.PixelFormat
	StrictExperimental bool
}

// EncoderContext owns an opened encoder context.
type EncoderContext struct {
	ctx *avcodec.Context
}

// OpenEncoder allocates and opens an encoder for codecID with opts applied
// (§4.1).
func OpenEncoder(codecID avcodec.CodecId, opts EncoderOptions) (*EncoderContext, error) {
	codec := avcodec.AvcodecFindEncoder(codecID)
	if codec == nil {
		return nil, errors.Wrapf(ErrEncoderOpen, "no encoder for codec id %d", codecID)
	}
	ctx := codec.AvcodecAllocContext3()
	if ctx == nil {
		return nil, errors.Wrap(ErrEncoderOpen, "avcodec_alloc_context3 returned nil")
	}
	ctx.SetBitRate(opts.BitRate)
	if opts.SampleRate > 0 {
		ctx.SetSampleRate(opts.SampleRate)
		ctx.SetChannels(opts.Channels)
	}
	if opts.Width > 0 {
		ctx.SetWidth(opts.Width)
		ctx.SetHeight(opts.Height)
		ctx.SetPixFmt(opts.PixFmt)
	}

	var dict *avutil.Dictionary
	if code := avutil.AvDictSet(&dict, "threads", "auto", 0); code < 0 {
		return nil, errors.Wrapf(ErrEncoderOpen, "av_dict_set threads: code %d", code)
	}
	if opts.StrictExperimental {
		if code := avutil.AvDictSet(&dict, "strict", "experimental", 0); code < 0 {
			return nil, errors.Wrapf(ErrEncoderOpen, "av_dict_set strict: code %d", code)
		}
	}
	if code := ctx.AvcodecOpen2(codec, &dict); code < 0 {
		return nil, errors.Wrapf(ErrEncoderOpen, "avcodec_open2: code %d", code)
	}
	return &EncoderContext{ctx: ctx}, nil
}

// FrameSize returns the encoder's fixed output frame size (non-zero for
// audio codecs that demand fixed-size frames), used for audio packet
// duration bookkeeping in encodeFrame (§4.5).
func (e *EncoderContext) FrameSize() int { return e.ctx.FrameSize() }

// Close frees the encoder context. Idempotent.
func (e *EncoderContext) Close() {
	if e.ctx != nil {
		avcodec.AvcodecFreeContext(e.ctx)
		e.ctx = nil
	}
}

// --- push/pull verbs --------------------------------------------------------------

// SendPacket is the decoder-side push verb.
func (d *DecoderContext) SendPacket(pkt *avcodec.Packet) (VerbResult, error) {
	res, raw := verbResult(d.ctx.AvcodecSendPacket(pkt))
	if res == Fatal {
		return res, errors.Wrapf(ErrPacketSend, "avcodec_send_packet: code %d", raw)
	}
	return res, nil
}

// ReceiveFrame is the decoder-side pull verb.
func (d *DecoderContext) ReceiveFrame(frame *avutil.Frame) (VerbResult, error) {
	res, raw := verbResult(d.ctx.AvcodecReceiveFrame(frame))
	if res == Fatal {
		return res, errors.Wrapf(ErrFrameReceive, "avcodec_receive_frame: code %d", raw)
	}
	return res, nil
}

// SendFrame is the encoder-side push verb.
func (e *EncoderContext) SendFrame(frame *avutil.Frame) (VerbResult, error) {
	res, raw := verbResult(e.ctx.AvcodecSendFrame(frame))
	if res == Fatal {
		return res, errors.Wrapf(ErrFrameSend, "avcodec_send_frame: code %d", raw)
	}
	return res, nil
}

// ReceivePacket is the encoder-side pull verb.
func (e *EncoderContext) ReceivePacket(pkt *avcodec.Packet) (VerbResult, error) {
	res, raw := verbResult(e.ctx.AvcodecReceivePacket(pkt))
	if res == Fatal {
		return res, errors.Wrapf(ErrPacketReceive, "avcodec_receive_packet: code %d", raw)
	}
	return res, nil
}

// --- timestamp rescaling -----------------------------------------------------------

// Rounding mirrors libav's AVRounding values used by Rescale.
type Rounding int

const (
	RoundZero    Rounding = 0
	RoundInf     Rounding = 1
	RoundNearInf Rounding = 5 // AV_ROUND_NEAR_INF
)

// Rescale converts a timestamp between time bases with the given rounding
// (§4.1's rescale verb).
func Rescale(ts int64, from, to avutil.Rational, rounding Rounding) int64 {
	return avutil.AvRescaleQRnd(ts, from, to, avutil.AvRounding(rounding))
}

// RescalePlain converts a duration (no rounding mode needed, matches
// av_rescale_q).
func RescalePlain(ts int64, from, to avutil.Rational) int64 {
	return avutil.AvRescaleQ(ts, from, to)
}

// --- output container -------------------------------------------------------------

// OutputContext owns an allocated muxer and the streams created on it.
type OutputContext struct {
	fmtCtx    *avformat.Context
	ioCtx     *avformat.AvIOContext
	outPath   string
	headerSet bool
}

// CreateOutput allocates the output container for outPath guessed from its
// extension (OutputOpen phase, §4.5).
func CreateOutput(outPath string) (*OutputContext, error) {
	var fmtCtx *avformat.Context
	if code := avformat.AvformatAllocOutputContext2(&fmtCtx, nil, "", outPath); code < 0 || fmtCtx == nil {
		return nil, errors.Wrapf(ErrIoOpen, "avformat_alloc_output_context2: code %d", code)
	}

	var ioCtx *avformat.AvIOContext
	if code := avformat.AvIOOpen(&ioCtx, outPath, avformat.AVIO_FLAG_WRITE); code < 0 {
		avformat.AvformatFreeContext(fmtCtx)
		return nil, errors.Wrapf(ErrIoOpen, "avio_open %q: code %d", outPath, code)
	}
	fmtCtx.SetPb(ioCtx)

	return &OutputContext{fmtCtx: fmtCtx, ioCtx: ioCtx, outPath: outPath}, nil
}

// NewStream creates an output stream and returns it, used both for
// transcoded streams (bound to an encoder's codecpar) and copied streams
// (parameters copied straight from the input stream).
func (o *OutputContext) NewStream() *avformat.Stream {
	return o.fmtCtx.AvformatNewStream(nil)
}

// CopyStreamParameters copies codec parameters from an input stream onto an
// output stream verbatim (the copy path in StreamPlan, §4.3).
func CopyStreamParameters(dst *avformat.Stream, src *avformat.Stream) error {
	if code := avcodec.AvcodecParametersCopy(dst.CodecParameters(), src.CodecParameters()); code < 0 {
		return errors.Wrapf(ErrParamCopy, "avcodec_parameters_copy: code %d", code)
	}
	return nil
}

// WriteHeader writes the container header (§4.5 OutputOpen->Running).
func (o *OutputContext) WriteHeader() error {
	if code := o.fmtCtx.AvformatWriteHeader(nil); code < 0 {
		return errors.Wrapf(ErrMux, "avformat_write_header: code %d", code)
	}
	o.headerSet = true
	return nil
}

// WritePacket interleave-writes pkt to the muxer.
func (o *OutputContext) WritePacket(pkt *avcodec.Packet) error {
	if code := o.fmtCtx.AvInterleavedWriteFrame(pkt); code < 0 {
		return errors.Wrapf(ErrMux, "av_interleaved_write_frame: code %d", code)
	}
	return nil
}

// WriteTrailer finalizes the container. Only valid once WriteHeader has
// succeeded.
func (o *OutputContext) WriteTrailer() error {
	if !o.headerSet {
		return nil
	}
	if code := o.fmtCtx.AvWriteTrailer(); code < 0 {
		return errors.Wrapf(ErrTrailer, "av_write_trailer: code %d", code)
	}
	return nil
}

// Close releases the muxer and its I/O context. Safe to call more than
// once; does not remove the file on disk (that is Pipeline's job during
// post-run cleanup, §4.9).
func (o *OutputContext) Close() error {
	if o.fmtCtx == nil {
		return nil
	}
	if o.ioCtx != nil {
		avformat.AvIOClosep(&o.ioCtx)
	}
	avformat.AvformatFreeContext(o.fmtCtx)
	o.fmtCtx = nil
	return nil
}

// Path returns the path this output was created for, for cleanup logic.
func (o *OutputContext) Path() string { return o.outPath }
