package avlib

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy in SPEC_FULL.md §7. Call sites wrap these
// with errors.Wrapf for context; callers compare with errors.Is against the
// sentinel, never against formatted text.
var (
	ErrIoOpen        = errors.New("avlib: io open failed")
	ErrIoWrite       = errors.New("avlib: io write failed")
	ErrIoRemove      = errors.New("avlib: io remove failed")
	ErrOutputExists  = errors.New("avlib: output already exists")
	ErrProbe         = errors.New("avlib: probe failed")
	ErrNoStreams     = errors.New("avlib: input has no streams")
	ErrNoAudio       = errors.New("avlib: no audio stream found")
	ErrNoVideo       = errors.New("avlib: no video stream found")
	ErrDecoderOpen   = errors.New("avlib: decoder open failed")
	ErrEncoderOpen   = errors.New("avlib: encoder open failed")
	ErrParamCopy     = errors.New("avlib: codec parameter copy failed")
	ErrFilterBuild   = errors.New("avlib: filter allocation failed")
	ErrFilterLink    = errors.New("avlib: filter link failed")
	ErrFilterConfig  = errors.New("avlib: filter graph config failed")
	ErrPacketSend    = errors.New("avlib: send packet failed")
	ErrFrameReceive  = errors.New("avlib: receive frame failed")
	ErrFrameSend     = errors.New("avlib: send frame failed")
	ErrPacketReceive = errors.New("avlib: receive packet failed")
	ErrMux           = errors.New("avlib: interleaved write failed")
	ErrTrailer       = errors.New("avlib: write trailer failed")
)

// VerbResult is the outcome of one of the four push/pull codec verbs
// (send_packet, receive_frame, send_frame, receive_packet) from §4.1.
type VerbResult int

const (
	// Ok means the call fully succeeded and produced or consumed data.
	Ok VerbResult = iota
	// Again means the codec needs more input before it can produce output
	// (EAGAIN); the caller should feed it and retry.
	Again
	// Eof means the codec has no more output to drain.
	Eof
	// Fatal means the call failed for a reason other than EAGAIN/EOF; Code
	// carries the underlying libav error code.
	Fatal
)

// verbResult classifies a raw libav return code (negative on error, 0 on
// success) into a VerbResult, mirroring the AVERROR(EAGAIN)/AVERROR_EOF
// checks every push/pull loop in the adapter performs.
func verbResult(code int) (VerbResult, int) {
	switch {
	case code >= 0:
		return Ok, 0
	case code == averrorEAGAIN:
		return Again, code
	case code == averrorEOF:
		return Eof, code
	default:
		return Fatal, code
	}
}
