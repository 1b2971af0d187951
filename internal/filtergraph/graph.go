// Package filtergraph builds the minimal libavfilter graphs SPEC_FULL.md
// §4.4 requires: a single linear buffer(src) -> format -> buffersink(sink)
// chain per transcoded stream, one instance per audio or video stream that
// needs re-encoding.
package filtergraph

import (
	"fmt"

	"github.com/asticode/goav/avfilter"
	"github.com/asticode/goav/avutil"
	"github.com/pkg/errors"

	"github.com/castmux/transcoder/internal/avlib"
)

// AudioParams describes the source/sink configuration for an audio graph,
// taken from the decoder (source side) and encoder (sink side) per §4.4.
type AudioParams struct {
	SampleFmt      avutil.SampleFormat
	SampleRate     int
	ChannelLayout  int64
	Channels       int
	TimeBase       avutil.Rational
	OutSampleFmt   avutil.SampleFormat
	OutSampleRate  int
	OutChannelLayout int64
}

// VideoParams describes the source/sink configuration for a video graph.
type VideoParams struct {
	Width, Height int
	PixFmt        avutil.PixelFormat
	TimeBase      avutil.Rational
	OutPixFmt     avutil.PixelFormat
}

// Graph wraps one allocated, linked, and configured filter chain.
type Graph struct {
	graph *avfilter.Graph
	src   *avfilter.Context
	sink  *avfilter.Context
}

// NewAudio builds `abuffer -> aformat -> abuffersink`. If the decoder's
// declared channel layout is rejected by abuffer, it retries once with the
// library's default layout for p.Channels; if that is rejected too, it
// returns ErrFilterBuild. The source context's layout field is never
// patched directly.
func NewAudio(p AudioParams) (*Graph, error) {
	g := avfilter.AvfilterGraphAlloc()
	if g == nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "avfilter_graph_alloc returned nil")
	}

	srcArgs := fmt.Sprintf(
		"time_base=%d/%d:sample_rate=%d:sample_fmt=%s:channel_layout=0x%x",
		p.TimeBase.Num(), p.TimeBase.Den(), p.SampleRate, avutil.AvGetSampleFmtName(p.SampleFmt), p.ChannelLayout,
	)
	src, err := createFilter(g, "abuffer", "in", srcArgs)
	if err != nil {
		// Retry with the default layout for the channel count; a second
		// failure is returned as ErrFilterBuild.
		fallback := avutil.AvGetDefaultChannelLayout(p.Channels)
		srcArgs = fmt.Sprintf(
			"time_base=%d/%d:sample_rate=%d:sample_fmt=%s:channel_layout=0x%x",
			p.TimeBase.Num(), p.TimeBase.Den(), p.SampleRate, avutil.AvGetSampleFmtName(p.SampleFmt), fallback,
		)
		src, err = createFilter(g, "abuffer", "in", srcArgs)
		if err != nil {
			return nil, errors.Wrap(avlib.ErrFilterBuild, "abuffer: "+err.Error())
		}
	}

	sink, err := createFilter(g, "abuffersink", "out", "")
	if err != nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "abuffersink: "+err.Error())
	}

	fmtArgs := fmt.Sprintf(
		"sample_fmts=%s:sample_rates=%d:channel_layouts=0x%x",
		avutil.AvGetSampleFmtName(p.OutSampleFmt), p.OutSampleRate, p.OutChannelLayout,
	)
	aformat, err := createFilter(g, "aformat", "fmt", fmtArgs)
	if err != nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "aformat: "+err.Error())
	}

	if err := link(src, aformat); err != nil {
		return nil, err
	}
	if err := link(aformat, sink); err != nil {
		return nil, err
	}
	if code := g.AvfilterGraphConfig(nil); code < 0 {
		return nil, errors.Wrapf(avlib.ErrFilterConfig, "avfilter_graph_config: code %d", code)
	}

	return &Graph{graph: g, src: src, sink: sink}, nil
}

// NewVideo builds `buffer -> format -> buffersink`.
func NewVideo(p VideoParams) (*Graph, error) {
	g := avfilter.AvfilterGraphAlloc()
	if g == nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "avfilter_graph_alloc returned nil")
	}

	srcArgs := fmt.Sprintf(
		"video_size=%dx%d:pix_fmt=%d:time_base=%d/%d:pixel_aspect=1/1",
		p.Width, p.Height, int(p.PixFmt), p.TimeBase.Num(), p.TimeBase.Den(),
	)
	src, err := createFilter(g, "buffer", "in", srcArgs)
	if err != nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "buffer: "+err.Error())
	}

	sink, err := createFilter(g, "buffersink", "out", "")
	if err != nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "buffersink: "+err.Error())
	}

	formatFilter, err := createFilter(g, "format", "fmt", fmt.Sprintf("pix_fmts=%d", int(p.OutPixFmt)))
	if err != nil {
		return nil, errors.Wrap(avlib.ErrFilterBuild, "format: "+err.Error())
	}

	if err := link(src, formatFilter); err != nil {
		return nil, err
	}
	if err := link(formatFilter, sink); err != nil {
		return nil, err
	}
	if code := g.AvfilterGraphConfig(nil); code < 0 {
		return nil, errors.Wrapf(avlib.ErrFilterConfig, "avfilter_graph_config: code %d", code)
	}

	return &Graph{graph: g, src: src, sink: sink}, nil
}

func createFilter(g *avfilter.Graph, filterName, instanceName, args string) (*avfilter.Context, error) {
	filter := avfilter.AvfilterGetByName(filterName)
	if filter == nil {
		return nil, errors.Errorf("unknown filter %q", filterName)
	}
	var ctx *avfilter.Context
	if code := avfilter.AvfilterGraphCreateFilter(&ctx, filter, instanceName, args, nil, g); code < 0 {
		return nil, errors.Errorf("avfilter_graph_create_filter(%s): code %d", filterName, code)
	}
	return ctx, nil
}

func link(src, dst *avfilter.Context) error {
	if code := avfilter.AvfilterLink(src, 0, dst, 0); code < 0 {
		return errors.Wrapf(avlib.ErrFilterLink, "avfilter_link: code %d", code)
	}
	return nil
}

// Push feeds one decoded frame into the graph's source.
func (g *Graph) Push(frame *avutil.Frame) error {
	if code := g.graph.AvBuffersrcAddFrameFlags(g.src, frame, 0); code < 0 {
		return errors.Wrapf(avlib.ErrFilterLink, "av_buffersrc_add_frame_flags: code %d", code)
	}
	return nil
}

// PullFrame drains one filtered frame from the sink (§4.4's pull step).
func (g *Graph) PullFrame(frame *avutil.Frame) (avlib.VerbResult, error) {
	code := g.graph.AvBuffersinkGetFrame(g.sink, frame)
	res, raw := classify(code)
	if res == avlib.Fatal {
		return res, errors.Errorf("av_buffersink_get_frame: code %d", raw)
	}
	return res, nil
}

func classify(code int) (avlib.VerbResult, int) {
	switch {
	case code >= 0:
		return avlib.Ok, 0
	case code == -11: // EAGAIN
		return avlib.Again, code
	case code == -541478725: // AVERROR_EOF
		return avlib.Eof, code
	default:
		return avlib.Fatal, code
	}
}

// Close frees the whole graph, which frees every filter context it owns.
func (g *Graph) Close() {
	if g.graph != nil {
		g.graph.AvfilterGraphFree()
		g.graph = nil
	}
}
