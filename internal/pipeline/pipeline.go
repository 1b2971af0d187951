package pipeline

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/asticode/goav/avcodec"
	"github.com/asticode/goav/avformat"
	"github.com/asticode/goav/avutil"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/castmux/transcoder/internal/avlib"
	"github.com/castmux/transcoder/internal/config"
	"github.com/castmux/transcoder/internal/events"
	"github.com/castmux/transcoder/internal/filtergraph"
	"github.com/castmux/transcoder/internal/planner"
	"github.com/castmux/transcoder/internal/subtitle"
)

// State is one node of the TranscodingPipeline state machine (§4.5).
type State int

const (
	StateInit State = iota
	StateAnalyzing
	StateSkipped
	StateOutputOpen
	StateRunning
	StateFlushing
	StateClosing
	StateDone
	StateCancelled
	StateFailed
)

// globalAVMutex serializes open_input/find_stream_info/open_output
// sequences across Pipelines, since those library calls touch shared
// tables even though the main demux/encode loop does not need it (§5).
var globalAVMutex sync.Mutex

// Pipeline owns every codec-library resource for one input file end to
// end. A Pipeline is used once: construct, Run, discard.
type Pipeline struct {
	ID     uuid.UUID
	cfg    *config.Config
	inPath string
	bus    *events.Bus

	state     State
	cancelled atomic.Bool

	input  *avlib.InputContext
	output *avlib.OutputContext
	plan   planner.FilePlan

	audio    *streamResources
	video    *streamResources
	subWrite *subtitle.Writer

	outputPath string
	srtPath    string
	lastPct    int
	released   bool
}

// streamResources holds every per-stream resource a transcoded or copied
// audio/video stream needs (§3's Stream type).
type streamResources struct {
	role      string
	inIndex   int
	outStream *avformat.Stream
	decoder   *avlib.DecoderContext
	encoder   *avlib.EncoderContext
	graph     *filtergraph.Graph
	copy      bool
	active    bool

	pts       int64
	dtsSeq    int64
	lastDTS   int64
	startDTS  int64
	haveStart bool
	timeBase  avutil.Rational
}

// New constructs a Pipeline for one input file. bus is this Pipeline's
// exclusive send side of the event channel to the Dispatcher.
func New(id uuid.UUID, cfg *config.Config, inputPath string, bus *events.Bus) *Pipeline {
	return &Pipeline{ID: id, cfg: cfg, inPath: inputPath, bus: bus, state: StateInit}
}

// Cancel requests cooperative cancellation; it is checked at every packet
// boundary and before Run enters each working phase (Analyzing,
// OutputOpen, Flushing, Closing).
func (p *Pipeline) Cancel() { p.cancelled.Store(true) }

// Run drives the whole state machine to a terminal state and always
// releases every resource it allocated, on every exit path, before
// returning. It emits exactly one Finished event.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.release()

	if ctx.Err() != nil || p.cancelled.Load() {
		return p.cancelOut()
	}

	p.state = StateAnalyzing
	if err := p.analyze(); err != nil {
		p.fail(err)
		return err
	}

	if !p.plan.NeedsProcessing() {
		p.state = StateSkipped
		p.bus.Info("already in correct format")
		p.bus.Finished(false, true, nil)
		return nil
	}

	if p.cancelled.Load() {
		return p.cancelOut()
	}

	p.state = StateOutputOpen
	if err := p.openOutput(); err != nil {
		p.fail(err)
		return err
	}

	p.state = StateRunning
	if err := p.runLoop(ctx); err != nil {
		p.fail(err)
		return err
	}
	if p.cancelled.Load() {
		return p.cancelOut()
	}

	p.state = StateFlushing
	if err := p.flushStreams(); err != nil {
		p.fail(err)
		return err
	}
	if p.cancelled.Load() {
		return p.cancelOut()
	}

	p.state = StateClosing
	if err := p.output.WriteTrailer(); err != nil {
		p.fail(err)
		return err
	}

	p.state = StateDone
	p.bus.Finished(false, false, nil)
	return nil
}

func (p *Pipeline) fail(err error) {
	p.state = StateFailed
	p.bus.Error(err.Error())
	p.removePartialOutputs()
	p.bus.Finished(false, false, err)
}

func (p *Pipeline) cancelOut() error {
	p.state = StateCancelled
	p.removePartialOutputs()
	p.bus.Finished(true, false, nil)
	return nil
}

// analyze implements Init->Analyzing: open the input by path, probe it,
// and run StreamPlan.
func (p *Pipeline) analyze() error {
	if _, err := os.Stat(p.inPath); err != nil {
		return errors.Wrapf(avlib.ErrIoOpen, "stat %q: %v", p.inPath, err)
	}

	globalAVMutex.Lock()
	input, err := avlib.OpenInput(p.inPath)
	globalAVMutex.Unlock()
	if err != nil {
		return err
	}
	p.input = input

	p.plan = planner.BuildPlan(input, p.cfg)
	if !p.plan.Audio.Found && !p.plan.Video.Found {
		return avlib.ErrNoStreams
	}
	if !p.plan.Video.Found {
		return avlib.ErrNoVideo
	}
	if !p.plan.Audio.Found {
		return avlib.ErrNoAudio
	}

	p.outputPath = mediaOutputPath(p.inPath, p.cfg)
	p.srtPath = srtOutputPath(p.inPath)
	if _, err := os.Stat(p.outputPath); err == nil {
		return errors.Wrapf(avlib.ErrOutputExists, "%q", p.outputPath)
	}

	return nil
}

// openOutput implements OutputOpen: allocate the muxer, open encoders and
// filter graphs for transcoded streams, copy parameters for copied
// streams, and write the container header.
func (p *Pipeline) openOutput() error {
	globalAVMutex.Lock()
	defer globalAVMutex.Unlock()

	out, err := avlib.CreateOutput(p.outputPath)
	if err != nil {
		return err
	}
	p.output = out

	if p.plan.Video.Found {
		sr, err := p.openStream("video", p.plan.Video.Index, p.plan.Video.NeedsTranscode, targetVideoCodecID(p.cfg))
		if err != nil {
			return err
		}
		p.video = sr
	}
	if p.plan.Audio.Found {
		sr, err := p.openStream("audio", p.plan.Audio.Index, p.plan.Audio.NeedsTranscode, targetAudioCodecID(p.cfg))
		if err != nil {
			return err
		}
		p.audio = sr
	}
	if p.plan.Subtitle.NeedsExtract {
		w, err := subtitle.New(p.srtPath)
		if err != nil {
			return err
		}
		p.subWrite = w
	}

	return p.output.WriteHeader()
}

func (p *Pipeline) openStream(role string, inIndex int, transcode bool, targetCodecID avcodec.CodecId) (*streamResources, error) {
	handle := p.input.Streams[inIndex]
	sr := &streamResources{role: role, inIndex: inIndex, active: true, copy: !transcode}
	sr.outStream = p.output.NewStream()

	srcStream := p.input.StreamAt(inIndex)
	if !transcode {
		if err := avlib.CopyStreamParameters(sr.outStream, srcStream); err != nil {
			return nil, err
		}
		sr.timeBase = handle.TimeBase
		return sr, nil
	}

	dec, err := avlib.OpenDecoder(p.input, handle)
	if err != nil {
		return nil, err
	}
	sr.decoder = dec

	enc, graph, err := p.openEncoderAndGraph(role, handle, targetCodecID)
	if err != nil {
		dec.Close()
		return nil, err
	}
	sr.encoder = enc
	sr.graph = graph
	sr.timeBase = handle.TimeBase

	return sr, nil
}

// removePartialOutputs implements §4.9: on cancel or failure, delete any
// partial media output and any partial SRT sidecar, logging IoRemove
// non-fatally if a removal itself fails.
func (p *Pipeline) removePartialOutputs() {
	if p.output != nil {
		if err := os.Remove(p.outputPath); err != nil && !os.IsNotExist(err) {
			p.bus.Error(errors.Wrapf(avlib.ErrIoRemove, "remove %q: %v", p.outputPath, err).Error())
		}
	}
	if p.subWrite != nil {
		if err := p.subWrite.Abort(); err != nil {
			p.bus.Error(err.Error())
		}
	}
}

// release tears down every resource this Pipeline allocated, in reverse
// allocation order, idempotently. It is always the first deferred call in
// Run, so it runs on every exit path.
func (p *Pipeline) release() {
	if p.released {
		return
	}
	p.released = true

	if p.subWrite != nil {
		p.subWrite.Close()
	}
	if p.audio != nil {
		p.audio.close()
	}
	if p.video != nil {
		p.video.close()
	}
	if p.output != nil {
		p.output.Close()
	}
	if p.input != nil {
		p.input.Close()
	}
}

func (sr *streamResources) close() {
	if sr.graph != nil {
		sr.graph.Close()
	}
	if sr.encoder != nil {
		sr.encoder.Close()
	}
	if sr.decoder != nil {
		sr.decoder.Close()
	}
}
