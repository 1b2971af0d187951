package pipeline

import (
	"context"

	"github.com/asticode/goav/avcodec"
	"github.com/asticode/goav/avutil"
	"github.com/pkg/errors"

	"github.com/castmux/transcoder/internal/avlib"
)

// runLoop implements the Running state's main demux/mux loop (§4.5). It
// returns when the demuxer reports EOF (the normal path to Flushing) or
// when a fatal error or cancellation interrupts it.
func (p *Pipeline) runLoop(ctx context.Context) error {
	pkt := avcodec.AvPacketAlloc()
	defer avcodec.AvPacketFree(&pkt)

	for {
		if ctx.Err() != nil || p.cancelled.Load() {
			p.cancelled.Store(true)
			return nil
		}

		res, err := p.input.ReadPacket(pkt)
		if err != nil {
			return err
		}
		if res == avlib.Eof {
			return nil
		}

		if pct := p.input.Progress(); pct != p.lastPct {
			p.lastPct = pct
			p.bus.Progress(pct)
		}

		if err := p.dispatchPacket(pkt); err != nil {
			avcodec.AvPacketUnref(pkt)
			return err
		}
		avcodec.AvPacketUnref(pkt)
	}
}

func (p *Pipeline) dispatchPacket(pkt *avcodec.Packet) error {
	idx := pkt.StreamIndex()
	switch {
	case p.video != nil && idx == p.video.inIndex:
		if p.video.copy {
			return p.writeCopy(p.video, pkt)
		}
		return p.processPacket(p.video, pkt)
	case p.audio != nil && idx == p.audio.inIndex:
		if p.audio.copy {
			return p.writeCopy(p.audio, pkt)
		}
		return p.processPacket(p.audio, pkt)
	case p.subWrite != nil && idx == p.plan.Subtitle.Index:
		return p.writeSRTPacket(pkt)
	default:
		return nil
	}
}

// processPacket implements the push/pull decode->filter->encode chain
// from §4.5. A nil pkt signals end-of-stream draining (flushStreams).
func (p *Pipeline) processPacket(sr *streamResources, pkt *avcodec.Packet) error {
	res, err := sr.decoder.SendPacket(pkt)
	if err != nil {
		return err
	}
	if res == avlib.Again {
		return errors.New("avlib: unexpected EAGAIN from decoder send_packet")
	}

	frame := avutil.AvFrameAlloc()
	defer avutil.AvFrameFree(&frame)

	for {
		res, err := sr.decoder.ReceiveFrame(frame)
		if err != nil {
			return err
		}
		if res == avlib.Again || res == avlib.Eof {
			return nil
		}

		if err := sr.graph.Push(frame); err != nil {
			return err
		}
		if err := p.drainFilterAndEncode(sr); err != nil {
			return err
		}
	}
}

// drainFilterAndEncode pulls every filtered frame currently available from
// sr's sink, pushes each to the encoder, and writes every packet the
// encoder in turn produces.
func (p *Pipeline) drainFilterAndEncode(sr *streamResources) error {
	filtered := avutil.AvFrameAlloc()
	defer avutil.AvFrameFree(&filtered)

	for {
		res, err := sr.graph.PullFrame(filtered)
		if err != nil {
			return err
		}
		if res == avlib.Again || res == avlib.Eof {
			return nil
		}

		if err := p.encodeFrame(sr, filtered); err != nil {
			return err
		}
	}
}

func (p *Pipeline) encodeFrame(sr *streamResources, frame *avutil.Frame) error {
	res, err := sr.encoder.SendFrame(frame)
	if err != nil {
		return err
	}
	if res == avlib.Again {
		return errors.New("avlib: unexpected EAGAIN from encoder send_frame")
	}

	outPkt := avcodec.AvPacketAlloc()
	defer avcodec.AvPacketFree(&outPkt)

	for {
		res, err := sr.encoder.ReceivePacket(outPkt)
		if err != nil {
			return err
		}
		if res == avlib.Again || res == avlib.Eof {
			return nil
		}

		if sr.role == "audio" {
			outPkt.SetPts(sr.pts)
			outPkt.SetDts(sr.pts)
			duration := int64(sr.encoder.FrameSize())
			outPkt.SetDuration(duration)
			sr.pts += duration
		}

		if err := p.writeAVPacket(sr, outPkt); err != nil {
			return err
		}
		avcodec.AvPacketUnref(outPkt)
	}
}

// writeAVPacket implements §4.5's write_av_packet: stream index
// assignment, DTS/PTS repair, monotonic video timestamp forcing,
// time-base rescale, then interleaved write.
func (p *Pipeline) writeAVPacket(sr *streamResources, pkt *avcodec.Packet) error {
	pkt.SetStreamIndex(sr.outStream.Index())

	if sr.role == "video" && p.cfg.ForceMonotonicVideoTimestamps {
		pkt.SetPts(sr.dtsSeq)
		pkt.SetDts(sr.dtsSeq)
		pkt.SetDuration(1)
		sr.dtsSeq++
	} else {
		if pkt.Dts() == avutil.AV_NOPTS_VALUE {
			pkt.SetDts(sr.lastDTS)
		} else {
			sr.lastDTS = pkt.Dts()
		}
		if pkt.Pts() == avutil.AV_NOPTS_VALUE {
			pkt.SetPts(pkt.Dts())
		}
	}

	codecTB := sr.timeBase
	streamTB := sr.outStream.TimeBase()
	pkt.SetPts(avlib.Rescale(pkt.Pts(), codecTB, streamTB, avlib.RoundNearInf))
	pkt.SetDts(avlib.Rescale(pkt.Dts(), codecTB, streamTB, avlib.RoundNearInf))
	if pkt.Duration() > 0 {
		pkt.SetDuration(avlib.RescalePlain(pkt.Duration(), codecTB, streamTB))
	}

	return p.output.WritePacket(pkt)
}

// writeCopy implements §4.5's write_copy: no rescaling, input timestamps
// pass straight through.
func (p *Pipeline) writeCopy(sr *streamResources, pkt *avcodec.Packet) error {
	pkt.SetStreamIndex(sr.outStream.Index())
	return p.output.WritePacket(pkt)
}

// writeSRTPacket implements §4.6's per-packet cue write.
func (p *Pipeline) writeSRTPacket(pkt *avcodec.Packet) error {
	if pkt.Size() == 0 {
		return nil
	}
	tb := p.input.Streams[p.plan.Subtitle.Index].TimeBase
	if err := p.subWrite.WritePacket(pkt.Pts(), pkt.Duration(), tb, pkt.Data()); err != nil {
		return err
	}
	return nil
}

// flushStreams implements the Flushing state: drain each transcoded
// stream's decoder/filter/encoder with a nil-packet marker, then close the
// SRT file if one is open.
func (p *Pipeline) flushStreams() error {
	for _, sr := range []*streamResources{p.video, p.audio} {
		if sr == nil || sr.copy {
			continue
		}
		if err := p.processPacket(sr, nil); err != nil {
			return err
		}
		if err := p.drainEncoderEOF(sr); err != nil {
			return err
		}
	}
	if p.subWrite != nil {
		if err := p.subWrite.Close(); err != nil {
			return err
		}
	}
	return nil
}

// drainEncoderEOF signals end-of-stream to sr's encoder and writes every
// packet it still has buffered.
func (p *Pipeline) drainEncoderEOF(sr *streamResources) error {
	if _, err := sr.encoder.SendFrame(nil); err != nil {
		return err
	}
	outPkt := avcodec.AvPacketAlloc()
	defer avcodec.AvPacketFree(&outPkt)

	for {
		res, err := sr.encoder.ReceivePacket(outPkt)
		if err != nil {
			return err
		}
		if res == avlib.Again || res == avlib.Eof {
			return nil
		}
		if sr.role == "audio" {
			outPkt.SetPts(sr.pts)
			outPkt.SetDts(sr.pts)
			duration := int64(sr.encoder.FrameSize())
			outPkt.SetDuration(duration)
			sr.pts += duration
		}
		if err := p.writeAVPacket(sr, outPkt); err != nil {
			return err
		}
		avcodec.AvPacketUnref(outPkt)
	}
}
