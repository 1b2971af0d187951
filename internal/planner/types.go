package planner

// AudioPlan describes the selected audio stream, if any, and whether it
// needs transcoding to the configured codec/channel layout.
type AudioPlan struct {
	Found          bool
	Index          int // input stream index, meaningless if !Found.
	NeedsTranscode bool
}

// VideoPlan describes the selected video stream and whether it needs
// transcoding to the configured codec.
type VideoPlan struct {
	Found          bool
	Index          int
	NeedsTranscode bool
}

// SubtitlePlan describes the selected subtitle stream, if any. IsSRT
// records whether the source codec is SRT; NeedsExtract is only true when
// extraction is both enabled and the codec is SRT.
type SubtitlePlan struct {
	Found        bool
	Index        int
	IsSRT        bool
	NeedsExtract bool
}

// FilePlan is the full StreamPlan for one input file (SPEC_FULL.md §4.3).
type FilePlan struct {
	Audio    AudioPlan
	Video    VideoPlan
	Subtitle SubtitlePlan
}

// NeedsProcessing reports whether any stream actually requires work: an
// audio or video transcode, or a subtitle extraction. A file where every
// stream is already in the target format (even if streams exist to copy)
// has nothing to do and the pipeline skips it without opening an output,
// per §4.3's "already in correct format" rule.
func (p *FilePlan) NeedsProcessing() bool {
	return p.Audio.NeedsTranscode || p.Video.NeedsTranscode || p.Subtitle.NeedsExtract
}
