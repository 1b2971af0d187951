package avlib

// Raw libav return codes the adapter classifies into VerbResult. These
// match FFmpeg's own AVERROR() encoding (negated errno) and its
// AVERROR_EOF sentinel (FFERRTAG('E','O','F',' ')); they are not re-derived
// from goav because goav exposes them as C int constants that don't import
// cleanly into a portable Go const block.
const (
	averrorEAGAIN = -11
	averrorEOF    = -541478725
)
