// Package pipeline implements the TranscodingPipeline state machine: file
// discovery, per-file StreamPlan-driven demux/decode/filter/encode/mux,
// and the aggregate run statistics the CLI harness reports at the end of a
// batch.
package pipeline
