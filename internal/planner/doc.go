// Package planner computes the StreamPlan for one input file: which audio,
// video, and subtitle stream to use and whether each one needs transcoding,
// copying, or extracting, given a Configuration's language and codec
// preferences.
package planner
