// Package stream implements a stream-fusion engine for lazy map/filter
// pipelines over host-language values.
//
// Map and Filter chain onto one another to build a Pipeline; adjacent
// Map steps are fused into a single composed callable at construction
// time so that pulling one output element costs exactly one source
// pull plus one invocation per surviving step. Two execution strategies
// share the same Pipeline: an Interpreter that walks the step vector,
// and an optional compiled path (enabled per pipeline with WithJIT) that
// the dispatcher switches to once a pipeline crosses a length/step-count
// threshold.
package stream
