// Package stream turns a driver's neutral event stream into Anthropic's
// server-sent event schema, tracking the monotone content-block index for
// exactly one response, and can instead assemble the same event stream
// into a single buffered Anthropic message for non-streaming requests.
//
// Grounded on other_examples/tingly-dev-tingly-box__stream_util.go's
// streamState: a small struct owning a block-index counter and per-index
// open-block bookkeeping, rather than threading index state through
// function arguments.
package stream
