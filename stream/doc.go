/*
Package stream implements the streaming-response core: chunk
aggregation, throttled emission, and a registry of cancellable named
streams.

# Components

  - Aggregator — buffers incoming text fragments and finalizes
    whitespace-delimited units, tracking unit throughput. Two documented
    delimiter policies: DropDelimiters (clean tokens, empties dropped)
    and KeepDelimiters (verbatim segments, exact round-trip).
  - Emitter — coalesces arrivals and forwards the whole buffer to a
    consumer sink at most once per configured interval; Finish drains
    the remainder and tears the timer down.
  - Registry — at most one live stream per identifier; starting over an
    in-use id cancels the previous stream first, and cancellation
    suppresses all further callbacks. Running -> {Completed | Failed |
    Cancelled}, all terminal.
  - RunPipeline / PipelineWork — glue pulling a transport.Source through
    an Aggregator into an Emitter, with optional metrics and token
    accounting.
  - Pacer — token-bucket spacing for simulated-typing consumers.

Aggregator and Emitter instances are single-writer: each belongs to one
stream's goroutine. The Registry is the only type here that is safe for
concurrent use.
*/
package stream
