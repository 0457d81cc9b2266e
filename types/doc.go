/*
Package types provides the shared type definitions of streamkit.

types is the lowest-level public package and depends on no other package
in the module, so that stream, transport, retry and config can all agree
on one error contract without import cycles.

# Core types

  - Error / ErrorCode — structured error taxonomy for stream failures,
    with a Retryable marker and optional stream identifier
  - helpers — NewError builder chain, IsRetryable, GetErrorCode

Cancellation is intentionally absent from the taxonomy: a cancelled
stream is not a failure and never surfaces through an Error value.
*/
package types
