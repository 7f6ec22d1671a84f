// Package tasks runs Spotify collections through the download pipeline with real-time progress reporting.
//
// # Pipeline
//
// [Engine.Run] drives one collection URL through six phases:
//
//  1. [PhaseResolve] : read collection metadata from the catalog
//  2. [PhaseAcquire] : run the download tool, retrying and falling back to a second format
//  3. [PhaseArtwork] : fetch cover art into a temp file (failures only warn)
//  4. [PhaseMatch] : pair downloaded files with tracks by title
//  5. [PhaseConvert] : normalize each pair on a bounded worker pool
//  6. [PhaseLog] : append a SUCCESS line to the run log
//
// Resolution and acquisition failures abort the run. A run that converts nothing returns
// [shared.ErrNothingConverted] and leaves the run log untouched.
//
// # Matching
//
// [Match] is greedy and order-dependent: tracks are visited in canonical order and each takes the first
// unclaimed file whose lower-cased stem contains the lower-cased title. Tracks with no candidate are dropped.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// [Processor] bounds in-flight conversions with an errgroup limit. Jobs always return nil so one failure
// never cancels its siblings; successes are tallied with an atomic counter.
package tasks
