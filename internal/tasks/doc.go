// Package tasks reorders playlists chronologically with real-time progress reporting.
//
// # Pipeline
//
// [ReorderEngine.Reconcile] runs four steps for a playlist, strictly in sequence:
//
//  1. [SnapshotReader] : Page through every item, drop unavailable tracks and unparseable
//     release dates, and sort by (release date, album name)
//  2. [BackupWriter] : Persist the sorted snapshot (CSV in practice) before anything is removed
//  3. [BulkClearer] : Remove every distinct track id in batches of at most 100
//  4. [SequentialWriter] : Re-add the tracks one call at a time, pausing on a [Pacer] after each success
//
// Re-adding one track per call is what makes the service's "date added" column match the new order.
//
// # Failure Semantics
//
// Item and batch failures are logged and skipped. A failed read yields an incomplete snapshot and the
// playlist is skipped without being cleared. A failed backup aborts that playlist. Nothing is rolled back.
//
// # Batches
//
// [ReorderEngine.ReconcileAll] processes many playlists using an errgroup with a configurable limit.
// The default limit of one reproduces fully sequential behavior. A per-playlist lock keeps two runs
// from touching the same playlist at once.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
