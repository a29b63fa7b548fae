// Package models defines the domain types shared by the reorder pipeline.
//
// The package contains two categories of types:
//
// 1. Snapshot types: what the reader builds from a remote playlist
//   - [Playlist] : Basic playlist metadata (id, name, owner, track count)
//   - [TrackRecord] : One playable track projected for ordering and backup
//   - [ReleaseDate] : Album release date with its original precision
//   - [Snapshot] : A playlist's tracks in chronological order, plus read diagnostics
//
// 2. Persistent entities: rows in the run ledger
//   - [RunRecord] : Outcome of reconciling one playlist
//
// [SortTracks] defines the target ordering: ascending release date, ties broken by album name, otherwise stable.
package models
