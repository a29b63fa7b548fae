package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgSnapshotFetched
	MsgProgressUpdate
	MsgReorderComplete
)

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type snapshotFetched struct {
	snapshot *models.Snapshot
	err      error
}

type reorderComplete struct {
	result *tasks.ReconcileResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// snapshotFetchedMsg is the constructor for [MsgSnapshotFetched]
func snapshotFetchedMsg(snapshot *models.Snapshot, err error) Msg {
	return Msg{kind: MsgSnapshotFetched, data: snapshotFetched{snapshot, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// reorderCompleteMsg is the constructor for [MsgReorderComplete]
func reorderCompleteMsg(result *tasks.ReconcileResult, err error) Msg {
	return Msg{kind: MsgReorderComplete, data: reorderComplete{result, err}}
}
