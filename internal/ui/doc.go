// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reordering one playlist:
//  1. [PlaylistListView] : Browse the user's playlists (excluded ones are marked)
//  2. [PreviewView] : Inspect the sorted order before anything changes
//  3. [ConfirmView] : Confirm the destructive clear and re-add
//  4. [ReorderView] : Monitor progress through backup, clear and re-add
//  5. [ResultView] : Display the outcome and backup location
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ReorderEngine, providing non-blocking status reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
