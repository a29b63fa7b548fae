package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/tasks"
	"github.com/samber/lo"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	PreviewView
	ConfirmView
	ReorderView
	ResultView
)

// Reorderer previews and reconciles a single playlist. [tasks.ReorderEngine] satisfies it.
type Reorderer interface {
	Preview(ctx context.Context, playlist models.Playlist) (*models.Snapshot, error)
	Reconcile(ctx context.Context, playlist models.Playlist, progress chan<- tasks.ProgressUpdate) (*tasks.ReconcileResult, error)
}

// Options tweaks TUI behavior.
type Options struct {
	Exclude []string // playlist names that cannot be reordered
	DryRun  bool     // back up only
}

// run carries one reorder's progress and final result from the engine goroutine.
type run struct {
	progress chan tasks.ProgressUpdate
	done     chan reorderComplete
	cancel   context.CancelFunc
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	service      services.PlaylistService
	engine       Reorderer
	opts         Options
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	selected     *models.Playlist
	snapshot     *models.Snapshot
	active       *run
	progress     tasks.ProgressUpdate
	result       *tasks.ReconcileResult
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, service services.PlaylistService, engine Reorderer, opts Options) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		service:      service,
		engine:       engine,
		opts:         opts,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.trackList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ReorderView:
			if key.Matches(msg, m.keys.quit) && m.active != nil {
				m.active.cancel()
				m.status = "stopping after the current track..."
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := lo.Map(data.playlists, func(p models.Playlist, _ int) list.Item {
			return playlistItem{playlist: p, excluded: lo.Contains(m.opts.Exclude, p.Name)}
		})
		m.playlistList.SetItems(items)
		m.playlistList.Title = "Your Playlists"
		return m, nil

	case MsgSnapshotFetched:
		data := msg.data.(snapshotFetched)
		if data.err != nil {
			m.status = fmt.Sprintf("could not read playlist: %v", data.err)
			m.view = PlaylistListView
			return m, nil
		}
		m.snapshot = data.snapshot
		items := make([]list.Item, len(data.snapshot.Tracks))
		for i, track := range data.snapshot.Tracks {
			items[i] = trackItem{position: i + 1, track: track}
		}
		m.trackList.SetItems(items)
		m.trackList.Title = fmt.Sprintf("Sorted order for '%s'", data.snapshot.Playlist.Name)
		m.status = ""
		m.view = PreviewView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgReorderComplete:
		data := msg.data.(reorderComplete)
		m.result = data.result
		m.err = data.err
		m.active = nil
		m.status = ""
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case PlaylistListView:
		body = m.renderPlaylistList()
	case PreviewView:
		body = m.renderPreview()
	case ConfirmView:
		body = m.renderConfirm()
	case ReorderView:
		body = m.renderReorder()
	case ResultView:
		body = m.renderResult()
	}

	if m.status != "" {
		body += "\n" + styles.warn.Render(m.status)
	}
	return body
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		item, ok := m.playlistList.SelectedItem().(playlistItem)
		if !ok {
			return m, nil
		}
		if item.excluded {
			m.status = fmt.Sprintf("'%s' is excluded in config", item.playlist.Name)
			return m, nil
		}
		pl := item.playlist
		m.selected = &pl
		m.status = fmt.Sprintf("reading '%s'...", pl.Name)
		return m, m.fetchSnapshot(pl)
	}

	return m.updateLists(msg)
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.snapshot = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.snapshot == nil || m.snapshot.Len() == 0 {
			m.status = "nothing to reorder"
			return m, nil
		}
		m.view = ConfirmView
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = PreviewView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ReorderView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startReorder()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = nil
		m.snapshot = nil
		m.result = nil
		m.err = nil
		m.status = ""
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case PreviewView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		user, err := m.service.CurrentUser(m.ctx)
		if err != nil {
			return playlistsFetchedMsg(nil, err)
		}
		playlists, err := m.service.Playlists(m.ctx, user)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchSnapshot(pl models.Playlist) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.engine.Preview(m.ctx, pl)
		return snapshotFetchedMsg(snap, err)
	}
}

func (m *Model) startReorder() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	r := &run{
		progress: make(chan tasks.ProgressUpdate, 64),
		done:     make(chan reorderComplete, 1),
		cancel:   cancel,
	}
	m.active = r
	pl := *m.selected

	go func() {
		defer cancel()
		result, err := m.engine.Reconcile(ctx, pl, r.progress)
		r.done <- reorderComplete{result, err}
		close(r.progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	r := m.active
	return func() tea.Msg {
		if r == nil {
			return reorderCompleteMsg(m.result, m.err)
		}

		update, ok := <-r.progress
		if !ok {
			done := <-r.done
			return reorderCompleteMsg(done.result, done.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderPreview() string {
	reorderKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "reorder"))
	helpView := m.help.ShortHelpView([]key.Binding{reorderKey, m.keys.back, m.keys.quit})

	var dropped string
	if n := m.snapshot.Dropped.Total(); n > 0 {
		dropped = styles.warn.Render(fmt.Sprintf("%d items will not be re-added (unavailable, missing id, or bad date)", n)) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.trackList.View(), dropped, helpView)
}

func (m *Model) renderConfirm() string {
	verb := "Reorder"
	if m.opts.DryRun {
		verb = "Back up (dry run)"
	}
	title := styles.title.Render(fmt.Sprintf("%s '%s'?", verb, m.selected.Name))

	var info strings.Builder
	fmt.Fprintf(&info, "Tracks: %d\n", m.snapshot.Len())
	if !m.opts.DryRun {
		info.WriteString("The playlist is backed up and cleared, then rebuilt one track at a time.\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info.String(), helpView)
}

func (m *Model) renderReorder() string {
	title := styles.title.Render(fmt.Sprintf("Reordering '%s'", m.selected.Name))

	var phase string
	switch m.progress.Phase {
	case tasks.ReadSnapshot:
		phase = "Reading playlist..."
	case tasks.WriteBackup:
		phase = "Writing backup..."
	case tasks.ClearPlaylist:
		phase = fmt.Sprintf("Removing tracks %s %d/%d batches", progressBar(m.progress.Step, m.progress.Total, 20), m.progress.Step, m.progress.Total)
	case tasks.AppendTracks:
		phase = fmt.Sprintf("Adding tracks %s %d/%d", progressBar(m.progress.Step, m.progress.Total, 30), m.progress.Step, m.progress.Total)
	case tasks.Finished:
		phase = "Finishing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.result == nil {
		return styles.err.Render(fmt.Sprintf("Reorder failed: %v", m.err)) + "\n\n" + helpView
	}

	var title string
	switch m.result.Status {
	case models.RunCompleted, models.RunDryRun:
		title = styles.ok.Render("✓ " + m.result.Summary())
	case models.RunSkipped:
		title = styles.warn.Render(m.result.Summary())
	default:
		title = styles.err.Render("✗ " + m.result.Summary())
	}

	var info strings.Builder
	if m.result.BackupPath != "" {
		fmt.Fprintf(&info, "\nBackup: %s", m.result.BackupPath)
	}
	if m.result.Write.Failed > 0 {
		fmt.Fprintf(&info, "\n%s", styles.warn.Render(fmt.Sprintf("Failed to add %d tracks:", m.result.Write.Failed)))
		for _, id := range m.result.Write.FailedIDs {
			fmt.Fprintf(&info, "\n  • %s", id)
		}
	}
	if m.result.Clear.FailedBatches > 0 {
		fmt.Fprintf(&info, "\n%s", styles.warn.Render(fmt.Sprintf("%d removal batches failed", m.result.Clear.FailedBatches)))
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, info.String(), helpView)
}
