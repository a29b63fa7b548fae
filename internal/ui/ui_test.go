package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/chronolist/internal/formatter"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/tasks"
	tu "github.com/desertthunder/chronolist/internal/testing"
)

type fakeReorderer struct {
	snapshot   *models.Snapshot
	previewErr error
	reconciled []string
}

func (f *fakeReorderer) Preview(ctx context.Context, pl models.Playlist) (*models.Snapshot, error) {
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	snap := *f.snapshot
	snap.Playlist = pl
	return &snap, nil
}

func (f *fakeReorderer) Reconcile(ctx context.Context, pl models.Playlist, progress chan<- tasks.ProgressUpdate) (*tasks.ReconcileResult, error) {
	f.reconciled = append(f.reconciled, pl.ID)
	progress <- tasks.ProgressUpdate{Playlist: pl.Name, Phase: tasks.AppendTracks, Step: 1, Total: 1, Message: "added a"}
	return &tasks.ReconcileResult{
		Playlist:   pl,
		Status:     models.RunCompleted,
		Snapshot:   f.snapshot,
		BackupPath: "Backups/x.csv",
		Write:      tasks.WriteResult{Attempted: 1, Added: 1},
	}, nil
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	yesKey   = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}
	noKey    = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}
	ctrlCKey = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func newTestModel(t *testing.T, playlists ...models.Playlist) (*Model, *fakeReorderer, *tu.FakePlaylistService) {
	t.Helper()
	svc := tu.NewFakePlaylistService("me")
	for _, p := range playlists {
		svc.AddPlaylist(p, tu.Track("a", "Song A", "Album", "2020"))
	}
	engine := &fakeReorderer{snapshot: &models.Snapshot{
		Complete: true,
		Tracks:   []models.TrackRecord{{ID: "a", Name: "Song A", Album: "Album"}},
	}}

	m := NewModel(context.Background(), svc, engine, Options{Exclude: []string{"Mi playlist #40"}})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m.Update(m.Init()())
	return m, engine, svc
}

// drain runs cmd and feeds each resulting message back into m until no command is left.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for range 20 {
		if cmd == nil {
			return
		}
		_, cmd = m.Update(cmd())
	}
	t.Fatal("command chain did not finish")
}

func TestModel(t *testing.T) {
	t.Run("loads playlists and marks exclusions", func(t *testing.T) {
		m, _, _ := newTestModel(t, models.Playlist{ID: "p1", Name: "Mi playlist #40"})

		items := m.playlistList.Items()
		if len(items) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(items))
		}
		if !items[0].(playlistItem).excluded {
			t.Error("expected playlist to be marked excluded")
		}
		if !strings.Contains(items[0].(playlistItem).Description(), "excluded") {
			t.Error("expected description to mention exclusion")
		}
	})

	t.Run("excluded playlist cannot be selected", func(t *testing.T) {
		m, _, _ := newTestModel(t, models.Playlist{ID: "p1", Name: "Mi playlist #40"})

		_, cmd := m.Update(enterKey)
		if cmd != nil {
			t.Error("expected no command for excluded playlist")
		}
		if m.view != PlaylistListView || !strings.Contains(m.status, "excluded") {
			t.Errorf("unexpected state view=%d status=%q", m.view, m.status)
		}
	})

	t.Run("full reorder flow", func(t *testing.T) {
		m, engine, _ := newTestModel(t, models.Playlist{ID: "p1", Name: "Road Trip"})

		_, cmd := m.Update(enterKey)
		drain(t, m, cmd)
		if m.view != PreviewView {
			t.Fatalf("expected preview view, got %d", m.view)
		}
		if len(m.trackList.Items()) != 1 {
			t.Errorf("expected 1 track in preview, got %d", len(m.trackList.Items()))
		}

		m.Update(enterKey)
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if !strings.Contains(m.View(), "Reorder 'Road Trip'?") {
			t.Errorf("unexpected confirm view:\n%s", m.View())
		}

		_, cmd = m.Update(yesKey)
		if m.view != ReorderView {
			t.Fatalf("expected reorder view, got %d", m.view)
		}
		drain(t, m, cmd)

		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if len(engine.reconciled) != 1 || engine.reconciled[0] != "p1" {
			t.Errorf("unexpected reconcile calls %v", engine.reconciled)
		}
		view := m.View()
		if !strings.Contains(view, "reordered 1/1 tracks") || !strings.Contains(view, "Backups/x.csv") {
			t.Errorf("unexpected result view:\n%s", view)
		}
	})

	t.Run("declining returns to preview", func(t *testing.T) {
		m, engine, _ := newTestModel(t, models.Playlist{ID: "p1", Name: "Road Trip"})

		_, cmd := m.Update(enterKey)
		drain(t, m, cmd)
		m.Update(enterKey)
		m.Update(noKey)

		if m.view != PreviewView {
			t.Errorf("expected preview view, got %d", m.view)
		}
		if len(engine.reconciled) != 0 {
			t.Error("expected no reconcile after declining")
		}

		m.Update(escKey)
		if m.view != PlaylistListView {
			t.Errorf("expected playlist view after esc, got %d", m.view)
		}
	})

	t.Run("preview failure stays on list", func(t *testing.T) {
		m, engine, _ := newTestModel(t, models.Playlist{ID: "p1", Name: "Road Trip"})
		engine.previewErr = errors.New("boom")

		_, cmd := m.Update(enterKey)
		drain(t, m, cmd)

		if m.view != PlaylistListView || !strings.Contains(m.status, "boom") {
			t.Errorf("unexpected state view=%d status=%q", m.view, m.status)
		}
	})

	t.Run("fetch failure shows error", func(t *testing.T) {
		svc := tu.NewFakePlaylistService("me")
		svc.FailUser = true
		m := NewModel(context.Background(), svc, &fakeReorderer{}, Options{})
		m.Update(m.Init()())

		if !strings.Contains(m.View(), "Error:") {
			t.Errorf("expected error view, got:\n%s", m.View())
		}
	})
}

func TestModelQuitDuringReorder(t *testing.T) {
	pl := models.Playlist{ID: "p1", Name: "Road Trip"}
	svc := tu.NewFakePlaylistService("me")
	svc.AddPlaylist(pl,
		tu.Track("a", "Song A", "Z", "2020"),
		tu.Track("b", "Song B", "A", "2019"),
		tu.Track("c", "Song C", "B", "2019"),
	)

	engine := tasks.NewReorderEngine(svc, formatter.NewBackupWriter(t.TempDir()), tasks.FixedDelay{Delay: time.Hour}, tasks.EngineOpts{})
	m := NewModel(context.Background(), svc, engine, Options{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m.Update(m.Init()())

	_, cmd := m.Update(enterKey)
	drain(t, m, cmd)
	m.Update(enterKey)
	_, cmd = m.Update(yesKey)
	if m.view != ReorderView {
		t.Fatalf("expected reorder view, got %d", m.view)
	}

	for m.progress.Phase != tasks.AppendTracks {
		if cmd == nil {
			t.Fatal("reorder finished before any track was added")
		}
		_, cmd = m.Update(cmd())
	}

	_, quitCmd := m.Update(ctrlCKey)
	if quitCmd != nil {
		t.Error("expected quit during reorder to stop the run, not the program")
	}
	if !strings.Contains(m.status, "stopping") {
		t.Errorf("unexpected status %q", m.status)
	}

	drain(t, m, cmd)

	if m.view != ResultView {
		t.Fatalf("expected result view, got %d", m.view)
	}
	if m.result == nil || !m.result.Write.Interrupted {
		t.Fatalf("expected interrupted write, got %+v", m.result)
	}
	if m.result.Write.Added != 1 {
		t.Errorf("Added = %d, want 1", m.result.Write.Added)
	}
	if m.result.Status != models.RunFailed {
		t.Errorf("Status = %s, want %s", m.result.Status, models.RunFailed)
	}
	if got := svc.Contents(pl.ID); len(got) != 1 || got[0] != "b" {
		t.Errorf("contents = %v, want [b]", got)
	}
}

func TestProgressBar(t *testing.T) {
	tc := []struct {
		step, total, width int
		filled             int
	}{
		{0, 10, 10, 0},
		{5, 10, 10, 5},
		{10, 10, 10, 10},
		{12, 10, 10, 10},
	}

	for _, tt := range tc {
		bar := progressBar(tt.step, tt.total, tt.width)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("progressBar(%d, %d, %d) filled = %d, want %d", tt.step, tt.total, tt.width, got, tt.filled)
		}
		if got := strings.Count(bar, "░"); got != tt.width-tt.filled {
			t.Errorf("progressBar(%d, %d, %d) empty = %d, want %d", tt.step, tt.total, tt.width, got, tt.width-tt.filled)
		}
	}

	if progressBar(1, 0, 10) != "" {
		t.Error("expected empty bar for zero total")
	}
}
