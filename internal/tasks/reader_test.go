package tasks

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
	tu "github.com/desertthunder/chronolist/internal/testing"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func exampleItems() []services.RawItem {
	return []services.RawItem{
		tu.Track("a", "Song A", "Z", "2020-01-01"),
		tu.Track("b", "Song B", "A", "2019-06-01"),
		tu.Unavailable(),
		tu.Track("c", "Song C", "B", "2019-06-01"),
		tu.Track("", "Local File", "Unknown", "2018"),
		tu.Track("d", "Song D", "C", "sometime"),
	}
}

func TestSnapshotReader(t *testing.T) {
	ctx := context.Background()
	pl := models.Playlist{ID: "p1", Name: "Road Trip"}

	t.Run("sorts by date then album and drops invalid items", func(t *testing.T) {
		svc := tu.NewFakePlaylistService("me")
		svc.AddPlaylist(pl, exampleItems()...)

		snap, err := NewSnapshotReader(svc, discardLogger()).Read(ctx, pl)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		if got, want := snap.IDs(), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
			t.Errorf("IDs() = %v, want %v", got, want)
		}
		if !snap.Complete || snap.Err != nil {
			t.Errorf("expected complete snapshot, got complete=%v err=%v", snap.Complete, snap.Err)
		}

		want := models.DropCounts{Unavailable: 1, MissingID: 1, InvalidDate: 1}
		if snap.Dropped != want {
			t.Errorf("Dropped = %+v, want %+v", snap.Dropped, want)
		}
		if snap.Tracks[0].Album != "A" || snap.Tracks[0].Name != "Song B" {
			t.Errorf("unexpected first record %+v", snap.Tracks[0])
		}
	})

	t.Run("unparseable dates never appear", func(t *testing.T) {
		svc := tu.NewFakePlaylistService("me")
		svc.AddPlaylist(pl,
			tu.Track("x", "x", "x", ""),
			tu.Track("y", "y", "y", "2020-13-45"),
			tu.Track("w", "w", "w", "0000"),
			tu.Track("z", "z", "z", "1999"),
		)

		snap, err := NewSnapshotReader(svc, discardLogger()).Read(ctx, pl)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got := snap.IDs(); !reflect.DeepEqual(got, []string{"z"}) {
			t.Errorf("IDs() = %v, want [z]", got)
		}
		if snap.Dropped.InvalidDate != 3 {
			t.Errorf("Dropped.InvalidDate = %d, want 3", snap.Dropped.InvalidDate)
		}
		for _, tr := range snap.Tracks {
			if tr.ReleaseDate.IsZero() {
				t.Errorf("track %s has no release date", tr.ID)
			}
		}
	})

	t.Run("follows every page", func(t *testing.T) {
		events := &tu.EventLog{}
		svc := tu.NewFakePlaylistService("me")
		svc.PageSize = 2
		svc.Log = events
		svc.AddPlaylist(pl,
			tu.Track("1", "1", "A", "2005"),
			tu.Track("2", "2", "A", "2004"),
			tu.Track("3", "3", "A", "2003"),
			tu.Track("4", "4", "A", "2002"),
			tu.Track("5", "5", "A", "2001"),
		)

		snap, err := NewSnapshotReader(svc, discardLogger()).Read(ctx, pl)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		if got, want := snap.IDs(), []string{"5", "4", "3", "2", "1"}; !reflect.DeepEqual(got, want) {
			t.Errorf("IDs() = %v, want %v", got, want)
		}
		if got, want := events.Events(), []string{"items:p1:0", "items:p1:1", "items:p1:2"}; !reflect.DeepEqual(got, want) {
			t.Errorf("page requests = %v, want %v", got, want)
		}
	})

	t.Run("degrades to empty on failure", func(t *testing.T) {
		svc := tu.NewFakePlaylistService("me")
		svc.PageSize = 2
		svc.FailItemsPage["p1"] = 1
		svc.AddPlaylist(pl, exampleItems()...)

		snap, err := NewSnapshotReader(svc, discardLogger()).Read(ctx, pl)
		if !errors.Is(err, shared.ErrIncompleteSnapshot) {
			t.Fatalf("expected ErrIncompleteSnapshot, got %v", err)
		}
		if snap == nil {
			t.Fatal("expected a snapshot even on failure")
		}
		if snap.Complete || snap.Len() != 0 {
			t.Errorf("expected empty incomplete snapshot, got complete=%v len=%d", snap.Complete, snap.Len())
		}
		if !errors.Is(snap.Err, tu.ErrInjected) {
			t.Errorf("snapshot Err = %v, want injected failure", snap.Err)
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		svc := tu.NewFakePlaylistService("me")
		svc.AddPlaylist(pl)

		snap, err := NewSnapshotReader(svc, discardLogger()).Read(ctx, pl)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if !snap.Complete || snap.Len() != 0 {
			t.Errorf("expected complete empty snapshot, got %+v", snap)
		}
	})
}
