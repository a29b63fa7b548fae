package testing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/desertthunder/chronolist/internal/models"
	"github.com/desertthunder/chronolist/internal/services"
)

// ErrInjected is returned by fakes when a fault is injected.
var ErrInjected = errors.New("injected failure")

// EventLog is an ordered, goroutine-safe record of calls made against fakes.
type EventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *EventLog) Add(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Track builds an available playlist item.
func Track(id, name, album, releaseDate string) services.RawItem {
	return services.RawItem{Track: &services.RawTrack{ID: id, Name: name, AlbumName: album, AlbumReleaseDate: releaseDate}}
}

// Unavailable builds an item whose track is null.
func Unavailable() services.RawItem {
	return services.RawItem{}
}

// FakePlaylistService is an in-memory [services.PlaylistService] with fault injection.
//
// Playlist contents are mutated by RemoveItems and AppendItem so consecutive runs observe each other.
type FakePlaylistService struct {
	User     string
	PageSize int           // items per page, defaults to 100
	Latency  time.Duration // added to every mutating call

	FailUser      bool
	FailPlaylists bool
	FailItemsPage map[string]int  // playlist id -> page index that fails
	FailRemove    map[int]bool    // remove call index (0-based, across playlists) -> fail
	FailAppend    map[string]bool // track id -> fail

	Log *EventLog

	mu        sync.Mutex
	playlists []models.Playlist
	contents  map[string][]services.RawItem
	catalog   map[string]services.RawTrack

	removeCalls [][]string
	appendCalls []string
	appendTimes []time.Time
	inflight    map[string]int
	maxInflight map[string]int
}

// NewFakePlaylistService returns a fake owned by user with no playlists.
func NewFakePlaylistService(user string) *FakePlaylistService {
	return &FakePlaylistService{
		User:          user,
		FailItemsPage: map[string]int{},
		FailRemove:    map[int]bool{},
		FailAppend:    map[string]bool{},
		contents:      map[string][]services.RawItem{},
		catalog:       map[string]services.RawTrack{},
		inflight:      map[string]int{},
		maxInflight:   map[string]int{},
	}
}

// AddPlaylist registers a playlist and its items.
func (f *FakePlaylistService) AddPlaylist(p models.Playlist, items ...services.RawItem) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.Owner == "" {
		p.Owner = f.User
	}
	p.TrackCount = len(items)
	f.playlists = append(f.playlists, p)
	f.contents[p.ID] = append([]services.RawItem(nil), items...)
	for _, it := range items {
		if it.Track != nil && it.Track.ID != "" {
			f.catalog[it.Track.ID] = *it.Track
		}
	}
}

// Contents returns the current track ids of a playlist; unavailable items appear as "".
func (f *FakePlaylistService) Contents(playlistID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.contents[playlistID]
	ids := make([]string, len(items))
	for i, it := range items {
		if it.Track != nil {
			ids[i] = it.Track.ID
		}
	}
	return ids
}

// RemoveCalls returns the id batches passed to RemoveItems.
func (f *FakePlaylistService) RemoveCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.removeCalls...)
}

// AppendCalls returns every id passed to AppendItem, including failed ones.
func (f *FakePlaylistService) AppendCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.appendCalls...)
}

// MaxConcurrent returns the most calls that were ever in flight at once for a playlist.
func (f *FakePlaylistService) MaxConcurrent(playlistID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight[playlistID]
}

func (f *FakePlaylistService) enter(ctx context.Context, playlistID string) func() {
	f.mu.Lock()
	f.inflight[playlistID]++
	if f.inflight[playlistID] > f.maxInflight[playlistID] {
		f.maxInflight[playlistID] = f.inflight[playlistID]
	}
	f.mu.Unlock()

	if f.Latency > 0 {
		select {
		case <-time.After(f.Latency):
		case <-ctx.Done():
		}
	}

	return func() {
		f.mu.Lock()
		f.inflight[playlistID]--
		f.mu.Unlock()
	}
}

func (f *FakePlaylistService) CurrentUser(ctx context.Context) (string, error) {
	if f.FailUser {
		return "", ErrInjected
	}
	return f.User, nil
}

func (f *FakePlaylistService) Playlists(ctx context.Context, owner string) ([]models.Playlist, error) {
	if f.FailPlaylists {
		return nil, ErrInjected
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Playlist
	for _, p := range f.playlists {
		if owner != "" && p.Owner != owner {
			continue
		}
		p.TrackCount = len(f.contents[p.ID])
		out = append(out, p)
	}
	return out, nil
}

func (f *FakePlaylistService) PlaylistItems(ctx context.Context, playlistID, cursor string) (*services.ItemPage, error) {
	defer f.enter(ctx, playlistID)()

	size := f.PageSize
	if size <= 0 {
		size = 100
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
		offset = n
	}

	if page, ok := f.FailItemsPage[playlistID]; ok && page == offset/size {
		f.Log.Add("items:%s:fail", playlistID)
		return nil, ErrInjected
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items, ok := f.contents[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, ErrInjected)
	}

	end := min(offset+size, len(items))
	if offset > end {
		offset = end
	}
	page := &services.ItemPage{
		Items: append([]services.RawItem(nil), items[offset:end]...),
		Total: len(items),
	}
	if end < len(items) {
		page.Next = strconv.Itoa(end)
	}
	f.Log.Add("items:%s:%d", playlistID, offset/size)
	return page, nil
}

func (f *FakePlaylistService) RemoveItems(ctx context.Context, playlistID string, trackIDs []string) error {
	defer f.enter(ctx, playlistID)()

	if len(trackIDs) > services.MaxRemoveBatch {
		return fmt.Errorf("batch of %d exceeds %d", len(trackIDs), services.MaxRemoveBatch)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.removeCalls)
	f.removeCalls = append(f.removeCalls, append([]string(nil), trackIDs...))
	if f.FailRemove[call] {
		f.Log.Add("remove:%d:fail", len(trackIDs))
		return ErrInjected
	}

	drop := make(map[string]bool, len(trackIDs))
	for _, id := range trackIDs {
		drop[id] = true
	}

	kept := f.contents[playlistID][:0]
	for _, it := range f.contents[playlistID] {
		if it.Track != nil && drop[it.Track.ID] {
			continue
		}
		kept = append(kept, it)
	}
	f.contents[playlistID] = kept
	f.Log.Add("remove:%d", len(trackIDs))
	return nil
}

func (f *FakePlaylistService) AppendItem(ctx context.Context, playlistID, trackID string) error {
	defer f.enter(ctx, playlistID)()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.appendCalls = append(f.appendCalls, trackID)
	if f.FailAppend[trackID] {
		f.Log.Add("append:%s:fail", trackID)
		return ErrInjected
	}

	track, ok := f.catalog[trackID]
	if !ok {
		return fmt.Errorf("unknown track %s: %w", trackID, ErrInjected)
	}
	f.contents[playlistID] = append(f.contents[playlistID], services.RawItem{Track: &track})
	f.appendTimes = append(f.appendTimes, time.Now())
	f.Log.Add("append:%s", trackID)
	return nil
}

// AppendTimes returns when each successful append landed, in call order.
func (f *FakePlaylistService) AppendTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.appendTimes...)
}

// RecordingPacer counts waits and logs them to Log.
type RecordingPacer struct {
	Log *EventLog
	Err error

	mu    sync.Mutex
	waits int
}

func (p *RecordingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()

	p.Log.Add("wait")
	if p.Err != nil {
		return p.Err
	}
	return ctx.Err()
}

// Waits returns how many times Wait was called.
func (p *RecordingPacer) Waits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}
