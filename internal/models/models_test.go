package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/chronolist/internal/shared"
)

func mustDate(t *testing.T, s string) ReleaseDate {
	t.Helper()
	d, err := ParseReleaseDate(s)
	if err != nil {
		t.Fatalf("ParseReleaseDate(%q) error = %v", s, err)
	}
	return d
}

func ids(tracks []TrackRecord) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func TestParseReleaseDate(t *testing.T) {
	tc := []struct {
		name      string
		input     string
		want      time.Time
		precision Precision
		wantErr   bool
	}{
		{name: "day precision", input: "2019-06-01", want: time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC), precision: PrecisionDay},
		{name: "month precision", input: "1997-05", want: time.Date(1997, 5, 1, 0, 0, 0, 0, time.UTC), precision: PrecisionMonth},
		{name: "year precision", input: "1985", want: time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), precision: PrecisionYear},
		{name: "surrounding whitespace", input: " 2001 ", want: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), precision: PrecisionYear},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-date", wantErr: true},
		{name: "month out of range", input: "2020-13", wantErr: true},
		{name: "day out of range", input: "2020-02-30", wantErr: true},
		{name: "unknown year", input: "0000", wantErr: true},
		{name: "unknown year with day", input: "0000-01-01", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReleaseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidReleaseDate) {
					t.Errorf("ParseReleaseDate(%q) error = %v, want ErrInvalidReleaseDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReleaseDate(%q) unexpected error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseReleaseDate(%q) = %v, want %v", tt.input, got.Time, tt.want)
			}
			if got.Precision != tt.precision {
				t.Errorf("precision = %v, want %v", got.Precision, tt.precision)
			}
		})
	}
}

func TestReleaseDateString(t *testing.T) {
	if got := mustDate(t, "1997").String(); got != "1997-01-01" {
		t.Errorf("String() = %q, want 1997-01-01", got)
	}
	if got := (ReleaseDate{}).String(); got != "" {
		t.Errorf("zero String() = %q, want empty", got)
	}
}

func TestReleaseDateJSON(t *testing.T) {
	rec := TrackRecord{ID: "a", Name: "Song", Album: "Album", ReleaseDate: mustDate(t, "2020-01")}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got TrackRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !got.ReleaseDate.Equal(rec.ReleaseDate.Time) {
		t.Errorf("release date = %v, want %v", got.ReleaseDate, rec.ReleaseDate)
	}
}

func TestSortTracks(t *testing.T) {
	t.Run("date then album", func(t *testing.T) {
		tracks := []TrackRecord{
			{ID: "a", Name: "x", Album: "Z", ReleaseDate: mustDate(t, "2020-01-01")},
			{ID: "b", Name: "y", Album: "A", ReleaseDate: mustDate(t, "2019-06-01")},
			{ID: "c", Name: "z", Album: "B", ReleaseDate: mustDate(t, "2019-06-01")},
		}
		SortTracks(tracks)

		if got, want := ids(tracks), []string{"b", "c", "a"}; !reflect.DeepEqual(got, want) {
			t.Errorf("SortTracks() = %v, want %v", got, want)
		}
	})

	t.Run("stable on full ties", func(t *testing.T) {
		tracks := []TrackRecord{
			{ID: "3", Album: "Same", ReleaseDate: mustDate(t, "2001")},
			{ID: "1", Album: "Same", ReleaseDate: mustDate(t, "2001")},
			{ID: "2", Album: "Same", ReleaseDate: mustDate(t, "2001")},
		}
		SortTracks(tracks)

		if got, want := ids(tracks), []string{"3", "1", "2"}; !reflect.DeepEqual(got, want) {
			t.Errorf("SortTracks() = %v, want original order %v", got, want)
		}
	})

	t.Run("truncated precision sorts as first day", func(t *testing.T) {
		tracks := []TrackRecord{
			{ID: "day", Album: "A", ReleaseDate: mustDate(t, "1999-01-02")},
			{ID: "year", Album: "B", ReleaseDate: mustDate(t, "1999")},
			{ID: "month", Album: "C", ReleaseDate: mustDate(t, "1998-12")},
		}
		SortTracks(tracks)

		if got, want := ids(tracks), []string{"month", "year", "day"}; !reflect.DeepEqual(got, want) {
			t.Errorf("SortTracks() = %v, want %v", got, want)
		}
		if !IsSorted(tracks) {
			t.Error("IsSorted() = false after SortTracks")
		}
	})

	t.Run("sorting twice is a no-op", func(t *testing.T) {
		tracks := []TrackRecord{
			{ID: "a", Album: "B", ReleaseDate: mustDate(t, "2010")},
			{ID: "b", Album: "A", ReleaseDate: mustDate(t, "2010")},
			{ID: "c", Album: "A", ReleaseDate: mustDate(t, "2005-03")},
		}
		SortTracks(tracks)
		first := ids(tracks)
		SortTracks(tracks)

		if !reflect.DeepEqual(first, ids(tracks)) {
			t.Errorf("second sort changed order: %v -> %v", first, ids(tracks))
		}
	})
}

func TestSnapshotIDs(t *testing.T) {
	s := &Snapshot{Tracks: []TrackRecord{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "c"}}}

	if got, want := s.IDs(), []string{"a", "b", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if got, want := s.UniqueIDs(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueIDs() = %v, want %v", got, want)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestDropCountsTotal(t *testing.T) {
	d := DropCounts{Unavailable: 2, MissingID: 1, InvalidDate: 3}
	if d.Total() != 6 {
		t.Errorf("Total() = %d, want 6", d.Total())
	}
}

func TestRunRecordValidate(t *testing.T) {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tc := []struct {
		name    string
		record  RunRecord
		wantErr bool
	}{
		{name: "valid", record: RunRecord{PlaylistID: "p1", Status: RunCompleted, StartedAt: started}},
		{name: "missing playlist", record: RunRecord{Status: RunCompleted, StartedAt: started}, wantErr: true},
		{name: "unknown status", record: RunRecord{PlaylistID: "p1", Status: "paused", StartedAt: started}, wantErr: true},
		{name: "missing start", record: RunRecord{PlaylistID: "p1", Status: RunSkipped}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunRecordDuration(t *testing.T) {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := RunRecord{StartedAt: started}
	if r.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0 for incomplete run", r.Duration())
	}

	done := started.Add(90 * time.Second)
	r.CompletedAt = &done
	if r.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", r.Duration())
	}
}
