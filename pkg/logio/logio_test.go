package logio_test

import (
	"io"
	"testing"
	"time"

	"github.com/emberdb/emberdb/pkg/logio"
	"github.com/emberdb/emberdb/pkg/values"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := logio.NewWriter(logio.Options{
		DirPath:    dir,
		BufferSize: 4096,
		SyncPolicy: logio.SyncEveryWrite,
	})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	records := []logio.Record{
		{Timestamp: ts, Entity: "pet", ID: "1", Op: logio.OpInsert, ContentHash: "h1", State: map[string]values.Value{"name": values.String("fido")}},
		{Timestamp: ts.Add(time.Second), Entity: "pet", ID: "1", Op: logio.OpUpdate, ContentHash: "h2", PreviousHash: "h1", State: map[string]values.Value{"name": values.String("rex")}},
	}
	for _, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	files, err := logio.AllDayFiles(dir)
	if err != nil || len(files) != 1 {
		t.Fatalf("AllDayFiles = %v, %v; want 1 file", files, err)
	}

	r, err := logio.NewReader(files[0])
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var got []logio.Record
	for {
		rec, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRecord failed: %v", err)
		}
		got = append(got, rec)
	}

	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i, want := range records {
		if got[i].Entity != want.Entity || got[i].ID != want.ID || got[i].Op != want.Op {
			t.Errorf("record %d mismatch: got %+v want %+v", i, got[i], want)
		}
		if !values.Equal(got[i].State["name"], want.State["name"]) {
			t.Errorf("record %d state mismatch: got %v want %v", i, got[i].State["name"], want.State["name"])
		}
	}
}

func TestWriter_RollsAcrossDays(t *testing.T) {
	dir := t.TempDir()
	w, err := logio.NewWriter(logio.Options{DirPath: dir, SyncPolicy: logio.SyncEveryWrite})
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	defer w.Close()

	day1 := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 16, 12, 0, 0, 0, time.UTC)

	_ = w.Append(logio.Record{Timestamp: day1, Entity: "pet", ID: "1", Op: logio.OpInsert, State: map[string]values.Value{}})
	_ = w.Append(logio.Record{Timestamp: day2, Entity: "pet", ID: "2", Op: logio.OpInsert, State: map[string]values.Value{}})

	files, err := logio.AllDayFiles(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("AllDayFiles = %v, %v; want 2 files", files, err)
	}
}

func TestDayFilesInRange(t *testing.T) {
	dir := t.TempDir()
	w, _ := logio.NewWriter(logio.Options{DirPath: dir, SyncPolicy: logio.SyncEveryWrite})
	for d := 10; d <= 14; d++ {
		ts := time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
		_ = w.Append(logio.Record{Timestamp: ts, Entity: "pet", ID: "1", Op: logio.OpInsert, State: map[string]values.Value{}})
	}
	w.Close()

	from := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 13, 0, 0, 0, 0, time.UTC)
	files, err := logio.DayFilesInRange(dir, from, to)
	if err != nil {
		t.Fatalf("DayFilesInRange failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files in range, want 3: %v", len(files), files)
	}
}
