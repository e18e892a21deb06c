package cli

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

func testFilter() changeFilter {
	return newChangeFilter(domain.DataSettings{
		CSVPath: "/data/customers.csv",
		PDFDir:  "/data/pdfs",
	})
}

func TestChangeFilter_Relevant(t *testing.T) {
	f := testFilter()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"csv write", fsnotify.Event{Name: "/data/customers.csv", Op: fsnotify.Write}, true},
		{"csv replaced", fsnotify.Event{Name: "/data/customers.csv", Op: fsnotify.Create}, true},
		{"other csv", fsnotify.Event{Name: "/data/other.csv", Op: fsnotify.Write}, false},
		{"pdf created", fsnotify.Event{Name: "/data/pdfs/ley.pdf", Op: fsnotify.Create}, true},
		{"pdf upper case", fsnotify.Event{Name: "/data/pdfs/LEY.PDF", Op: fsnotify.Write}, true},
		{"pdf removed", fsnotify.Event{Name: "/data/pdfs/ley.pdf", Op: fsnotify.Remove}, true},
		{"pdf renamed", fsnotify.Event{Name: "/data/pdfs/ley.pdf", Op: fsnotify.Rename}, true},
		{"pdf chmod", fsnotify.Event{Name: "/data/pdfs/ley.pdf", Op: fsnotify.Chmod}, false},
		{"hidden pdf", fsnotify.Event{Name: "/data/pdfs/.ley.pdf", Op: fsnotify.Write}, false},
		{"text file", fsnotify.Event{Name: "/data/pdfs/notes.txt", Op: fsnotify.Write}, false},
		{"nested pdf", fsnotify.Event{Name: "/data/pdfs/old/ley.pdf", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.relevant(tt.event))
		})
	}
}

func TestChangeFilter_Dirs(t *testing.T) {
	assert.Equal(t, []string{"/data", "/data/pdfs"}, testFilter().dirs())

	same := newChangeFilter(domain.DataSettings{CSVPath: "/data/c.csv", PDFDir: "/data"})
	assert.Equal(t, []string{"/data"}, same.dirs())
}

func TestRebuildLoop_DebouncesBursts(t *testing.T) {
	var calls atomic.Int32
	loop := &rebuildLoop{
		filter:   testFilter(),
		debounce: 50 * time.Millisecond,
		rebuild: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan fsnotify.Event)
	done := make(chan error, 1)
	go func() { done <- loop.run(ctx, events, make(chan error)) }()

	for i := 0; i < 5; i++ {
		events <- fsnotify.Event{Name: filepath.Join("/data/pdfs", "ley.pdf"), Op: fsnotify.Write}
	}
	events <- fsnotify.Event{Name: "/data/pdfs/ley.pdf", Op: fsnotify.Chmod}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestRebuildLoop_ContinuesAfterFailure(t *testing.T) {
	var calls atomic.Int32
	loop := &rebuildLoop{
		filter:   testFilter(),
		debounce: 10 * time.Millisecond,
		rebuild: func(context.Context) error {
			calls.Add(1)
			return errors.New("embedding down")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan fsnotify.Event)
	errs := make(chan error, 1)
	go func() { _ = loop.run(ctx, events, errs) }()

	errs <- errors.New("queue overflow")
	events <- fsnotify.Event{Name: "/data/customers.csv", Op: fsnotify.Write}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	events <- fsnotify.Event{Name: "/data/customers.csv", Op: fsnotify.Write}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRebuildLoop_StopsWhenEventsClose(t *testing.T) {
	loop := &rebuildLoop{
		filter:   testFilter(),
		debounce: time.Hour,
		rebuild:  func(context.Context) error { return nil },
	}
	events := make(chan fsnotify.Event)
	close(events)

	assert.NoError(t, loop.run(context.Background(), events, make(chan error)))
}
