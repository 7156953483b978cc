package logio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Writer appends Records to the day file their timestamp belongs to,
// rolling to a new file automatically as the day changes.
type Writer struct {
	mu      sync.Mutex
	options Options

	currentDay string
	file       *os.File
	writer     *bufio.Writer

	batchBytes int64

	done   chan struct{}
	ticker *time.Ticker
	closed bool
}

// NewWriter opens (creating if needed) the options.DirPath directory and
// prepares to append into the day file for whatever timestamps Append
// is called with.
func NewWriter(opts Options) (*Writer, error) {
	if err := os.MkdirAll(opts.DirPath, 0755); err != nil {
		return nil, fmt.Errorf("logio: creating log directory: %w", err)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}

	w := &Writer{
		options: opts,
		done:    make(chan struct{}),
	}

	if opts.SyncPolicy == SyncInterval {
		interval := opts.SyncIntervalDuration
		if interval <= 0 {
			interval = DefaultOptions().SyncIntervalDuration
		}
		w.ticker = time.NewTicker(interval)
		go w.backgroundSync()
	}

	return w, nil
}

// Append writes one record, opening (or rolling to) the record's day
// file as needed.
func (w *Writer) Append(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := DayFile(r.Timestamp)
	if day != w.currentDay {
		if err := w.rollLocked(day); err != nil {
			return err
		}
	}

	line := r.Encode() + "\n"
	n, err := w.writer.WriteString(line)
	if err != nil {
		return err
	}
	w.batchBytes += int64(n)

	if w.options.SyncPolicy == SyncEveryWrite {
		return w.syncLocked()
	}
	return nil
}

func (w *Writer) rollLocked(day string) error {
	if w.file != nil {
		if err := w.syncLocked(); err != nil {
			return err
		}
		if err := w.file.Close(); err != nil {
			return err
		}
	}

	path := filepath.Join(w.options.DirPath, day)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("logio: opening day file %s: %w", day, err)
	}

	w.file = f
	w.writer = bufio.NewWriterSize(f, w.options.BufferSize)
	w.currentDay = day
	return nil
}

// Sync flushes the buffer and fsyncs the current day file.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *Writer) syncLocked() error {
	if w.writer == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.batchBytes = 0
	return nil
}

// Close flushes, fsyncs and stops the background sync goroutine.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.ticker != nil {
		w.ticker.Stop()
		close(w.done)
	}

	if w.file == nil {
		return nil
	}
	if err := w.syncLocked(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func (w *Writer) backgroundSync() {
	for {
		select {
		case <-w.ticker.C:
			w.Sync()
		case <-w.done:
			return
		}
	}
}
