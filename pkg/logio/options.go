// Package logio is the append-only text log that backs temporal reads:
// one line per write operation, one file per calendar day. It is
// adapted from a binary, checksummed write-ahead log, but since each
// record here is already a self-describing structured-literal line
// (not an opaque byte payload needing CRC protection against partial
// writes of unknown shape), framing and checksums are dropped in favor
// of newline-delimited text and bufio.Scanner's own truncation
// detection.
package logio

import "time"

// SyncPolicy controls how eagerly a Writer calls fsync after appending.
type SyncPolicy int

const (
	// SyncEveryWrite fsyncs after every single append. Safest, slowest.
	SyncEveryWrite SyncPolicy = iota
	// SyncInterval fsyncs periodically from a background ticker.
	SyncInterval
)

// Options configures a Writer.
type Options struct {
	// DirPath is the directory day files are created in.
	DirPath string

	// BufferSize is the bufio.Writer buffer size in bytes.
	BufferSize int

	SyncPolicy SyncPolicy

	// SyncIntervalDuration is only used when SyncPolicy == SyncInterval.
	SyncIntervalDuration time.Duration
}

// DefaultOptions returns a reasonable configuration for on-disk use.
func DefaultOptions() Options {
	return Options{
		DirPath:              "./data",
		BufferSize:           64 * 1024,
		SyncPolicy:           SyncInterval,
		SyncIntervalDuration: 200 * time.Millisecond,
	}
}
