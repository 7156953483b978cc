package logio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Reader reads Records back sequentially from a single day file.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	lineNo  int
}

// NewReader opens path for sequential Record reads.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{file: f, scanner: scanner}, nil
}

// ReadRecord returns the next record, or io.EOF when the file is
// exhausted. A line that fails to decode (e.g. truncated by a crash
// mid-write) is returned as an error wrapping both io.ErrUnexpectedEOF
// and the decode error, whichever line of the file it is on.
func (r *Reader) ReadRecord() (Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Record{}, err
		}
		return Record{}, io.EOF
	}
	r.lineNo++

	line := r.scanner.Text()
	if line == "" {
		return r.ReadRecord()
	}

	rec, err := DecodeRecord(line)
	if err != nil {
		return Record{}, fmt.Errorf("logio: line %d: %w: %w", r.lineNo, io.ErrUnexpectedEOF, err)
	}
	return rec, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// DayFilesInRange lists, in ascending order, the day file paths under
// dir whose day could contain a record timestamped within [from, to].
func DayFilesInRange(dir string, from, to time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	fromDay := from.UTC().Truncate(24 * time.Hour)
	toDay := to.UTC().Truncate(24 * time.Hour)

	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		day, ok := ParseDayFile(e.Name())
		if !ok {
			continue
		}
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		matches = append(matches, filepath.Join(dir, e.Name()))
	}
	sort.Strings(matches)
	return matches, nil
}

// AllDayFiles lists every day file under dir in ascending order.
func AllDayFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var matches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := ParseDayFile(e.Name()); ok {
			matches = append(matches, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(matches)
	return matches, nil
}
