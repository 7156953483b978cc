package logio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emberdb/emberdb/pkg/values"
)

// Op names the kind of operation a Record describes.
type Op string

const (
	OpInsert       Op = "insert"
	OpUpdate       Op = "update"
	OpDelete       Op = "delete"
	OpEvict        Op = "evict"
	OpCreateEntity Op = "create_entity"
)

// Record is one line of the day log: enough to both replay an entity's
// full state as of a point in time and to walk its content-hash chain.
type Record struct {
	Timestamp    time.Time
	Entity       string
	ID           string
	Op           Op
	ContentHash  string
	PreviousHash string // empty for the first record in an id's chain
	State        map[string]values.Value
}

// Encode renders r as a single log line. Tabs separate the fixed
// columns; the trailing column is the structured-literal Map of the
// entity's state after this operation (empty Map for delete/evict).
func (r Record) Encode() string {
	state := values.Print(values.Map(r.State))
	return strings.Join([]string{
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Entity,
		r.ID,
		string(r.Op),
		r.ContentHash,
		r.PreviousHash,
		state,
	}, "\t")
}

// DecodeRecord parses one line written by Encode.
func DecodeRecord(line string) (Record, error) {
	cols := strings.SplitN(line, "\t", 7)
	if len(cols) != 7 {
		return Record{}, fmt.Errorf("logio: malformed record, want 7 columns got %d", len(cols))
	}

	ts, err := time.Parse(time.RFC3339Nano, cols[0])
	if err != nil {
		return Record{}, fmt.Errorf("logio: bad timestamp %q: %w", cols[0], err)
	}

	stateVal, err := values.Parse(cols[6])
	if err != nil {
		return Record{}, fmt.Errorf("logio: bad state literal: %w", err)
	}
	state := stateVal.Map
	if state == nil {
		state = map[string]values.Value{}
	}

	return Record{
		Timestamp:    ts,
		Entity:       cols[1],
		ID:           cols[2],
		Op:           Op(cols[3]),
		ContentHash:  cols[4],
		PreviousHash: cols[5],
		State:        state,
	}, nil
}

// DayFile returns the file name a timestamp's record belongs in.
func DayFile(t time.Time) string {
	u := t.UTC()
	return u.Format("2006_01_02") + ".log"
}

// ParseDayFile is DayFile's inverse, used when scanning a directory for
// the files a WHEN-RANGE query needs to open.
func ParseDayFile(name string) (time.Time, bool) {
	name = strings.TrimSuffix(name, ".log")
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
