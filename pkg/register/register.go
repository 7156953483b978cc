// Package register implements the content-addressed history chain kept
// per entity id: each write produces a Register node whose hash commits
// to the previous node's hash plus the new state, so the chain can be
// walked to prove no intermediate write was altered or dropped.
package register

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/emberdb/emberdb/pkg/values"
)

// Register is one immutable link in an entity id's history chain.
type Register struct {
	PreviousHash string // "" for the first write to this id
	EntityName   string
	EntityID     string
	Timestamp    time.Time
	StateAfter   map[string]values.Value
	ContentHash  string
}

// New builds the next Register in a chain: previous is the prior link's
// ContentHash ("" if this is the id's first write).
func New(previous, entityName, entityID string, ts time.Time, stateAfter map[string]values.Value) Register {
	r := Register{
		PreviousHash: previous,
		EntityName:   entityName,
		EntityID:     entityID,
		Timestamp:    ts,
		StateAfter:   stateAfter,
	}
	r.ContentHash = r.computeHash()
	return r
}

// computeHash commits to every field that identifies this link in the
// chain: the link it extends, what entity/id/time it belongs to, and
// the full state that resulted. Map keys are sorted so the hash doesn't
// depend on Go's randomized map iteration order.
func (r Register) computeHash() string {
	var b strings.Builder
	b.WriteString(r.PreviousHash)
	b.WriteByte('|')
	b.WriteString(r.EntityName)
	b.WriteByte('|')
	b.WriteString(r.EntityID)
	b.WriteByte('|')
	b.WriteString(r.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')

	keys := make([]string, 0, len(r.StateAfter))
	for k := range r.StateAfter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values.Print(r.StateAfter[k]))
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash and reports whether it still matches
// ContentHash, catching any in-place tampering with the link's fields.
func (r Register) Verify() bool {
	return r.computeHash() == r.ContentHash
}

// VerifyChain checks that each link's PreviousHash equals its
// predecessor's ContentHash and that every link's own ContentHash is
// still valid, in chain order (oldest first).
func VerifyChain(chain []Register) bool {
	var prev string
	for _, r := range chain {
		if r.PreviousHash != prev {
			return false
		}
		if !r.Verify() {
			return false
		}
		prev = r.ContentHash
	}
	return true
}
