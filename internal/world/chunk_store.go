package world

import (
	"encoding/binary"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// ChunkQuery is the read-only view of tracked chunks handed to collaborators.
type ChunkQuery interface {
	Lookup(coord ChunkCoord) (*ChunkRecord, bool)
	Len() int
	Coords() []ChunkCoord
}

// ChunkStore maps chunk coordinates to their records. It belongs to one
// Manager and is only touched from that manager's foreground goroutine.
type ChunkStore struct {
	chunks   map[ChunkCoord]*ChunkRecord
	modCount uint64 // Increases on any insert/remove
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkCoord]*ChunkRecord)}
}

// Lookup returns the record of coord.
func (cs *ChunkStore) Lookup(coord ChunkCoord) (*ChunkRecord, bool) {
	rec, ok := cs.chunks[coord]
	return rec, ok
}

// Has reports whether coord is tracked.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	_, ok := cs.chunks[coord]
	return ok
}

// Len returns the number of tracked records.
func (cs *ChunkStore) Len() int {
	return len(cs.chunks)
}

// Coords returns the tracked coordinates sorted by (Y, X).
func (cs *ChunkStore) Coords() []ChunkCoord {
	return slices.SortedFunc(maps.Keys(cs.chunks), func(a, b ChunkCoord) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
}

// CountState returns how many records are in state s.
func (cs *ChunkStore) CountState(s ChunkState) int {
	n := 0
	for _, rec := range cs.chunks {
		if rec.State == s {
			n++
		}
	}
	return n
}

func (cs *ChunkStore) insert(rec *ChunkRecord) {
	cs.chunks[rec.Coord] = rec
	cs.modCount++
}

func (cs *ChunkStore) remove(coord ChunkCoord) (*ChunkRecord, bool) {
	rec, ok := cs.chunks[coord]
	if !ok {
		return nil, false
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return rec, true
}

// each visits every record. fn must not insert or remove records.
func (cs *ChunkStore) each(fn func(rec *ChunkRecord)) {
	for _, rec := range cs.chunks {
		fn(rec)
	}
}

// Fingerprint hashes every tracked coordinate with its tile checksum, in
// Coords order. Two worlds with equal fingerprints hold the same tiles.
func Fingerprint(q ChunkQuery) uint64 {
	d := xxhash.New()
	var buf [24]byte
	for _, coord := range q.Coords() {
		rec, ok := q.Lookup(coord)
		if !ok {
			continue
		}
		binary.LittleEndian.PutUint64(buf[0:], uint64(int64(coord.X)))
		binary.LittleEndian.PutUint64(buf[8:], uint64(int64(coord.Y)))
		binary.LittleEndian.PutUint64(buf[16:], rec.Checksum())
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
