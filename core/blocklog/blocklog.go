// Package blocklog implements the append-only, irreversible block log:
// spec.md §4.2. Committed blocks are serialized to a flat file; a bbolt
// sidecar index maps height and block id to file offset so random access
// never needs a linear scan.
package blocklog

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	bolt "go.etcd.io/bbolt"

	"chainforge/core/types"
)

var (
	bucketByHeight = []byte("height_to_offset")
	bucketByID     = []byte("id_to_height")
)

// ErrCorrupt is returned by Open when the sidecar index's recorded head
// disagrees with the flat file's actual tail, per spec.md §4.2's failure
// mode ("corruption is detected on open... triggers a reindex").
var ErrCorrupt = fmt.Errorf("blocklog: index/file head mismatch")

// Log is the append-only irreversible block sequence.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	index  *bolt.DB
	height uint64 // height of the last appended block, 0 if empty
	headID types.BlockID
	empty  bool
}

// Open opens (creating if absent) the block log at dataDir/blocks.log with
// its bbolt sidecar index at dataDir/blocks.idx.
func Open(dataDir string) (*Log, error) {
	f, err := os.OpenFile(dataDir+"/blocks.log", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	idx, err := bolt.Open(dataDir+"/blocks.idx", 0o644, nil)
	if err != nil {
		f.Close()
		return nil, err
	}
	l := &Log{file: f, index: idx, empty: true}
	if err := idx.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketByHeight)
		if err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists(bucketByID)
		return err
	}); err != nil {
		return nil, err
	}
	if err := l.loadHead(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Log) loadHead() error {
	return l.index.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketByHeight).Cursor()
		k, v := c.Last()
		if k == nil {
			return nil
		}
		l.empty = false
		l.height = binary.BigEndian.Uint64(k)
		var rec offsetRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		info, err := l.file.Stat()
		if err != nil {
			return err
		}
		if rec.Offset+rec.Length > info.Size() {
			return ErrCorrupt
		}
		l.headID = rec.ID
		return nil
	})
}

type offsetRecord struct {
	Offset int64
	Length int64
	ID     types.BlockID
}

// Empty reports whether the log has never had a block appended.
func (l *Log) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.empty
}

// Head returns the height and id of the last appended block.
func (l *Log) Head() (uint64, types.BlockID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height, l.headID, !l.empty
}

// Append writes block as the new tail at height, which must be exactly one
// past the current head (or 1 for the first block).
func (l *Log) Append(height uint64, id types.BlockID, block *types.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.empty && height != l.height+1 {
		return fmt.Errorf("blocklog: out-of-order append, head=%d got=%d", l.height, height)
	}
	if l.empty && height != 1 {
		return fmt.Errorf("blocklog: first append must be height 1, got %d", height)
	}
	payload, err := json.Marshal(block)
	if err != nil {
		return err
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	offset := info.Size()
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := l.file.WriteAt(lenBuf[:], offset); err != nil {
		return err
	}
	if _, err := l.file.WriteAt(payload, offset+8); err != nil {
		return err
	}
	rec := offsetRecord{Offset: offset, Length: 8 + int64(len(payload)), ID: id}
	recBytes, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := l.index.Update(func(tx *bolt.Tx) error {
		var heightKey [8]byte
		binary.BigEndian.PutUint64(heightKey[:], height)
		if err := tx.Bucket(bucketByHeight).Put(heightKey[:], recBytes); err != nil {
			return err
		}
		return tx.Bucket(bucketByID).Put(id[:], heightKey[:])
	}); err != nil {
		return err
	}
	l.height = height
	l.headID = id
	l.empty = false
	return nil
}

// ByHeight reads back the block stored at height.
func (l *Log) ByHeight(height uint64) (*types.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rec offsetRecord
	found := false
	if err := l.index.View(func(tx *bolt.Tx) error {
		var heightKey [8]byte
		binary.BigEndian.PutUint64(heightKey[:], height)
		v := tx.Bucket(bucketByHeight).Get(heightKey[:])
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("blocklog: no block at height %d", height)
	}
	return l.readAt(rec)
}

// ByID reads back the block with the given block id.
func (l *Log) ByID(id types.BlockID) (*types.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var rec offsetRecord
	found := false
	if err := l.index.View(func(tx *bolt.Tx) error {
		heightKey := tx.Bucket(bucketByID).Get(id[:])
		if heightKey == nil {
			return nil
		}
		v := tx.Bucket(bucketByHeight).Get(heightKey)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("blocklog: no block with that id")
	}
	return l.readAt(rec)
}

func (l *Log) readAt(rec offsetRecord) (*types.Block, error) {
	buf := make([]byte, rec.Length-8)
	if _, err := l.file.ReadAt(buf, rec.Offset+8); err != nil && err != io.EOF {
		return nil, err
	}
	var block types.Block
	if err := json.Unmarshal(buf, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Iterate calls fn for every block from height 1 to the current head, in
// order, stopping early if fn returns an error.
func (l *Log) Iterate(fn func(height uint64, block *types.Block) error) error {
	head, _, ok := l.Head()
	if !ok {
		return nil
	}
	for h := uint64(1); h <= head; h++ {
		b, err := l.ByHeight(h)
		if err != nil {
			return err
		}
		if err := fn(h, b); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the flat file and sidecar index.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err1 := l.file.Close()
	err2 := l.index.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
