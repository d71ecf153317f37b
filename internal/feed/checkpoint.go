package feed

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// checkpointBlockSize batches checkpoint writes every 100 sequence
// numbers, so a busy feed does not turn every poll round into a disk
// write.
const checkpointBlockSize = 100

// Checkpoint persists the last-processed change-feed sequence to a file,
// atomically (os.Rename), so a restart resumes roughly where it left off
// without replaying the entire history.
type Checkpoint struct {
	path      string
	lastBlock int64
}

// NewCheckpoint returns a Checkpoint backed by path. An empty path
// disables persistence: Load always returns "" and Advance is a no-op.
func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{path: path, lastBlock: -1}
}

// Load reads the last persisted sequence, or "" if none was ever written
// (or persistence is disabled).
func (c *Checkpoint) Load() string {
	if c.path == "" {
		return ""
	}
	b, err := os.ReadFile(c.path)
	if err != nil {
		return ""
	}
	seq := strings.TrimSpace(string(b))
	c.lastBlock = seqBlock(seq)
	return seq
}

// Advance persists seq if it has crossed into a new checkpointBlockSize
// block since the last write.
func (c *Checkpoint) Advance(seq string) error {
	if c.path == "" || seq == "" {
		return nil
	}
	block := seqBlock(seq)
	if block <= c.lastBlock {
		return nil
	}
	if err := writeFileAtomic(c.path, []byte(seq)); err != nil {
		return err
	}
	c.lastBlock = block
	return nil
}

// seqBlock extracts the leading integer component of a change-feed
// sequence (CouchDB sequences are either a bare integer or an
// "N-opaque" composite token) and divides it into checkpointBlockSize
// buckets.
func seqBlock(seq string) int64 {
	digits := seq
	if i := strings.IndexByte(seq, '-'); i >= 0 {
		digits = seq[:i]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n / checkpointBlockSize
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".concord-seq-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
