// Package merkle commits to a byte stream by hashing fixed-size chunks into a
// binary SHA-256 Merkle tree.
//
// Two streams with equal roots are treated as equal without further
// inspection; the comparator relies on this.
package merkle

import (
	"encoding/hex"
	"io"
	"strings"

	sha256 "github.com/minio/sha256-simd"

	"github.com/paw-chain/qc/qc/metrics"
	"github.com/paw-chain/qc/qc/types"
)

// DefaultChunkSize is the leaf size used for artifact commitments (4 MiB).
const DefaultChunkSize = 4 * 1024 * 1024

// Hash is a SHA-256 digest.
type Hash [32]byte

// String renders the hash as 0x-prefixed lowercase hex.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler so hashes serialize in their
// 0x form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 32-byte hex digest with an optional 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return h, types.ErrInvalidProof.Wrapf("hash %q: %s", s, err)
	}
	if len(raw) != len(h) {
		return h, types.ErrInvalidProof.Wrapf("hash %q: expected 32 bytes, got %d", s, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// EmptyRoot is the root of the empty stream: SHA-256 of the empty string.
func EmptyRoot() Hash {
	return sha256.Sum256(nil)
}

// Result describes a hashed stream. Only the root and the ordered leaves are
// kept; interior nodes are discarded once the root is known.
type Result struct {
	Root       Hash   `json:"root"`
	Leaves     []Hash `json:"leaf_hashes,omitempty"`
	TotalBytes int64  `json:"total_bytes"`
	ChunkCount int    `json:"chunk_count"`
	ChunkSize  int    `json:"chunk_size"`
}

// Stream consumes r in chunkSize pieces, hashing each chunk as it arrives.
// At most one chunk's worth of data is in flight at any time. Read errors are
// returned unchanged.
func Stream(r io.Reader, chunkSize int) (*Result, error) {
	if chunkSize <= 0 {
		return nil, types.ErrInvalidChunkSize.Wrapf("got %d", chunkSize)
	}

	m := metrics.NewQCMetrics()
	res := &Result{ChunkSize: chunkSize}
	hasher := sha256.New()
	for {
		hasher.Reset()
		n, err := io.CopyN(hasher, r, int64(chunkSize))
		if n > 0 {
			var leaf Hash
			copy(leaf[:], hasher.Sum(nil))
			res.Leaves = append(res.Leaves, leaf)
			res.TotalBytes += n
			m.BytesHashed.Add(float64(n))
			m.ChunksHashed.Inc()
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	res.ChunkCount = len(res.Leaves)
	res.Root = RootFromLeaves(res.Leaves)
	return res, nil
}

// RootFromLeaves folds leaf hashes pairwise up to a single root. A trailing odd
// node is paired with itself. No leaves yields EmptyRoot.
func RootFromLeaves(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return EmptyRoot()
	}

	level := make([]Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		level = next
	}
	return level[0]
}

func hashPair(left, right Hash) Hash {
	var combined [64]byte
	copy(combined[:32], left[:])
	copy(combined[32:], right[:])
	return sha256.Sum256(combined[:])
}
