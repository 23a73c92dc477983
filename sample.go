package wordhash

import (
	"cmp"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/creachadair/mds/mapset"
	"golang.org/x/crypto/hkdf"
)

// DefaultBlockSize is the size in bytes of a sampling block when none is
// specified.
const DefaultBlockSize = 512

// SampleOptions control which blocks of a file contribute to its digest.
//
// If neither Percent nor Blocks is set, every block of the file is hashed.
// Setting either one selects random sampling, even if the resulting count
// covers the whole file.
type SampleOptions struct {
	// BlockSize is the size of a sampling block in bytes.
	// If zero, DefaultBlockSize is used.
	BlockSize int `json:"blockSize,omitempty" yaml:"blockSize,omitempty"`

	// Percent, if non-nil, is the percentage of blocks to inspect, 0–100.
	Percent *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`

	// Blocks, if non-nil, is the number of blocks to inspect.
	Blocks *int `json:"blocks,omitempty" yaml:"blocks,omitempty"`

	// MinBlocks and MaxBlocks, if positive, bound the number of blocks
	// inspected in random mode. The first and last blocks of the file are
	// always inspected, so the effective bounds are never tighter than
	// [2, total].
	MinBlocks int `json:"minBlocks,omitempty" yaml:"minBlocks,omitempty"`
	MaxBlocks int `json:"maxBlocks,omitempty" yaml:"maxBlocks,omitempty"`
}

// Random reports whether o selects random sampling.
func (o SampleOptions) Random() bool { return o.Percent != nil || o.Blocks != nil }

func (o SampleOptions) blockSize() int { return cmp.Or(o.BlockSize, DefaultBlockSize) }

// Validate reports an error wrapping ErrInvalidParameter if o is not a
// usable combination of settings. It does not depend on any file.
func (o SampleOptions) Validate() error {
	switch {
	case o.BlockSize < 0:
		return fmt.Errorf("%w: block size %d is negative", ErrInvalidParameter, o.BlockSize)
	case o.Percent != nil && o.Blocks != nil:
		return fmt.Errorf("%w: only one of percent and blocks may be set", ErrInvalidParameter)
	case o.Percent != nil && !(*o.Percent >= 0 && *o.Percent <= 100):
		return fmt.Errorf("%w: percent %v is not in [0, 100]", ErrInvalidParameter, *o.Percent)
	case o.Blocks != nil && *o.Blocks < 0:
		return fmt.Errorf("%w: block count %d is negative", ErrInvalidParameter, *o.Blocks)
	case o.MinBlocks < 0 || o.MaxBlocks < 0:
		return fmt.Errorf("%w: block bounds [%d, %d] must not be negative",
			ErrInvalidParameter, o.MinBlocks, o.MaxBlocks)
	case o.MaxBlocks > 0 && o.MinBlocks > o.MaxBlocks:
		return fmt.Errorf("%w: min blocks %d exceeds max blocks %d",
			ErrInvalidParameter, o.MinBlocks, o.MaxBlocks)
	}
	return nil
}

// A Plan records which blocks of a file are hashed.
type Plan struct {
	Size      int64 `json:"size"`      // file length in bytes
	BlockSize int   `json:"blockSize"` // bytes per block
	Total     int   `json:"total"`     // ceil(Size / BlockSize)
	Random    bool  `json:"random"`    // whether the blocks were sampled

	// Blocks are the selected block indices in increasing order.
	// If Random is false every block is selected and Blocks is nil.
	Blocks []int `json:"blocks,omitempty"`
}

// Len reports the number of blocks selected by p.
func (p *Plan) Len() int {
	if !p.Random {
		return p.Total
	}
	return len(p.Blocks)
}

// Selected returns the indices of the blocks selected by p in increasing
// order. For a plan that covers the whole file the result has Total entries.
func (p *Plan) Selected() []int {
	if p.Random {
		return p.Blocks
	}
	return allBlocks(p.Total)
}

func allBlocks(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Span returns the byte offset and length of block i of the file.
// The last block of a file may be shorter than the block size.
func (p *Plan) Span(i int) (offset, length int64) {
	offset = int64(i) * int64(p.BlockSize)
	return offset, min(int64(p.BlockSize), p.Size-offset)
}

// Spans yields the byte ranges of the file covered by p, in order. Runs of
// adjacent selected blocks are reported as a single range.
func (p *Plan) Spans() iter.Seq2[int64, int64] {
	return func(yield func(offset, length int64) bool) {
		if !p.Random {
			if p.Size > 0 {
				yield(0, p.Size)
			}
			return
		}
		for i := 0; i < len(p.Blocks); {
			j := i + 1
			for j < len(p.Blocks) && p.Blocks[j] == p.Blocks[j-1]+1 {
				j++
			}
			start, _ := p.Span(p.Blocks[i])
			end, size := p.Span(p.Blocks[j-1])
			if !yield(start, end+size-start) {
				return
			}
			i = j
		}
	}
}

// Bytes returns the total number of file bytes covered by p.
func (p *Plan) Bytes() int64 {
	var n int64
	for _, size := range p.Spans() {
		n += size
	}
	return n
}

// NewPlan constructs a sampling plan for a file of the given size.
//
// In random mode the number of blocks is round(percent/100 * total), or the
// specified block count, clamped to [MinBlocks, MaxBlocks] and then to
// [2, total]. The first and last blocks are always included, and the rest are
// chosen by a generator seeded from the size and the sampling parameters, so
// the same inputs always produce the same plan. A file of at most one block
// is hashed in full regardless of the options.
func NewPlan(size int64, o SampleOptions) (*Plan, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	} else if size < 0 {
		return nil, fmt.Errorf("%w: file size %d is negative", ErrInvalidRange, size)
	}
	k := o.blockSize()
	total64 := (size + int64(k) - 1) / int64(k)
	if total64 > math.MaxInt {
		return nil, fmt.Errorf("%w: %d blocks of %d bytes exceeds the limit", ErrInvalidRange, total64, k)
	}
	p := &Plan{Size: size, BlockSize: k, Total: int(total64), Random: o.Random()}
	if !p.Random {
		return p, nil
	} else if p.Total <= 2 {
		p.Blocks = allBlocks(p.Total)
		return p, nil
	}

	want := desiredCount(p.Total, o)
	p.Blocks = sampleBlocks(newBlockRand(size, k, want), p.Total, want)
	return p, nil
}

// desiredCount returns the number of blocks to select out of total,
// including both endpoints.
func desiredCount(total int, o SampleOptions) int {
	var n int
	if o.Blocks != nil {
		n = *o.Blocks
	} else {
		n = int(math.Round(*o.Percent / 100 * float64(total)))
	}
	if o.MinBlocks > 0 {
		n = max(n, o.MinBlocks)
	}
	if o.MaxBlocks > 0 {
		n = min(n, o.MaxBlocks)
	}
	return min(max(n, 2), total)
}

// sampleBlocks returns want distinct block indices in [0, total), including 0
// and total-1, in increasing order. The interior indices are chosen from rng
// using Floyd's algorithm, so the cost is proportional to want, not total.
func sampleBlocks(rng *blockRand, total, want int) []int {
	out := make([]int, 0, want)
	out = append(out, 0, total-1)

	// Choose m = want-2 values from the interior [1, total-2], which has
	// n = total-2 elements.
	n, m := total-2, want-2
	seen := mapset.New[int]()
	for j := n - m; j < n; j++ {
		t := rng.intn(j + 1)
		if seen.Has(t) {
			t = j
		}
		seen.Add(t)
		out = append(out, t+1)
	}
	slices.Sort(out)
	return out
}

// sampleLabel separates the sampler's key stream from any other use of HKDF
// on the same parameters. Changing it changes every sampled fingerprint.
const sampleLabel = "wordhash sample v1"

// blockRand is a deterministic source of uniform integers for the sampler.
// The seed is extracted with HKDF from the file size and the sampling
// parameters, and expanded by a ChaCha8 stream, whose output is fixed for a
// given seed.
type blockRand struct {
	src *rand.ChaCha8
}

func newBlockRand(size int64, blockSize, count int) *blockRand {
	var ikm [24]byte
	binary.BigEndian.PutUint64(ikm[0:], uint64(size))
	binary.BigEndian.PutUint64(ikm[8:], uint64(blockSize))
	binary.BigEndian.PutUint64(ikm[16:], uint64(count))

	var seed [32]byte
	kdf := hkdf.New(sha256.New, ikm[:], nil, []byte(sampleLabel))
	if _, err := io.ReadFull(kdf, seed[:]); err != nil {
		panic(fmt.Sprintf("derive sample seed: %v", err)) // cannot happen for 32 bytes
	}
	return &blockRand{src: rand.NewChaCha8(seed)}
}

// intn returns a uniformly distributed value in [0, n), n > 0.
// Draws that would bias the result modulo n are rejected.
func (b *blockRand) intn(n int) int {
	un := uint64(n)
	limit := math.MaxUint64 - math.MaxUint64%un
	for {
		if v := b.src.Uint64(); v < limit {
			return int(v % un)
		}
	}
}
