package wordhash

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// NumWords is the number of words encoded from a digest.
	NumWords = 43

	// bitsPerWord is the number of digest bits encoded by each word.
	bitsPerWord = 12

	// padBytes is the number of bytes of padding appended to a digest before
	// it is split into words. With padding the expansion is 528 bits, of which
	// NumWords*bitsPerWord = 516 are used.
	padBytes = 2
)

// A Digest is the SHA-512 digest of the selected blocks of a file.
type Digest [sha512.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// MarshalText encodes d as hexadecimal.
func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a hexadecimal digest into d.
func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(d) {
		return fmt.Errorf("invalid digest length %d", len(text))
	}
	_, err := hex.Decode(d[:], text)
	return err
}

// Sum computes the digest of the blocks of r selected by p. The blocks are
// hashed in increasing order, as if concatenated. It reports an error
// wrapping ErrIO if any selected block cannot be read in full.
func Sum(r io.ReaderAt, p *Plan) (Digest, error) {
	h := sha512.New()
	for off, size := range p.Spans() {
		nr, err := io.Copy(h, io.NewSectionReader(r, off, size))
		if err != nil {
			return Digest{}, fmt.Errorf("%w: offset %d: %w", ErrIO, off, err)
		} else if nr != size {
			return Digest{}, fmt.Errorf("%w: offset %d: got %d bytes, want %d", ErrIO, off, nr, size)
		}
	}
	var d Digest
	h.Sum(d[:0])
	return d, nil
}

// Expand returns the padded form of d from which words are encoded: the
// digest itself followed by the leading bytes of SHA-512(d), 528 bits in all.
// Only the first NumWords*12 = 516 bits are used.
func (d Digest) Expand() []byte {
	pad := sha512.Sum512(d[:])
	out := make([]byte, 0, len(d)+padBytes)
	out = append(out, d[:]...)
	return append(out, pad[:padBytes]...)
}

// Indexes is the sequence of 12-bit word indexes encoded from a digest.
type Indexes [NumWords]uint16

// Indexes splits the expansion of d into consecutive 12-bit groups, most
// significant bit first.
func (d Digest) Indexes() Indexes {
	buf := d.Expand()

	var out Indexes
	for i := range out {
		pos := i * bitsPerWord / 8
		if i%2 == 0 {
			// Aligned: 8 bits of buf[pos], then the high 4 bits of buf[pos+1].
			out[i] = uint16(buf[pos])<<4 | uint16(buf[pos+1]>>4)
		} else {
			// Offset: the low 4 bits of buf[pos], then 8 bits of buf[pos+1].
			out[i] = uint16(buf[pos]&0x0f)<<8 | uint16(buf[pos+1])
		}
	}
	return out
}
