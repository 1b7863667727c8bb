package kbd

import (
	"fmt"
	"io"

	"github.com/ardnew/fusionkbd/pkg"
)

// Custom frame geometry.
const (
	ProfileSize = 512
	ChunkSize   = 64
	ChunkCount  = ProfileSize / ChunkSize
)

// Profile is one custom lighting frame. Its contents are opaque to the
// session; it is only split into fixed-size chunks for transfer.
type Profile [ProfileSize]byte

// Chunk returns a slice aliasing bytes [64i, 64i+64) of p.
// It panics if i is outside [0, ChunkCount).
func (p *Profile) Chunk(i int) []byte {
	return p[i*ChunkSize : (i+1)*ChunkSize : (i+1)*ChunkSize]
}

// ReadProfile reads exactly ProfileSize bytes from r. Trailing data is left
// unread.
func ReadProfile(r io.Reader) (*Profile, error) {
	var p Profile
	if _, err := io.ReadFull(r, p[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("read profile: %w: need %d bytes", pkg.ErrBufferTooSmall, ProfileSize)
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return &p, nil
}

// WriteTo writes the full frame to w.
func (p *Profile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p[:])
	return int64(n), err
}
