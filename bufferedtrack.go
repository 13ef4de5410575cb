package smf

import (
	"encoding/binary"

	"github.com/gammazero/deque"
)

// trackBuffer accumulates an MTrk chunk's payload bytes in memory as a FIFO
// of the slices handed to WriteBytes, used by the non-seekable-writer
// fallback described in spec §4.6/§9: when the underlying sink can't Seek
// backwards to patch a chunk's length field, the engine instead buffers the
// whole chunk and writes the header only once the true length is known.
//
// Queueing whole slices rather than individual bytes keeps this cheap; the
// FIFO discipline itself follows the other_examples ion-sfu TWCC feedback
// encoder's use of github.com/gammazero/deque as a PushBack/PopFront queue.
type trackBuffer struct {
	chunks deque.Deque[[]byte]
	length int
}

func newTrackBuffer() *trackBuffer {
	return &trackBuffer{}
}

func (b *trackBuffer) write(buf []byte) {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	b.chunks.PushBack(cp)
	b.length += len(cp)
}

// flush drains the buffer in order, returning its pieces for the caller to
// write through the real I/O capability.
func (b *trackBuffer) flush() [][]byte {
	out := make([][]byte, 0, b.chunks.Len())
	for b.chunks.Len() > 0 {
		out = append(out, b.chunks.PopFront())
	}
	return out
}

// flushBufferedChunk writes the accumulated chunk -- header first, with the
// now-known real length, followed by the buffered payload -- through the
// session's raw I/O path, and clears the active buffer.
func (s *Session) flushBufferedChunk() error {
	buf := s.activeBuffer
	s.activeBuffer = nil

	var hdr [8]byte
	copy(hdr[0:4], s.ChunkID[:])
	binary.BigEndian.PutUint32(hdr[4:8], uint32(buf.length))
	if err := s.writeRawBytes(hdr[:]); err != nil {
		return err
	}
	for _, piece := range buf.flush() {
		if err := s.writeRawBytes(piece); err != nil {
			return err
		}
	}
	return nil
}
