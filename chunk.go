package smf

import "encoding/binary"

// readChunkHeader reads the next 8-byte chunk header (4-byte ASCII ID, then
// a big-endian u32 length), populating Session.ChunkID and
// ChunkBytesRemaining. It reports ErrMalformed if the declared length would
// run past what FileBytesRemaining says is left in the file.
func (s *Session) readChunkHeader() error {
	var hdr [8]byte
	if err := s.readRawBytes(hdr[:]); err != nil {
		return err
	}
	copy(s.ChunkID[:], hdr[0:4])
	length := binary.BigEndian.Uint32(hdr[4:8])
	if int64(length) > s.FileBytesRemaining {
		return wrapErr(ErrMalformed, errorf(
			"chunk %q declares length %d but only %d bytes remain in the file",
			s.ChunkID, length, s.FileBytesRemaining))
	}
	s.ChunkBytesRemaining = int64(length)
	return nil
}

// WriteHeader emits an 8-byte chunk header for id. The length field is
// written as 0 and is back-patched by CloseChunk once the chunk's actual
// size is known -- unless Session.BufferTracks is set and id is "MTrk", in
// which case the chunk is accumulated in memory instead (bufferedtrack.go)
// and no bytes reach the underlying I/O capability until CloseChunk.
func (s *Session) WriteHeader(id [4]byte) error {
	s.ChunkID = id
	if s.BufferTracks && CompareID(id, "MTrk") {
		s.activeBuffer = newTrackBuffer()
		s.ChunkBytesRemaining = 0
		return nil
	}
	var hdr [8]byte
	copy(hdr[0:4], id[:])
	if err := s.writeRawBytes(hdr[:]); err != nil {
		return err
	}
	s.ChunkBytesRemaining = 0
	return nil
}

// CloseChunk finishes the chunk opened by the most recent WriteHeader call.
// With a seekable sink, this seeks back to the length field, patches it
// with the number of bytes written (ChunkBytesRemaining), and seeks forward
// again to resume at the end of the chunk. With Session.BufferTracks, the
// accumulated chunk is flushed instead; see flushBufferedChunk.
func (s *Session) CloseChunk() error {
	if s.activeBuffer != nil {
		return s.flushBufferedChunk()
	}
	n := s.ChunkBytesRemaining
	if err := s.Seek(-(n + 4)); err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(n))
	if err := s.patchBytes(lenBuf[:]); err != nil {
		return err
	}
	if err := s.Seek(n); err != nil {
		return err
	}
	return nil
}
