package smf

// Flags is the bitset threaded through a Session, controlling both engine
// behavior and conveniences delivered to host callbacks (spec §6.4).
type Flags uint16

const (
	// FlagWrite is set for the duration of a Write operation, clear during
	// Read. A host that shares code between read and write callbacks can
	// switch on this instead of needing two callback tables.
	FlagWrite Flags = 0x8000
	// FlagBPM asks the engine to additionally compute/accept tempo as a
	// rounded beats-per-minute byte instead of (only) raw microseconds per
	// quarter note.
	FlagBPM Flags = 0x4000
	// FlagSysex is maintained by the engine: set on 0xF0, left set across
	// 0xF7 continuations, cleared by the next channel-voice or system
	// common event. A host's SysexEvent callback uses it to tell a sysex
	// continuation from an escape event, both of which share status 0xF7.
	FlagSysex Flags = 0x2000
	// FlagDenom asks the engine to deliver/accept a time-signature
	// denominator as the real value (4 for 4/4) instead of the raw
	// power-of-two exponent stored in the file.
	FlagDenom Flags = 0x1000
	// FlagDelta asks the engine to deliver/accept Session.Time as a delta
	// from the previous event instead of an absolute tick.
	FlagDelta Flags = 0x0800
	// FlagRealtime tells the engine that System Realtime status bytes
	// (0xF8-0xFE) must not cancel running status, per spec §3.1.
	FlagRealtime Flags = 0x0400
)

// SessionMode records whether a Session is driving a Read or a Write.
type SessionMode int

const (
	// ModeReading means the Session is decoding an input stream.
	ModeReading SessionMode = iota
	// ModeWriting means the Session is producing an output stream.
	ModeWriting
)

// Session is the single piece of state threaded through an entire Read or
// Write operation, and presented to every host callback (spec §3.1). A
// Session is owned exclusively by one Read/Write call; it must not be
// reused concurrently.
type Session struct {
	Mode SessionMode
	IO   IOCapability
	Flags Flags

	handle     Handle
	ownsHandle bool

	// FileBytesRemaining: for reads, bytes left in the file counting from
	// the start of the MThd payload, decrementing as bytes are consumed.
	// For writes, the total number of bytes emitted so far.
	FileBytesRemaining int64

	// ChunkID holds the 4 ASCII bytes identifying the chunk currently being
	// read or written ("MThd", "MTrk", or a host-defined ID).
	ChunkID [4]byte

	// ChunkBytesRemaining: for reads, bytes left in the current chunk's
	// payload. For writes, while an MTrk is open, this counts bytes
	// written since the chunk header, so CloseChunk can back-patch the
	// length field.
	ChunkBytesRemaining int64

	Format    uint16
	NumTracks uint16
	Division  uint16

	// EventSize: during read, the remaining payload bytes of the current
	// variable-length meta/sysex event. During write, the payload size the
	// host intends to emit.
	EventSize uint32

	// PrevTime is the absolute tick of the previous emitted/decoded event
	// in the current track.
	PrevTime uint32
	// Time is the absolute tick of the current event, or a delta if
	// FlagDelta is set.
	Time uint32

	// TrackNum is the current 0-based track index, incremented on each
	// MTrk.
	TrackNum int

	// Status is the current event's status byte; 0xFF for any meta-event.
	Status byte
	// Data holds per-event payload scratch; see events.go for the layout
	// used by each event kind.
	Data [8]byte

	// RunStatus is the last running-status byte the engine accepted; 0
	// means "cleared". Valid only for channel-voice statuses 0x80-0xEF.
	RunStatus byte

	// BufferTracks selects the non-seekable-writer fallback of spec §4.6/
	// §9 for MTrk chunks: instead of writing a placeholder length and
	// seeking back to patch it, the engine accumulates each track's bytes
	// in memory (see bufferedtrack.go) and writes the chunk header only
	// once the real length is known. Set this when IO can't Seek
	// backwards.
	BufferTracks bool

	// activeBuffer is non-nil while an MTrk opened under BufferTracks is
	// being accumulated.
	activeBuffer *trackBuffer

	// wroteEOT tracks whether the host's WriteTrackEvents already emitted
	// an end-of-track meta-event for the current MTrk, so write.go knows
	// whether to append one itself.
	wroteEOT bool
}

// newSession builds a Session in the given mode sharing io as its I/O
// capability. It does not open a handle; callers populate handle/ownsHandle
// via open() or attach an already-open handle directly.
func newSession(mode SessionMode, io IOCapability) *Session {
	return &Session{Mode: mode, IO: io}
}

// open acquires a handle for target through s.IO, recording that the
// session -- not the caller -- owns it (and must therefore close it on
// every exit path).
func (s *Session) open(target string, mode OpenMode) error {
	h, err := s.IO.Open(target, mode)
	if err != nil {
		return wrapErr(ErrOpenFile, err)
	}
	s.handle = h
	s.ownsHandle = true
	if mode == ModeRead {
		size, err := s.IO.Size(h)
		if err != nil {
			return wrapErr(ErrFileInfo, err)
		}
		s.FileBytesRemaining = size
	}
	return nil
}

// closeOwned closes the session's handle if the session itself opened it;
// a host-supplied handle (attached rather than opened) is left alone, per
// spec §5.
func (s *Session) closeOwned() {
	if s.ownsHandle && s.handle != nil {
		s.IO.Close(s.handle)
	}
}

// ReadBytes reads exactly len(buf) bytes from the session's I/O capability,
// decrementing ChunkBytesRemaining and FileBytesRemaining. It reports
// ErrRead on a short read or I/O failure.
func (s *Session) ReadBytes(buf []byte) error {
	if int64(len(buf)) > s.ChunkBytesRemaining {
		return wrapErr(ErrMalformed, errorf("attempted to read %d bytes with only %d remaining in chunk", len(buf), s.ChunkBytesRemaining))
	}
	n, err := s.IO.ReadOrWrite(s.handle, buf)
	s.ChunkBytesRemaining -= int64(n)
	s.FileBytesRemaining -= int64(n)
	if s.EventSize > 0 {
		// Keeps EventSize meaning "payload bytes not yet consumed" while a
		// host's SysexEvent/MetaText callback drains the event itself via
		// ReadBytes, so the SkipEvent call that follows the callback only
		// seeks past whatever the host left unread.
		if uint32(n) >= s.EventSize {
			s.EventSize = 0
		} else {
			s.EventSize -= uint32(n)
		}
	}
	if err != nil || n != len(buf) {
		if err == nil {
			err = errorf("short read: wanted %d bytes, got %d", len(buf), n)
		}
		return wrapErr(ErrRead, err)
	}
	return nil
}

// WriteBytes writes buf through the session's I/O capability, adding its
// length to ChunkBytesRemaining (which, while writing an MTrk, doubles as
// the running byte count for length back-patching) and FileBytesRemaining.
// If the current MTrk is being accumulated in memory (BufferTracks), the
// bytes go to that buffer instead, and FileBytesRemaining is only updated
// once the chunk is actually flushed at CloseChunk time.
func (s *Session) WriteBytes(buf []byte) error {
	if s.activeBuffer != nil {
		s.activeBuffer.write(buf)
		s.ChunkBytesRemaining += int64(len(buf))
		return nil
	}
	n, err := s.IO.ReadOrWrite(s.handle, buf)
	s.ChunkBytesRemaining += int64(n)
	s.FileBytesRemaining += int64(n)
	if err != nil || n != len(buf) {
		if err == nil {
			err = errorf("short write: wanted %d bytes, wrote %d", len(buf), n)
		}
		return wrapErr(ErrWrite, err)
	}
	return nil
}

// readRawBytes reads buf directly through the I/O capability, updating only
// FileBytesRemaining -- used for the 8-byte chunk header itself, which sits
// outside any chunk's own byte budget.
func (s *Session) readRawBytes(buf []byte) error {
	n, err := s.IO.ReadOrWrite(s.handle, buf)
	s.FileBytesRemaining -= int64(n)
	if err != nil || n != len(buf) {
		if err == nil {
			err = errorf("short read: wanted %d bytes, got %d", len(buf), n)
		}
		return wrapErr(ErrRead, err)
	}
	return nil
}

// writeRawBytes writes buf directly through the I/O capability, updating
// only FileBytesRemaining -- used for chunk headers and for flushing a
// buffered MTrk's accumulated bytes, neither of which should double-count
// against ChunkBytesRemaining.
func (s *Session) writeRawBytes(buf []byte) error {
	n, err := s.IO.ReadOrWrite(s.handle, buf)
	s.FileBytesRemaining += int64(n)
	if err != nil || n != len(buf) {
		if err == nil {
			err = errorf("short write: wanted %d bytes, wrote %d", len(buf), n)
		}
		return wrapErr(ErrWrite, err)
	}
	return nil
}

// patchBytes rewrites buf in place at the current position (used only to
// back-patch a chunk's length field) without adjusting any byte-accounting
// field, since it neither consumes nor appends to the logical stream.
func (s *Session) patchBytes(buf []byte) error {
	n, err := s.IO.ReadOrWrite(s.handle, buf)
	if err != nil || n != len(buf) {
		if err == nil {
			err = errorf("short write: wanted %d bytes, wrote %d", len(buf), n)
		}
		return wrapErr(ErrWrite, err)
	}
	return nil
}

// sessionByteReader adapts a Session's ReadBytes to the single-byte
// ReadByte interface DecodeVLQ needs, without allocating per byte.
type sessionByteReader struct {
	s   *Session
	buf [1]byte
}

func (r *sessionByteReader) ReadByte() (byte, error) {
	if err := r.s.ReadBytes(r.buf[:]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadVLQ decodes a variable-length quantity from the session's input.
func (s *Session) ReadVLQ() (uint32, error) {
	return DecodeVLQ(&sessionByteReader{s: s})
}

// WriteVLQ emits v as a variable-length quantity to the session's output.
func (s *Session) WriteVLQ(v uint32) error {
	buf, err := EncodeVLQ(v)
	if err != nil {
		return err
	}
	return s.WriteBytes(buf)
}

// SkipChunk discards whatever remains of the chunk currently being read, by
// issuing a single forward Seek of exactly the leftover byte count (spec
// §4.3): a host that only partially consumed an unknown or uninteresting
// chunk doesn't need to drain it by hand.
func (s *Session) SkipChunk() error {
	if s.ChunkBytesRemaining == 0 {
		return nil
	}
	if err := s.Seek(s.ChunkBytesRemaining); err != nil {
		return err
	}
	s.FileBytesRemaining -= s.ChunkBytesRemaining
	s.ChunkBytesRemaining = 0
	return nil
}

// SkipEvent discards the remaining payload of the current variable-length
// meta or sysex event (EventSize bytes not yet consumed via ReadBytes).
func (s *Session) SkipEvent() error {
	if s.EventSize == 0 {
		return nil
	}
	if err := s.Seek(int64(s.EventSize)); err != nil {
		return err
	}
	s.ChunkBytesRemaining -= int64(s.EventSize)
	s.FileBytesRemaining -= int64(s.EventSize)
	s.EventSize = 0
	return nil
}

// Seek moves the session's position forward (positive delta) or backward
// (negative delta) without adjusting any of the session's byte-accounting
// fields; callers that need accounting updated use SkipChunk/SkipEvent
// instead.
func (s *Session) Seek(delta int64) error {
	if err := s.IO.Seek(s.handle, delta); err != nil {
		return wrapErr(ErrRead, err)
	}
	return nil
}

// FileSize returns FileBytesRemaining: for reads, the number of file bytes
// not yet consumed (not the original file length, which is not kept); for
// writes, the number of bytes emitted so far.
func (s *Session) FileSize() int64 {
	return s.FileBytesRemaining
}

// CompareID reports whether id matches want (a 4-byte chunk ID such as
// "MThd" or "MTrk").
func CompareID(id [4]byte, want string) bool {
	if len(want) != 4 {
		return false
	}
	return id[0] == want[0] && id[1] == want[1] && id[2] == want[2] && id[3] == want[3]
}

// FlipU16 byte-swaps a big-endian 16-bit value read or written raw, mirror
// of the original MIDIFILE.DLL's MidiFlipShort.
func FlipU16(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

// FlipU32 byte-swaps a big-endian 32-bit value, mirror of the original
// MIDIFILE.DLL's MidiFlipLong.
func FlipU32(v uint32) uint32 {
	return (v&0xff)<<24 | (v&0xff00)<<8 | (v&0xff0000)>>8 | (v&0xff000000)>>24
}

// VLQToU32 decodes a variable-length quantity already fully present in buf,
// returning the value and the number of bytes consumed.
func VLQToU32(buf []byte) (uint32, int, error) {
	r := &sliceByteReader{buf: buf}
	v, err := DecodeVLQ(r)
	if err != nil {
		return 0, 0, err
	}
	return v, r.pos, nil
}

// U32ToVLQ encodes v as a variable-length quantity.
func U32ToVLQ(v uint32) ([]byte, error) {
	return EncodeVLQ(v)
}

type sliceByteReader struct {
	buf []byte
	pos int
}

func (r *sliceByteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, wrapErr(ErrMalformed, errorf("VLQ ran past end of supplied buffer"))
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}
