package smf

import "os"

// OpenMode tells an IOCapability whether a target is being opened for
// reading or writing.
type OpenMode int

const (
	// ModeRead opens a target for reading.
	ModeRead OpenMode = iota
	// ModeWrite opens (creating or truncating) a target for writing.
	ModeWrite
)

// Handle is an opaque reference to whatever an IOCapability opened. The
// engine never inspects it; it only ever passes it back to the same
// capability's ReadOrWrite/Seek/Close methods.
type Handle interface{}

// IOCapability abstracts the storage the engine reads from or writes to, so
// that a host can back a Session with a file, a network socket, an
// in-memory buffer, or anything else. The engine never assumes seekable
// storage for reads -- there Seek is only ever called with a forward delta,
// to skip the unread rest of a chunk or of a sysex/meta payload, which a
// forward-only capability may satisfy by reading and discarding. For
// writes, CloseChunk seeks backwards to back-patch a chunk's length field;
// with Session.BufferTracks set, MTrk chunks are accumulated in memory
// instead (see bufferedtrack.go) and need no Seek, but any other chunk a
// host writes via WriteHeader/CloseChunk is still back-patched.
type IOCapability interface {
	// Open prepares target for the given mode and returns a Handle to pass
	// to the other methods. The engine stores the returned Handle as-is,
	// even when it is nil; a nil Handle is not treated as a signal to reuse
	// an already-open one.
	Open(target string, mode OpenMode) (Handle, error)
	// ReadOrWrite reads len(buf) bytes into buf (ModeRead) or writes
	// len(buf) bytes from buf (ModeWrite), returning the number of bytes
	// transferred. A short read is reported as ErrRead by the engine.
	ReadOrWrite(h Handle, buf []byte) (int, error)
	// Seek moves forward (positive delta) or backward (negative delta)
	// relative to the current position.
	Seek(h Handle, delta int64) error
	// Close releases h. The engine only calls this for handles it opened
	// itself via Open.
	Close(h Handle) error
	// Size reports the total byte length of the target behind h, queried
	// once after Open for a read session so the engine can validate chunk
	// lengths against it (spec §7, ErrFileInfo). Write sessions never call
	// this.
	Size(h Handle) (int64, error)
}

// fileIO is the default, OS-file-backed IOCapability. It is a thin
// convenience, not part of the engine's core grammar logic, per spec.
type fileIO struct{}

// NewFileIO returns the default filesystem-backed IOCapability.
func NewFileIO() IOCapability {
	return fileIO{}
}

// osHandle pairs an open *os.File with the mode it was opened under, so
// ReadOrWrite (which has a single signature for both directions, per spec
// §4.1) knows which underlying syscall to issue without any shared,
// process-wide state.
type osHandle struct {
	f     *os.File
	write bool
}

func (fileIO) Open(target string, mode OpenMode) (Handle, error) {
	if mode == ModeRead {
		f, err := os.Open(target)
		if err != nil {
			return nil, err
		}
		return &osHandle{f: f}, nil
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	return &osHandle{f: f, write: true}, nil
}

func (fileIO) ReadOrWrite(h Handle, buf []byte) (int, error) {
	oh := h.(*osHandle)
	if len(buf) == 0 {
		return 0, nil
	}
	// A single Read/Write call on *os.File may itself return short of
	// len(buf) without error (common for pipes); loop until full or an
	// error surfaces, so the engine's "short read/write" accounting stays
	// meaningful.
	total := 0
	for total < len(buf) {
		var n int
		var err error
		if oh.write {
			n, err = oh.f.Write(buf[total:])
		} else {
			n, err = oh.f.Read(buf[total:])
		}
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

func (fileIO) Seek(h Handle, delta int64) error {
	oh := h.(*osHandle)
	_, err := oh.f.Seek(delta, os.SEEK_CUR)
	return err
}

func (fileIO) Close(h Handle) error {
	oh := h.(*osHandle)
	return oh.f.Close()
}

func (fileIO) Size(h Handle) (int64, error) {
	oh := h.(*osHandle)
	info, err := oh.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
