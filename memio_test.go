package smf

// memIO is an in-memory IOCapability used by tests so the engine's
// read/write round trip can be exercised without touching the filesystem.
// It supports backward Seek, so it also exercises the non-buffered MTrk
// length back-patching path.
type memIO struct{}

type memHandle struct {
	buf  []byte
	pos  int
	mode OpenMode
}

func newMemReader(data []byte) *memHandle {
	return &memHandle{buf: data, mode: ModeRead}
}

func newMemWriter() *memHandle {
	return &memHandle{mode: ModeWrite}
}

func (memIO) Open(target string, mode OpenMode) (Handle, error) {
	return &memHandle{mode: mode}, nil
}

func (memIO) ReadOrWrite(h Handle, p []byte) (int, error) {
	mh := h.(*memHandle)
	if len(p) == 0 {
		return 0, nil
	}
	if mh.mode == ModeRead {
		n := copy(p, mh.buf[mh.pos:])
		mh.pos += n
		return n, nil
	}
	need := mh.pos + len(p)
	if need > len(mh.buf) {
		grown := make([]byte, need)
		copy(grown, mh.buf)
		mh.buf = grown
	}
	n := copy(mh.buf[mh.pos:], p)
	mh.pos += n
	return n, nil
}

func (memIO) Seek(h Handle, delta int64) error {
	mh := h.(*memHandle)
	mh.pos += int(delta)
	return nil
}

func (memIO) Close(h Handle) error {
	return nil
}

func (memIO) Size(h Handle) (int64, error) {
	mh := h.(*memHandle)
	return int64(len(mh.buf)), nil
}
