package smf

// standardEventCall records one ReadHandlers.StandardEvent invocation.
type standardEventCall struct {
	Time   uint32
	Status byte
	Data0  byte
	Data1  byte
}

// recordingReadHandlers is a ReadHandlers that records everything it sees,
// for tests to assert against.
type recordingReadHandlers struct {
	headerFormat    uint16
	headerTracks    uint16
	headerDivision  uint16
	tracksStarted   int
	standardEvents  []standardEventCall
	sysexEvents     []byte
	sysexSizes      []uint32
	metaTexts       [][]byte
	metaTextTypes   []byte
	seqNums         []uint16
	tempos          []Tempo
	smpteOffsets    []SMPTEOffset
	timeSigs        []TimeSignature
	keySigs         []KeySignature
	eotCount        int
	unknownChunks   [][4]byte
}

func (h *recordingReadHandlers) StartHeader(s *Session) error {
	h.headerFormat = s.Format
	h.headerTracks = s.NumTracks
	h.headerDivision = s.Division
	return nil
}

func (h *recordingReadHandlers) StartTrack(s *Session) error {
	h.tracksStarted++
	return nil
}

func (h *recordingReadHandlers) UnknownChunk(s *Session) error {
	h.unknownChunks = append(h.unknownChunks, s.ChunkID)
	return nil
}

func (h *recordingReadHandlers) StandardEvent(s *Session) error {
	h.standardEvents = append(h.standardEvents, standardEventCall{
		Time:   s.Time,
		Status: s.Status,
		Data0:  s.Data[0],
		Data1:  s.Data[1],
	})
	return nil
}

func (h *recordingReadHandlers) SysexEvent(s *Session) error {
	h.sysexSizes = append(h.sysexSizes, s.EventSize)
	buf := make([]byte, s.EventSize)
	if err := s.ReadBytes(buf); err != nil {
		return err
	}
	h.sysexEvents = append(h.sysexEvents, buf...)
	return nil
}

func (h *recordingReadHandlers) MetaText(s *Session) error {
	buf := make([]byte, s.EventSize)
	if err := s.ReadBytes(buf); err != nil {
		return err
	}
	h.metaTexts = append(h.metaTexts, buf)
	h.metaTextTypes = append(h.metaTextTypes, s.Data[0])
	return nil
}

func (h *recordingReadHandlers) MetaSeqNum(s *Session, seq uint16) error {
	h.seqNums = append(h.seqNums, seq)
	return nil
}

func (h *recordingReadHandlers) MetaTempo(s *Session, tempo Tempo) error {
	h.tempos = append(h.tempos, tempo)
	return nil
}

func (h *recordingReadHandlers) MetaSMPTE(s *Session, offset SMPTEOffset) error {
	h.smpteOffsets = append(h.smpteOffsets, offset)
	return nil
}

func (h *recordingReadHandlers) MetaTimeSig(s *Session, sig TimeSignature) error {
	h.timeSigs = append(h.timeSigs, sig)
	return nil
}

func (h *recordingReadHandlers) MetaKeySig(s *Session, sig KeySignature) error {
	h.keySigs = append(h.keySigs, sig)
	return nil
}

func (h *recordingReadHandlers) MetaEOT(s *Session) error {
	h.eotCount++
	return nil
}

// newReadSessionFromBytes builds a Session wired to an in-memory reader
// over data, without going through Read's filesystem Open.
func newReadSessionFromBytes(data []byte) *Session {
	s := newSession(ModeReading, memIO{})
	s.handle = newMemReader(data)
	s.FileBytesRemaining = int64(len(data))
	return s
}

// newWriteSessionToMemory builds a Session wired to an in-memory writer, and
// returns the handle so the test can inspect the bytes afterward.
func newWriteSessionToMemory() (*Session, *memHandle) {
	s := newSession(ModeWriting, memIO{})
	mh := newMemWriter()
	s.handle = mh
	s.Flags |= FlagWrite
	return s, mh
}
