package smf

import (
	"bytes"
	"testing"
)

// TestReadChunkLengthOverflow exercises the malformed-chunk-length boundary
// scenario: a chunk declares a length longer than the bytes actually left
// in the file.
func TestReadChunkLengthOverflow(t *testing.T) {
	data := []byte{
		'M', 'T', 'r', 'k',
		0x00, 0x00, 0x00, 0x10, // declares 16 bytes, but only 2 follow
		0x00, 0x00,
	}
	s := newReadSessionFromBytes(data)
	s.FileBytesRemaining = int64(len(data))

	err := s.readChunkHeader()
	if err == nil {
		t.Logf("expected an error for an over-long chunk declaration\n")
		t.FailNow()
	}
	smfErr, ok := err.(*Error)
	if !ok || smfErr.Code != ErrMalformed {
		t.Logf("expected ErrMalformed, got %v\n", err)
		t.FailNow()
	}
}

// TestReadUnknownChunkIsSkipped exercises a host-defined chunk appearing
// between MTrk chunks: if UnknownChunk doesn't fully drain it, the engine
// must skip the remainder automatically so decoding can resume at the next
// chunk header.
func TestReadUnknownChunkIsSkipped(t *testing.T) {
	var data []byte
	data = append(data, 'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06)
	data = append(data, 0x00, 0x00, 0x00, 0x01, 0x00, 0x60)
	data = append(data, 'X', 'X', 'X', 'X', 0x00, 0x00, 0x00, 0x04)
	data = append(data, 0xde, 0xad, 0xbe, 0xef)
	data = append(data, 'M', 'T', 'r', 'k', 0x00, 0x00, 0x00, 0x04)
	data = append(data, 0x00, 0xff, 0x2f, 0x00)

	s := newReadSessionFromBytes(data)
	s.FileBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	if err := readSession(s, h); err != nil {
		t.Logf("readSession failed: %s\n", err)
		t.FailNow()
	}
	if len(h.unknownChunks) != 1 || !CompareID(h.unknownChunks[0], "XXXX") {
		t.Logf("expected one unknown chunk XXXX, got %+v\n", h.unknownChunks)
		t.FailNow()
	}
	if h.tracksStarted != 1 || h.eotCount != 1 {
		t.Logf("expected the MTrk after the unknown chunk to still decode, got tracksStarted=%d eotCount=%d\n",
			h.tracksStarted, h.eotCount)
		t.FailNow()
	}
}

// TestDecodeSysexEscapeWithoutPriorSysex exercises an 0xF7 "escape" event
// that was never preceded by an 0xF0 -- distinguished from a continuation
// only by Session.Flags&FlagSysex being clear.
func TestDecodeSysexEscapeWithoutPriorSysex(t *testing.T) {
	data := []byte{
		0x00, 0xf7, 0x02, 0xaa, 0xbb,
		0x00, 0xff, 0x2f, 0x00,
	}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	if err := decodeTrack(s, h); err != nil {
		t.Logf("decodeTrack failed: %s\n", err)
		t.FailNow()
	}
	if s.Flags&FlagSysex != 0 {
		t.Logf("FlagSysex should remain clear for a bare escape event\n")
		t.FailNow()
	}
	if len(h.sysexEvents) != 2 || h.sysexEvents[0] != 0xaa || h.sysexEvents[1] != 0xbb {
		t.Logf("unexpected escape event payload: %v\n", h.sysexEvents)
		t.FailNow()
	}
}

// minimalFileWriteHandlers emits spec.md §8 boundary scenario 1: a format-0
// file with one MTrk holding only an End Of Track at delta 0.
type minimalFileWriteHandlers struct{}

func (minimalFileWriteHandlers) StartHeader(s *Session) error {
	s.Format, s.NumTracks, s.Division = 0, 1, 0x60
	return nil
}
func (minimalFileWriteHandlers) StartTrack(s *Session) (TrackWriteMode, error) {
	return TrackModeEvents, nil
}
func (minimalFileWriteHandlers) WriteTrackEvents(s *Session) error { return nil }
func (minimalFileWriteHandlers) WriteRawTrack(s *Session) error    { return nil }
func (minimalFileWriteHandlers) UnknownChunks(s *Session) error    { return nil }
func (minimalFileWriteHandlers) MetaText(s *Session) error         { return nil }
func (minimalFileWriteHandlers) SysexEvent(s *Session) error       { return nil }

// TestWriteMinimalFormat0File exercises boundary scenario 1: encoding an
// empty format-0/1-track/PPQN-96 file (just an auto-appended EOT) must
// reproduce the spec's bit-exact bytes.
func TestWriteMinimalFormat0File(t *testing.T) {
	want := []byte{
		'M', 'T', 'h', 'd', 0x00, 0x00, 0x00, 0x06,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x60,
		'M', 'T', 'r', 'k', 0x00, 0x00, 0x00, 0x04,
		0x00, 0xff, 0x2f, 0x00,
	}
	s, mh := newWriteSessionToMemory()
	if err := writeSession(s, minimalFileWriteHandlers{}); err != nil {
		t.Logf("writeSession failed: %s\n", err)
		t.FailNow()
	}
	if !bytes.Equal(mh.buf, want) {
		t.Logf("bytes mismatch:\n  got  %x\n  want %x\n", mh.buf, want)
		t.FailNow()
	}
}

// bpmTempoWriteHandlers emits spec.md §8 boundary scenario 3: a single tempo
// event supplied as BPM=120 with FlagBPM set.
type bpmTempoWriteHandlers struct{}

func (bpmTempoWriteHandlers) StartHeader(s *Session) error {
	s.Format, s.NumTracks, s.Division = 0, 1, 0x60
	return nil
}
func (bpmTempoWriteHandlers) StartTrack(s *Session) (TrackWriteMode, error) {
	return TrackModeEvents, nil
}
func (bpmTempoWriteHandlers) WriteTrackEvents(s *Session) error {
	return s.WriteTempo(0, Tempo{BPM: 120})
}
func (bpmTempoWriteHandlers) WriteRawTrack(s *Session) error { return nil }
func (bpmTempoWriteHandlers) UnknownChunks(s *Session) error { return nil }
func (bpmTempoWriteHandlers) MetaText(s *Session) error      { return nil }
func (bpmTempoWriteHandlers) SysexEvent(s *Session) error    { return nil }

// TestWriteTempoFromBPM exercises boundary scenario 3: with FlagBPM set, the
// engine must convert BPM=120 to 500000 microseconds/quarter and emit
// FF 51 03 07 A1 20.
func TestWriteTempoFromBPM(t *testing.T) {
	s, mh := newWriteSessionToMemory()
	s.Flags |= FlagBPM
	if err := writeSession(s, bpmTempoWriteHandlers{}); err != nil {
		t.Logf("writeSession failed: %s\n", err)
		t.FailNow()
	}
	wantTempoPayload := []byte{0x00, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20}
	if !bytes.Contains(mh.buf, wantTempoPayload) {
		t.Logf("expected tempo bytes %x in output, got %x\n", wantTempoPayload, mh.buf)
		t.FailNow()
	}
}

// timeSigDenomWriteHandlers emits spec.md §8 boundary scenario 4: a time
// signature supplied with the actual denominator value (8), requiring
// FlagDenom on write to convert it back to the power-of-two exponent (3).
type timeSigDenomWriteHandlers struct{}

func (timeSigDenomWriteHandlers) StartHeader(s *Session) error {
	s.Format, s.NumTracks, s.Division = 0, 1, 0x60
	return nil
}
func (timeSigDenomWriteHandlers) StartTrack(s *Session) (TrackWriteMode, error) {
	return TrackModeEvents, nil
}
func (timeSigDenomWriteHandlers) WriteTrackEvents(s *Session) error {
	return s.WriteTimeSignature(0, TimeSignature{
		Numerator:              6,
		Denominator:            8,
		ClocksPerMetronomeTick: 24,
		Notated32ndsPerQuarter: 8,
	})
}
func (timeSigDenomWriteHandlers) WriteRawTrack(s *Session) error { return nil }
func (timeSigDenomWriteHandlers) UnknownChunks(s *Session) error { return nil }
func (timeSigDenomWriteHandlers) MetaText(s *Session) error      { return nil }
func (timeSigDenomWriteHandlers) SysexEvent(s *Session) error    { return nil }

func TestWriteTimeSigWithDenomFlag(t *testing.T) {
	s, mh := newWriteSessionToMemory()
	s.Flags |= FlagDenom
	if err := writeSession(s, timeSigDenomWriteHandlers{}); err != nil {
		t.Logf("writeSession failed: %s\n", err)
		t.FailNow()
	}
	want := []byte{0x00, 0xff, 0x58, 0x04, 0x06, 0x03, 0x18, 0x08}
	if !bytes.Contains(mh.buf, want) {
		t.Logf("expected time-sig bytes %x in output, got %x\n", want, mh.buf)
		t.FailNow()
	}
}
