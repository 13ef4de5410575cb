package smf

import "testing"

func TestDecodeTrackRunningStatus(t *testing.T) {
	data := []byte{
		0x00, 0x90, 0x40, 0x60, // delta 0, note on ch0 40 60
		0x0a, 0x40, 0x00, // delta 10, running status note on 40 00 (note off)
		0x00, 0xff, 0x2f, 0x00, // delta 0, end of track
	}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	if err := decodeTrack(s, h); err != nil {
		t.Logf("decodeTrack failed: %s\n", err)
		t.FailNow()
	}
	if len(h.standardEvents) != 2 {
		t.Logf("wanted 2 standard events, got %d\n", len(h.standardEvents))
		t.FailNow()
	}
	first := h.standardEvents[0]
	if first.Time != 0 || first.Status != 0x90 || first.Data0 != 0x40 || first.Data1 != 0x60 {
		t.Logf("unexpected first event: %+v\n", first)
		t.FailNow()
	}
	second := h.standardEvents[1]
	if second.Time != 10 || second.Status != 0x90 || second.Data0 != 0x40 || second.Data1 != 0x00 {
		t.Logf("unexpected second event (running status didn't resolve): %+v\n", second)
		t.FailNow()
	}
	if h.eotCount != 1 {
		t.Logf("wanted 1 end-of-track callback, got %d\n", h.eotCount)
		t.FailNow()
	}
}

func TestDecodeTrackRunningStatusWithoutPriorStatus(t *testing.T) {
	data := []byte{0x00, 0x40, 0x00}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	err := decodeTrack(s, h)
	if err == nil {
		t.Logf("expected an error for running status before any status byte\n")
		t.FailNow()
	}
	var smfErr *Error
	if !errorsAs(err, &smfErr) || smfErr.Code != ErrRunningStatus {
		t.Logf("expected ErrRunningStatus, got %v\n", err)
		t.FailNow()
	}
}

func TestDecodeSysexContinuation(t *testing.T) {
	data := []byte{
		0x00, 0xf0, 0x03, 0x01, 0x02, 0x03, // sysex start, 3 bytes
		0x00, 0xf7, 0x02, 0x04, 0x05, // continuation, 2 bytes
		0x00, 0xff, 0x2f, 0x00,
	}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	if err := decodeTrack(s, h); err != nil {
		t.Logf("decodeTrack failed: %s\n", err)
		t.FailNow()
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	if string(h.sysexEvents) != string(want) {
		t.Logf("wanted sysex bytes %v, got %v\n", want, h.sysexEvents)
		t.FailNow()
	}
}

func TestDecodeMetaFixedLengthMismatch(t *testing.T) {
	// Tempo meta-event claims length 2 instead of the required 3.
	data := []byte{0x00, 0xff, 0x51, 0x02, 0x00, 0x00}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	err := decodeTrack(s, h)
	if err == nil {
		t.Logf("expected an error for a malformed tempo meta-event length\n")
		t.FailNow()
	}
	var smfErr *Error
	if !errorsAs(err, &smfErr) || smfErr.Code != ErrMalformed {
		t.Logf("expected ErrMalformed, got %v\n", err)
		t.FailNow()
	}
}

// TestDecodeConsecutiveSysexEventsAfterFullDrain guards against EventSize
// going stale once a SysexEvent callback has fully consumed the payload via
// ReadBytes: if decodeSysex's trailing SkipEvent re-skips already-read
// bytes, the next event's own delta/status bytes get eaten and decoding
// desyncs or errors out.
func TestDecodeConsecutiveSysexEventsAfterFullDrain(t *testing.T) {
	data := []byte{
		0x00, 0xf0, 0x02, 0x01, 0x02, // sysex #1: 2 bytes
		0x00, 0xf0, 0x02, 0x03, 0x04, // sysex #2: 2 bytes
		0x00, 0xff, 0x2f, 0x00, // end of track
	}
	s := newReadSessionFromBytes(data)
	s.ChunkBytesRemaining = int64(len(data))
	h := &recordingReadHandlers{}

	if err := decodeTrack(s, h); err != nil {
		t.Logf("decodeTrack failed: %s\n", err)
		t.FailNow()
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if string(h.sysexEvents) != string(want) {
		t.Logf("wanted sysex bytes %v, got %v\n", want, h.sysexEvents)
		t.FailNow()
	}
	if h.eotCount != 1 {
		t.Logf("wanted 1 end-of-track callback, got %d\n", h.eotCount)
		t.FailNow()
	}
}

// errorsAs is a tiny local wrapper so tests don't need to import "errors"
// just for this one call.
func errorsAs(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
