package smf

import "encoding/binary"

// readHeader parses an MThd payload (6 bytes: format, track count,
// division, all big-endian u16), assuming Session.ChunkID/ChunkBytesRemaining
// were just set by readChunkHeader for an "MThd" chunk.
func (s *Session) readHeader() error {
	var payload [6]byte
	if err := s.ReadBytes(payload[:]); err != nil {
		return err
	}
	s.Format = binary.BigEndian.Uint16(payload[0:2])
	s.NumTracks = binary.BigEndian.Uint16(payload[2:4])
	s.Division = binary.BigEndian.Uint16(payload[4:6])
	return nil
}

// writeHeader emits the MThd chunk from Session.Format/NumTracks/Division,
// which the host must have set in WriteHandlers.StartHeader. The MThd
// length is always 6, so it is written directly rather than back-patched,
// and no Seek is needed.
func (s *Session) writeHeader() error {
	s.ChunkID = [4]byte{'M', 'T', 'h', 'd'}
	var chunk [14]byte
	copy(chunk[0:4], s.ChunkID[:])
	binary.BigEndian.PutUint32(chunk[4:8], 6)
	binary.BigEndian.PutUint16(chunk[8:10], s.Format)
	binary.BigEndian.PutUint16(chunk[10:12], s.NumTracks)
	binary.BigEndian.PutUint16(chunk[12:14], s.Division)
	return s.writeRawBytes(chunk[:])
}

// DivisionTicksPerQuarterNote returns the PPQN resolution encoded in
// division, or 0 if division instead specifies SMPTE frames/ticks.
func DivisionTicksPerQuarterNote(division uint16) uint16 {
	if division&0x8000 != 0 {
		return 0
	}
	return division
}

// DivisionSMPTE returns the SMPTE frame rate (as a positive number of
// frames per second) and ticks-per-frame encoded in division, or 0, 0 if
// division instead specifies PPQN.
func DivisionSMPTE(division uint16) (framesPerSecond, ticksPerFrame uint8) {
	if division&0x8000 == 0 {
		return 0, 0
	}
	framesPerSecond = uint8(-int8(division >> 8))
	ticksPerFrame = uint8(division & 0xff)
	return framesPerSecond, ticksPerFrame
}
