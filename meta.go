package smf

import "encoding/binary"

// Meta event type bytes, per spec §6.2.
const (
	metaSeqNum    = 0x00
	metaText      = 0x01 // through 0x0f: all FF 0x01-0x0F are text variants
	metaChanPfx   = 0x20
	metaEOT       = 0x2f
	metaTempo     = 0x51
	metaSMPTE     = 0x54
	metaTimeSig   = 0x58
	metaKeySig    = 0x59
	metaSeqSpec   = 0x7f
	metaTextFirst = 0x01
	metaTextLast  = 0x0f
)

// decodeMeta reads a meta-event's type and length, dispatches fixed-layout
// meta types (sequence number, tempo, SMPTE offset, time signature, key
// signature, end-of-track) to their typed ReadHandlers methods, and routes
// every other meta type -- including the FF 01-0F text family, channel
// prefix, and sequencer-specific data -- through MetaText as an opaque
// byte-counted blob. It reports whether the track is finished (EOT seen).
func decodeMeta(s *Session, h ReadHandlers) (bool, error) {
	s.RunStatus = 0

	var typeByte [1]byte
	if err := s.ReadBytes(typeByte[:]); err != nil {
		return false, err
	}
	s.Data[0] = typeByte[0]

	length, err := s.ReadVLQ()
	if err != nil {
		return false, err
	}

	switch typeByte[0] {
	case metaSeqNum:
		if length != 2 {
			return false, wrapErr(ErrMalformed, errorf(
				"sequence number meta-event has length %d, want 2", length))
		}
		var payload [2]byte
		if err := s.ReadBytes(payload[:]); err != nil {
			return false, err
		}
		return false, h.MetaSeqNum(s, binary.BigEndian.Uint16(payload[:]))

	case metaTempo:
		if length != 3 {
			return false, wrapErr(ErrMalformed, errorf(
				"tempo meta-event has length %d, want 3", length))
		}
		var payload [3]byte
		if err := s.ReadBytes(payload[:]); err != nil {
			return false, err
		}
		microsPerQuarter := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
		tempo := Tempo{MicrosPerQuarter: microsPerQuarter}
		if s.Flags&FlagBPM != 0 {
			tempo.BPM = tempo.computeBPM()
		}
		return false, h.MetaTempo(s, tempo)

	case metaSMPTE:
		if length != 5 {
			return false, wrapErr(ErrMalformed, errorf(
				"SMPTE offset meta-event has length %d, want 5", length))
		}
		var payload [5]byte
		if err := s.ReadBytes(payload[:]); err != nil {
			return false, err
		}
		offset := SMPTEOffset{
			Hours:            payload[0],
			Minutes:          payload[1],
			Seconds:          payload[2],
			Frames:           payload[3],
			FractionalFrames: payload[4],
		}
		return false, h.MetaSMPTE(s, offset)

	case metaTimeSig:
		if length != 4 {
			return false, wrapErr(ErrMalformed, errorf(
				"time signature meta-event has length %d, want 4", length))
		}
		var payload [4]byte
		if err := s.ReadBytes(payload[:]); err != nil {
			return false, err
		}
		sig := TimeSignature{
			Numerator:              payload[0],
			Denominator:            payload[1],
			ClocksPerMetronomeTick: payload[2],
			Notated32ndsPerQuarter: payload[3],
		}
		if s.Flags&FlagDenom != 0 {
			sig.Denominator = uint8(sig.Value())
		}
		return false, h.MetaTimeSig(s, sig)

	case metaKeySig:
		if length != 2 {
			return false, wrapErr(ErrMalformed, errorf(
				"key signature meta-event has length %d, want 2", length))
		}
		var payload [2]byte
		if err := s.ReadBytes(payload[:]); err != nil {
			return false, err
		}
		sig := KeySignature{
			SharpsOrFlats: int8(payload[0]),
			Minor:         payload[1] != 0,
		}
		return false, h.MetaKeySig(s, sig)

	case metaEOT:
		if length != 0 {
			return false, wrapErr(ErrMalformed, errorf(
				"end-of-track meta-event has length %d, want 0", length))
		}
		if err := h.MetaEOT(s); err != nil {
			return false, err
		}
		return true, nil

	default:
		s.EventSize = length
		if err := h.MetaText(s); err != nil {
			return false, err
		}
		return false, s.SkipEvent()
	}
}

// computeBPM converts microseconds-per-quarter-note into the conventional
// beats-per-minute figure, rounded to the nearest whole number (spec §9 Open
// Question 2, resolved in DESIGN.md: tempos whose rounded BPM exceeds 255,
// i.e. fewer than about 234834 microseconds/quarter, deliver the 0 sentinel
// instead of a BPM value).
func (t Tempo) computeBPM() uint8 {
	if t.MicrosPerQuarter == 0 {
		return 0
	}
	bpm := 60000000.0/float64(t.MicrosPerQuarter) + 0.5
	if bpm >= 256 {
		return 0
	}
	return uint8(bpm)
}
