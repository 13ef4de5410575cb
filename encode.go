package smf

import "encoding/binary"

// writeDeltaTime emits the VLQ delta-time preceding every event. tick
// carries the same meaning Session.Time would hold for the equivalent event
// on a read (spec §6.4): a raw delta from the previous event if FlagDelta is
// set, an absolute tick otherwise. The wire format always stores a delta
// regardless of FlagDelta, so in absolute mode PrevTime doubles as the
// running accumulator needed to compute it.
func (s *Session) writeDeltaTime(tick uint32) error {
	var delta uint32
	if s.Flags&FlagDelta != 0 {
		delta = tick
	} else {
		if tick < s.PrevTime {
			return wrapErr(ErrMalformed, errorf(
				"event tick %d precedes previous event tick %d", tick, s.PrevTime))
		}
		delta = tick - s.PrevTime
	}
	if err := s.WriteVLQ(delta); err != nil {
		return err
	}
	s.Time = tick
	s.PrevTime += delta
	return nil
}

// WriteStandardEvent emits a channel-voice or system common/realtime event
// at the given tick, using running status to elide the status byte when it
// matches the previous channel-voice status (spec §4.6). data2 is ignored
// for 1-data-byte events; pass DataByteAbsent if there is no second byte.
func (s *Session) WriteStandardEvent(tick uint32, status, data1, data2 byte) error {
	if err := s.writeDeltaTime(tick); err != nil {
		return err
	}

	if status >= 0x80 && status <= 0xef {
		arity, ok := channelVoiceArity[status&0xf0]
		if !ok {
			return wrapErr(ErrUnknownEvent, errorf("unknown channel voice status 0x%02x", status))
		}
		s.Flags &^= FlagSysex
		if status != s.RunStatus {
			if err := s.WriteBytes([]byte{status}); err != nil {
				return err
			}
			s.RunStatus = status
		}
		if err := s.WriteBytes([]byte{data1}); err != nil {
			return err
		}
		if arity == 2 {
			if err := s.WriteBytes([]byte{data2}); err != nil {
				return err
			}
		}
		s.Status = status
		return nil
	}

	arity, ok := systemCommonArity[status]
	if !ok {
		return wrapErr(ErrUnknownEvent, errorf("unknown status byte 0x%02x", status))
	}
	if status >= 0xf8 {
		if s.Flags&FlagRealtime == 0 {
			s.RunStatus = 0
		}
	} else {
		s.RunStatus = 0
		s.Flags &^= FlagSysex
	}
	buf := make([]byte, 1+arity)
	buf[0] = status
	if arity > 0 {
		buf[1] = data1
	}
	if arity > 1 {
		buf[2] = data2
	}
	if err := s.WriteBytes(buf); err != nil {
		return err
	}
	s.Status = status
	return nil
}

// writeMetaHeader emits the 0xFF status, the meta type byte, and the VLQ
// payload length common to every meta-event.
func (s *Session) writeMetaHeader(tick uint32, metaType byte, length uint32) error {
	if err := s.writeDeltaTime(tick); err != nil {
		return err
	}
	s.RunStatus = 0
	s.Status = 0xff
	if err := s.WriteBytes([]byte{0xff, metaType}); err != nil {
		return err
	}
	return s.WriteVLQ(length)
}

// WriteSequenceNumber emits a Sequence Number meta-event (type 0x00). If
// trackName is non-nil, a Track Name meta-event (type 0x03) carrying it is
// emitted immediately afterward at the same tick, per original_source/
// MIDIFILE.H's sequence-number/track-name write convenience (SPEC_FULL.md
// supplemental feature C.1).
func (s *Session) WriteSequenceNumber(tick uint32, seq uint16, trackName *string) error {
	if err := s.writeMetaHeader(tick, metaSeqNum, 2); err != nil {
		return err
	}
	var payload [2]byte
	binary.BigEndian.PutUint16(payload[:], seq)
	if err := s.WriteBytes(payload[:]); err != nil {
		return err
	}
	if trackName != nil {
		return s.WriteMetaText(tick, 0x03, []byte(*trackName), nil)
	}
	return nil
}

// WriteTempo emits a Set Tempo meta-event (type 0x51). If FlagBPM is set and
// tempo.BPM is nonzero, the engine converts BPM to microseconds/quarter
// (spec §4.6 step 5) and that takes precedence over tempo.MicrosPerQuarter;
// otherwise MicrosPerQuarter is written as given, since the wire format only
// ever stores microseconds per quarter note.
func (s *Session) WriteTempo(tick uint32, tempo Tempo) error {
	micros := tempo.MicrosPerQuarter
	if s.Flags&FlagBPM != 0 && tempo.BPM != 0 {
		micros = uint32(60000000/uint64(tempo.BPM) + 0)
	}
	if micros > 0xffffff {
		return wrapErr(ErrMalformed, errorf(
			"tempo %d microseconds/quarter overflows the 24-bit field", micros))
	}
	if err := s.writeMetaHeader(tick, metaTempo, 3); err != nil {
		return err
	}
	payload := []byte{
		byte(micros >> 16),
		byte(micros >> 8),
		byte(micros),
	}
	return s.WriteBytes(payload)
}

// WriteSMPTEOffset emits an SMPTE Offset meta-event (type 0x54).
func (s *Session) WriteSMPTEOffset(tick uint32, offset SMPTEOffset) error {
	if err := s.writeMetaHeader(tick, metaSMPTE, 5); err != nil {
		return err
	}
	payload := []byte{offset.Hours, offset.Minutes, offset.Seconds, offset.Frames, offset.FractionalFrames}
	return s.WriteBytes(payload)
}

// WriteTimeSignature emits a Time Signature meta-event (type 0x58). If
// FlagDenom is set, sig.Denominator is treated as the real value (4 for 4/4)
// and converted back to the file's power-of-two exponent; otherwise it is
// written as given.
func (s *Session) WriteTimeSignature(tick uint32, sig TimeSignature) error {
	denom := sig.Denominator
	if s.Flags&FlagDenom != 0 {
		exp, err := log2Exact(sig.Denominator)
		if err != nil {
			return err
		}
		denom = exp
	}
	if err := s.writeMetaHeader(tick, metaTimeSig, 4); err != nil {
		return err
	}
	payload := []byte{sig.Numerator, denom, sig.ClocksPerMetronomeTick, sig.Notated32ndsPerQuarter}
	return s.WriteBytes(payload)
}

// log2Exact returns the base-2 exponent of v, or an error if v isn't a power
// of two representable as a time-signature denominator.
func log2Exact(v uint8) (uint8, error) {
	if v == 0 {
		return 0, wrapErr(ErrMalformed, errorf("time signature denominator must be nonzero"))
	}
	var exp uint8
	for n := v; n != 1; n >>= 1 {
		if n&1 != 0 {
			return 0, wrapErr(ErrMalformed, errorf("time signature denominator %d is not a power of two", v))
		}
		exp++
	}
	return exp, nil
}

// WriteKeySignature emits a Key Signature meta-event (type 0x59).
func (s *Session) WriteKeySignature(tick uint32, sig KeySignature) error {
	if err := s.writeMetaHeader(tick, metaKeySig, 2); err != nil {
		return err
	}
	minor := byte(0)
	if sig.Minor {
		minor = 1
	}
	return s.WriteBytes([]byte{byte(sig.SharpsOrFlats), minor})
}

// WriteMetaText emits a variable-length meta-event of the given type (e.g.
// 0x03 for a track name, 0x7F for sequencer-specific data). If payload is
// non-nil its bytes are written directly; otherwise EventSize must already
// be set on the Session and WriteHandlers.MetaText is invoked to stream the
// bytes via WriteBytes, mirroring the read-side duality documented on
// ReadHandlers.MetaText.
func (s *Session) WriteMetaText(tick uint32, metaType byte, payload []byte, h WriteHandlers) error {
	length := uint32(len(payload))
	if payload == nil {
		length = s.EventSize
	}
	if err := s.writeMetaHeader(tick, metaType, length); err != nil {
		return err
	}
	if payload != nil {
		return s.WriteBytes(payload)
	}
	s.EventSize = length
	return h.MetaText(s)
}

// WriteEndOfTrack emits the End Of Track meta-event (type 0x2F). The engine
// calls this automatically at the end of WriteTrackEvents if the host didn't
// write one itself (spec §4.6).
func (s *Session) WriteEndOfTrack(tick uint32) error {
	if err := s.writeMetaHeader(tick, metaEOT, 0); err != nil {
		return err
	}
	s.wroteEOT = true
	return nil
}

// WriteSysex emits a SysEx (status 0xF0) or continuation/escape (status
// 0xF7) event. If payload is non-nil its bytes are written directly;
// otherwise EventSize must already be set and WriteHandlers.SysexEvent is
// invoked to stream the bytes, mirroring ReadHandlers.SysexEvent.
func (s *Session) WriteSysex(tick uint32, status byte, payload []byte, h WriteHandlers) error {
	if status != 0xf0 && status != 0xf7 {
		return wrapErr(ErrUnknownEvent, errorf("WriteSysex status must be 0xF0 or 0xF7, got 0x%02x", status))
	}
	if err := s.writeDeltaTime(tick); err != nil {
		return err
	}
	if status == 0xf0 {
		s.Flags |= FlagSysex
	}
	s.RunStatus = 0
	s.Status = status
	if err := s.WriteBytes([]byte{status}); err != nil {
		return err
	}
	length := uint32(len(payload))
	if payload == nil {
		length = s.EventSize
	}
	if err := s.WriteVLQ(length); err != nil {
		return err
	}
	if payload != nil {
		return s.WriteBytes(payload)
	}
	s.EventSize = length
	return h.SysexEvent(s)
}
