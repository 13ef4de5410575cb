package smf

// channelVoiceArity gives the number of data bytes (1 or 2) that follow a
// channel-voice status nibble (0x80-0xE0, channel masked off).
var channelVoiceArity = map[byte]int{
	0x80: 2, // Note off
	0x90: 2, // Note on
	0xa0: 2, // Polyphonic aftertouch
	0xb0: 2, // Control change / channel mode
	0xc0: 1, // Program change
	0xd0: 1, // Channel pressure (monophonic aftertouch)
	0xe0: 2, // Pitch bend
}

// systemCommonArity gives the number of data bytes for the system
// common/realtime statuses spec.md §6.1 lists by known arity. Cross-checked
// against somesmallstudio-go-midi-rtp/midi/midi.go's commandsInfos table.
var systemCommonArity = map[byte]int{
	0xf1: 1, // MTC quarter frame
	0xf2: 2, // Song position pointer
	0xf3: 1, // Song select
	0xf6: 0, // Tune request
	0xf8: 0, // Timing clock
	0xfa: 0, // Start
	0xfb: 0, // Continue
	0xfc: 0, // Stop
	0xfe: 0, // Active sensing
}

// decodeTrack runs the per-MTrk decode loop of spec §4.5 until the chunk's
// byte budget is exhausted or an End Of Track meta-event is consumed.
func decodeTrack(s *Session, h ReadHandlers) error {
	for s.ChunkBytesRemaining > 0 {
		delta, err := s.ReadVLQ()
		if err != nil {
			return err
		}
		absTime := s.PrevTime + delta
		if s.Flags&FlagDelta != 0 {
			s.Time = delta
		} else {
			s.Time = absTime
		}

		var first [1]byte
		if err := s.ReadBytes(first[:]); err != nil {
			return err
		}

		var status byte
		if first[0]&0x80 != 0 {
			status = first[0]
		} else {
			if s.RunStatus == 0 {
				return wrapErr(ErrRunningStatus, errorf(
					"running status byte 0x%02x used before any status was latched", first[0]))
			}
			status = s.RunStatus
		}
		s.Status = status

		done, err := decodeEvent(s, h, first[0], status)
		if err != nil {
			return err
		}
		s.PrevTime = absTime
		if done {
			break
		}
	}
	return nil
}

// decodeEvent decodes and dispatches a single event. firstByte is the byte
// already consumed while resolving status; for a running-status event it is
// the first data byte, otherwise it equals status.
func decodeEvent(s *Session, h ReadHandlers, firstByte, status byte) (bool, error) {
	switch {
	case status >= 0x80 && status <= 0xef:
		s.Flags &^= FlagSysex
		return false, decodeChannelVoice(s, h, firstByte, status)
	case status == 0xf0:
		s.Flags |= FlagSysex
		s.RunStatus = 0
		return false, decodeSysex(s, h)
	case status == 0xf7:
		s.RunStatus = 0
		return false, decodeSysex(s, h)
	case status == 0xff:
		return decodeMeta(s, h)
	default:
		if arity, ok := systemCommonArity[status]; ok {
			if status < 0xf8 {
				s.Flags &^= FlagSysex
			}
			return false, decodeSystemCommon(s, h, status, arity)
		}
		return false, wrapErr(ErrUnknownEvent, errorf("unknown status byte 0x%02x", status))
	}
}

func decodeChannelVoice(s *Session, h ReadHandlers, firstByte, status byte) error {
	arity, ok := channelVoiceArity[status&0xf0]
	if !ok {
		return wrapErr(ErrUnknownEvent, errorf("unknown channel voice status 0x%02x", status))
	}
	s.RunStatus = status
	if firstByte == status {
		// A fresh status byte was consumed; both data bytes are still
		// unread.
		var data [2]byte
		if err := s.ReadBytes(data[:arity]); err != nil {
			return err
		}
		s.Data[0] = data[0]
		if arity == 2 {
			s.Data[1] = data[1]
		} else {
			s.Data[1] = DataByteAbsent
		}
	} else {
		// Running status: firstByte was already the first data byte.
		s.Data[0] = firstByte
		if arity == 2 {
			var b [1]byte
			if err := s.ReadBytes(b[:]); err != nil {
				return err
			}
			s.Data[1] = b[0]
		} else {
			s.Data[1] = DataByteAbsent
		}
	}
	return h.StandardEvent(s)
}

func decodeSystemCommon(s *Session, h ReadHandlers, status byte, arity int) error {
	if status >= 0xf8 {
		if s.Flags&FlagRealtime == 0 {
			s.RunStatus = 0
		}
	} else {
		s.RunStatus = 0
	}
	if arity > 0 {
		var data [2]byte
		if err := s.ReadBytes(data[:arity]); err != nil {
			return err
		}
		s.Data[0] = data[0]
		if arity == 2 {
			s.Data[1] = data[1]
		} else {
			s.Data[1] = DataByteAbsent
		}
	}
	return h.StandardEvent(s)
}

func decodeSysex(s *Session, h ReadHandlers) error {
	length, err := s.ReadVLQ()
	if err != nil {
		return err
	}
	s.EventSize = length
	if err := h.SysexEvent(s); err != nil {
		return err
	}
	return s.SkipEvent()
}
