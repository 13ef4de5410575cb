package smf

// Write drives an entire SMF write operation against target, pulling chunk
// and event content from h (spec §4.6). flags controls engine/convenience
// behavior; FlagWrite is set unconditionally regardless of what the caller
// passes. bufferTracks selects the non-seekable-writer MTrk fallback (spec
// §4.6/§9); pass false when io supports backward Seek.
//
// Write owns the handle it opens via io and always closes it, whether it
// returns successfully or with an error (spec §5).
func Write(target string, io IOCapability, flags Flags, bufferTracks bool, h WriteHandlers) error {
	if io == nil {
		io = NewFileIO()
	}
	s := newSession(ModeWriting, io)
	s.Flags = flags | FlagWrite
	s.BufferTracks = bufferTracks

	if err := s.open(target, ModeWrite); err != nil {
		return err
	}
	defer s.closeOwned()

	return writeSession(s, h)
}

// WriteSession drives a write using a Session the caller has already
// attached to a live handle. The caller remains responsible for closing it.
func WriteSession(s *Session, h WriteHandlers) error {
	s.Mode = ModeWriting
	s.Flags |= FlagWrite
	return writeSession(s, h)
}

func writeSession(s *Session, h WriteHandlers) error {
	if err := h.StartHeader(s); err != nil {
		return err
	}
	if err := s.writeHeader(); err != nil {
		return err
	}

	for s.TrackNum = 0; s.TrackNum < int(s.NumTracks); s.TrackNum++ {
		s.PrevTime = 0
		s.Time = 0
		s.RunStatus = 0
		s.wroteEOT = false

		mode, err := h.StartTrack(s)
		if err != nil {
			return err
		}

		switch mode {
		case TrackModeEvents:
			if err := s.WriteHeader([4]byte{'M', 'T', 'r', 'k'}); err != nil {
				return err
			}
			if err := h.WriteTrackEvents(s); err != nil {
				return err
			}
			if !s.wroteEOT {
				// Append immediately after the last event (zero delta).
				tick := s.PrevTime
				if s.Flags&FlagDelta != 0 {
					tick = 0
				}
				if err := s.WriteEndOfTrack(tick); err != nil {
					return err
				}
			}
			if err := s.CloseChunk(); err != nil {
				return err
			}
		case TrackModePreformatted:
			if err := h.WriteRawTrack(s); err != nil {
				return err
			}
		default:
			return wrapErr(ErrUnknownEvent, errorf("host returned unknown TrackWriteMode %d", mode))
		}
	}

	return h.UnknownChunks(s)
}
